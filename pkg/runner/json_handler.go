package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/quotes"
)

// Event is one line of JSONHandler output.
type Event struct {
	domain.EventBase
	Step     int              `json:"step"`
	Article  *domain.Article  `json:"article,omitempty"`
	Target   string           `json:"target,omitempty"`
	MaxSteps int              `json:"max_steps,omitempty"`
	Outcome  domain.Outcome   `json:"outcome,omitempty"`
	Path     []domain.Article `json:"path,omitempty"`
	Quote    *quotes.Quote    `json:"quote,omitempty"`
}

// JSONHandler writes the journey as JSON-Lines events.
type JSONHandler struct {
	Encoder *json.Encoder
	Quotes  QuoteSource

	now func() time.Time
}

// NewJSONHandler creates a handler writing to w.
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Encoder: json.NewEncoder(w),
		Quotes:  quotes.Random,
		now:     time.Now,
	}
}

func (h *JSONHandler) Begin(ctx context.Context, start Start) error {
	article := start.Article
	return h.Encoder.Encode(Event{
		EventBase: h.base(domain.EventJourneyStart),
		Article:   &article,
		Target:    start.Target,
		MaxSteps:  start.MaxSteps,
	})
}

func (h *JSONHandler) Step(ctx context.Context, step int, article domain.Article) error {
	return h.Encoder.Encode(Event{
		EventBase: h.base(domain.EventJourneyStep),
		Step:      step,
		Article:   &article,
	})
}

func (h *JSONHandler) Finish(ctx context.Context, state domain.JourneyState) error {
	ev := Event{
		EventBase: h.base(domain.EventJourneyFinish),
		Step:      state.Steps(),
		Outcome:   state.Outcome,
		Path:      state.Path,
	}
	if state.Outcome == domain.OutcomeSuccess && h.Quotes != nil {
		q := h.Quotes()
		ev.Quote = &q
	}
	return h.Encoder.Encode(ev)
}

func (h *JSONHandler) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: h.now().UTC(), Type: t}
}
