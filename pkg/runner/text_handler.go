package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/quotes"
)

// TextHandler prints a numbered trail and a markdown summary.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer
	Quotes   QuoteSource
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithTextHandlerQuotes configures the quote shown on success.
func WithTextHandlerQuotes(source QuoteSource) TextHandlerOption {
	return func(h *TextHandler) {
		h.Quotes = source
	}
}

// NewTextHandler creates a handler writing to w.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		Quotes: quotes.Random,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Begin(ctx context.Context, start Start) error {
	if err := h.render(fmt.Sprintf("From **%s** to **%s** (at most %d steps)",
		start.Article.Title, start.Target, start.MaxSteps)); err != nil {
		return err
	}
	return h.Step(ctx, 0, start.Article)
}

func (h *TextHandler) Step(ctx context.Context, step int, article domain.Article) error {
	_, err := fmt.Fprintf(h.Writer, "%3d. %s\n", step, article.Title)
	return err
}

func (h *TextHandler) Finish(ctx context.Context, state domain.JourneyState) error {
	last, _ := state.Current()
	var b strings.Builder
	switch state.Outcome {
	case domain.OutcomeSuccess:
		fmt.Fprintf(&b, "Reached **%s** in %s.", last.Title, plural(state.Steps(), "step"))
		if h.Quotes != nil {
			q := h.Quotes()
			fmt.Fprintf(&b, "\n\n> %s\n>\n> *%s*", q.Text, q.Author)
		}
	case domain.OutcomeCycle:
		fmt.Fprintf(&b, "Loop detected after **%s**: its first link was already visited.", last.Title)
	case domain.OutcomeDeadEnd:
		fmt.Fprintf(&b, "Dead end at **%s** after %s.", last.Title, plural(state.Steps(), "step"))
	case domain.OutcomeError:
		fmt.Fprintf(&b, "Could not fetch **%s**. The journey stopped after %s.", last.Title, plural(state.Steps(), "step"))
	case domain.OutcomeCancelled:
		fmt.Fprintf(&b, "Journey cancelled after %s.", plural(state.Steps(), "step"))
	default:
		fmt.Fprintf(&b, "Journey ended (%s).", state.Outcome)
	}
	if last.URL != "" {
		fmt.Fprintf(&b, "\n\n%s", last.URL)
	}
	return h.render(b.String())
}

func (h *TextHandler) render(markdown string) error {
	output := markdown
	if h.Renderer != nil {
		if rendered, err := h.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	_, err := fmt.Fprintln(h.Writer, strings.TrimSpace(output))
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
