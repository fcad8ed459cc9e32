package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
)

// Runner steps a journey until it finishes and reports it through a Handler.
type Runner struct {
	// Handler is the strategy for output. Defaults to a TextHandler on stdout.
	Handler Handler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	signals bool
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{signals: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdout)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run steps j until it reaches a terminal outcome and returns the final state.
// The journey must already be started. Cancelling ctx, or an interrupt when signals
// are enabled, cancels the journey; the cancelled state is still reported and returned.
func (r *Runner) Run(ctx context.Context, j *wikisophy.Journey) (domain.JourneyState, error) {
	state := j.State()
	first, ok := state.Current()
	if state.Status != domain.StatusRunning || !ok {
		return state, fmt.Errorf("%w: journey must be running, got %s", domain.ErrInvalidTransition, state.Status)
	}

	runCtx := ctx
	if r.signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		runCtx = signals.Context()
	}

	if err := r.Handler.Begin(runCtx, Start{Target: j.Target(), MaxSteps: j.MaxSteps(), Article: first}); err != nil {
		return state, fmt.Errorf("output error: %w", err)
	}

	for !state.Finished() {
		if runCtx.Err() != nil {
			r.Logger.Debug("journey interrupted", "title", first.Title, "err", runCtx.Err())
			if err := j.Cancel(context.WithoutCancel(runCtx)); err != nil && !errors.Is(err, domain.ErrNotRunning) {
				return j.State(), err
			}
			state = j.State()
			break
		}

		next, err := j.Step(runCtx)
		if err != nil {
			return j.State(), fmt.Errorf("step failed: %w", err)
		}
		if len(next.Path) > len(state.Path) {
			last, _ := next.Current()
			if err := r.Handler.Step(runCtx, next.Steps(), last); err != nil {
				return next, fmt.Errorf("output error: %w", err)
			}
		}
		state = next
	}

	r.Logger.Info("journey finished", "title", first.Title, "outcome", state.Outcome, "step", state.Steps())
	if err := r.Handler.Finish(context.WithoutCancel(runCtx), state); err != nil {
		return state, fmt.Errorf("output error: %w", err)
	}
	return state, nil
}
