package wikisophy

import (
	"context"

	"github.com/aretw0/wikisophy/internal/runtime"
	"github.com/aretw0/wikisophy/pkg/domain"
)

// StateListener is called after every state change of a journey, outside its lock.
type StateListener func(prev, next domain.JourneyState)

type journeyConfig struct {
	cfg       runtime.Config
	hooks     domain.LifecycleHooks
	listeners []StateListener
}

// JourneyOption customizes a single journey.
type JourneyOption func(*journeyConfig)

// WithJourneyMaxSteps overrides the step budget of one journey.
func WithJourneyMaxSteps(n int) JourneyOption {
	return func(c *journeyConfig) {
		if n > 0 {
			c.cfg.MaxSteps = n
		}
	}
}

// WithJourneyTarget overrides the target title of one journey.
func WithJourneyTarget(title string) JourneyOption {
	return func(c *journeyConfig) {
		if title != "" {
			c.cfg.Target = title
		}
	}
}

// WithJourneyHooks adds hooks to one journey, after the engine-wide hooks.
func WithJourneyHooks(hooks domain.LifecycleHooks) JourneyOption {
	return func(c *journeyConfig) {
		c.hooks = domain.Combine(c.hooks, hooks)
	}
}

// WithStateListener registers a state change listener on one journey.
func WithStateListener(l StateListener) JourneyOption {
	return func(c *journeyConfig) {
		c.listeners = append(c.listeners, l)
	}
}

// Journey is one run from a starting article to a terminal outcome.
// It is safe for concurrent use; overlapping steps are rejected with domain.ErrStepPending.
type Journey struct {
	rt *runtime.Engine
}

// Start moves an idle journey to RUNNING with path = [initial].
func (j *Journey) Start(ctx context.Context, initial domain.Article) (domain.JourneyState, error) {
	return j.rt.Start(ctx, initial)
}

// Step follows one link. See the package documentation for the outcome rules.
func (j *Journey) Step(ctx context.Context) (domain.JourneyState, error) {
	return j.rt.Step(ctx)
}

// Run steps until the journey finishes. Cancelling ctx cancels the journey.
func (j *Journey) Run(ctx context.Context) (domain.JourneyState, error) {
	return j.rt.Run(ctx)
}

// Cancel finishes a running journey as cancelled, discarding any step in flight.
func (j *Journey) Cancel(ctx context.Context) error {
	return j.rt.Cancel(ctx)
}

// Reset returns the journey to IDLE with an empty path.
func (j *Journey) Reset() domain.JourneyState {
	return j.rt.Reset()
}

// State returns a snapshot of the journey.
func (j *Journey) State() domain.JourneyState {
	return j.rt.State()
}

// Pending reports whether a step is in flight.
func (j *Journey) Pending() bool {
	return j.rt.Pending()
}

// Target returns the target title of the journey.
func (j *Journey) Target() string {
	return j.rt.Config().Target
}

// MaxSteps returns the step budget of the journey.
func (j *Journey) MaxSteps() int {
	return j.rt.Config().MaxSteps
}
