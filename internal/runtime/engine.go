package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
)

// StepResolver resolves the next step of a journey from the current title.
type StepResolver interface {
	Resolve(ctx context.Context, title string) domain.StepResult
}

// Config holds the fixed parameters of a journey.
type Config struct {
	// Target is the title whose arrival ends the journey with success (case-insensitive).
	Target string
	// MaxSteps is the number of followed links after which the journey ends as a dead end.
	MaxSteps int
	// BaseURL is used to derive article URLs missing from previews.
	BaseURL string
}

// DefaultConfig returns the configuration of a standard journey to Philosophy.
func DefaultConfig() Config {
	return Config{
		Target:   domain.DefaultTarget,
		MaxSteps: domain.DefaultMaxSteps,
		BaseURL:  DefaultBaseURL,
	}
}

// StateListener is notified after every state change with the previous and the new snapshot.
type StateListener func(prev, next domain.JourneyState)

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the logger of the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStateListener registers a listener for state changes.
func WithStateListener(l StateListener) EngineOption {
	return func(e *Engine) {
		e.listeners = append(e.listeners, l)
	}
}

// WithClock overrides the time source used for event timestamps and durations.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is the state machine of a single journey.
// It is safe for concurrent use; at most one Step is in flight at any time.
type Engine struct {
	resolver  StepResolver
	cfg       Config
	hooks     domain.LifecycleHooks
	listeners []StateListener
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state domain.JourneyState
	busy  bool
	// gen changes on Start, Cancel and Reset; a step result from an older generation is discarded.
	gen uint64
}

// NewEngine creates an idle engine.
func NewEngine(resolver StepResolver, cfg Config, opts ...EngineOption) (*Engine, error) {
	if resolver == nil {
		return nil, errors.New("engine requires a step resolver")
	}
	if strings.TrimSpace(cfg.Target) == "" {
		return nil, errors.New("engine requires a target title")
	}
	if cfg.MaxSteps < 1 {
		return nil, fmt.Errorf("max steps must be positive, got %d", cfg.MaxSteps)
	}

	e := &Engine{
		resolver: resolver,
		cfg:      cfg,
		logger:   logging.NewNop(),
		now:      time.Now,
		state:    domain.NewJourneyState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the configuration of the engine.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns a snapshot of the journey.
func (e *Engine) State() domain.JourneyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// Pending reports whether a step is in flight.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy
}

// Start begins a journey at initial. The engine must be idle.
func (e *Engine) Start(ctx context.Context, initial domain.Article) (domain.JourneyState, error) {
	e.mu.Lock()
	if e.state.Status != domain.StatusIdle {
		status := e.state.Status
		e.mu.Unlock()
		return domain.JourneyState{}, fmt.Errorf("%w: cannot start from %s", domain.ErrInvalidTransition, status)
	}

	prev := e.state.Snapshot()
	e.gen++
	e.busy = false
	e.state = domain.JourneyState{
		Status:  domain.StatusRunning,
		Path:    []domain.Article{initial},
		Outcome: domain.OutcomeNone,
	}
	next := e.state.Snapshot()
	e.mu.Unlock()

	e.logger.Debug("journey started", "title", initial.Title, "target", e.cfg.Target)
	if e.hooks.OnStart != nil {
		e.hooks.OnStart(ctx, &domain.JourneyEvent{
			EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventJourneyStart},
			Title:      initial.Title,
			PathLength: 1,
		})
	}
	e.notify(prev, next)
	return next, nil
}

// Step follows one link from the current article.
//
// It returns domain.ErrNotRunning unless the journey is running and
// domain.ErrStepPending while another step is in flight. A step cancelled or reset
// while in flight returns the state current at its completion, without applying its result.
// If ctx is done when the resolution returns, the journey finishes as cancelled.
func (e *Engine) Step(ctx context.Context) (domain.JourneyState, error) {
	e.mu.Lock()
	if e.state.Status != domain.StatusRunning {
		e.mu.Unlock()
		return domain.JourneyState{}, domain.ErrNotRunning
	}
	if e.busy {
		e.mu.Unlock()
		return domain.JourneyState{}, domain.ErrStepPending
	}

	current, _ := e.state.Current()
	if strings.EqualFold(current.Title, e.cfg.Target) {
		prev := e.state.Snapshot()
		e.finishLocked(domain.OutcomeSuccess)
		next := e.state.Snapshot()
		e.mu.Unlock()

		e.emitFinish(ctx, next)
		e.notify(prev, next)
		return next, nil
	}

	e.busy = true
	gen := e.gen
	e.mu.Unlock()

	started := e.now()
	result := e.resolver.Resolve(ctx, current.Title)
	elapsed := e.now().Sub(started)

	e.mu.Lock()
	if gen != e.gen {
		// Cancelled or reset while in flight.
		next := e.state.Snapshot()
		e.mu.Unlock()
		e.logger.Debug("discarding stale step result", "title", current.Title)
		return next, nil
	}
	e.busy = false

	prev := e.state.Snapshot()
	outcome, appended := domain.OutcomeCancelled, ""
	if ctx.Err() == nil {
		outcome, appended = e.applyLocked(current.Title, result)
	}
	if outcome != domain.OutcomeNone {
		e.finishLocked(outcome)
	}
	next := e.state.Snapshot()
	e.mu.Unlock()

	e.logger.Debug("step resolved", "from", current.Title, "to", appended, "outcome", next.Outcome)
	if e.hooks.OnStep != nil {
		e.hooks.OnStep(ctx, &domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: e.now(), Type: domain.EventJourneyStep},
			From:      current.Title,
			To:        appended,
			Step:      next.Steps(),
			Duration:  elapsed,
		})
	}
	if next.Finished() {
		e.emitFinish(ctx, next)
	}
	e.notify(prev, next)
	return next, nil
}

// Run steps until the journey finishes or ctx is done, in which case it is cancelled.
func (e *Engine) Run(ctx context.Context) (domain.JourneyState, error) {
	for {
		if ctx.Err() != nil {
			if err := e.Cancel(ctx); err != nil && !errors.Is(err, domain.ErrNotRunning) {
				return e.State(), err
			}
			return e.State(), nil
		}
		state, err := e.Step(ctx)
		if err != nil {
			return e.State(), err
		}
		if state.Finished() {
			return state, nil
		}
	}
}

// Cancel finishes a running journey with the cancelled outcome. A step in flight keeps
// running but its result is discarded.
func (e *Engine) Cancel(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Status != domain.StatusRunning {
		e.mu.Unlock()
		return domain.ErrNotRunning
	}
	prev := e.state.Snapshot()
	e.gen++
	e.busy = false
	e.finishLocked(domain.OutcomeCancelled)
	next := e.state.Snapshot()
	e.mu.Unlock()

	e.logger.Debug("journey cancelled", "steps", next.Steps())
	e.emitFinish(ctx, next)
	e.notify(prev, next)
	return nil
}

// Reset returns the engine to idle from any state, clearing the path.
func (e *Engine) Reset() domain.JourneyState {
	e.mu.Lock()
	prev := e.state.Snapshot()
	e.gen++
	e.busy = false
	e.state = domain.NewJourneyState()
	next := e.state.Snapshot()
	e.mu.Unlock()

	e.notify(prev, next)
	return next
}

// applyLocked applies a step result to the path in the fixed precedence order:
// resolver failure, no link, cycle, budget. It returns OutcomeNone if the journey continues.
func (e *Engine) applyLocked(from string, result domain.StepResult) (domain.Outcome, string) {
	switch r := result.(type) {
	case domain.FetchFailed:
		e.logger.Warn("step failed", "title", from, "err", r.Err)
		return domain.OutcomeError, ""
	case domain.NoLink:
		return domain.OutcomeDeadEnd, ""
	case domain.Found:
		candidate := r.Preview.Article(e.cfg.BaseURL)
		if candidate.Title == "" {
			return domain.OutcomeDeadEnd, ""
		}
		if e.state.Visited(candidate.Title) {
			return domain.OutcomeCycle, ""
		}
		e.state.Path = append(e.state.Path, candidate)
		if len(e.state.Path) > e.cfg.MaxSteps {
			return domain.OutcomeDeadEnd, candidate.Title
		}
		return domain.OutcomeNone, candidate.Title
	default:
		return domain.OutcomeError, ""
	}
}

func (e *Engine) finishLocked(outcome domain.Outcome) {
	e.state.Status = domain.StatusFinished
	e.state.Outcome = outcome
}

func (e *Engine) emitFinish(ctx context.Context, state domain.JourneyState) {
	if e.hooks.OnFinish == nil {
		return
	}
	last, _ := state.Current()
	e.hooks.OnFinish(ctx, &domain.JourneyEvent{
		EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventJourneyFinish},
		Title:      last.Title,
		Outcome:    state.Outcome,
		PathLength: len(state.Path),
	})
}

func (e *Engine) notify(prev, next domain.JourneyState) {
	for _, l := range e.listeners {
		l(prev, next)
	}
}
