package wikisophy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/internal/runtime"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
)

// Engine is the high-level entry point of the library.
// It binds an encyclopedia source to the journey configuration and creates journeys.
type Engine struct {
	source   ports.Source
	resolver *runtime.Resolver
	cfg      runtime.Config
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTarget sets the title whose arrival ends a journey successfully.
func WithTarget(title string) Option {
	return func(e *Engine) {
		e.cfg.Target = title
	}
}

// WithMaxSteps sets the default step budget of journeys.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.cfg.MaxSteps = n
	}
}

// WithBaseURL sets the page URL prefix used for articles whose preview has no URL.
func WithBaseURL(baseURL string) Option {
	return func(e *Engine) {
		e.cfg.BaseURL = baseURL
	}
}

// WithLifecycleHooks registers observability hooks applied to every journey.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an Engine over source.
func New(source ports.Source, opts ...Option) (*Engine, error) {
	if source == nil {
		return nil, errors.New("wikisophy: source is required")
	}

	e := &Engine{
		source: source,
		cfg:    runtime.DefaultConfig(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if strings.TrimSpace(e.cfg.Target) == "" {
		return nil, errors.New("wikisophy: target title is required")
	}
	if e.cfg.MaxSteps < 1 {
		return nil, fmt.Errorf("wikisophy: max steps must be positive, got %d", e.cfg.MaxSteps)
	}

	e.resolver = runtime.NewResolver(source, source,
		runtime.WithBaseURL(e.cfg.BaseURL),
		runtime.WithResolverLogger(e.logger),
	)
	return e, nil
}

// Target returns the configured target title.
func (e *Engine) Target() string {
	return e.cfg.Target
}

// MaxSteps returns the default step budget.
func (e *Engine) MaxSteps() int {
	return e.cfg.MaxSteps
}

// ResolveStep resolves the next article from title without any journey state.
func (e *Engine) ResolveStep(ctx context.Context, title string) domain.StepResult {
	return e.resolver.Resolve(ctx, title)
}

// Search looks up article titles. A non-positive limit uses the default.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	if limit <= 0 {
		limit = domain.DefaultSearchLimit
	}
	return e.source.Search(ctx, query, limit)
}

// RandomTitle picks a random article title.
func (e *Engine) RandomTitle(ctx context.Context) (string, error) {
	return e.source.RandomTitle(ctx)
}

// Preview returns the summary of title.
func (e *Engine) Preview(ctx context.Context, title string) (domain.Preview, error) {
	return e.source.Preview(ctx, title)
}

// Article builds the starting article for title. A missing article is an error; any
// other preview failure degrades to an article carrying only the title.
func (e *Engine) Article(ctx context.Context, title string) (domain.Article, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Article{}, fmt.Errorf("empty title: %w", domain.ErrNotFound)
	}

	p, err := e.source.Preview(ctx, title)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Article{}, err
		}
		e.logger.Warn("preview unavailable for start article", "title", title, "err", err)
		p = domain.Preview{Title: title}
	}
	if p.Title == "" {
		p.Title = title
	}
	return p.Article(e.cfg.BaseURL), nil
}

// NewJourney creates an idle journey.
func (e *Engine) NewJourney(opts ...JourneyOption) (*Journey, error) {
	jc := journeyConfig{cfg: e.cfg, hooks: e.hooks}
	for _, opt := range opts {
		opt(&jc)
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(jc.hooks),
		runtime.WithLogger(e.logger),
	}
	for _, l := range jc.listeners {
		engineOpts = append(engineOpts, runtime.WithStateListener(runtime.StateListener(l)))
	}

	rt, err := runtime.NewEngine(e.resolver, jc.cfg, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create journey: %w", err)
	}
	return &Journey{rt: rt}, nil
}

// Begin creates a journey and starts it at title.
func (e *Engine) Begin(ctx context.Context, title string, opts ...JourneyOption) (*Journey, error) {
	start, err := e.Article(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("failed to load start article %q: %w", title, err)
	}

	j, err := e.NewJourney(opts...)
	if err != nil {
		return nil, err
	}
	if _, err := j.Start(ctx, start); err != nil {
		return nil, err
	}
	return j, nil
}

// BeginRandom creates a journey starting at a random article.
func (e *Engine) BeginRandom(ctx context.Context, opts ...JourneyOption) (*Journey, error) {
	title, err := e.source.RandomTitle(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pick a random article: %w", err)
	}
	return e.Begin(ctx, title, opts...)
}
