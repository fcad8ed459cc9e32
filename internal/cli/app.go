package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/config"
	"github.com/aretw0/wikisophy/pkg/adapters/cached"
	"github.com/aretw0/wikisophy/pkg/adapters/file"
	"github.com/aretw0/wikisophy/pkg/adapters/memory"
	"github.com/aretw0/wikisophy/pkg/adapters/redis"
	"github.com/aretw0/wikisophy/pkg/adapters/wikipedia"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/observability"
	"github.com/aretw0/wikisophy/pkg/ports"
)

// App holds the components shared by every command.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Engine  *wikisophy.Engine
	Metrics *observability.Metrics

	closers []func() error
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

type appOptions struct {
	source ports.Source
}

// WithSource replaces the Wikipedia client, for tests and offline use.
// The configured cache still wraps it.
func WithSource(src ports.Source) AppOption {
	return func(o *appOptions) {
		o.source = src
	}
}

// NewApp wires the Wikipedia client, the configured cache and the engine.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...AppOption) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	client := newWikipediaClient(cfg.Wikipedia, logger)
	var upstream ports.Source = client
	if o.source != nil {
		upstream = o.source
	}

	source, err := app.withCache(ctx, upstream)
	if err != nil {
		return nil, err
	}

	engine, err := wikisophy.New(source,
		wikisophy.WithTarget(cfg.Journey.Target),
		wikisophy.WithMaxSteps(cfg.Journey.MaxSteps),
		wikisophy.WithBaseURL(client.PageURL()),
		wikisophy.WithLogger(logger),
		wikisophy.WithLifecycleHooks(domain.Combine(
			app.Metrics.Hooks(),
			observability.LoggingHooks(logger),
		)),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine
	return app, nil
}

// Close releases backend connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newWikipediaClient(cfg config.WikipediaConfig, logger *slog.Logger) *wikipedia.Client {
	opts := []wikipedia.Option{
		wikipedia.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		wikipedia.WithLanguage(cfg.Language),
		wikipedia.WithUserAgent(cfg.UserAgent),
		wikipedia.WithLeadMode(wikipedia.LeadMode(cfg.Mode)),
		wikipedia.WithRetries(cfg.Retries, cfg.RetryBackoff),
		wikipedia.WithLogger(logger),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, wikipedia.WithBaseURL(cfg.BaseURL))
	}
	return wikipedia.New(opts...)
}

func (a *App) withCache(ctx context.Context, upstream ports.Source) (ports.Source, error) {
	cfg := a.Config.Cache
	cacheOpts := []cached.Option{
		cached.WithTTL(cfg.TTL),
		cached.WithObserver(a.Metrics),
		cached.WithLogger(a.Logger),
	}

	switch cfg.Backend {
	case config.CacheNone:
		return upstream, nil
	case config.CacheMemory:
		return cached.New(upstream, memory.NewCache(), cacheOpts...), nil
	case config.CacheFile:
		fc := file.New(cfg.Dir)
		if removed, err := fc.Purge(ctx); err != nil {
			a.Logger.Warn("failed to purge file cache", "dir", fc.BasePath, "err", err)
		} else if removed > 0 {
			a.Logger.Debug("purged expired cache entries", "dir", fc.BasePath, "count", removed)
		}
		return cached.New(upstream, fc, cacheOpts...), nil
	case config.CacheRedis:
		rc := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redis.WithPrefix(cfg.Redis.Prefix),
			redis.WithTTL(cfg.TTL),
		)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("redis cache at %s is unreachable: %w", cfg.Redis.Addr, err)
		}
		a.closers = append(a.closers, rc.Close)
		a.Logger.Debug("using redis cache", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)

		locker := redis.NewLocker(rc.Client(), cfg.Redis.Prefix+"lock:")
		cacheOpts = append(cacheOpts, cached.WithLocker(locker, cfg.LockTTL))
		return cached.New(upstream, rc, cacheOpts...), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
