package cached

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/aretw0/wikisophy/pkg/ports"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long markup and previews stay cached.
const DefaultTTL = time.Hour

// Observer is notified of every cache lookup.
type Observer interface {
	ObserveCache(kind string, hit bool)
}

// Source decorates a ports.Source with a cache for lead markup and previews.
// Concurrent misses for the same key share one upstream fetch. Search and random
// picks are never cached.
type Source struct {
	next     ports.Source
	cache    ports.Cache
	locker   ports.DistributedLocker
	ttl      time.Duration
	lockTTL  time.Duration
	observer Observer
	logger   *slog.Logger
	group    singleflight.Group
}

// Option configures the Source.
type Option func(*Source)

// WithTTL sets the expiration of cached entries.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.ttl = ttl
	}
}

// WithLocker coordinates cache fills across replicas sharing the same cache.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Source) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithObserver registers a cache hit/miss observer.
func WithObserver(o Observer) Option {
	return func(s *Source) {
		s.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New wraps next with cache.
func New(next ports.Source, cache ports.Cache, opts ...Option) *Source {
	s := &Source{
		next:    next,
		cache:   cache,
		ttl:     DefaultTTL,
		lockTTL: 30 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LeadMarkup returns the cached markup of title, fetching it on a miss.
func (s *Source) LeadMarkup(ctx context.Context, title string) (string, error) {
	data, err := s.load(ctx, "markup", title, func(ctx context.Context) ([]byte, error) {
		markup, err := s.next.LeadMarkup(ctx, title)
		return []byte(markup), err
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Preview returns the cached preview of title, fetching it on a miss.
func (s *Source) Preview(ctx context.Context, title string) (domain.Preview, error) {
	data, err := s.load(ctx, "preview", title, func(ctx context.Context) ([]byte, error) {
		p, err := s.next.Preview(ctx, title)
		if err != nil {
			return nil, err
		}
		return json.Marshal(p)
	})
	if err != nil {
		return domain.Preview{}, err
	}

	var p domain.Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Preview{}, fmt.Errorf("failed to decode cached preview: %w", err)
	}
	return p, nil
}

// Search is not cached.
func (s *Source) Search(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	return s.next.Search(ctx, query, limit)
}

// RandomTitle is not cached.
func (s *Source) RandomTitle(ctx context.Context) (string, error) {
	return s.next.RandomTitle(ctx)
}

// Invalidate drops the cached markup and preview of title.
func (s *Source) Invalidate(ctx context.Context, title string) error {
	return errors.Join(
		s.cache.Delete(ctx, key("markup", title)),
		s.cache.Delete(ctx, key("preview", title)),
	)
}

func key(kind, title string) string {
	return kind + ":" + title
}

func (s *Source) load(ctx context.Context, kind, title string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	k := key(kind, title)

	if data, ok := s.lookup(ctx, k); ok {
		s.observe(kind, true)
		return data, nil
	}
	s.observe(kind, false)

	v, err, _ := s.group.Do(k, func() (any, error) {
		if s.locker != nil {
			unlock, err := s.locker.Lock(ctx, k, s.lockTTL)
			if err != nil {
				s.logger.Warn("cache lock failed, fetching without it", "key", k, "err", err)
			} else {
				defer func() {
					if err := unlock(context.WithoutCancel(ctx)); err != nil {
						s.logger.Warn("cache unlock failed", "key", k, "err", err)
					}
				}()
				// Another replica may have filled the entry while we waited.
				if data, ok := s.lookup(ctx, k); ok {
					return data, nil
				}
			}
		}

		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, k, data, s.ttl); err != nil {
			s.logger.Warn("cache write failed", "key", k, "err", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// lookup treats cache failures as misses.
func (s *Source) lookup(ctx context.Context, k string) ([]byte, bool) {
	data, err := s.cache.Get(ctx, k)
	if err == nil {
		return data, true
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		s.logger.Warn("cache read failed", "key", k, "err", err)
	}
	return nil, false
}

func (s *Source) observe(kind string, hit bool) {
	if s.observer != nil {
		s.observer.ObserveCache(kind, hit)
	}
}
