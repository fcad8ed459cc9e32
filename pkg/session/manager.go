package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/wikisophy"
	"github.com/aretw0/wikisophy/internal/logging"
	"github.com/aretw0/wikisophy/pkg/domain"
	"github.com/google/uuid"
)

// Listener receives every state change of every managed journey.
type Listener func(journeyID string, prev, next domain.JourneyState)

// Info describes a managed journey.
type Info struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	LastUsed  time.Time           `json:"last_used"`
	State     domain.JourneyState `json:"state"`

	Journey *wikisophy.Journey `json:"-"`
}

type entry struct {
	journey   *wikisophy.Journey
	createdAt time.Time
	lastUsed  time.Time
}

// Manager keeps the live journeys of a process, keyed by a random ID.
type Manager struct {
	engine    *wikisophy.Engine
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	journeys map[string]*entry
}

// Option configures the Manager.
type Option func(*Manager)

// WithListener registers a listener attached to every journey the manager creates.
func WithListener(l Listener) Option {
	return func(m *Manager) {
		m.listeners = append(m.listeners, l)
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a Manager creating journeys from engine.
func NewManager(engine *wikisophy.Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:   engine,
		logger:   logging.NewNop(),
		now:      time.Now,
		journeys: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a journey at title and registers it.
func (m *Manager) Create(ctx context.Context, title string, opts ...wikisophy.JourneyOption) (string, *wikisophy.Journey, error) {
	id := uuid.NewString()
	j, err := m.engine.Begin(ctx, title, m.journeyOptions(id, opts)...)
	if err != nil {
		return "", nil, err
	}
	m.register(id, j)
	return id, j, nil
}

// CreateRandom starts a journey at a random article and registers it.
func (m *Manager) CreateRandom(ctx context.Context, opts ...wikisophy.JourneyOption) (string, *wikisophy.Journey, error) {
	id := uuid.NewString()
	j, err := m.engine.BeginRandom(ctx, m.journeyOptions(id, opts)...)
	if err != nil {
		return "", nil, err
	}
	m.register(id, j)
	return id, j, nil
}

func (m *Manager) journeyOptions(id string, opts []wikisophy.JourneyOption) []wikisophy.JourneyOption {
	out := append([]wikisophy.JourneyOption(nil), opts...)
	for _, l := range m.listeners {
		l := l
		out = append(out, wikisophy.WithStateListener(func(prev, next domain.JourneyState) {
			l(id, prev, next)
		}))
	}
	return out
}

func (m *Manager) register(id string, j *wikisophy.Journey) {
	now := m.now()
	m.mu.Lock()
	m.journeys[id] = &entry{journey: j, createdAt: now, lastUsed: now}
	m.mu.Unlock()
	m.logger.Debug("journey registered", "journey_id", id)
}

// Get returns the journey with id and marks it as used.
func (m *Manager) Get(id string) (*wikisophy.Journey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.journeys[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrJourneyNotFound, id)
	}
	e.lastUsed = m.now()
	return e.journey, nil
}

// Info returns the description of the journey with id.
func (m *Manager) Info(id string) (Info, error) {
	m.mu.Lock()
	e, ok := m.journeys[id]
	var info Info
	if ok {
		info = Info{ID: id, CreatedAt: e.createdAt, LastUsed: e.lastUsed, Journey: e.journey}
	}
	m.mu.Unlock()
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", domain.ErrJourneyNotFound, id)
	}
	info.State = info.Journey.State()
	return info, nil
}

// Delete cancels the journey with id, if running, and forgets it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	e, ok := m.journeys[id]
	delete(m.journeys, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrJourneyNotFound, id)
	}

	// A finished or idle journey has nothing to cancel.
	_ = e.journey.Cancel(ctx)
	return nil
}

// List returns all journeys, oldest first.
func (m *Manager) List() []Info {
	m.mu.Lock()
	infos := make([]Info, 0, len(m.journeys))
	for id, e := range m.journeys {
		infos = append(infos, Info{ID: id, CreatedAt: e.createdAt, LastUsed: e.lastUsed, Journey: e.journey})
	}
	m.mu.Unlock()

	for i := range infos {
		infos[i].State = infos[i].Journey.State()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Len returns the number of managed journeys.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.journeys)
}

// Sweep deletes journeys unused for longer than maxIdle and returns how many were removed.
// Journeys with a step in flight are kept.
func (m *Manager) Sweep(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*entry
	for id, e := range m.journeys {
		if e.lastUsed.Before(cutoff) && !e.journey.Pending() {
			stale = append(stale, e)
			delete(m.journeys, id)
		}
	}
	m.mu.Unlock()

	for _, e := range stale {
		_ = e.journey.Cancel(ctx)
	}
	if len(stale) > 0 {
		m.logger.Info("swept idle journeys", "count", len(stale))
	}
	return len(stale)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (m *Manager) StartSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Sweep(ctx, maxIdle)
			}
		}
	}()
}
