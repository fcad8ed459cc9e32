package http

import (
	"log/slog"
	"sync"
)

// subscriber is one SSE connection. Its channel is closed exactly once.
type subscriber struct {
	ch   chan string
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

// StreamManager handles active SSE connections, grouped by journey ID.
type StreamManager struct {
	logger *slog.Logger

	mu          sync.Mutex
	subscribers map[string]map[*subscriber]struct{}
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers a buffered channel for journeyID. The returned function
// unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(journeyID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sub := &subscriber{ch: make(chan string, 16)}
	if _, ok := sm.subscribers[journeyID]; !ok {
		sm.subscribers[journeyID] = make(map[*subscriber]struct{})
	}
	sm.subscribers[journeyID][sub] = struct{}{}

	return sub.ch, func() {
		sm.mu.Lock()
		sm.removeLocked(journeyID, sub)
		sm.mu.Unlock()
		sub.close()
	}
}

// Broadcast sends msg to every subscriber of journeyID without blocking.
// Diffs only make sense in order, so a subscriber whose buffer is full is closed
// instead of missing one; the client reconnects and receives the full state again.
func (sm *StreamManager) Broadcast(journeyID string, msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for sub := range sm.subscribers[journeyID] {
		select {
		case sub.ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, closing stream", "journey_id", journeyID)
			sm.removeLocked(journeyID, sub)
			sub.close()
		}
	}
}

// Subscribers returns the number of subscribers of journeyID.
func (sm *StreamManager) Subscribers(journeyID string) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.subscribers[journeyID])
}

func (sm *StreamManager) removeLocked(journeyID string, sub *subscriber) {
	subs, ok := sm.subscribers[journeyID]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(sm.subscribers, journeyID)
	}
}
