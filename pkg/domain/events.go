package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventJourneyStart  EventType = "journey_start"
	EventJourneyStep   EventType = "journey_step"
	EventJourneyFinish EventType = "journey_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// JourneyEvent represents the start or the end of a journey.
type JourneyEvent struct {
	EventBase
	Title      string  `json:"title"`
	Outcome    Outcome `json:"outcome,omitempty"`
	PathLength int     `json:"path_length"`
}

// StepEvent represents one completed step, whether it appended an article or not.
type StepEvent struct {
	EventBase
	From     string        `json:"from"`
	To       string        `json:"to,omitempty"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks are invoked outside of the engine lock and must not block for long.
type LifecycleHooks struct {
	OnStart  func(context.Context, *JourneyEvent)
	OnStep   func(context.Context, *StepEvent)
	OnFinish func(context.Context, *JourneyEvent)
}

// Combine merges several hook sets into one that calls each in order.
func Combine(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStart: func(ctx context.Context, e *JourneyEvent) {
			for _, h := range hooks {
				if h.OnStart != nil {
					h.OnStart(ctx, e)
				}
			}
		},
		OnStep: func(ctx context.Context, e *StepEvent) {
			for _, h := range hooks {
				if h.OnStep != nil {
					h.OnStep(ctx, e)
				}
			}
		},
		OnFinish: func(ctx context.Context, e *JourneyEvent) {
			for _, h := range hooks {
				if h.OnFinish != nil {
					h.OnFinish(ctx, e)
				}
			}
		},
	}
}
