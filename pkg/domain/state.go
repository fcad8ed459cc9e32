package domain

// Status defines the lifecycle phase of a journey.
type Status string

const (
	StatusIdle     Status = "IDLE"     // No journey started (or reset)
	StatusRunning  Status = "RUNNING"  // Stepping is allowed
	StatusFinished Status = "FINISHED" // Terminal, carries an Outcome
)

// Outcome is the terminal result of a journey.
type Outcome string

const (
	OutcomeNone      Outcome = "none"
	OutcomeSuccess   Outcome = "success"
	OutcomeCycle     Outcome = "cycle"
	OutcomeDeadEnd   Outcome = "dead_end"
	OutcomeError     Outcome = "error"
	OutcomeCancelled Outcome = "cancelled"
)

// JourneyState is the snapshot of one journey.
type JourneyState struct {
	// Status is IDLE, RUNNING or FINISHED.
	Status Status `json:"status"`

	// Path holds the visited articles in visiting order. Append-only while running.
	Path []Article `json:"path"`

	// Outcome is OutcomeNone unless Status is FINISHED.
	Outcome Outcome `json:"outcome"`
}

// NewJourneyState returns an idle state.
func NewJourneyState() JourneyState {
	return JourneyState{
		Status:  StatusIdle,
		Path:    []Article{},
		Outcome: OutcomeNone,
	}
}

// Current returns the last visited article.
func (s JourneyState) Current() (Article, bool) {
	if len(s.Path) == 0 {
		return Article{}, false
	}
	return s.Path[len(s.Path)-1], true
}

// Visited reports whether title already occurs in the path (exact string match).
func (s JourneyState) Visited(title string) bool {
	for _, a := range s.Path {
		if a.Title == title {
			return true
		}
	}
	return false
}

// Steps returns the number of links followed so far.
func (s JourneyState) Steps() int {
	if len(s.Path) == 0 {
		return 0
	}
	return len(s.Path) - 1
}

// Finished reports whether the journey reached a terminal outcome.
func (s JourneyState) Finished() bool {
	return s.Status == StatusFinished
}

// Snapshot returns a copy that shares no memory with s.
func (s JourneyState) Snapshot() JourneyState {
	next := s
	next.Path = make([]Article, len(s.Path))
	copy(next.Path, s.Path)
	return next
}
