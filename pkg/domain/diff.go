package domain

// JourneyDiff represents the changes between two journey snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type JourneyDiff struct {
	// JourneyID is always present to identify the target.
	JourneyID string `json:"journey_id"`

	// Status is set when the status changed.
	Status *Status `json:"status,omitempty"`

	// Outcome is set when the outcome changed.
	Outcome *Outcome `json:"outcome,omitempty"`

	// Appended contains the articles added to the path since the old snapshot.
	Appended []Article `json:"appended,omitempty"`

	// Reset is true when the path was cleared or rewritten; clients should drop their copy
	// and apply Appended to an empty path.
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldState and newState.
// If oldState is nil, it returns a diff representing the entire newState (initial load).
// It returns nil when nothing changed.
func Diff(journeyID string, oldState, newState *JourneyState) *JourneyDiff {
	if newState == nil {
		return nil
	}

	diff := &JourneyDiff{JourneyID: journeyID}

	if oldState == nil || oldState.Status != newState.Status {
		status := newState.Status
		diff.Status = &status
	}
	if oldState == nil || oldState.Outcome != newState.Outcome {
		outcome := newState.Outcome
		diff.Outcome = &outcome
	}

	diff.Appended, diff.Reset = diffPath(oldState, newState)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// diffPath assumes append-only paths; anything else is reported as a reset.
func diffPath(old, new *JourneyState) ([]Article, bool) {
	if old == nil {
		if len(new.Path) == 0 {
			return nil, false
		}
		return append([]Article(nil), new.Path...), false
	}

	oldLen := len(old.Path)
	newLen := len(new.Path)
	if newLen < oldLen || !samePrefix(old.Path, new.Path) {
		return append([]Article(nil), new.Path...), true
	}
	if newLen == oldLen {
		return nil, false
	}
	return append([]Article(nil), new.Path[oldLen:]...), false
}

func samePrefix(old, new []Article) bool {
	for i := range old {
		if old[i] != new[i] {
			return false
		}
	}
	return true
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *JourneyDiff) IsEmpty() bool {
	return d.Status == nil &&
		d.Outcome == nil &&
		len(d.Appended) == 0 &&
		!d.Reset
}
