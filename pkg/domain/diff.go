package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two snapshots of a session.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Current *StateID `json:"current,omitempty"`

	// Vars contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Vars map[string]any `json:"vars,omitempty"`

	// Visited contains *new* states appended to history.
	Visited []StateID `json:"visited,omitempty"`

	Ended *bool `json:"ended,omitempty"`
}

// Diff calculates the difference between old and new.
// If old is nil, it returns a diff representing the entire new session (initial load).
// It returns nil when nothing changed.
func Diff(old, new *Session) *SessionDiff {
	if new == nil {
		return nil
	}

	diff := &SessionDiff{
		SessionID: new.ID,
	}

	if old == nil || old.Current != new.Current {
		diff.Current = &new.Current
	}
	if (old == nil && new.Ended) || (old != nil && old.Ended != new.Ended) {
		diff.Ended = &new.Ended
	}

	diff.Vars = diffVars(old, new)
	diff.Visited = diffHistory(old, new)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVars(old, new *Session) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.Vars {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.Vars {
			oldVal, exists := old.Vars[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.Vars {
			if _, exists := new.Vars[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// diffHistory assumes history is append-only.
func diffHistory(old, new *Session) []StateID {
	if len(new.History) == 0 {
		return nil
	}
	if old == nil {
		return new.History
	}
	if len(new.History) > len(old.History) {
		return new.History[len(old.History):]
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Current == nil &&
		d.Ended == nil &&
		len(d.Vars) == 0 &&
		len(d.Visited) == 0
}
