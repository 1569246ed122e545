package domain

import (
	"fmt"
	"sort"
	"time"
)

// Vars is the conversation-scoped variable store.
// Values are usually strings; macros may also store structured records.
type Vars map[string]any

// String returns the value of key formatted for display, and whether it was set.
func (v Vars) String(key string) (string, bool) {
	val, ok := v[key]
	if !ok || val == nil {
		return "", false
	}
	switch t := val.(type) {
	case string:
		return t, t != ""
	case fmt.Stringer:
		return t.String(), true
	case map[string]any:
		// Records come back as plain maps after a JSON round trip.
		if name, ok := t["name"].(string); ok {
			return name, true
		}
	}
	return fmt.Sprint(val), true
}

// Apply merges bindings into the store. Applying the same bindings twice
// leaves the store unchanged.
func (v Vars) Apply(bindings map[string]string) {
	for k, val := range bindings {
		v[k] = val
	}
}

// Set is a small string set that serializes as a sorted list.
type Set map[string]struct{}

// Has reports whether s contains item.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// Add inserts item.
func (s Set) Add(item string) {
	s[item] = struct{}{}
}

// Items returns the members in sorted order.
func (s Set) Items() []string {
	items := make([]string, 0, len(s))
	for k := range s {
		items = append(items, k)
	}
	sort.Strings(items)
	return items
}

// Session is the run-time instance of one conversation.
type Session struct {
	ID string `json:"id"`

	// Current is the state the conversation is in.
	Current StateID `json:"current"`

	// Vars holds the variables written by matched transitions and macros.
	Vars Vars `json:"vars"`

	// Recommended tracks titles already suggested in this session.
	// It is never shared between sessions.
	Recommended []string `json:"recommended,omitempty"`

	// Turns counts the user utterances consumed so far.
	Turns int `json:"turns"`

	// Misses counts consecutive utterances that matched nothing.
	Misses int `json:"misses,omitempty"`

	// History tracks the path taken through the graph.
	History []StateID `json:"history,omitempty"`

	// Ended is set once a terminal state is reached.
	Ended bool `json:"ended,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession creates a clean session positioned at start.
func NewSession(id string, start StateID) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		Current:   start,
		Vars:      make(Vars),
		History:   []StateID{start},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a copy that shares no mutable state with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Vars = make(Vars, len(s.Vars))
	for k, v := range s.Vars {
		next.Vars[k] = v
	}
	next.Recommended = append([]string(nil), s.Recommended...)
	next.History = append([]StateID(nil), s.History...)
	return &next
}

// RecommendedSet returns the already-recommended titles as a set.
func (s *Session) RecommendedSet() Set {
	set := make(Set, len(s.Recommended))
	for _, r := range s.Recommended {
		set.Add(r)
	}
	return set
}

// Turn is the outcome of a single engine step.
type Turn struct {
	// State is where the session rests after the step.
	State StateID `json:"state"`

	// Output holds the rendered system utterances, in order.
	Output []string `json:"output,omitempty"`

	// Matched is the target chosen by a user transition, if any.
	Matched StateID `json:"matched,omitempty"`

	// AwaitingInput is true when the session rests on a user state.
	AwaitingInput bool `json:"awaiting_input"`

	// Ended is true when the session rests on a terminal state.
	Ended bool `json:"ended"`
}
