package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter  EventType = "state_enter"
	EventStateLeave  EventType = "state_leave"
	EventMacroCall   EventType = "macro_call"
	EventMacroReturn EventType = "macro_return"
	EventNoMatch     EventType = "no_match"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StateEvent represents entry into or exit from a state.
type StateEvent struct {
	EventBase
	StateID StateID `json:"state_id"`
	Speaker Speaker `json:"speaker"`

	// Initial is set when a new session enters its first state.
	Initial bool `json:"initial,omitempty"`
}

// MacroEvent represents a macro invocation during rendering.
type MacroEvent struct {
	EventBase
	StateID  StateID       `json:"state_id"`
	Macro    string        `json:"macro"`
	Args     []string      `json:"args,omitempty"`
	Output   string        `json:"output,omitempty"`
	IsError  bool          `json:"is_error,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// NoMatchEvent represents an utterance that matched no transition.
type NoMatchEvent struct {
	EventBase
	StateID   StateID `json:"state_id"`
	Utterance string  `json:"utterance"`
	Fallback  StateID `json:"fallback,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStateEnter  func(context.Context, *StateEvent)
	OnStateLeave  func(context.Context, *StateEvent)
	OnMacroCall   func(context.Context, *MacroEvent)
	OnMacroReturn func(context.Context, *MacroEvent)
	OnNoMatch     func(context.Context, *NoMatchEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStateEnter:  chain(h.OnStateEnter, other.OnStateEnter),
		OnStateLeave:  chain(h.OnStateLeave, other.OnStateLeave),
		OnMacroCall:   chain(h.OnMacroCall, other.OnMacroCall),
		OnMacroReturn: chain(h.OnMacroReturn, other.OnMacroReturn),
		OnNoMatch:     chain(h.OnNoMatch, other.OnNoMatch),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e T) {
		a(ctx, e)
		b(ctx, e)
	}
}
