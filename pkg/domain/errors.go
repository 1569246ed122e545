package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSessionEnded is returned by Step once the session reached a terminal state.
var ErrSessionEnded = errors.New("session ended")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionExists is returned when creating a session under an ID that is taken.
var ErrSessionExists = errors.New("session already exists")

// ErrStateNotFound is returned when a state ID is not part of the graph.
var ErrStateNotFound = errors.New("state not found")

// ErrNoMatch is the sentinel wrapped by NoMatchError.
var ErrNoMatch = errors.New("no transition matched")

// GraphValidationError is returned at construction time when the graph is malformed.
// It is fatal: no session may start on an invalid graph.
type GraphValidationError struct {
	Issues []string
}

func (e *GraphValidationError) Error() string {
	return fmt.Sprintf("invalid graph: found %d errors:\n- %s", len(e.Issues), strings.Join(e.Issues, "\n- "))
}

// NoMatchError reports an utterance that matched no transition on a state
// without an error successor. The session stays where it was.
type NoMatchError struct {
	State     StateID
	Utterance string
	Attempts  int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no transition matched in state %s (attempt %d)", e.State, e.Attempts)
}

func (e *NoMatchError) Unwrap() error {
	return ErrNoMatch
}

// MacroError reports a macro that failed or panicked during rendering.
// The engine logs it and substitutes empty text; it never ends a session.
type MacroError struct {
	Macro string
	State StateID
	Err   error
}

func (e *MacroError) Error() string {
	return fmt.Sprintf("macro %s in state %s: %v", e.Macro, e.State, e.Err)
}

func (e *MacroError) Unwrap() error {
	return e.Err
}
