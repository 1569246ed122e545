package runner

import (
	"context"

	"github.com/aretw0/arcade/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (console) and JSON (structured) modes.
type IOHandler interface {
	// Output presents the outcome of a turn.
	Output(ctx context.Context, turn domain.Turn) error

	// Input reads the next utterance. It returns io.EOF when the user is gone.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message, distinct from the conversation.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms an utterance before it is printed, e.g. markdown to ANSI.
type ContentRenderer func(string) (string, error)
