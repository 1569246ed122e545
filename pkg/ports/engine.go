package ports

import (
	"context"

	"github.com/aretw0/arcade/pkg/domain"
)

// Conversation is the dialogue engine as seen by adapters.
// Implementations are safe for concurrent use across distinct sessions.
type Conversation interface {
	// Start creates a new session positioned at the start state.
	Start(ctx context.Context, sessionID string) (*domain.Session, error)

	// Step advances the session by one turn. utterance is ignored when the
	// current state is a system state.
	Step(ctx context.Context, session *domain.Session, utterance string) (domain.Turn, error)

	// Inspect returns the read-only dialogue graph.
	Inspect() *domain.Graph
}
