package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/pattern"
	"github.com/aretw0/arcade/pkg/template"
)

const (
	// DefaultUnknownValue replaces variables that are referenced but unset.
	DefaultUnknownValue = "something"
	// DefaultMissLimit is how many consecutive unmatched utterances trigger
	// the fallback state, when one is configured.
	DefaultMissLimit = 3
	// DefaultFallbackPrompt is said when an utterance matches nothing.
	DefaultFallbackPrompt = "Sorry, I didn't understand that. Could you say it another way?"
)

// Engine is the dialogue state machine. The compiled graph is read-only, so
// one Engine serves any number of concurrent sessions.
type Engine struct {
	graph *domain.Graph
	nodes map[domain.StateID]*compiledNode

	ontology pattern.Expander
	macros   *macro.Registry
	matcher  *pattern.Matcher

	hooks  domain.LifecycleHooks
	logger *slog.Logger

	unknown        string
	missLimit      int
	fallbackState  domain.StateID
	fallbackPrompt string
	captureLimit   int
	variables      []string
}

// compiledNode holds the parsed form of every transition of a state.
type compiledNode struct {
	*domain.Node
	templates []*template.Template
	patterns  []pattern.Pattern
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks. Calling it more than
// once chains the hooks in order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithOntology sets the expander consulted by #ONT(term) patterns.
func WithOntology(o pattern.Expander) EngineOption {
	return func(e *Engine) {
		e.ontology = o
	}
}

// WithMacros sets the registry consulted by #MACRO references.
func WithMacros(r *macro.Registry) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.macros = r
		}
	}
}

// WithUnknownValue sets the text substituted for unset variables.
func WithUnknownValue(s string) EngineOption {
	return func(e *Engine) {
		e.unknown = s
	}
}

// WithMissLimit sets how many consecutive misses force the fallback state.
func WithMissLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.missLimit = n
		}
	}
}

// WithFallbackState sets the state forced after too many misses.
func WithFallbackState(id domain.StateID) EngineOption {
	return func(e *Engine) {
		e.fallbackState = id
	}
}

// WithFallbackPrompt sets what is said when an utterance matches nothing.
func WithFallbackPrompt(s string) EngineOption {
	return func(e *Engine) {
		if s != "" {
			e.fallbackPrompt = s
		}
	}
}

// WithCaptureLimit bounds free captures to n words. Zero means unbounded.
func WithCaptureLimit(n int) EngineOption {
	return func(e *Engine) {
		e.captureLimit = n
	}
}

// WithVariables declares variables bound outside the graph, so templates
// may reference them.
func WithVariables(names ...string) EngineOption {
	return func(e *Engine) {
		e.variables = append(e.variables, names...)
	}
}

// NewEngine compiles and validates graph. It fails with a
// *domain.GraphValidationError listing every problem found.
func NewEngine(graph *domain.Graph, opts ...EngineOption) (*Engine, error) {
	e := &Engine{
		graph:          graph,
		macros:         macro.NewRegistry(),
		logger:         logging.NewNop(),
		unknown:        DefaultUnknownValue,
		missLimit:      DefaultMissLimit,
		fallbackPrompt: DefaultFallbackPrompt,
		captureLimit:   pattern.DefaultCaptureLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.matcher = pattern.NewMatcher(e.ontology, pattern.WithCaptureLimit(e.captureLimit))

	if err := e.compile(); err != nil {
		return nil, err
	}
	return e, nil
}

// Graph returns the read-only graph.
func (e *Engine) Graph() *domain.Graph {
	return e.graph
}

// Start creates a session positioned at the start state.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.StartAt(ctx, sessionID, e.graph.Start)
}

// StartAt creates a session positioned at state. An empty sessionID gets a
// random UUID.
func (e *Engine) StartAt(ctx context.Context, sessionID string, state domain.StateID) (*domain.Session, error) {
	node, ok := e.nodes[state]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStateNotFound, state)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s := domain.NewSession(sessionID, state)
	e.emitStateEnter(ctx, s, node)
	e.logger.Debug("Session started", "session_id", s.ID, "state", state)
	return s, nil
}

// Step advances the session by one turn and updates it in place.
//
// On a system state the utterance is ignored and system utterances are
// rendered until the session rests on a user or terminal state. On a user
// state the transitions are tried in registration order and the first match
// wins. Stepping an ended session returns domain.ErrSessionEnded.
func (e *Engine) Step(ctx context.Context, s *domain.Session, utterance string) (domain.Turn, error) {
	if s == nil {
		return domain.Turn{}, fmt.Errorf("step: nil session")
	}
	node, ok := e.nodes[s.Current]
	if !ok {
		return domain.Turn{}, fmt.Errorf("step: %w: %s", domain.ErrStateNotFound, s.Current)
	}
	if s.Vars == nil {
		s.Vars = make(domain.Vars)
	}

	turn := domain.Turn{State: s.Current}
	if s.Ended || node.IsTerminal() {
		s.Ended = true
		turn.Ended = true
		return turn, domain.ErrSessionEnded
	}

	if node.Speaker == domain.SpeakerUser {
		s.Turns++
		next, err := e.listen(ctx, s, node, utterance, &turn)
		if err != nil {
			turn.Output = append(turn.Output, e.fallbackPrompt)
			turn.AwaitingInput = true
			s.UpdatedAt = time.Now().UTC()
			return turn, err
		}
		node = next
	}

	node, err := e.speak(ctx, s, node, &turn)
	if err != nil {
		return turn, err
	}

	turn.State = s.Current
	if node.IsTerminal() {
		s.Ended = true
		turn.Ended = true
		e.logger.Debug("Session ended", "session_id", s.ID, "state", s.Current)
	} else {
		turn.AwaitingInput = true
	}
	s.UpdatedAt = time.Now().UTC()
	return turn, nil
}

// Inspect returns the read-only graph.
func (e *Engine) Inspect() *domain.Graph {
	return e.graph
}
