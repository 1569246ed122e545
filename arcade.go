package arcade

import (
	"context"
	"log/slog"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/internal/runtime"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/ontology"
	"github.com/aretw0/arcade/pkg/pattern"
	"github.com/aretw0/arcade/pkg/ports"
)

var _ ports.Conversation = (*Engine)(nil)

// Defaults applied when the corresponding option is not set.
const (
	DefaultMissLimit      = runtime.DefaultMissLimit
	DefaultUnknownValue   = runtime.DefaultUnknownValue
	DefaultFallbackPrompt = runtime.DefaultFallbackPrompt
	DefaultCaptureLimit   = pattern.DefaultCaptureLimit
)

// Engine is the high-level entry point for the arcade library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime     *runtime.Engine
	ontology    *ontology.Ontology
	macros      *macro.Registry
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	runtimeOpts []runtime.EngineOption
	Name        string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks. Repeated calls chain.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOntology sets the ontology used by #ONT(term) patterns.
func WithOntology(o *ontology.Ontology) Option {
	return func(e *Engine) {
		e.ontology = o
	}
}

// WithMacros sets the registry used by #MACRO references in templates.
func WithMacros(r *macro.Registry) Option {
	return func(e *Engine) {
		e.macros = r
	}
}

// WithUnknownValue sets the text rendered for variables that are not set
// (default "something").
func WithUnknownValue(s string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithUnknownValue(s))
	}
}

// WithMissLimit sets how many consecutive unmatched utterances force the
// fallback state (default 3).
func WithMissLimit(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithMissLimit(n))
	}
}

// WithFallbackState configures the top-level state forced once the miss
// limit is reached.
func WithFallbackState(id domain.StateID) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithFallbackState(id))
	}
}

// WithFallbackPrompt sets the generic prompt returned with a NoMatchError.
func WithFallbackPrompt(s string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithFallbackPrompt(s))
	}
}

// WithCaptureLimit bounds free captures ("*") to n words (default 8).
func WithCaptureLimit(n int) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithCaptureLimit(n))
	}
}

// WithVariables declares variables set outside the graph.
func WithVariables(names ...string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithVariables(names...))
	}
}

// WithName labels the engine; the name is attached to every log line.
func WithName(name string) Option {
	return func(e *Engine) {
		e.Name = name
	}
}

// New compiles and validates graph. An invalid graph fails with a
// *domain.GraphValidationError listing every problem.
func New(graph *domain.Graph, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	// Ensure logger is initialized (so we don't pass nil to runtime)
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("graph", eng.Name)
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMacros(eng.macros),
	}
	if eng.ontology != nil {
		runtimeOpts = append(runtimeOpts, runtime.WithOntology(eng.ontology))
	}
	runtimeOpts = append(runtimeOpts, eng.runtimeOpts...)

	rt, err := runtime.NewEngine(graph, runtimeOpts...)
	if err != nil {
		return nil, err
	}
	eng.runtime = rt
	return eng, nil
}

// Start creates a session at the start state. An empty sessionID gets a
// random UUID.
func (e *Engine) Start(ctx context.Context, sessionID string) (*domain.Session, error) {
	return e.runtime.Start(ctx, sessionID)
}

// StartAt creates a session at an arbitrary state.
func (e *Engine) StartAt(ctx context.Context, sessionID string, state domain.StateID) (*domain.Session, error) {
	return e.runtime.StartAt(ctx, sessionID, state)
}

// Step advances the session by one turn and updates it in place.
// It returns domain.ErrSessionEnded on a terminal state and a
// *domain.NoMatchError when the utterance matched nothing.
func (e *Engine) Step(ctx context.Context, session *domain.Session, utterance string) (domain.Turn, error) {
	return e.runtime.Step(ctx, session, utterance)
}

// Inspect returns the read-only graph for visualization or introspection tools.
func (e *Engine) Inspect() *domain.Graph {
	return e.runtime.Inspect()
}

// Ontology returns the configured ontology, or nil.
func (e *Engine) Ontology() *ontology.Ontology {
	return e.ontology
}
