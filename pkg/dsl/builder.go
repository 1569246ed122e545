package dsl

import (
	"errors"

	"github.com/aretw0/arcade/pkg/domain"
)

// Builder manages the graph construction.
type Builder struct {
	start domain.StateID
	nodes map[domain.StateID]*StateBuilder
	order []domain.StateID
}

// New creates a graph builder whose conversations begin at start.
func New(start domain.StateID) *Builder {
	return &Builder{
		start: start,
		nodes: make(map[domain.StateID]*StateBuilder),
	}
}

// State declares a state, or returns the existing builder for it.
func (b *Builder) State(id domain.StateID) *StateBuilder {
	if sb, ok := b.nodes[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		node:    domain.Node{ID: id},
		builder: b,
	}
	b.nodes[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build assembles the graph. States that declared no speaker and have no
// transitions are system states. Structural checks happen when the engine
// compiles the graph.
func (b *Builder) Build() (*domain.Graph, error) {
	if b.start == "" {
		return nil, errors.New("dsl: start state is required")
	}
	g := &domain.Graph{
		Start: b.start,
		Nodes: make(map[domain.StateID]*domain.Node, len(b.nodes)),
		Order: append([]domain.StateID(nil), b.order...),
	}
	for _, id := range b.order {
		n := b.nodes[id].node
		n.Transitions = append([]domain.Transition(nil), n.Transitions...)
		if n.Speaker == "" {
			n.Speaker = domain.SpeakerSystem
		}
		g.Nodes[id] = &n
	}
	return g, nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *domain.Graph {
	g, err := b.Build()
	if err != nil {
		panic(err)
	}
	return g
}
