package domain

import "fmt"

// StateID names a point in the conversation graph.
type StateID string

// Speaker identifies whose turn a state represents.
type Speaker string

const (
	// SpeakerSystem states render an utterance and continue immediately.
	SpeakerSystem Speaker = "system"
	// SpeakerUser states halt and wait for an utterance.
	SpeakerUser Speaker = "user"
)

// Valid reports whether s is one of the known speakers.
func (s Speaker) Valid() bool {
	return s == SpeakerSystem || s == SpeakerUser
}

// Node represents a state in the graph together with its outgoing edges.
type Node struct {
	ID      StateID `json:"id" yaml:"id"`
	Speaker Speaker `json:"speaker" yaml:"speaker"`

	// Transitions are kept in registration order. For user states this is the
	// evaluation order: the first matching pattern wins.
	Transitions []Transition `json:"transitions,omitempty" yaml:"transitions,omitempty"`

	// ErrorSuccessor is followed when no user transition matches.
	ErrorSuccessor StateID `json:"error_successor,omitempty" yaml:"error_successor,omitempty"`
}

// IsTerminal reports whether the node ends the conversation.
func (n *Node) IsTerminal() bool {
	return len(n.Transitions) == 0 && n.ErrorSuccessor == ""
}

// Graph is the static conversation definition. It is built once and never
// mutated afterwards, so it can be shared by any number of sessions.
type Graph struct {
	Start StateID           `json:"start"`
	Nodes map[StateID]*Node `json:"nodes"`
	Order []StateID         `json:"order"`
}

// Node returns the node registered under id.
func (g *Graph) Node(id StateID) (*Node, error) {
	n, ok := g.Nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStateNotFound, id)
	}
	return n, nil
}

// List returns the nodes in registration order.
func (g *Graph) List() []*Node {
	nodes := make([]*Node, 0, len(g.Order))
	for _, id := range g.Order {
		if n, ok := g.Nodes[id]; ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
