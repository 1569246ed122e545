package dsl

import "github.com/aretw0/arcade/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	node    domain.Node
	builder *Builder
}

// System marks the state as a system turn.
func (s *StateBuilder) System() *StateBuilder {
	s.node.Speaker = domain.SpeakerSystem
	return s
}

// User marks the state as a user turn.
func (s *StateBuilder) User() *StateBuilder {
	s.node.Speaker = domain.SpeakerUser
	return s
}

// Say adds a system transition that renders template and moves to target.
func (s *StateBuilder) Say(template string, target domain.StateID) *StateBuilder {
	return s.add(domain.SpeakerSystem, template, "", target)
}

// Listen adds a user transition taken when pattern matches the utterance.
func (s *StateBuilder) Listen(pattern string, target domain.StateID) *StateBuilder {
	return s.add(domain.SpeakerUser, "", pattern, target)
}

// Error sets the state followed when no user transition matches.
// Calling it again replaces the previous target.
func (s *StateBuilder) Error(target domain.StateID) *StateBuilder {
	s.node.ErrorSuccessor = target
	return s
}

// State continues with another state of the same builder.
func (s *StateBuilder) State(id domain.StateID) *StateBuilder {
	return s.builder.State(id)
}

func (s *StateBuilder) add(speaker domain.Speaker, template, pattern string, target domain.StateID) *StateBuilder {
	if s.node.Speaker == "" {
		s.node.Speaker = speaker
	}
	s.node.Transitions = append(s.node.Transitions, domain.Transition{
		From:     s.node.ID,
		To:       target,
		Speaker:  speaker,
		Template: template,
		Pattern:  pattern,
	})
	return s
}
