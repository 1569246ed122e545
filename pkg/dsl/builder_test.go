package dsl

import (
	"testing"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	b := New("START")

	b.State("START").
		Say("Hi, do you play video games?", "ASK")

	b.State("ASK").
		Listen("{yes, yeah}", "END").
		Listen("{no, nope}", "END").
		Error("RETRY")

	b.State("RETRY").
		Say("Sorry?", "ASK").
		State("END")

	g, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, domain.StateID("START"), g.Start)
	assert.Equal(t, []domain.StateID{"START", "ASK", "RETRY", "END"}, g.Order)

	ask, err := g.Node("ASK")
	require.NoError(t, err)
	assert.Equal(t, domain.SpeakerUser, ask.Speaker)
	require.Len(t, ask.Transitions, 2)
	assert.Equal(t, "{yes, yeah}", ask.Transitions[0].Pattern, "registration order is kept")
	assert.Equal(t, domain.StateID("ASK"), ask.Transitions[0].From)
	assert.Equal(t, domain.StateID("RETRY"), ask.ErrorSuccessor)

	end, err := g.Node("END")
	require.NoError(t, err)
	assert.True(t, end.IsTerminal())
	assert.Equal(t, domain.SpeakerSystem, end.Speaker)
}

func TestBuilder_ErrorOverwrites(t *testing.T) {
	b := New("A")
	b.State("A").Listen("x", "B").Error("B").Error("C")
	b.State("B")
	b.State("C")

	g := b.MustBuild()
	assert.Equal(t, domain.StateID("C"), g.Nodes["A"].ErrorSuccessor)
}

func TestBuilder_StateIsIdempotent(t *testing.T) {
	b := New("A")
	b.State("A").Say("one", "B")
	b.State("A").Say("two", "B")
	b.State("B")

	g := b.MustBuild()
	assert.Len(t, g.Nodes["A"].Transitions, 2)
	assert.Len(t, g.Order, 2)
}

func TestBuilder_BuildCopiesNodes(t *testing.T) {
	b := New("A")
	b.State("A").Say("one", "A")
	g := b.MustBuild()

	b.State("A").Say("two", "A")
	assert.Len(t, g.Nodes["A"].Transitions, 1)
}

func TestBuilder_RequiresStart(t *testing.T) {
	_, err := New("").Build()
	assert.Error(t, err)
}
