package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVars_ApplyIsIdempotent(t *testing.T) {
	bindings := map[string]string{"device": "playstation", "fav_game": "gran turismo"}

	once := make(Vars)
	once.Apply(bindings)

	twice := make(Vars)
	twice.Apply(bindings)
	twice.Apply(bindings)

	assert.Equal(t, once, twice)
}

func TestVars_String(t *testing.T) {
	v := Vars{
		"device": "nintendo",
		"empty":  "",
		"record": GameRecord{Name: "Tetris"},
		"plain":  map[string]any{"name": "Halo 3"},
		"count":  42,
	}

	got, ok := v.String("device")
	assert.True(t, ok)
	assert.Equal(t, "nintendo", got)

	_, ok = v.String("empty")
	assert.False(t, ok)

	_, ok = v.String("missing")
	assert.False(t, ok)

	got, _ = v.String("record")
	assert.Equal(t, "Tetris", got)

	got, _ = v.String("plain")
	assert.Equal(t, "Halo 3", got)

	got, _ = v.String("count")
	assert.Equal(t, "42", got)
}

func TestSession_CloneIsolation(t *testing.T) {
	s := NewSession("a", "START")
	s.Vars["device"] = "pc"
	s.Recommended = []string{"The Sims 3"}

	c := s.Clone()
	c.Vars["device"] = "xbox"
	c.Recommended = append(c.Recommended, "Halo 3")
	c.History = append(c.History, "NEXT")

	assert.Equal(t, "pc", s.Vars["device"])
	assert.Len(t, s.Recommended, 1)
	assert.Len(t, s.History, 1)
	assert.True(t, c.RecommendedSet().Has("Halo 3"))
}

func TestNode_IsTerminal(t *testing.T) {
	assert.True(t, (&Node{ID: "END"}).IsTerminal())
	assert.False(t, (&Node{ID: "ERR", ErrorSuccessor: "START"}).IsTerminal())
	assert.False(t, (&Node{ID: "A", Transitions: []Transition{{To: "B"}}}).IsTerminal())
}
