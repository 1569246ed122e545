package runtime_test

import (
	"testing"

	"github.com/aretw0/arcade/internal/runtime"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/dsl"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationIssues(t *testing.T, g *domain.Graph, opts ...runtime.EngineOption) []string {
	t.Helper()
	_, err := runtime.NewEngine(g, opts...)
	var gve *domain.GraphValidationError
	require.ErrorAs(t, err, &gve)
	return gve.Issues
}

func TestValidate_CollectsEveryIssue(t *testing.T) {
	b := dsl.New("START")
	b.State("START").
		Say("Hi $nobody, #MISSING", "GONE").
		Say("twice", "ASK")
	b.State("ASK").
		Listen("{yes", "START").
		Listen("#ONT(sega)", "START").
		Error("NOWHERE")

	issues := validationIssues(t, b.MustBuild(), runtime.WithOntology(testOntology(t)), runtime.WithFallbackState("LOST"))

	assert.ElementsMatch(t, []string{
		"state START: system state has 2 transitions, want at most 1",
		`state START: transition 0 targets unknown state "GONE"`,
		`state ASK: error successor targets unknown state "NOWHERE"`,
		`state ASK: transition 0: pattern "{yes": unterminated group, expected '}' at offset 4`,
		`state ASK: transition 1: unknown ontology term "sega"`,
		"state START: template references unknown macro #MISSING",
		"state START: template references unbound variable $nobody",
		`fallback state "LOST" is not defined`,
	}, issues)
}

func TestValidate_MixedSpeakers(t *testing.T) {
	b := dsl.New("A")
	b.State("A").Listen("yes", "B").Say("hello", "B")
	b.State("B")

	issues := validationIssues(t, b.MustBuild())
	assert.Equal(t, []string{"state A: transition 1 is a system transition in a user state"}, issues)
}

func TestValidate_Unreachable(t *testing.T) {
	b := dsl.New("A")
	b.State("A").Say("hi", "B")
	b.State("B")
	b.State("ISLAND").Say("nobody comes here", "B")

	issues := validationIssues(t, b.MustBuild())
	assert.Equal(t, []string{"state ISLAND is unreachable from A"}, issues)
}

func TestValidate_SystemLoop(t *testing.T) {
	b := dsl.New("A")
	b.State("A").Say("one", "B")
	b.State("B").Say("two", "A")

	issues := validationIssues(t, b.MustBuild())
	assert.Equal(t, []string{"system states loop without a user turn: A -> B -> A"}, issues)
}

func TestValidate_MissingStart(t *testing.T) {
	b := dsl.New("NOPE")
	b.State("A")

	issues := validationIssues(t, b.MustBuild())
	assert.Contains(t, issues, `start state "NOPE" is not defined`)
}

func TestValidate_OntologyTermsNeedAnOntology(t *testing.T) {
	b := dsl.New("A")
	b.State("A").Listen("#ONT(xbox)", "B")
	b.State("B")

	issues := validationIssues(t, b.MustBuild())
	assert.Equal(t, []string{`state A: transition 0: unknown ontology term "xbox"`}, issues)
}

func TestValidate_VariablesBoundByMacrosAndOptions(t *testing.T) {
	reg := macro.NewRegistry()
	reg.Register("PICK", nil, "picked")

	b := dsl.New("A")
	b.State("A").Say("#PICK $picked $name", "B")
	b.State("B")

	_, err := runtime.NewEngine(b.MustBuild(), runtime.WithMacros(reg), runtime.WithVariables("name"))
	assert.NoError(t, err)
}

func TestValidate_NilGraph(t *testing.T) {
	issues := validationIssues(t, nil)
	assert.Equal(t, []string{"graph is nil"}, issues)
}
