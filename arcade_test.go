package arcade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arcade"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/dsl"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/ontology"
)

func consoles(t *testing.T) *ontology.Ontology {
	t.Helper()
	o, err := ontology.New(ontology.Definition{
		Ontology: map[string][]string{
			"playstation": {"ps4", "ps5"},
			"nintendo":    {"switch", "wii"},
		},
	})
	require.NoError(t, err)
	return o
}

func TestNew_ValidationError(t *testing.T) {
	b := dsl.New("START")
	b.State("START").Say("Hi #NOPE", "MISSING")

	_, err := arcade.New(b.MustBuild())
	var vErr *domain.GraphValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Issues, 2)
}

func TestEngine_Conversation(t *testing.T) {
	b := dsl.New("START")
	b.State("START").Say("Hi, do you play video games?", "ASK")
	b.State("ASK").
		Listen("[!not, {yes, yeah}]", "DEVICE").
		Error("HUH")
	b.State("HUH").Say("Sorry?", "ASK")
	b.State("DEVICE").Say("On what?", "ANS")
	b.State("ANS").
		Listen("$device=#ONT(playstation)", "END").
		Listen("$device=#ONT(nintendo)", "END")
	b.State("END")

	var entered []domain.StateID
	eng, err := arcade.New(b.MustBuild(),
		arcade.WithName("demo"),
		arcade.WithOntology(consoles(t)),
		arcade.WithLifecycleHooks(domain.LifecycleHooks{
			OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
				entered = append(entered, e.StateID)
			},
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "demo", eng.Name)
	assert.NotNil(t, eng.Ontology())

	ctx := context.Background()
	s, err := eng.Start(ctx, "s1")
	require.NoError(t, err)

	turn, err := eng.Step(ctx, s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi, do you play video games?"}, turn.Output)

	turn, err = eng.Step(ctx, s, "nah")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sorry?"}, turn.Output)
	assert.Equal(t, domain.StateID("ASK"), s.Current)

	_, err = eng.Step(ctx, s, "yeah")
	require.NoError(t, err)

	turn, err = eng.Step(ctx, s, "mostly my ps4")
	require.NoError(t, err)
	assert.True(t, turn.Ended)
	assert.Equal(t, "playstation", s.Vars["device"])

	assert.Equal(t, []domain.StateID{"START", "ASK", "HUH", "ASK", "DEVICE", "ANS", "END"}, entered)
}

func TestEngine_MacrosAndVariables(t *testing.T) {
	r := macro.NewRegistry()
	r.Register("GREET", func(_ context.Context, env *macro.Env) (string, error) {
		return "Hello " + env.Arg(0) + ".", nil
	})

	b := dsl.New("START")
	b.State("START").Say("#GREET(player) You play on $console.", "END")
	b.State("END")

	eng, err := arcade.New(b.MustBuild(),
		arcade.WithMacros(r),
		arcade.WithVariables("console"),
		arcade.WithUnknownValue("a mystery box"),
	)
	require.NoError(t, err)

	ctx := context.Background()
	s, err := eng.Start(ctx, "")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	turn, err := eng.Step(ctx, s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello player. You play on a mystery box."}, turn.Output)
	assert.True(t, s.Ended)
}

func TestEngine_FallbackPrompt(t *testing.T) {
	b := dsl.New("ASK")
	b.State("ASK").Listen("yes", "END")
	b.State("END")

	eng, err := arcade.New(b.MustBuild(), arcade.WithFallbackPrompt("Say yes."))
	require.NoError(t, err)

	ctx := context.Background()
	s, err := eng.Start(ctx, "")
	require.NoError(t, err)

	turn, err := eng.Step(ctx, s, "no")
	assert.ErrorIs(t, err, domain.ErrNoMatch)
	assert.Equal(t, []string{"Say yes."}, turn.Output)
	assert.True(t, turn.AwaitingInput)
}
