package runtime_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/arcade/internal/runtime"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/dsl"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/ontology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOntology(t *testing.T) *ontology.Ontology {
	t.Helper()
	o, err := ontology.New(ontology.Definition{
		Ontology: map[string][]string{
			"playstation": {"ps4", "ps5", "playstation 4"},
			"xbox":        {"x360", "xbox one"},
		},
	})
	require.NoError(t, err)
	return o
}

// greeting is a small graph: START says hello, ASK listens for a device.
func greeting() *dsl.Builder {
	b := dsl.New("START")
	b.State("START").Say("Hello!", "INTRO")
	b.State("INTRO").Say("What do you play on?", "ASK")
	b.State("ASK").
		Listen("$device=#ONT(playstation)", "DEVICE").
		Listen("$device=#ONT(xbox)", "DEVICE").
		Listen("{nothing, none}", "END")
	b.State("DEVICE").Say("Oh, $device!", "END")
	b.State("END")
	return b
}

func newEngine(t *testing.T, b *dsl.Builder, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	opts = append([]runtime.EngineOption{runtime.WithOntology(testOntology(t))}, opts...)
	e, err := runtime.NewEngine(b.MustBuild(), opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_Conversation(t *testing.T) {
	e := newEngine(t, greeting())
	ctx := context.Background()

	s, err := e.Start(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StateID("START"), s.Current)

	turn, err := e.Step(ctx, s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello!", "What do you play on?"}, turn.Output)
	assert.Equal(t, domain.StateID("ASK"), turn.State)
	assert.True(t, turn.AwaitingInput)

	turn, err = e.Step(ctx, s, "Mostly my PS4")
	require.NoError(t, err)
	assert.Equal(t, domain.StateID("DEVICE"), turn.Matched)
	assert.Equal(t, []string{"Oh, playstation!"}, turn.Output)
	assert.True(t, turn.Ended)
	assert.True(t, s.Ended)
	assert.Equal(t, "playstation", s.Vars["device"])
	assert.Equal(t, 1, s.Turns)
	assert.Equal(t, []domain.StateID{"START", "INTRO", "ASK", "DEVICE", "END"}, s.History)
}

func TestEngine_StartGeneratesID(t *testing.T) {
	e := newEngine(t, greeting())
	s, err := e.Start(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, s.ID, 36)

	_, err = e.StartAt(context.Background(), "x", "NOWHERE")
	assert.ErrorIs(t, err, domain.ErrStateNotFound)
}

func TestEngine_TerminalIsNoOp(t *testing.T) {
	e := newEngine(t, greeting())
	ctx := context.Background()

	s, err := e.StartAt(ctx, "s1", "END")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		turn, err := e.Step(ctx, s, "anything at all")
		assert.ErrorIs(t, err, domain.ErrSessionEnded)
		assert.True(t, turn.Ended)
		assert.Empty(t, turn.Output)
		assert.Equal(t, domain.StateID("END"), s.Current)
		assert.Zero(t, s.Turns, "no input is consumed")
	}
}

func TestEngine_FirstMatchWins(t *testing.T) {
	b := dsl.New("ASK")
	b.State("ASK").
		Listen("{yes, sure}", "FIRST").
		Listen("sure", "SECOND")
	b.State("FIRST")
	b.State("SECOND")
	e := newEngine(t, b)

	s, _ := e.Start(context.Background(), "s")
	turn, err := e.Step(context.Background(), s, "sure")
	require.NoError(t, err)
	assert.Equal(t, domain.StateID("FIRST"), turn.Matched)
}

func TestEngine_ErrorSuccessor(t *testing.T) {
	b := dsl.New("ASK")
	b.State("ASK").
		Listen("{yes, yeah, yep}", "END").
		Error("RETRY")
	b.State("RETRY").Say("Sorry, do you play video games?", "ASK")
	b.State("END")
	e := newEngine(t, b)
	ctx := context.Background()

	s, _ := e.Start(ctx, "s")
	turn, err := e.Step(ctx, s, "nah")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sorry, do you play video games?"}, turn.Output)
	assert.Equal(t, domain.StateID("ASK"), s.Current)
	assert.Equal(t, 1, s.Misses)

	turn, err = e.Step(ctx, s, "yep")
	require.NoError(t, err)
	assert.True(t, turn.Ended)
	assert.Zero(t, s.Misses)
}

func TestEngine_ErrorSuccessorOutlastsMissLimit(t *testing.T) {
	b := dsl.New("ASK")
	b.State("ASK").
		Listen("{yes, yeah, yep}", "END").
		Error("RETRY")
	b.State("RETRY").Say("Sorry, do you play video games?", "ASK")
	b.State("RESET").Say("Let's start over.", "ASK")
	b.State("END")
	e := newEngine(t, b, runtime.WithFallbackState("RESET"), runtime.WithMissLimit(2))
	ctx := context.Background()

	s, _ := e.Start(ctx, "s")
	for i := 1; i <= 5; i++ {
		turn, err := e.Step(ctx, s, "nah")
		require.NoError(t, err)
		assert.Equal(t, []string{"Sorry, do you play video games?"}, turn.Output, "miss %d", i)
		assert.Equal(t, domain.StateID("ASK"), s.Current)
		assert.Equal(t, i, s.Misses)
	}
	assert.NotContains(t, s.History, domain.StateID("RESET"))
}

func TestEngine_NoMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("stays and prompts until the miss limit", func(t *testing.T) {
		b := dsl.New("ASK")
		b.State("ASK").Listen("yes", "END")
		b.State("END")
		b.State("RESET").Say("Let's start over.", "ASK")
		e := newEngine(t, b, runtime.WithFallbackState("RESET"), runtime.WithMissLimit(3), runtime.WithFallbackPrompt("Say what?"))
		s, _ := e.Start(ctx, "s")

		for i := 1; i <= 2; i++ {
			turn, err := e.Step(ctx, s, "huh")
			var nm *domain.NoMatchError
			require.ErrorAs(t, err, &nm)
			assert.ErrorIs(t, err, domain.ErrNoMatch)
			assert.Equal(t, i, nm.Attempts)
			assert.Equal(t, []string{"Say what?"}, turn.Output)
			assert.True(t, turn.AwaitingInput)
			assert.Equal(t, domain.StateID("ASK"), s.Current)
		}

		turn, err := e.Step(ctx, s, "huh")
		require.NoError(t, err, "the miss limit forces the fallback state")
		assert.Equal(t, []string{"Let's start over."}, turn.Output)
		assert.Equal(t, domain.StateID("ASK"), s.Current)
		assert.Zero(t, s.Misses)
	})

	t.Run("without fallback keeps prompting", func(t *testing.T) {
		bb := dsl.New("ASK")
		bb.State("ASK").Listen("yes", "END")
		bb.State("END")
		e := newEngine(t, bb, runtime.WithMissLimit(1))
		s, _ := e.Start(ctx, "s")

		for i := 0; i < 5; i++ {
			_, err := e.Step(ctx, s, "huh")
			assert.ErrorIs(t, err, domain.ErrNoMatch)
		}
		assert.Equal(t, 5, s.Misses)
		assert.False(t, s.Ended)
	})
}

func TestEngine_UnknownValue(t *testing.T) {
	b := dsl.New("START")
	b.State("START").Say("You play $device.", "END")
	b.State("END")

	e := newEngine(t, b, runtime.WithVariables("device"))
	s, _ := e.Start(context.Background(), "s")
	turn, err := e.Step(context.Background(), s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"You play something."}, turn.Output)

	e = newEngine(t, b, runtime.WithVariables("device"), runtime.WithUnknownValue("???"))
	s, _ = e.Start(context.Background(), "s")
	turn, _ = e.Step(context.Background(), s, "")
	assert.Equal(t, []string{"You play ???."}, turn.Output)
}

func TestEngine_MacroFailureIsRecovered(t *testing.T) {
	reg := macro.NewRegistry()
	reg.Register("BOOM", func(context.Context, *macro.Env) (string, error) {
		panic("kaboom")
	})
	reg.Register("FAIL", func(context.Context, *macro.Env) (string, error) {
		return "ignored", errors.New("lookup exploded")
	})
	var calls []string
	reg.Register("ECHO", func(_ context.Context, env *macro.Env) (string, error) {
		calls = append(calls, env.Arg(0))
		env.Vars["echoed"] = env.Arg(0)
		return env.Arg(0), nil
	}, "echoed")

	b := dsl.New("START")
	b.State("START").Say("#ECHO(a) [#BOOM] [#FAIL] #ECHO(b)", "NEXT")
	b.State("NEXT").Say("last was $echoed", "END")
	b.State("END")

	var failed []string
	hooks := domain.LifecycleHooks{
		OnMacroReturn: func(_ context.Context, ev *domain.MacroEvent) {
			if ev.IsError {
				failed = append(failed, ev.Macro)
			}
		},
	}
	e := newEngine(t, b, runtime.WithMacros(reg), runtime.WithLifecycleHooks(hooks))
	s, _ := e.Start(context.Background(), "s")

	turn, err := e.Step(context.Background(), s, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a [] [] b", "last was b"}, turn.Output)
	assert.Equal(t, []string{"a", "b"}, calls, "each macro runs once, left to right")
	assert.Equal(t, []string{"BOOM", "FAIL"}, failed)
	assert.True(t, turn.Ended)
}

func TestEngine_Hooks(t *testing.T) {
	var events []string
	record := func(prefix string) func(context.Context, *domain.StateEvent) {
		return func(_ context.Context, ev *domain.StateEvent) {
			events = append(events, prefix+string(ev.StateID))
		}
	}
	hooks := domain.LifecycleHooks{OnStateEnter: record("+"), OnStateLeave: record("-")}
	var misses []domain.StateID
	more := domain.LifecycleHooks{OnNoMatch: func(_ context.Context, ev *domain.NoMatchEvent) {
		misses = append(misses, ev.StateID)
	}}

	e := newEngine(t, greeting(), runtime.WithLifecycleHooks(hooks), runtime.WithLifecycleHooks(more))
	ctx := context.Background()
	s, _ := e.Start(ctx, "s")
	_, _ = e.Step(ctx, s, "")
	_, _ = e.Step(ctx, s, "a gameboy")
	_, _ = e.Step(ctx, s, "none")

	assert.Equal(t, []string{"+START", "-START", "+INTRO", "-INTRO", "+ASK", "-ASK", "+END"}, events)
	assert.Equal(t, []domain.StateID{"ASK"}, misses)
}

func TestEngine_BindingsAreIdempotent(t *testing.T) {
	b := dsl.New("ASK")
	b.State("ASK").Listen("$device=#ONT(xbox)", "ASK").Error("ASK")
	e := newEngine(t, b)
	ctx := context.Background()

	s, _ := e.Start(ctx, "s")
	_, err := e.Step(ctx, s, "my x360")
	require.NoError(t, err)
	v1, _ := s.Vars.String("device")

	_, err = e.Step(ctx, s, "my x360")
	require.NoError(t, err)
	v2, _ := s.Vars.String("device")
	assert.Equal(t, v1, v2)
	assert.Len(t, s.Vars, 1)
}

func TestEngine_ConcurrentSessionsAreIsolated(t *testing.T) {
	e := newEngine(t, greeting())
	ctx := context.Background()

	var wg sync.WaitGroup
	devices := []string{"ps5", "xbox one"}
	sessions := make([]*domain.Session, 40)
	for i := range sessions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := e.Start(ctx, fmt.Sprintf("s%d", i))
			if err != nil {
				return
			}
			_, _ = e.Step(ctx, s, "")
			_, _ = e.Step(ctx, s, devices[i%2])
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for i, s := range sessions {
		require.NotNil(t, s)
		want := map[int]string{0: "playstation", 1: "xbox"}[i%2]
		assert.Equal(t, want, s.Vars["device"], s.ID)
	}
}
