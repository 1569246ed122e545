/*
Package arcade is a deterministic dialogue engine for short conversations about video game preferences.

A conversation is a graph of states. System states speak a templated utterance and move on by
themselves; user states wait for an utterance and pick the first transition whose pattern matches it.
Patterns understand ontology terms ("#ONT(nintendo)" matches "switch" or "game boy"), and templates call
macros ("#SYSTEM_FAV") that answer from the video game sales dataset.

# Concept

The graph is compiled and validated once, when the Engine is built. A Session holds everything that changes
during one conversation: the current state, the variables bound so far and the titles already recommended.
Sessions are plain values, so the host decides where they live (memory, Redis, a file) and how they reach
the user (console, HTTP, MCP).

# Key Features

  - Validated graphs: unknown targets, bad patterns, unknown macros and unreachable states fail at New.
  - Graceful misses: unmatched input goes to an error successor or a fallback prompt, never a crash.
  - Isolated sessions: variables and recommendations are never shared between conversations.
  - Observable: lifecycle hooks report state changes, macro calls and misses.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/arcade"
		"github.com/aretw0/arcade/pkg/dsl"
	)

	func main() {
		b := dsl.New("HELLO")
		b.State("HELLO").Say("Do you like games?", "ASK")
		b.State("ASK").
			Listen("{yes, sure}", "YES").
			Listen("*", "NO")
		b.State("YES").Say("Me too!", "END")
		b.State("NO").Say("Fair enough.", "END")
		b.State("END")

		eng, err := arcade.New(b.MustBuild())
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		s, err := eng.Start(ctx, "")
		if err != nil {
			log.Fatal(err)
		}

		for _, say := range []string{"", "sure"} {
			turn, err := eng.Step(ctx, s, say)
			if err != nil {
				log.Fatal(err)
			}
			for _, line := range turn.Output {
				fmt.Println(line)
			}
		}
	}
*/
package arcade
