/*
Package dsl provides a fluent Go builder for arcade dialogue graphs.

States are declared in order; within a user state, Listen calls are evaluated
in the order they are written and the first matching pattern wins.

Example usage:

	b := dsl.New("START")

	b.State("START").
		Say("Hi, do you play video games?", "ASK")

	b.State("ASK").
		Listen("{yes, yeah, sure}", "DEVICE").
		Listen(`{no, nope, "not really"}`, "END").
		Error("RETRY")

	b.State("RETRY").
		Say("Sorry, I didn't catch that. Do you play?", "ASK")

	b.State("DEVICE").
		Say("What do you play on?", "END")

	b.State("END")

	graph, err := b.Build()
	// ... pass graph to arcade.New(...)
*/
package dsl
