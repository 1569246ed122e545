/*
Package runner plays a conversation on a console.

It is the bridge between the dialogue engine and a person at a terminal (or
a program speaking JSON Lines). The Runner steps the engine, prints each
turn through an IOHandler, reads the next utterance and, when a
session.Manager is configured, saves the session after every turn so that
a later Run with the same ID resumes where the user left off.

# Key Components

  - Runner: the read-step-print loop.
  - IOHandler: decouples how utterances are read and turns are printed.
  - TextHandler: the interactive console handler.
  - JSONHandler: one JSON object per turn, for scripting.
  - SanitizeInput: the size and control-character guard shared by every adapter.

# Usage

	eng, err := videogames.NewEngine(videogames.Options{})
	if err != nil {
		log.Fatal(err)
	}

	r := runner.NewRunner(
		runner.WithSessions(session.NewManager(file.NewStore(""))),
		runner.WithSessionID("player-1"),
	)
	if _, err := r.Run(ctx, eng); err != nil {
		log.Fatal(err)
	}
*/
package runner
