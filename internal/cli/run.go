package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/arcade/internal/presentation/tui"
	"github.com/aretw0/arcade/pkg/runner"
)

// RunOptions configures one console conversation.
type RunOptions struct {
	// SessionID resumes or names the session. Empty starts an anonymous one.
	SessionID string
	// JSON switches to NDJSON input and output.
	JSON bool
	// Fresh discards a stored session with the same ID before starting.
	Fresh bool
	// Plain disables the banner and markdown rendering.
	Plain bool

	In  io.Reader
	Out io.Writer
}

// RunSession holds a conversation on the console until it ends, the user
// leaves or the process is interrupted. An interrupted session stays in the
// store and can be resumed with the same ID.
func (a *App) RunSession(ctx context.Context, opts RunOptions) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	if opts.Fresh && opts.SessionID != "" {
		if err := a.Sessions.Delete(ctx, opts.SessionID); err != nil {
			return fmt.Errorf("failed to reset session %s: %w", opts.SessionID, err)
		}
	}

	runnerOpts := []runner.Option{
		runner.WithLogger(a.Logger),
		runner.WithSessions(a.Sessions),
		runner.WithSessionID(opts.SessionID),
		runner.WithIO(opts.In, opts.Out),
	}

	switch {
	case opts.JSON:
		runnerOpts = append(runnerOpts, runner.WithInputHandler(runner.NewJSONHandler(opts.In, opts.Out)))
	case !opts.Plain:
		tui.PrintBanner(opts.Out)
		if f, ok := opts.Out.(*os.File); ok && tui.IsInteractive(f) {
			render, err := tui.NewRenderer(tui.Width(f))
			if err != nil {
				a.Logger.Warn("Markdown rendering disabled", "err", err)
			} else {
				runnerOpts = append(runnerOpts, runner.WithRenderer(render))
			}
		}
	}

	r := runner.NewRunner(runnerOpts...)
	defer r.Close()
	s, err := r.Run(ctx, a.Engine)
	if s != nil {
		a.Logger.Debug("Session finished", "session_id", s.ID, "state", s.Current, "ended", s.Ended, "turns", s.Turns)
	}

	if errors.Is(err, runner.ErrInterrupted) || errors.Is(err, context.Canceled) {
		if s != nil && !s.Ended {
			fmt.Fprintf(opts.Out, "\nSession %s saved. Resume with: arcade run --session %s\n", s.ID, s.ID)
		}
		return nil
	}
	return err
}
