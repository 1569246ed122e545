package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/arcade/internal/logging"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/ports"
	"github.com/aretw0/arcade/pkg/session"
)

// ErrInterrupted is returned by Run when the user pressed Ctrl+C or the
// context was cancelled mid-conversation.
var ErrInterrupted = errors.New("interrupted")

// Runner drives one conversation over an IOHandler until it ends, the user
// leaves or the process is interrupted.
type Runner struct {
	// Handler is the strategy for IO. Defaults to a TextHandler on Stdin/Stdout.
	Handler IOHandler

	// Logger is used for internal debug logging.
	Logger *slog.Logger

	// Sessions persists the conversation after every turn. If nil, the
	// session lives only as long as Run.
	Sessions *session.Manager

	// SessionID names the session. Empty means a fresh random ID.
	SessionID string

	// Renderer applies to the default TextHandler only.
	Renderer ContentRenderer

	Input  io.Reader
	Output io.Writer
}

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithSessions enables persistence through the session manager.
func WithSessions(m *session.Manager) Option {
	return func(r *Runner) {
		r.Sessions = m
	}
}

// WithSessionID sets the session to create or resume.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.SessionID = id
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRenderer configures the content renderer of the default handler.
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.Renderer = renderer
	}
}

// WithIO sets the streams of the default handler.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// NewRunner creates a Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:  os.Stdin,
		Output: os.Stdout,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays the conversation. It returns the session as it was left, which
// may be resumed later when a session manager is configured. Typing "exit"
// or "quit", or closing the input, ends Run without error.
func (r *Runner) Run(ctx context.Context, conv ports.Conversation) (*domain.Session, error) {
	handler := r.resolveHandler()

	signals := NewSignalManager()
	defer signals.Stop()
	ctx, cancel := mergeContext(ctx, signals.Context())
	defer cancel()
	defer func() {
		if sig := signals.Signal(); sig != nil {
			r.Logger.Debug("Run interrupted by signal", "signal", sig.String())
		}
	}()

	s, resumed, err := r.open(ctx, conv)
	if err != nil {
		return nil, err
	}
	if s.Ended {
		_ = handler.SystemOutput(ctx, fmt.Sprintf("Session %s has already ended.", s.ID))
		return s, nil
	}

	utterance := ""
	skipStep := false
	if resumed {
		if node, err := conv.Inspect().Node(s.Current); err == nil && node.Speaker == domain.SpeakerUser {
			// Waiting for the user already; stepping with "" would count a miss.
			skipStep = true
			_ = handler.SystemOutput(ctx, fmt.Sprintf("Resuming session %s.", s.ID))
		}
	}

	for {
		if !skipStep {
			turn, err := r.step(ctx, conv, s, utterance)
			if errors.Is(err, domain.ErrSessionEnded) {
				return s, nil
			}
			if err != nil && !errors.Is(err, domain.ErrNoMatch) {
				return s, fmt.Errorf("step error: %w", err)
			}
			if err := handler.Output(ctx, turn); err != nil {
				return s, fmt.Errorf("output error: %w", err)
			}
			if turn.Ended {
				return s, nil
			}
		}
		skipStep = false

		utterance, err = r.read(ctx, handler)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s, nil
			}
			return s, err
		}
		if utterance == "exit" || utterance == "quit" {
			return s, nil
		}
	}
}

// open starts the session, or resumes it when persistence is enabled and
// the ID is known.
func (r *Runner) open(ctx context.Context, conv ports.Conversation) (*domain.Session, bool, error) {
	if r.Sessions == nil || r.SessionID == "" {
		s, err := conv.Start(ctx, r.SessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to start session: %w", err)
		}
		if r.Sessions != nil {
			if err := r.Sessions.Save(ctx, s.ID, s); err != nil {
				return nil, false, err
			}
		}
		return s, false, nil
	}

	s, err := r.Sessions.Load(ctx, r.SessionID)
	if err == nil {
		r.Logger.Debug("Session resumed", "session_id", s.ID, "state", s.Current)
		return s, len(s.History) > 1, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %s: %w", r.SessionID, err)
	}
	s, err = r.Sessions.Start(ctx, conv, r.SessionID)
	return s, false, err
}

func (r *Runner) step(ctx context.Context, conv ports.Conversation, s *domain.Session, utterance string) (domain.Turn, error) {
	if r.Sessions == nil {
		return conv.Step(ctx, s, utterance)
	}
	next, turn, err := r.Sessions.Step(ctx, conv, s.ID, utterance)
	if next != nil {
		*s = *next
	}
	return turn, err
}

// read returns the next utterance, retrying on input that fails sanitization.
func (r *Runner) read(ctx context.Context, handler IOHandler) (string, error) {
	for {
		val, err := handler.Input(ctx)
		switch {
		case err == nil:
			return strings.TrimSpace(val), nil
		case errors.Is(err, ErrInputTooLarge), errors.Is(err, ErrInvalidUTF8):
			_ = handler.SystemOutput(ctx, err.Error())
			continue
		case ctx.Err() != nil:
			r.Logger.Debug("Runner input: Context cancelled", "err", ctx.Err())
			return "", ErrInterrupted
		default:
			return "", err
		}
	}
}

func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	return r.Handler
}

// Close releases the input handler when it holds resources.
func (r *Runner) Close() error {
	if c, ok := r.Handler.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// mergeContext is cancelled when either parent is.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
