package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
)

// Prompt is printed before every read.
const Prompt = "> "

// TextHandler is the line-oriented console: one utterance per line out, one
// answer per line in.
type TextHandler struct {
	Writer   io.Writer
	Renderer ContentRenderer

	src *lineSource
}

// TextHandlerOption configures a TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer renders every utterance before it is printed.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler reads from r and writes to w. Nil streams mean Stdin and
// Stdout.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{Writer: w, src: newLineSource(r)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) render(utterance string) string {
	if h.Renderer == nil {
		return utterance
	}
	out, err := h.Renderer(utterance)
	if err != nil {
		return utterance
	}
	return out
}

func (h *TextHandler) Output(_ context.Context, turn domain.Turn) error {
	for _, utterance := range turn.Output {
		if _, err := fmt.Fprintln(h.Writer, strings.TrimSpace(h.render(utterance))); err != nil {
			return err
		}
	}
	return nil
}

// Input prompts and reads one answer. A rejected answer is reported and the
// prompt repeated.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Fprint(h.Writer, Prompt)

		text, err := h.src.Next(ctx)
		if err != nil {
			return "", err
		}
		answer, err := SanitizeInput(strings.TrimSpace(text))
		if err != nil {
			fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
			continue
		}
		return answer, nil
	}
}

// Close stops reading input.
func (h *TextHandler) Close() error {
	return h.src.Close()
}

func (h *TextHandler) SystemOutput(_ context.Context, msg string) error {
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
