package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
)

// Message is one line of JSONHandler output. Type is "turn" or "system".
type Message struct {
	Type string       `json:"type"`
	Turn *domain.Turn `json:"turn,omitempty"`
	Text string       `json:"text,omitempty"`
}

// JSONHandler speaks JSON Lines for scripted clients. Each input line may be
// a JSON string or raw text.
type JSONHandler struct {
	enc *json.Encoder
	src *lineSource
}

// NewJSONHandler reads from r and writes to w. Nil streams mean Stdin and
// Stdout.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{enc: json.NewEncoder(w), src: newLineSource(r)}
}

func (h *JSONHandler) Output(_ context.Context, turn domain.Turn) error {
	return h.enc.Encode(Message{Type: "turn", Turn: &turn})
}

func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.src.Next(ctx)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)

	var quoted string
	if json.Unmarshal([]byte(text), &quoted) == nil {
		text = quoted
	}
	return SanitizeInput(text)
}

func (h *JSONHandler) SystemOutput(_ context.Context, msg string) error {
	return h.enc.Encode(Message{Type: "system", Text: msg})
}

// Close stops reading input.
func (h *JSONHandler) Close() error {
	return h.src.Close()
}
