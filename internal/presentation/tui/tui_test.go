package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	// A buffer has no color support, so the art comes out plain.
	assert.Contains(t, buf.String(), "/_/   \\_\\_|")
	assert.Equal(t, 7, strings.Count(buf.String(), "\n"))
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(0)
	require.NoError(t, err)

	out, err := render("You should try **Tetris**.")
	require.NoError(t, err)
	assert.Contains(t, out, "Tetris")
}

func TestWidth_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, IsInteractive(f))
	assert.False(t, IsInteractive(nil))
	assert.Equal(t, defaultWidth, Width(f))
}
