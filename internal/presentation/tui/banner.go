package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the arcade banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"     _                       _      ", "#22d3ee"},
		{"    / \\   _ __ ___ __ _  __| | ___ ", "#38bdf8"},
		{"   / _ \\ | '__/ __/ _` |/ _` |/ _ \\", "#818cf8"},
		{"  / ___ \\| | | (_| (_| | (_| |  __/", "#c084fc"},
		{" /_/   \\_\\_|  \\___\\__,_|\\__,_|\\___|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
