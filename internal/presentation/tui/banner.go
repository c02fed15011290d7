package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the relay ASCII art banner to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"            _             ", "#818cf8"},
		{"   _ __ ___| | __ _ _   _ ", "#a78bfa"},
		{"  | '__/ _ \\ |/ _` | | | |", "#c084fc"},
		{"  | | |  __/ | (_| | |_| |", "#e879f9"},
		{"  |_|  \\___|_|\\__,_|\\__, |", "#f472b6"},
		{"                    |___/ ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if version != "" {
		fmt.Fprintln(w, termenv.String("  v"+version).Faint())
	}
	fmt.Fprintln(w)
}
