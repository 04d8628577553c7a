package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Foundry ASCII art banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	if !IsTerminal(w) {
		p = termenv.Ascii
	}
	// Warm gradient, forge-like (Amber/Red)
	lines := []struct {
		text  string
		color string
	}{
		{"   ___                   _           ", "#fde047"},
		{"  / __\\__  _   _ _ __   __| |_ __ _   _ ", "#facc15"},
		{" / _\\/ _ \\| | | | '_ \\ / _` | '__| | | |", "#fb923c"},
		{"/ / | (_) | |_| | | | | (_| | |  | |_| |", "#f97316"},
		{"\\/   \\___/ \\__,_|_| |_|\\__,_|_|   \\__, |", "#ef4444"},
		{"                                  |___/ ", "#dc2626"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
