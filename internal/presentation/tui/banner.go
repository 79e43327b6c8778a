package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Fabula ASCII banner. Colors degrade with the
// terminal profile, down to plain text on dumb terminals.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Dusk gradient, amber down to indigo.
	lines := []struct {
		art   string
		color string
	}{
		{"  ______    _           _       ", "#fbbf24"},
		{" |  ____|  | |         | |      ", "#fb923c"},
		{" | |__ __ _| |__  _   _| | __ _ ", "#fb7185"},
		{" |  __/ _` | '_ \\| | | | |/ _` |", "#e879f9"},
		{" | | | (_| | |_) | |_| | | (_| |", "#a78bfa"},
		{" |_|  \\__,_|_.__/ \\__,_|_|\\__,_|", "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.art).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
