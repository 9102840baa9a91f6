package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the weft banner followed by the version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text, color string
	}{
		{" __      _____ / _| |_ ", "#818cf8"},
		{" \\ \\ /\\ / / _ \\ |_| __|", "#a78bfa"},
		{"  \\ V  V /  __/  _| |_ ", "#c084fc"},
		{"   \\_/\\_/ \\___|_|  \\__|", "#e879f9"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("   v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
