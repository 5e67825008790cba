package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the annotate banner with a gradient.
func PrintBanner(w io.Writer, version string, opts ...termenv.OutputOption) {
	out := termenv.NewOutput(w, opts...)
	lines := []struct{ text, color string }{
		{"   __ _ _ __  _ __   ___ | |_ __ _| |_ ___ ", "#818cf8"},
		{"  / _` | '_ \\| '_ \\ / _ \\| __/ _` | __/ _ \\", "#a78bfa"},
		{" | (_| | | | | | | | (_) | || (_| | ||  __/", "#e879f9"},
		{"  \\__,_|_| |_|_| |_|\\___/ \\__\\__,_|\\__\\___|", "#fb7185"},
	}

	fmt.Fprintln(out)
	for _, l := range lines {
		fmt.Fprintln(out, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(out, out.String("  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(out)
}
