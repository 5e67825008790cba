package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/annotate/pkg/domain"
	"github.com/muesli/termenv"
)

// Notifier prints session notifications to a terminal, colored by severity.
type Notifier struct {
	mu  sync.Mutex
	out *termenv.Output
	eol string
}

// NewNotifier creates a Notifier writing to w. Pass termenv options to force a color profile.
func NewNotifier(w io.Writer, opts ...termenv.OutputOption) *Notifier {
	return &Notifier{out: termenv.NewOutput(w, opts...), eol: "\n"}
}

// RawMode makes the notifier end lines with CRLF, as raw terminals need.
func (n *Notifier) RawMode(raw bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if raw {
		n.eol = "\r\n"
	} else {
		n.eol = "\n"
	}
}

var severityColors = map[domain.Severity]string{
	domain.SeverityInfo:    "#60a5fa",
	domain.SeverityWarning: "#fbbf24",
	domain.SeverityError:   "#f87171",
	domain.SeveritySuccess: "#4ade80",
}

// ShowModal implements ports.Notifier.
func (n *Notifier) ShowModal(message string, severity domain.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if severity == "" {
		severity = domain.SeverityInfo
	}
	label := n.out.String(fmt.Sprintf("[%s]", severity)).Bold()
	if color, ok := severityColors[severity]; ok {
		label = label.Foreground(n.out.Color(color))
	}
	fmt.Fprintf(n.out, "%s %s%s", label, message, n.eol)
}

// Printf writes a system line.
func (n *Notifier) Printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, ">>> %s%s", fmt.Sprintf(format, args...), n.eol)
}

// Block writes multi-line text as is, fixing line endings in raw mode.
func (n *Notifier) Block(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.eol != "\n" {
		text = strings.ReplaceAll(text, "\n", n.eol)
	}
	fmt.Fprint(n.out, text, n.eol)
}
