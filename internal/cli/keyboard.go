package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/aretw0/annotate/internal/logging"
	"github.com/aretw0/annotate/pkg/router"
	"golang.org/x/term"
)

// KeyHelp describes one registered key for help output.
type KeyHelp struct {
	Keys        string
	Description string
}

type keyBinding struct {
	handler     func()
	description string
}

// Keyboard is a terminal HotkeyBinder. On a TTY it reads raw key presses;
// otherwise it reads one combo per line, or ":name" to run a command by name.
type Keyboard struct {
	mu        sync.Mutex
	keys      map[string]keyBinding
	onUnknown func(combo string)
	onCommand func(name string)
	logger    *slog.Logger
}

// KeyboardOption configures the Keyboard.
type KeyboardOption func(*Keyboard)

// OnUnknownKey is called for combos nothing is bound to.
func OnUnknownKey(fn func(combo string)) KeyboardOption {
	return func(k *Keyboard) {
		k.onUnknown = fn
	}
}

// OnCommandLine is called for ":name" lines in line mode.
func OnCommandLine(fn func(name string)) KeyboardOption {
	return func(k *Keyboard) {
		k.onCommand = fn
	}
}

// WithKeyboardLogger configures a logger for the Keyboard.
func WithKeyboardLogger(logger *slog.Logger) KeyboardOption {
	return func(k *Keyboard) {
		k.logger = logger
	}
}

// NewKeyboard creates a Keyboard with no keys bound.
func NewKeyboard(opts ...KeyboardOption) *Keyboard {
	k := &Keyboard{
		keys:   make(map[string]keyBinding),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// AddKey implements ports.HotkeyBinder. A later registration of the same combo wins.
func (k *Keyboard) AddKey(combo string, handler func(), description string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[router.NormalizeKeys(combo)] = keyBinding{handler: handler, description: description}
}

// Help lists the registered keys, sorted by combo.
func (k *Keyboard) Help() []KeyHelp {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]KeyHelp, 0, len(k.keys))
	for combo, b := range k.keys {
		out = append(out, KeyHelp{Keys: combo, Description: b.description})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Keys < out[j].Keys })
	return out
}

// Press runs the handler bound to combo and reports whether there was one.
func (k *Keyboard) Press(combo string) bool {
	combo = router.NormalizeKeys(combo)
	k.mu.Lock()
	b, ok := k.keys[combo]
	k.mu.Unlock()

	if !ok {
		k.logger.Debug("unbound key", "keys", combo)
		if k.onUnknown != nil {
			k.onUnknown(combo)
		}
		return false
	}
	b.handler()
	return true
}

// Listen reads f until ctx is done, ctrl+c is pressed or input ends.
// Terminals are switched to raw mode for the duration.
func (k *Keyboard) Listen(ctx context.Context, f *os.File) error {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return k.ReadLines(ctx, f)
	}

	old, err := term.MakeRaw(fd)
	if err != nil {
		return err
	}
	defer term.Restore(fd, old)
	return k.ReadKeys(ctx, f)
}

// ReadKeys decodes raw key presses from r.
func (k *Keyboard) ReadKeys(ctx context.Context, r io.Reader) error {
	chunks := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				chunk := append([]byte(nil), buf[:n]...)
				select {
				case chunks <- chunk:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			if err == io.EOF {
				return nil
			}
			return err
		case chunk := <-chunks:
			for _, combo := range DecodeKeys(chunk) {
				if combo == "ctrl+c" {
					return nil
				}
				k.Press(combo)
			}
		}
	}
}

// ReadLines handles one combo, or ":command", per line of r.
func (k *Keyboard) ReadLines(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errs:
			return err
		case line := <-lines:
			line = strings.TrimSpace(line)
			switch {
			case line == "":
			case line == "q" || line == "quit":
				return nil
			case strings.HasPrefix(line, ":"):
				if k.onCommand != nil {
					k.onCommand(strings.TrimSpace(line[1:]))
				}
			default:
				k.Press(line)
			}
		}
	}
}

// DecodeKeys turns bytes read from a raw-mode terminal into key combos.
// Terminals send LF for ctrl+enter and BS for ctrl+backspace, so both are told apart
// from their plain counterparts.
func DecodeKeys(b []byte) []string {
	var out []string
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0x1b:
			combo, n := decodeEscape(b[i:])
			out = append(out, combo)
			i += n
			continue
		case c < 0x20 || c == 0x7f:
			out = append(out, controlKey(c))
		case c < utf8.RuneSelf:
			if c >= 'A' && c <= 'Z' {
				out = append(out, "shift+"+string(rune(c+('a'-'A'))))
			} else {
				out = append(out, string(rune(c)))
			}
		default:
			r, n := utf8.DecodeRune(b[i:])
			out = append(out, string(r))
			i += n
			continue
		}
		i++
	}
	return out
}

func controlKey(c byte) string {
	switch c {
	case 0x00:
		return "ctrl+space"
	case 0x08:
		return "ctrl+backspace"
	case 0x09:
		return "tab"
	case 0x0a:
		return "ctrl+enter"
	case 0x0d:
		return "enter"
	case 0x7f:
		return "backspace"
	default:
		return "ctrl+" + string(rune('a'+c-1))
	}
}

// decodeEscape decodes a sequence starting with ESC and returns the combo and its length.
func decodeEscape(b []byte) (string, int) {
	if len(b) == 1 {
		return "escape", 1
	}
	if b[1] == '[' {
		end := 2
		for end < len(b) && (b[end] < 0x40 || b[end] > 0x7e) {
			end++
		}
		if end == len(b) {
			return "escape", len(b)
		}
		seq := string(b[2 : end+1])
		names := map[string]string{
			"A": "up", "B": "down", "C": "right", "D": "left",
			"Z": "shift+tab", "3~": "delete", "H": "home", "F": "end",
		}
		if name, ok := names[seq]; ok {
			return name, end + 1
		}
		return "escape+[" + seq, end + 1
	}
	if b[1] == 0x1b {
		return "escape", 1
	}
	rest := DecodeKeys(b[1:2])
	return "alt+" + rest[0], 2
}
