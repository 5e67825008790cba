package router

import (
	"sort"
	"strings"
)

var modifierOrder = map[string]int{
	"ctrl":  0,
	"alt":   1,
	"shift": 2,
	"meta":  3,
}

var keyAliases = map[string]string{
	"control": "ctrl",
	"option":  "alt",
	"cmd":     "meta",
	"command": "meta",
	"super":   "meta",
	"return":  "enter",
	"esc":     "escape",
	"bksp":    "backspace",
}

// NormalizeKeys returns the canonical spelling of a key combination:
// lowercase, aliases resolved, modifiers in ctrl/alt/shift/meta order before the key.
// "Shift+Ctrl+Z" and "ctrl+shift+z" both normalize to "ctrl+shift+z".
func NormalizeKeys(combo string) string {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(combo)), "+")
	mods := make([]string, 0, len(parts))
	var keys []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if alias, ok := keyAliases[p]; ok {
			p = alias
		}
		if _, ok := modifierOrder[p]; ok {
			mods = append(mods, p)
			continue
		}
		keys = append(keys, p)
	}
	sort.SliceStable(mods, func(i, j int) bool {
		return modifierOrder[mods[i]] < modifierOrder[mods[j]]
	})
	return strings.Join(append(dedupe(mods), keys...), "+")
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}
