package cli

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the candidates close to input, best first.
// A candidate is close when it starts with input or is at most two edits away.
func Suggest(input string, candidates []string) []string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return nil
	}

	type match struct {
		name string
		dist int
	}
	var matches []match
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(input, strings.ToLower(c))
		if strings.HasPrefix(strings.ToLower(c), input) {
			d = 0
		}
		if d <= 2 {
			matches = append(matches, match{c, d})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
