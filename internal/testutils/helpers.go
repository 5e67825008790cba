// Package testutils holds fixtures shared by adapter tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteTaskDir creates a temporary directory holding the given task documents,
// keyed by file name, and returns its absolute path.
func WriteTaskDir(t *testing.T, files map[string]string) string {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(absPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Failed to write %s", name)
	}
	return absPath
}

// NERTask is a Markdown task document with one completion and one prediction.
const NERTask = `---
id: ner-1
data:
  text: Barack Obama was born in Hawaii.
config: <View><Text name="text" value="$text"/><Labels name="label" toName="text"/></View>
project:
  id: p1
  title: People
interfaces: [submit, skip, controls]
completions:
  - id: c1
    result:
      - id: r1
        label: PER
        value: {start: 0, end: 12}
    draft:
      - id: r1
        label: PER
      - id: r2
        label: LOC
predictions:
  - id: p1
    model_version: v2
    result:
      - id: r9
        label: LOC
---
Tag every **person** and **location** in the sentence.
`
