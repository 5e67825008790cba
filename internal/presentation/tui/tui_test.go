package tui

import (
	"bytes"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n", termenv.WithProfile(termenv.Ascii))
	assert.Contains(t, buf.String(), "v1.2.3\n")
	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer("notty", 60)
	require.NoError(t, err)

	out, err := render("Tag every **person**.")
	require.NoError(t, err)
	assert.Contains(t, out, "person")
}
