package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteTemplate(t *testing.T) {
	render := func(text string, data any) string {
		t.Helper()
		tmpl, err := ParseTemplate("t", text)
		require.NoError(t, err)
		out, err := ExecuteTemplate(tmpl, data)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, "plain text", render("plain text", nil))
	assert.Equal(t, "Hi BOB", render(`Hi {{.Name | upper}}{{if .Lang}} ({{.Lang}}){{end}}`, map[string]any{"Name": "bob", "Lang": ""}))
	assert.Equal(t, "n/a", render(`{{default "n/a" .Missing}}`, struct{ Missing string }{}))
}

func TestParseTemplate_Errors(t *testing.T) {
	_, err := ParseTemplate("bad", "{{.Name")
	assert.Error(t, err)

	tmpl, err := ParseTemplate("missing", "{{.Nope}}")
	require.NoError(t, err)
	_, err = ExecuteTemplate(tmpl, map[string]any{})
	assert.Error(t, err)
}

func TestNewTraceID(t *testing.T) {
	re := regexp.MustCompile(`^trace_[0-9a-f]{32}$`)
	a, b := NewTraceID(), NewTraceID()
	assert.Regexp(t, re, a)
	assert.NotEqual(t, a, b)
}
