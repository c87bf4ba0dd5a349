package id_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.typst-test.dev/typst-test/id"
)

func TestPatternGlob(t *testing.T) {
	t.Parallel()

	p, err := id.Compile(id.Glob, "compare/*")
	require.NoError(t, err)

	assert.True(t, p.Matches("compare/ephemeral"))
	assert.False(t, p.Matches("compare/ephemeral/nested"))

	p, err = id.Compile(id.Glob, "compare/**")
	require.NoError(t, err)
	assert.True(t, p.Matches("compare/ephemeral/nested"))
}

func TestPatternRegex(t *testing.T) {
	t.Parallel()

	p, err := id.Compile(id.Regex, "^compare/.+$")
	require.NoError(t, err)

	assert.True(t, p.Matches("compare/ephemeral"))
	assert.False(t, p.Matches("other/ephemeral"))
}

func TestPatternContainsExact(t *testing.T) {
	t.Parallel()

	c, err := id.Compile(id.Contains, "mera")
	require.NoError(t, err)
	assert.True(t, c.Matches("compare/ephemeral"))

	e, err := id.Compile(id.Exact, "compare/ephemeral")
	require.NoError(t, err)
	assert.True(t, e.Matches("compare/ephemeral"))
	assert.False(t, e.Matches("compare/ephemeral2"))
}

func TestPatternPath(t *testing.T) {
	t.Parallel()

	p, err := id.Compile(id.Path, "compare")
	require.NoError(t, err)

	assert.True(t, p.Matches("compare"))
	assert.True(t, p.Matches("compare/ephemeral"))
	assert.False(t, p.Matches("comparing"))
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	for _, c := range []struct {
		s    string
		kind id.Kind
	}{
		{"g", id.Glob}, {"glob", id.Glob},
		{"r", id.Regex}, {"regex", id.Regex},
		{"c", id.Contains}, {"contains", id.Contains},
		{"e", id.Exact}, {"exact", id.Exact},
		{"p", id.Path}, {"path", id.Path},
	} {
		got, ok := id.ParseKind(c.s)
		assert.True(t, ok)
		assert.Equal(t, c.kind, got)
	}

	_, ok := id.ParseKind("nope")
	assert.False(t, ok)
}
