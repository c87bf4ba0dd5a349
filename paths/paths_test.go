package paths_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.typst-test.dev/typst-test/id"
	"go.typst-test.dev/typst-test/paths"
)

func TestDerivations(t *testing.T) {
	t.Parallel()

	p := paths.New("/proj")
	testID, err := id.New("compare/ephemeral")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/proj", "tests"), p.TestRoot())
	assert.Equal(t, filepath.Join("/proj", "tests", "template.typ"), p.Template())
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral"), p.TestDir(testID))
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral", "test.typ"), p.TestScript(testID))
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral", "ref.typ"), p.RefScript(testID))
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral", "ref"), p.RefDir(testID))
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral", "out"), p.OutDir(testID))
	assert.Equal(t, filepath.Join("/proj", "tests", "compare", "ephemeral", "diff"), p.DiffDir(testID))
}

func TestVcsRoot(t *testing.T) {
	t.Parallel()

	p := paths.New("/proj")
	_, ok := p.VcsRoot()
	assert.False(t, ok)

	p2 := paths.NewWithVcsRoot("/proj", "/repo")
	root, ok := p2.VcsRoot()
	assert.True(t, ok)
	assert.Equal(t, "/repo", root)
}
