package id_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.typst-test.dev/typst-test/id"
)

func TestNewRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a", "a/b", "a/b/c", "a-b/c_d/e9"} {
		got, err := id.New(s)
		require.NoError(t, err)
		assert.Equal(t, s, got.String())
	}
}

func TestNewInvalid(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "/a", "a/", "a//b", "1a", "a/1b", "a b", "a/-b"} {
		_, err := id.New(s)
		assert.Error(t, err, s)
	}
}

func TestNewFromPathMatchesComponents(t *testing.T) {
	t.Parallel()

	a, err := id.New("a/b/c")
	require.NoError(t, err)

	b, err := id.NewFromPath("a/b/c")
	require.NoError(t, err)

	assert.Equal(t, a.Components(), b.Components())
}

func TestComponentsAndReverse(t *testing.T) {
	t.Parallel()

	i, err := id.New("a/b/c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, i.Components())
	assert.Equal(t, []string{"c", "b", "a"}, i.ReverseComponents())
	assert.Equal(t, "c", i.Name())
	assert.Equal(t, "a/b", i.Module())
}

func TestModuleOfSingleComponent(t *testing.T) {
	t.Parallel()

	i, err := id.New("a")
	require.NoError(t, err)

	assert.Equal(t, "", i.Module())
	assert.Equal(t, "a", i.Name())
	assert.Empty(t, i.Ancestors())
}

func TestAncestors(t *testing.T) {
	t.Parallel()

	i, err := id.New("a/b/c")
	require.NoError(t, err)

	var got []string
	for _, a := range i.Ancestors() {
		got = append(got, a.String())
	}
	assert.Equal(t, []string{"a/b", "a"}, got)
}

func TestPushComponent(t *testing.T) {
	t.Parallel()

	i, err := id.New("a/b")
	require.NoError(t, err)

	j, err := i.PushComponent("c")
	require.NoError(t, err)
	assert.Equal(t, "a/b/c", j.String())

	_, err = i.PushComponent("1c")
	assert.Error(t, err)
}

func TestValidComponent(t *testing.T) {
	t.Parallel()

	assert.True(t, id.ValidComponent("a-b_c9"))
	assert.False(t, id.ValidComponent(""))
	assert.False(t, id.ValidComponent("1a"))
	assert.False(t, id.ValidComponent("a/b"))
}

func TestCompareIsByteLexicographic(t *testing.T) {
	t.Parallel()

	a, _ := id.New("a")
	b, _ := id.New("b")
	aa, _ := id.New("a")

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.Equal(t, 0, a.Compare(aa))
}
