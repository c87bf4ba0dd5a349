package doc_test

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.typst-test.dev/typst-test/doc"
)

func TestPageIdenticalAlwaysMatches(t *testing.T) {
	t.Parallel()

	page := solidPage(10, 10, color.NRGBA{R: 128, G: 64, B: 32, A: 255})
	assert.NoError(t, doc.Page(page, page, doc.Strategy{MaxDelta: 0, MaxDeviation: 0}))
}

func TestPageDimensionsMismatch(t *testing.T) {
	t.Parallel()

	a := solidPage(4, 4, color.NRGBA{A: 255})
	b := solidPage(4, 5, color.NRGBA{A: 255})

	err := doc.Page(a, b, doc.DefaultStrategy)
	require.Error(t, err)

	var dimErr *doc.DimensionsError
	require.ErrorAs(t, err, &dimErr)
}

func TestPageDeviationThreshold(t *testing.T) {
	t.Parallel()

	a := solidPage(10, 1, color.NRGBA{A: 255})
	b := solidPage(10, 1, color.NRGBA{A: 255})
	// Flip 3 pixels to pure white, a full-channel deviation.
	for _, x := range []int{0, 1, 2} {
		b.SetNRGBA(x, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	}

	assert.NoError(t, doc.Page(a, b, doc.Strategy{MaxDelta: 0, MaxDeviation: 3}))

	err := doc.Page(a, b, doc.Strategy{MaxDelta: 0, MaxDeviation: 2})
	require.Error(t, err)

	var devErr *doc.DeviationsError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, 3, devErr.Deviations)
}

func TestPageMaxDeltaTolerance(t *testing.T) {
	t.Parallel()

	a := solidPage(2, 2, color.NRGBA{R: 100, A: 255})
	b := solidPage(2, 2, color.NRGBA{R: 105, A: 255})

	assert.NoError(t, doc.Page(a, b, doc.Strategy{MaxDelta: 5, MaxDeviation: 0}))
	assert.Error(t, doc.Page(a, b, doc.Strategy{MaxDelta: 4, MaxDeviation: 0}))
}

func TestComparePageCountMismatch(t *testing.T) {
	t.Parallel()

	output := doc.New([]*image.NRGBA{solidPage(1, 1, color.NRGBA{A: 255})})
	reference := doc.New([]*image.NRGBA{
		solidPage(1, 1, color.NRGBA{A: 255}),
		solidPage(1, 1, color.NRGBA{A: 255}),
	})

	err := doc.Compare(output, reference, doc.DefaultStrategy, false)
	require.Error(t, err)

	var aggErr *doc.Error
	require.ErrorAs(t, err, &aggErr)
	assert.Equal(t, 1, aggErr.OutputPages)
	assert.Equal(t, 2, aggErr.ReferencePages)
}

func TestCompareAggregatesAllPageFailures(t *testing.T) {
	t.Parallel()

	output := doc.New([]*image.NRGBA{
		solidPage(1, 1, color.NRGBA{R: 255, A: 255}),
		solidPage(1, 1, color.NRGBA{G: 255, A: 255}),
	})
	reference := doc.New([]*image.NRGBA{
		solidPage(1, 1, color.NRGBA{A: 255}),
		solidPage(1, 1, color.NRGBA{A: 255}),
	})

	err := doc.Compare(output, reference, doc.DefaultStrategy, false)
	require.Error(t, err)

	var aggErr *doc.Error
	require.ErrorAs(t, err, &aggErr)
	assert.Len(t, aggErr.Pages, 2)
}
