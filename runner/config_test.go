package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/runner"
)

func TestActionCompare(t *testing.T) {
	t.Parallel()

	strategy := doc.DefaultStrategy

	assert.True(t, runner.NewRunAction(&strategy, false, doc.TopLeft).Compare())
	assert.False(t, runner.NewRunAction(nil, false, doc.TopLeft).Compare())
	assert.False(t, runner.NewUpdateAction(false, doc.TopLeft).Compare())
}

func TestActionKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "run", runner.ActionRun.String())
	assert.Equal(t, "update", runner.ActionUpdate.String())
}
