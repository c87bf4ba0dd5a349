package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go.typst-test.dev/typst-test/compiler/compilertest"
	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/id"
	"go.typst-test.dev/typst-test/paths"
	"go.typst-test.dev/typst-test/project"
	"go.typst-test.dev/typst-test/runner"
	"go.typst-test.dev/typst-test/testset"
	"go.typst-test.dev/typst-test/vcs"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func tid(t *testing.T, s string) id.Id {
	t.Helper()
	i, err := id.New(s)
	require.NoError(t, err)
	return i
}

func TestRunCompileOnlyPasses(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	_, err := project.Create(fs, p, tid(t, "a"), "#set page()\n", nil)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)
	require.Len(t, suite.Matched, 1)

	world := &compilertest.World{}
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewRunAction(nil, false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sr, err := run.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, sr.Total())
	assert.Equal(t, 1, sr.Passed())
	assert.Equal(t, 0, sr.Failed())

	results := sr.Results()
	tr := results[tid(t, "a")]
	require.NotNil(t, tr.Kind)
	assert.True(t, tr.Kind.Kind.Passed())
}

func TestRunEphemeralComparePassesWhenSourcesMatch(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	ref := project.EphemeralReference("same content\n")
	_, err := project.Create(fs, p, tid(t, "eph"), "same content\n", &ref)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	strategy := doc.DefaultStrategy
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewRunAction(&strategy, true, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sr.Passed())
	assert.Equal(t, 0, sr.Failed())

	exists, err := afero.Exists(fs, p.OutDir(tid(t, "eph"))+"/1.png")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(fs, p.DiffDir(tid(t, "eph"))+"/1.png")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunComparisonFailsWhenSourcesDiffer(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	ref := project.EphemeralReference("reference content\n")
	_, err := project.Create(fs, p, tid(t, "eph"), "different content\n", &ref)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	strategy := doc.DefaultStrategy
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewRunAction(&strategy, false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, sr.Passed())
	assert.Equal(t, 1, sr.Failed())

	results := sr.Results()
	tr := results[tid(t, "eph")]
	require.NotNil(t, tr.Kind)
	assert.Equal(t, "failed-comparison", tr.Kind.Kind.String())
}

func TestRunFailFastCancelsRemainingTests(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	refA := project.EphemeralReference("reference\n")
	_, err := project.Create(fs, p, tid(t, "a-fails"), "totally different\n", &refA)
	require.NoError(t, err)

	_, err = project.Create(fs, p, tid(t, "z-compile-only"), "#set page()\n", nil)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	strategy := doc.DefaultStrategy
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		FailFast:   true,
		Action:     runner.NewRunAction(&strategy, false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)
	run.SetConcurrency(1)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sr.Failed())

	results := sr.Results()
	tr := results[tid(t, "z-compile-only")]
	require.NotNil(t, tr.Kind)
	assert.Equal(t, "cancelled", tr.Kind.Kind.String())
}

func TestRunUpdatePersistentReplacesReference(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	oldDoc := doc.New(nil)
	ref := project.PersistentReference(oldDoc, nil)
	_, err := project.Create(fs, p, tid(t, "pers"), "new content\n", &ref)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewUpdateAction(false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sr.Passed())

	updated := suite.Matched[tid(t, "pers")]
	loaded, err := updated.LoadReferenceDocuments(fs, p)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestRunUpdateRejectsCompileOnly(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	_, err := project.Create(fs, p, tid(t, "co"), "#set page()\n", nil)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewUpdateAction(false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sr.Failed())
}

func TestRunProgressEmitsOnePerTest(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	_, err := project.Create(fs, p, tid(t, "a"), "#set page()\n", nil)
	require.NoError(t, err)
	_, err = project.Create(fs, p, tid(t, "b"), "#set page()\n", nil)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(testset.Test) bool { return true })
	require.NoError(t, err)

	world := &compilertest.World{}
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewRunAction(nil, false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	done := make(chan struct{})
	seen := 0
	go func() {
		for range run.Progress() {
			seen++
		}
		close(done)
	}()

	_, err = run.Run(context.Background())
	require.NoError(t, err)
	<-done

	assert.Equal(t, 2, seen)
}

func TestRunFilteredTestsArePreFilled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	p := paths.New("/proj")
	v := vcs.NewGit(fs, "/proj")

	_, err := project.Create(fs, p, tid(t, "skipped"), "/// [skip]\n#set page()\n", nil)
	require.NoError(t, err)

	suite, err := project.Collect(fs, p, func(test testset.Test) bool { return !test.Skip() })
	require.NoError(t, err)
	require.Len(t, suite.Filtered, 1)

	world := &compilertest.World{}
	cfg := runner.Config{
		PixelPerPt: doc.DefaultPixelPerPt,
		Action:     runner.NewRunAction(nil, false, doc.TopLeft),
	}

	run := runner.New(fs, p, v, world, suite, cfg, nil)

	sr, err := run.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sr.Total())
	assert.Equal(t, 1, sr.Filtered())
	assert.Equal(t, 0, world.Calls())
}
