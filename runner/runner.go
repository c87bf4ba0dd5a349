/*
 *
 * typst-test - a visual regression test engine for typst
 * Copyright (C) 2026 The typst-test Authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package runner orchestrates a suite's tests against a compiler.World: the
// bounded worker pool that schedules matched tests (Runner) and the
// per-test pipeline that carries each one from its source through
// compilation, rendering, diffing and comparison to a result.TestResult
// (TestRunner, implemented as Runner.runTest).
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"

	"go.typst-test.dev/typst-test/compiler"
	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
	"go.typst-test.dev/typst-test/id"
	"go.typst-test.dev/typst-test/paths"
	"go.typst-test.dev/typst-test/project"
	"go.typst-test.dev/typst-test/result"
	"go.typst-test.dev/typst-test/vcs"
)

// Progress is emitted once per finished test, in completion order (spec
// section 4.7: "emit a progress event").
type Progress struct {
	ID     id.Id
	Result result.TestResult
}

// Runner is the suite orchestrator (spec section 4.7). It owns no mutable
// state other than its aggregator and cancellation flag; everything else
// it reads is either immutable (Config, Suite) or itself safe for
// concurrent use (the compiler host World).
type Runner struct {
	fs     afero.Fs
	paths  paths.Paths
	vcs    vcs.Vcs
	world  compiler.World
	suite  project.Suite
	config Config

	cancel      *CancelFlag
	concurrency int64
	log         logrus.FieldLogger
	progress    chan Progress
}

// New builds a Runner. If cancel is nil, the Runner owns a private flag;
// passing a shared one lets a caller (a signal handler, say) cancel a run
// in progress from outside. Concurrency defaults to GOMAXPROCS and the
// logger to logrus's standard logger; override either with SetConcurrency
// / SetLogger before calling Run.
func New(fs afero.Fs, p paths.Paths, v vcs.Vcs, world compiler.World, suite project.Suite, config Config, cancel *CancelFlag) *Runner {
	if cancel == nil {
		cancel = &CancelFlag{}
	}
	return &Runner{
		fs:          fs,
		paths:       p,
		vcs:         v,
		world:       world,
		suite:       suite,
		config:      config,
		cancel:      cancel,
		concurrency: int64(runtime.GOMAXPROCS(0)),
		log:         logrus.StandardLogger(),
		progress:    make(chan Progress, len(suite.Matched)),
	}
}

// SetConcurrency overrides the worker pool's width. Values <= 0 are
// ignored.
func (r *Runner) SetConcurrency(n int64) {
	if n > 0 {
		r.concurrency = n
	}
}

// SetLogger overrides the runner's logger. A nil logger is ignored.
func (r *Runner) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		r.log = log
	}
}

// Cancel returns the runner's cancellation flag, so a caller can set it
// from outside (e.g. a signal handler) while Run is in flight.
func (r *Runner) Cancel() *CancelFlag {
	return r.cancel
}

// Progress returns the channel progress events are published on. It is
// closed once Run returns. Callers that don't care about progress may
// simply not read it: it's sized to the matched-test count so Run never
// blocks on it.
func (r *Runner) Progress() <-chan Progress {
	return r.progress
}

// Run executes every matched test, up to concurrency at a time, and
// returns the finished SuiteResult. Filtered tests are pre-filled as
// Filtered; matched tests are pre-filled as Cancelled so a run aborted
// before a test starts still reports it (spec section 4.7). A non-nil
// error means scheduling itself failed (ctx ended before every matched
// test could be dispatched); the returned SuiteResult is still the
// partial result accumulated up to that point, never nil.
func (r *Runner) Run(ctx context.Context) (*result.SuiteResult, error) {
	sr := result.NewSuiteResult(r.paths.ProjectRoot())

	for _, tid := range r.suite.FilteredIDs() {
		sr.InitFiltered(tid)
	}

	matched := r.suite.MatchedIDs()
	for _, tid := range matched {
		sr.InitCancelled(tid)
	}

	sem := semaphore.NewWeighted(r.concurrency)
	var wg sync.WaitGroup
	var aggregateErr error

	for _, tid := range matched {
		if err := sem.Acquire(ctx, 1); err != nil {
			// The caller's context ended before every matched test could be
			// scheduled; the loop stops here but the tests already started
			// still run to completion below, and sr is returned as-is (spec
			// section 7 category 3: "the partial SuiteResult is preserved").
			aggregateErr = errext.WithExitCodeIfNone(fmt.Errorf("scheduling %s: %w", tid, err), exitcodes.Unexpected)
			break
		}

		// Re-check after acquiring: fail-fast may have fired while this
		// slot was blocked on a still-running test, and that test's
		// cancel.Set() happens-before its semaphore release.
		if r.cancel.IsSet() {
			sem.Release(1)
			r.log.WithField("test", tid).Debug("run cancelled, not scheduling remaining tests")
			break
		}

		test := r.suite.Matched[tid]

		wg.Add(1)
		go func(tid id.Id, test project.Test) {
			defer wg.Done()
			defer sem.Release(1)

			tr := r.runTest(ctx, test)
			sr.Record(tid, &tr)

			select {
			case r.progress <- Progress{ID: tid, Result: tr}:
			case <-ctx.Done():
			}

			if r.config.FailFast && tr.Kind != nil && tr.Kind.Kind.Failed() {
				r.log.WithField("test", tid).Warn("failing fast: cancelling remaining tests")
				r.cancel.Set()
			}
		}(tid, test)
	}

	wg.Wait()
	close(r.progress)
	sr.Finish()

	return sr, aggregateErr
}

// cancelled checks the shared flag and, if set, finalizes tr as Cancelled.
func (r *Runner) cancelled(tr *result.TestResult) (result.TestResult, bool) {
	if !r.cancel.IsSet() {
		return result.TestResult{}, false
	}
	k := result.CancelledKind()
	tr.Kind = &k
	tr.End()
	return *tr, true
}

// fail finalizes tr with kind and returns it; a small helper to keep
// runTest's stage sequence readable.
func fail(tr *result.TestResult, kind result.TestResultKind) result.TestResult {
	tr.Kind = &kind
	tr.End()
	return *tr
}

// pass finalizes tr with kind and returns it.
func pass(tr *result.TestResult, kind result.TestResultKind) result.TestResult {
	tr.Kind = &kind
	tr.End()
	return *tr
}

// runTest is the per-test pipeline (TestRunner, spec section 4.8). Stages
// run strictly sequentially; the shared cancellation flag is checked at
// every stage boundary.
//
// The decision matrix's "render/load if export ∨ compare ∨ diff" cells
// collapse for this implementation: section 4.8's stage semantics state
// diff is "always" computed from in-memory buffers whenever a test has a
// reference, which makes the diff term of that disjunction unconditionally
// true for Ephemeral and Persistent tests. So for those two kinds,
// rendering the test doc, rendering or loading the reference, and diffing
// always happen; export and compare only gate what additionally gets
// written to disk or compared. CompileOnly has no reference to diff
// against, so it keeps the literal "if export" reading. Action::Update
// follows the separate, fully-specified paragraph below the matrix rather
// than the matrix itself.
func (r *Runner) runTest(ctx context.Context, t project.Test) result.TestResult {
	log := r.log.WithField("test", t.ID().String())

	tr := &result.TestResult{}
	tr.Start()

	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	if r.config.Action.Kind == ActionUpdate {
		return r.runUpdate(ctx, t, tr, log)
	}
	return r.runCompare(ctx, t, tr, log)
}

// runCompare implements Action::Run.
func (r *Runner) runCompare(ctx context.Context, t project.Test, tr *result.TestResult, log logrus.FieldLogger) result.TestResult {
	kind := t.Kind()
	compare := r.config.Action.Compare()
	export := r.config.Action.Export

	if err := t.CreateTemporaryDirectories(r.fs, r.paths, r.vcs); err != nil {
		return fail(tr, result.FailedCompilationKind(fmt.Errorf("preparing directories: %w", err), false))
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	source, err := t.LoadSource(r.fs, r.paths)
	if err != nil {
		return fail(tr, result.FailedCompilationKind(err, false))
	}

	var refSource string
	if kind == project.Ephemeral {
		refSource, err = t.LoadReferenceSource(r.fs, r.paths)
		if err != nil {
			return fail(tr, result.FailedCompilationKind(err, true))
		}
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	compiled, failKind, ok := r.compile(ctx, r.paths.TestScript(t.ID()), source, false)
	if !ok {
		return fail(tr, failKind)
	}
	tr.Warnings = append(tr.Warnings, compiled.Warnings...)

	var refCompiled *compiler.Compiled
	if kind == project.Ephemeral {
		refCompiled, failKind, ok = r.compile(ctx, r.paths.RefScript(t.ID()), []byte(refSource), true)
		if !ok {
			return fail(tr, failKind)
		}
		tr.Warnings = append(tr.Warnings, refCompiled.Warnings...)
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	renderTest := kind != project.CompileOnly || export
	var testDoc doc.Document
	if renderTest {
		testDoc, err = r.world.Render(ctx, compiled, r.config.PixelPerPt)
		if err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("rendering: %w", err), false))
		}
	}

	var refDoc doc.Document
	switch kind {
	case project.Ephemeral:
		refDoc, err = r.world.Render(ctx, refCompiled, r.config.PixelPerPt)
		if err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("rendering reference: %w", err), true))
		}
	case project.Persistent:
		refDoc, err = t.LoadReferenceDocuments(r.fs, r.paths)
		if err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("loading reference: %w", err), true))
		}
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	if export && renderTest {
		if err := testDoc.Save(r.fs, r.paths.OutDir(t.ID()), nil); err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("saving output: %w", err), false))
		}
	}
	if kind == project.Ephemeral && export {
		if err := refDoc.Save(r.fs, r.paths.RefDir(t.ID()), nil); err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("saving reference output: %w", err), true))
		}
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	if kind != project.CompileOnly {
		diff := doc.RenderDiff(testDoc, refDoc, r.config.Action.Origin)
		if export {
			if err := diff.Save(r.fs, r.paths.DiffDir(t.ID()), nil); err != nil {
				return fail(tr, result.FailedCompilationKind(fmt.Errorf("saving diff: %w", err), false))
			}
		}
	}

	if !compare || kind == project.CompileOnly {
		log.Debug("compilation passed")
		return pass(tr, result.PassedCompilationKind())
	}

	if err := doc.Compare(testDoc, refDoc, *r.config.Action.Strategy, r.config.FailFast); err != nil {
		log.WithError(err).Debug("comparison failed")
		return fail(tr, result.FailedComparisonKind(err))
	}

	log.Debug("comparison passed")
	return pass(tr, result.PassedComparisonKind())
}

// runUpdate implements Action::Update (spec section 4.8, the paragraph
// below the decision matrix). CompileOnly tests reject it outright;
// Ephemeral tests only ever export their freshly compiled test document;
// Persistent tests get their ref/ replaced by it.
func (r *Runner) runUpdate(ctx context.Context, t project.Test, tr *result.TestResult, log logrus.FieldLogger) result.TestResult {
	kind := t.Kind()
	export := r.config.Action.Export

	if kind == project.CompileOnly {
		return fail(tr, result.FailedCompilationKind(errors.New("update is not valid for compile-only tests"), false))
	}

	if err := t.CreateTemporaryDirectories(r.fs, r.paths, r.vcs); err != nil {
		return fail(tr, result.FailedCompilationKind(fmt.Errorf("preparing directories: %w", err), false))
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	source, err := t.LoadSource(r.fs, r.paths)
	if err != nil {
		return fail(tr, result.FailedCompilationKind(err, false))
	}

	compiled, failKind, ok := r.compile(ctx, r.paths.TestScript(t.ID()), source, false)
	if !ok {
		return fail(tr, failKind)
	}
	tr.Warnings = append(tr.Warnings, compiled.Warnings...)
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	testDoc, err := r.world.Render(ctx, compiled, r.config.PixelPerPt)
	if err != nil {
		return fail(tr, result.FailedCompilationKind(fmt.Errorf("rendering: %w", err), false))
	}
	if cr, ok := r.cancelled(tr); ok {
		return cr
	}

	if kind == project.Persistent {
		if _, err := t.MakePersistent(r.fs, r.paths, r.vcs, testDoc, r.config.optimizer()); err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("updating reference: %w", err), true))
		}
	}

	if export {
		if err := testDoc.Save(r.fs, r.paths.OutDir(t.ID()), nil); err != nil {
			return fail(tr, result.FailedCompilationKind(fmt.Errorf("saving output: %w", err), false))
		}
	}

	log.Debug("reference updated")
	return pass(tr, result.PassedCompilationKind())
}

// compile invokes the compiler host and folds its outcome, plus
// promote_warnings, into a TestResultKind. ok is false iff compilation
// should terminate the test; callers should return the accompanying kind
// directly.
func (r *Runner) compile(ctx context.Context, sourcePath string, src []byte, isRef bool) (*compiler.Compiled, result.TestResultKind, bool) {
	compiled, err := r.world.Compile(ctx, sourcePath, src)
	if err != nil {
		var compileErr *compiler.CompileError
		var diagnostics []result.Diagnostic
		if errors.As(err, &compileErr) {
			diagnostics = compileErr.Diagnostics
		}
		return nil, result.FailedCompilationKind(annotateDiagnostics(err, diagnostics), isRef), false
	}

	if r.config.PromoteWarnings && len(compiled.Warnings) > 0 {
		msgs := make([]string, len(compiled.Warnings))
		for i, w := range compiled.Warnings {
			msgs[i] = w.String()
		}
		promoted := errext.WithHint(
			fmt.Errorf("%d warning(s) promoted to errors for %s", len(compiled.Warnings), sourcePath),
			strings.Join(msgs, "; "),
		)
		return nil, result.FailedCompilationKind(promoted, isRef), false
	}

	return compiled, result.TestResultKind{}, true
}

func annotateDiagnostics(err error, diagnostics []result.Diagnostic) error {
	if len(diagnostics) == 0 {
		return err
	}
	msgs := make([]string, len(diagnostics))
	for i, d := range diagnostics {
		msgs[i] = d.String()
	}
	return fmt.Errorf("%w: %s", err, strings.Join(msgs, "; "))
}
