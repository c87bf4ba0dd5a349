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

package result

import "time"

// Kind discriminates the outcomes a finished (or pre-filled) test can have.
type Kind int

const (
	// Cancelled means the test was skipped because the run was cancelled
	// before it started, or it is a placeholder for a not-yet-run test.
	Cancelled Kind = iota
	// Filtered means the test was excluded by the active test-set
	// expression and never scheduled at all.
	Filtered
	FailedCompilation
	FailedComparison
	PassedCompilation
	PassedComparison
)

func (k Kind) String() string {
	switch k {
	case Cancelled:
		return "cancelled"
	case Filtered:
		return "filtered"
	case FailedCompilation:
		return "failed-compilation"
	case FailedComparison:
		return "failed-comparison"
	case PassedCompilation:
		return "passed-compilation"
	case PassedComparison:
		return "passed-comparison"
	default:
		return "unknown"
	}
}

// Passed reports whether k is one of the passing variants.
func (k Kind) Passed() bool {
	return k == PassedCompilation || k == PassedComparison
}

// Failed reports whether k is one of the failing variants.
func (k Kind) Failed() bool {
	return k == FailedCompilation || k == FailedComparison
}

// TestResultKind is the tagged outcome of a single test: the Kind plus
// whatever payload that variant carries (spec section 3's
// FailedCompilation{err, is_ref} / FailedComparison(err)).
type TestResultKind struct {
	Kind Kind
	// Err is set for FailedCompilation and FailedComparison.
	Err error
	// IsRef is set for FailedCompilation and reports whether the failure
	// happened compiling the reference rather than the test itself.
	IsRef bool
}

func CancelledKind() TestResultKind { return TestResultKind{Kind: Cancelled} }
func FilteredKind() TestResultKind  { return TestResultKind{Kind: Filtered} }

func FailedCompilationKind(err error, isRef bool) TestResultKind {
	return TestResultKind{Kind: FailedCompilation, Err: err, IsRef: isRef}
}

func FailedComparisonKind(err error) TestResultKind {
	return TestResultKind{Kind: FailedComparison, Err: err}
}

func PassedCompilationKind() TestResultKind { return TestResultKind{Kind: PassedCompilation} }
func PassedComparisonKind() TestResultKind  { return TestResultKind{Kind: PassedComparison} }

// TestResult is the outcome of a single test. Kind is nil until the test
// has run (or been pre-filled by the runner as Cancelled/Filtered); spec
// section 3 calls this "kind = None means cancelled/not-run".
type TestResult struct {
	Kind      *TestResultKind
	Warnings  []Diagnostic
	Timestamp time.Time
	Duration  time.Duration
}

// Start records the test's start timestamp.
func (r *TestResult) Start() {
	r.Timestamp = time.Now()
}

// End records the test's duration as elapsed time since Start.
func (r *TestResult) End() {
	r.Duration = time.Since(r.Timestamp)
}
