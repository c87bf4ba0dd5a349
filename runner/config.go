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

package runner

import "go.typst-test.dev/typst-test/doc"

// ActionKind discriminates the two things a run can do with a test's
// output: compare it against a reference, or replace the reference with
// it.
type ActionKind int

const (
	// ActionRun compiles and renders every matched test and, where a
	// Strategy is set, compares it against its reference.
	ActionRun ActionKind = iota
	// ActionUpdate replaces a Persistent test's stored reference with its
	// freshly rendered output; CompileOnly tests reject it.
	ActionUpdate
)

func (k ActionKind) String() string {
	switch k {
	case ActionRun:
		return "run"
	case ActionUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Action is the operation RunnerConfig drives the suite through (spec
// section 4.7: `Action = Run{strategy?, export, origin} | Update{export,
// origin}`).
type Action struct {
	Kind ActionKind
	// Strategy gates comparison for ActionRun: nil means the run only
	// exercises compilation and rendering, never comparing pages. Unused
	// for ActionUpdate.
	Strategy *doc.Strategy
	// Export controls whether rendered/diff documents are written to out/
	// and diff/, on top of whatever in-memory work a stage already does.
	Export bool
	// Origin is the corner diff images are aligned from when test and
	// reference page extents differ.
	Origin doc.Origin
}

// Compare reports whether this action compares pages against a reference.
func (a Action) Compare() bool {
	return a.Kind == ActionRun && a.Strategy != nil
}

// NewRunAction builds a Run action. Pass a nil strategy to exercise
// compilation and rendering without ever comparing pages.
func NewRunAction(strategy *doc.Strategy, export bool, origin doc.Origin) Action {
	return Action{Kind: ActionRun, Strategy: strategy, Export: export, Origin: origin}
}

// NewUpdateAction builds an Update action.
func NewUpdateAction(export bool, origin doc.Origin) Action {
	return Action{Kind: ActionUpdate, Export: export, Origin: origin}
}

// Config is RunnerConfig (spec section 4.7): the knobs that do not vary
// per test.
type Config struct {
	// PromoteWarnings elevates compiler warnings to a FailedCompilation,
	// with a hint line listing them.
	PromoteWarnings bool
	// Optimize runs reference PNGs through doc.BestCompression before
	// saving them.
	Optimize bool
	// FailFast aborts the suite (sets the CancelFlag) on the first
	// FailedCompilation or FailedComparison, and stops comparison at a
	// page's first failure within a test.
	FailFast bool
	// PixelPerPt is the rendering density passed to compiler.World.Render.
	PixelPerPt float64
	// Action is what this run does with each test's output.
	Action Action
}

// optimizer returns the doc.Optimizer reference saves should use, or nil
// if Optimize is unset.
func (c Config) optimizer() doc.Optimizer {
	if c.Optimize {
		return doc.BestCompression{}
	}
	return nil
}
