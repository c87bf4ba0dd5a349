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

// Package paths implements pure, side-effect-free path arithmetic rooted at
// a project directory. Nothing in this package touches a filesystem.
package paths

import (
	"path/filepath"

	"go.typst-test.dev/typst-test/id"
)

// Reserved directory names inside a test directory; they hold transient or
// stored artifacts, and suite collection never treats a directory with one
// of these names as a test.
const (
	DirRef  = "ref"
	DirOut  = "out"
	DirDiff = "diff"
)

const (
	testsDirName     = "tests"
	templateFileName = "template.typ"
	testScriptName   = "test.typ"
	refScriptName    = "ref.typ"
)

// Paths is an immutable record of the roots an engine run is scoped to.
type Paths struct {
	projectRoot string
	vcsRoot     string
	hasVcsRoot  bool
}

// New returns a Paths rooted at projectRoot, with no known vcs root.
func New(projectRoot string) Paths {
	return Paths{projectRoot: projectRoot}
}

// NewWithVcsRoot returns a Paths rooted at projectRoot, scoped to vcsRoot for
// version-control operations.
func NewWithVcsRoot(projectRoot, vcsRoot string) Paths {
	return Paths{projectRoot: projectRoot, vcsRoot: vcsRoot, hasVcsRoot: true}
}

// ProjectRoot returns the project root directory.
func (p Paths) ProjectRoot() string {
	return p.projectRoot
}

// VcsRoot returns the vcs root directory and whether one is set.
func (p Paths) VcsRoot() (string, bool) {
	return p.vcsRoot, p.hasVcsRoot
}

// TestRoot returns the directory the test suite is discovered under.
func (p Paths) TestRoot() string {
	return filepath.Join(p.projectRoot, testsDirName)
}

// Template returns the path to the optional new-test seed template.
func (p Paths) Template() string {
	return filepath.Join(p.TestRoot(), templateFileName)
}

// TestDir returns the directory containing the test identified by testID.
func (p Paths) TestDir(testID id.Id) string {
	return filepath.Join(append([]string{p.TestRoot()}, testID.Components()...)...)
}

// TestScript returns the path to the test's source script (test.typ).
func (p Paths) TestScript(testID id.Id) string {
	return filepath.Join(p.TestDir(testID), testScriptName)
}

// RefScript returns the path to the test's ephemeral reference script
// (ref.typ). An ephemeral test's RefDir holds only rendered output of this
// script, never a stored reference.
func (p Paths) RefScript(testID id.Id) string {
	return filepath.Join(p.TestDir(testID), refScriptName)
}

// RefDir returns the directory containing a persistent reference's PNGs.
func (p Paths) RefDir(testID id.Id) string {
	return filepath.Join(p.TestDir(testID), DirRef)
}

// OutDir returns the directory the latest rendered outputs are written to.
func (p Paths) OutDir(testID id.Id) string {
	return filepath.Join(p.TestDir(testID), DirOut)
}

// DiffDir returns the directory the latest diff images are written to.
func (p Paths) DiffDir(testID id.Id) string {
	return filepath.Join(p.TestDir(testID), DirDiff)
}
