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

package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
	"go.typst-test.dev/typst-test/id"
	"go.typst-test.dev/typst-test/paths"
	"go.typst-test.dev/typst-test/testset"
)

// Suite is the set of all discovered tests plus the partition a test-set
// expression induces over them.
type Suite struct {
	Matched  map[id.Id]Test
	Filtered map[id.Id]Test

	Template    string
	HasTemplate bool
}

// MatchedIDs returns Matched's keys in ascending id order.
func (s Suite) MatchedIDs() []id.Id { return sortedKeys(s.Matched) }

// FilteredIDs returns Filtered's keys in ascending id order.
func (s Suite) FilteredIDs() []id.Id { return sortedKeys(s.Filtered) }

func sortedKeys(m map[id.Id]Test) []id.Id {
	ids := make([]id.Id, 0, len(m))
	for i := range m {
		ids = append(ids, i)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a].Less(ids[b]) })
	return ids
}

// Collect walks p.TestRoot() top-down, classifying every directory it finds
// a test in and partitioning it into Matched or Filtered according to set.
// A directory that contains a test is a leaf: Collect never descends into
// it. Directories named ref, out or diff, or whose name is not a valid Id
// component, are skipped entirely (spec section 4.3).
func Collect(fs afero.Fs, p paths.Paths, set testset.Set) (Suite, error) {
	suite := Suite{Matched: map[id.Id]Test{}, Filtered: map[id.Id]Test{}}

	root := p.TestRoot()
	if exists, err := afero.DirExists(fs, root); err != nil {
		return Suite{}, errext.WithExitCodeIfNone(fmt.Errorf("checking test root %s: %w", root, err), exitcodes.OperationFailure)
	} else if !exists {
		return suite, nil
	}

	if err := collectDir(fs, p, id.Id{}, false, root, set, false, &suite); err != nil {
		return Suite{}, errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	data, err := afero.ReadFile(fs, p.Template())
	switch {
	case errors.Is(err, os.ErrNotExist):
		// no template, nothing to do
	case err != nil:
		return Suite{}, errext.WithExitCodeIfNone(fmt.Errorf("reading template: %w", err), exitcodes.OperationFailure)
	default:
		suite.Template = string(data)
		suite.HasTemplate = true
	}

	return suite, nil
}

// collectDir processes one directory's entries. parentID/hasParentID
// identify the test id the directory itself corresponds to, if any
// (test_root has none). viaSymlink marks that dir lies at or below a
// followed symlink, so symlinks found anywhere under it are not followed again
// (spec section 9's open question on symlinks: followed one level).
func collectDir(
	fs afero.Fs, p paths.Paths,
	parentID id.Id, hasParentID bool,
	dir string,
	set testset.Set,
	viaSymlink bool,
	suite *Suite,
) error {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return errext.WithExitCodeIfNone(fmt.Errorf("reading directory %s: %w", dir, err), exitcodes.OperationFailure)
	}

	for _, entry := range entries {
		name := entry.Name()
		entryPath := filepath.Join(dir, name)

		isDir := entry.IsDir()
		followedSymlink := false

		if info, lerr := lstatIfPossible(fs, entryPath); lerr == nil && info.Mode()&os.ModeSymlink != 0 {
			if viaSymlink {
				continue
			}
			target, terr := fs.Stat(entryPath)
			if terr != nil || !target.IsDir() {
				continue
			}
			isDir = true
			followedSymlink = true
		}

		if !isDir {
			continue
		}
		if name == paths.DirRef || name == paths.DirOut || name == paths.DirDiff {
			continue
		}
		if !id.ValidComponent(name) {
			continue
		}

		var childID id.Id
		if hasParentID {
			childID, err = parentID.PushComponent(name)
		} else {
			childID, err = id.New(name)
		}
		if err != nil {
			continue
		}

		test, found, err := TryCollect(fs, p, childID)
		if err != nil {
			return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
		}
		if found {
			if set(test) {
				suite.Matched[childID] = test
			} else {
				suite.Filtered[childID] = test
			}
			continue
		}

		if err := collectDir(fs, p, childID, true, entryPath, set, viaSymlink || followedSymlink, suite); err != nil {
			return err
		}
	}

	return nil
}

// lstatIfPossible adapts afero.LstatIfPossible's (info, wasLstat, err) to a
// plain (info, err) pair; whether the underlying Fs actually supports Lstat
// doesn't matter here; a symlink only needs detecting where the Fs models
// symlinks at all (afero.MemMapFs never does, so this is a no-op there).
func lstatIfPossible(fs afero.Fs, path string) (os.FileInfo, error) {
	info, _, err := afero.LstatIfPossible(fs, path)
	return info, err
}
