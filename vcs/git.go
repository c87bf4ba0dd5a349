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

package vcs

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
)

const gitignoreName = ".gitignore"

// Git is a Vcs implementation that maintains .gitignore files in the
// parent directory of each ignored target (or, for directories, inside the
// directory itself with a "**" pattern). Writes are serialized by a single
// mutex: a shared .gitignore high up the tree is not normally touched
// concurrently, but when it is, this avoids interleaved read-modify-write
// races (spec section 5's shared-resource policy).
type Git struct {
	fs   afero.Fs
	root string
	mu   sync.Mutex
}

// NewGit returns a Git vcs strategy scoped to root. root must already be an
// absolute, cleaned path; operations outside of it are refused.
func NewGit(fs afero.Fs, root string) *Git {
	return &Git{fs: fs, root: filepath.Clean(root)}
}

func (g *Git) ensureNoEscape(p string) error {
	rel, err := filepath.Rel(g.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("cannot (un)ignore path %q outside vcs root %q", p, g.root)
	}
	return nil
}

// targetFile returns the .gitignore path and the pattern to (un)ignore for
// the given target path.
func (g *Git) targetFile(path string) (gitignore, pattern string, err error) {
	path = filepath.Clean(path)

	info, err := g.fs.Stat(path)
	if err != nil {
		return "", "", err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return "", "", errors.New("cannot (un)ignore the root directory")
	}
	if err := g.ensureNoEscape(parent); err != nil {
		return "", "", err
	}

	if info.IsDir() {
		return filepath.Join(path, gitignoreName), "**", nil
	}
	return filepath.Join(parent, gitignoreName), filepath.Base(path), nil
}

// Ignore implements Vcs.
func (g *Git) Ignore(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gitignore, pattern, err := g.targetFile(path)
	if err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	lines, err := readLines(g.fs, gitignore)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	for _, line := range lines {
		if line == pattern {
			return nil
		}
	}

	f, err := g.fs.OpenFile(gitignore, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}
	defer f.Close()

	_, err = f.Write([]byte("\n" + pattern + "\n"))
	return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
}

// Unignore implements Vcs.
func (g *Git) Unignore(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	gitignore, pattern, err := g.targetFile(path)
	if err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	lines, err := readLines(g.fs, gitignore)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.OperationFailure)
	}

	kept := lines[:0]
	for _, line := range lines {
		if line != pattern {
			kept = append(kept, line)
		}
	}

	if len(kept) == 0 {
		return errext.WithExitCodeIfNone(g.fs.Remove(gitignore), exitcodes.OperationFailure)
	}

	var buf bytes.Buffer
	for _, line := range kept {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	return errext.WithExitCodeIfNone(afero.WriteFile(g.fs, gitignore, buf.Bytes(), 0o644), exitcodes.OperationFailure)
}

func readLines(fs afero.Fs, path string) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}
