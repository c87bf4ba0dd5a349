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

// Package project models a single test's identity, kind and on-disk
// lifecycle, and the suite-level collection of tests under a test root.
package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/id"
	"go.typst-test.dev/typst-test/paths"
	"go.typst-test.dev/typst-test/vcs"
)

// Kind is the on-disk shape of a test's reference, derived at collection
// time from which artifacts are present (spec section 3).
type Kind int

const (
	// CompileOnly tests have no reference at all; they only need to
	// compile.
	CompileOnly Kind = iota
	// Ephemeral tests compile a ref.typ script on the fly to produce their
	// reference.
	Ephemeral
	// Persistent tests compare against PNGs stored under ref/.
	Persistent
)

func (k Kind) String() string {
	switch k {
	case CompileOnly:
		return "compile-only"
	case Ephemeral:
		return "ephemeral"
	case Persistent:
		return "persistent"
	default:
		return "unknown"
	}
}

// Annotations is the set of directives parsed from a test's leading `///`
// comment lines (spec section 6).
type Annotations struct {
	// Skip marks the test to be excluded by the implicit default test set.
	Skip bool
	// Custom holds the identifier attached by a `[custom(ident)]`
	// annotation, if any.
	Custom    id.Id
	HasCustom bool
}

// Test is one test's identity, kind and annotations. It is a small value
// type; lifecycle operations take the filesystem and paths explicitly
// rather than holding onto them, mirroring id.Id's value semantics.
type Test struct {
	id          id.Id
	kind        Kind
	annotations Annotations
}

// New constructs a Test directly from already-known fields, for callers
// that have classified a test some other way than TryCollect (e.g. Create).
func New(testID id.Id, kind Kind, annotations Annotations) Test {
	return Test{id: testID, kind: kind, annotations: annotations}
}

// ID returns the test's identifier.
func (t Test) ID() id.Id { return t.id }

// Kind returns the test's reference kind.
func (t Test) Kind() Kind { return t.kind }

// Annotations returns the test's parsed annotations.
func (t Test) Annotations() Annotations { return t.annotations }

// Skip reports whether the test carries the [skip] annotation. This also
// satisfies testset.Test.
func (t Test) Skip() bool { return t.annotations.Skip }

// CompileOnly reports whether the test's kind is CompileOnly. Satisfies
// testset.Test.
func (t Test) CompileOnly() bool { return t.kind == CompileOnly }

// Ephemeral reports whether the test's kind is Ephemeral. Satisfies
// testset.Test.
func (t Test) Ephemeral() bool { return t.kind == Ephemeral }

// Persistent reports whether the test's kind is Persistent. Satisfies
// testset.Test.
func (t Test) Persistent() bool { return t.kind == Persistent }

// Custom returns the identifier attached by a [custom(ident)] annotation,
// if any. Satisfies testset.Test.
func (t Test) Custom() (id.Id, bool) { return t.annotations.Custom, t.annotations.HasCustom }

// ReferenceKind discriminates the reference a new test is created with.
type ReferenceKind int

const (
	NoReference ReferenceKind = iota
	ReferenceEphemeral
	ReferencePersistent
)

// Reference is supplied to Create to seed a new test's reference artifacts.
type Reference struct {
	Kind ReferenceKind
	// Source is the ref.typ content, for ReferenceEphemeral.
	Source string
	// Document and Optimize are the reference pages and optional optimizer,
	// for ReferencePersistent.
	Document doc.Document
	Optimize doc.Optimizer
}

// EphemeralReference builds a Reference that creates ref.typ with source.
func EphemeralReference(source string) Reference {
	return Reference{Kind: ReferenceEphemeral, Source: source}
}

// PersistentReference builds a Reference that saves d under ref/, optionally
// passing each page through optimize.
func PersistentReference(d doc.Document, optimize doc.Optimizer) Reference {
	return Reference{Kind: ReferencePersistent, Document: d, Optimize: optimize}
}

// Create makes a new test on disk: its directory, its test.typ (written
// exclusively, failing if one already exists), and whatever reference
// artifacts are implied by reference (spec section 4.4).
func Create(fs afero.Fs, p paths.Paths, testID id.Id, source string, reference *Reference) (Test, error) {
	dir := p.TestDir(testID)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return Test{}, fmt.Errorf("creating test directory for %s: %w", testID, err)
	}

	f, err := fs.OpenFile(p.TestScript(testID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Test{}, fmt.Errorf("creating test script for %s: %w", testID, err)
	}
	_, writeErr := f.WriteString(source)
	closeErr := f.Close()
	if writeErr != nil {
		return Test{}, fmt.Errorf("writing test script for %s: %w", testID, writeErr)
	}
	if closeErr != nil {
		return Test{}, fmt.Errorf("closing test script for %s: %w", testID, closeErr)
	}

	annotations, err := ParseAnnotations(source)
	if err != nil {
		return Test{}, err
	}

	kind := CompileOnly
	if reference != nil {
		switch reference.Kind {
		case ReferenceEphemeral:
			kind = Ephemeral
			if err := afero.WriteFile(fs, p.RefScript(testID), []byte(reference.Source), 0o644); err != nil {
				return Test{}, fmt.Errorf("writing reference script for %s: %w", testID, err)
			}
		case ReferencePersistent:
			kind = Persistent
			if err := fs.MkdirAll(p.RefDir(testID), 0o755); err != nil {
				return Test{}, fmt.Errorf("creating reference directory for %s: %w", testID, err)
			}
			if err := reference.Document.Save(fs, p.RefDir(testID), reference.Optimize); err != nil {
				return Test{}, fmt.Errorf("saving reference document for %s: %w", testID, err)
			}
		}
	}

	return Test{id: testID, kind: kind, annotations: annotations}, nil
}

// Delete removes every artifact belonging to the test, including its
// directory.
func (t Test) Delete(fs afero.Fs, p paths.Paths) error {
	if err := fs.RemoveAll(p.TestDir(t.id)); err != nil {
		return fmt.Errorf("deleting test %s: %w", t.id, err)
	}
	return nil
}

// CreateTemporaryDirectories recreates out/ and diff/ (and ref/ when the
// test is Ephemeral, which uses ref/ as a transient export target rather
// than permanent storage) and marks each as vcs-ignored.
func (t Test) CreateTemporaryDirectories(fs afero.Fs, p paths.Paths, v vcs.Vcs) error {
	for _, dir := range t.temporaryDirectories(p) {
		if err := fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("clearing %s: %w", dir, err)
		}
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		if v != nil {
			if err := v.Ignore(dir); err != nil {
				return fmt.Errorf("ignoring %s: %w", dir, err)
			}
		}
	}
	return nil
}

// DeleteTemporaryDirectories removes out/, diff/ and (for Ephemeral tests)
// ref/.
func (t Test) DeleteTemporaryDirectories(fs afero.Fs, p paths.Paths) error {
	for _, dir := range t.temporaryDirectories(p) {
		if err := fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("deleting %s: %w", dir, err)
		}
	}
	return nil
}

func (t Test) temporaryDirectories(p paths.Paths) []string {
	dirs := []string{p.OutDir(t.id), p.DiffDir(t.id)}
	if t.kind == Ephemeral {
		dirs = append(dirs, p.RefDir(t.id))
	}
	return dirs
}

// MakeEphemeral transitions the test to Ephemeral: any persistent reference
// is deleted, ref/ is (re)created and vcs-ignored since it becomes a
// transient export target, and ref.typ is seeded with a copy of test.typ.
func (t Test) MakeEphemeral(fs afero.Fs, p paths.Paths, v vcs.Vcs) (Test, error) {
	if err := fs.RemoveAll(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("deleting persistent references for %s: %w", t.id, err)
	}
	if err := fs.MkdirAll(p.RefDir(t.id), 0o755); err != nil {
		return t, fmt.Errorf("creating reference directory for %s: %w", t.id, err)
	}
	if err := v.Ignore(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("ignoring reference directory for %s: %w", t.id, err)
	}

	source, err := afero.ReadFile(fs, p.TestScript(t.id))
	if err != nil {
		return t, fmt.Errorf("reading test script for %s: %w", t.id, err)
	}
	if err := afero.WriteFile(fs, p.RefScript(t.id), source, 0o644); err != nil {
		return t, fmt.Errorf("writing reference script for %s: %w", t.id, err)
	}

	t.kind = Ephemeral
	return t, nil
}

// MakePersistent transitions the test to Persistent: any ephemeral
// reference script is deleted, ref/ is overwritten with d's pages, and
// ref/ is unignored since it now holds real stored content.
func (t Test) MakePersistent(fs afero.Fs, p paths.Paths, v vcs.Vcs, d doc.Document, optimize doc.Optimizer) (Test, error) {
	if err := removeIfExists(fs, p.RefScript(t.id)); err != nil {
		return t, fmt.Errorf("deleting ephemeral reference script for %s: %w", t.id, err)
	}
	if err := fs.RemoveAll(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("clearing reference directory for %s: %w", t.id, err)
	}
	if err := d.Save(fs, p.RefDir(t.id), optimize); err != nil {
		return t, fmt.Errorf("saving reference document for %s: %w", t.id, err)
	}
	if err := v.Unignore(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("unignoring reference directory for %s: %w", t.id, err)
	}

	t.kind = Persistent
	return t, nil
}

// MakeCompileOnly transitions the test to CompileOnly: both reference forms
// are deleted and ref/ is recreated empty and vcs-ignored.
func (t Test) MakeCompileOnly(fs afero.Fs, p paths.Paths, v vcs.Vcs) (Test, error) {
	if err := removeIfExists(fs, p.RefScript(t.id)); err != nil {
		return t, fmt.Errorf("deleting ephemeral reference script for %s: %w", t.id, err)
	}
	if err := fs.RemoveAll(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("clearing reference directory for %s: %w", t.id, err)
	}
	if err := fs.MkdirAll(p.RefDir(t.id), 0o755); err != nil {
		return t, fmt.Errorf("creating reference directory for %s: %w", t.id, err)
	}
	if err := v.Ignore(p.RefDir(t.id)); err != nil {
		return t, fmt.Errorf("ignoring reference directory for %s: %w", t.id, err)
	}

	t.kind = CompileOnly
	return t, nil
}

func removeIfExists(fs afero.Fs, path string) error {
	err := fs.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// LoadSource reads the test's test.typ.
func (t Test) LoadSource(fs afero.Fs, p paths.Paths) (string, error) {
	data, err := afero.ReadFile(fs, p.TestScript(t.id))
	if err != nil {
		return "", fmt.Errorf("loading test source for %s: %w", t.id, err)
	}
	return string(data), nil
}

// LoadReferenceSource reads the test's ref.typ. It fails if the test is not
// Ephemeral.
func (t Test) LoadReferenceSource(fs afero.Fs, p paths.Paths) (string, error) {
	if t.kind != Ephemeral {
		return "", fmt.Errorf("test %s is %s, not ephemeral: has no reference source", t.id, t.kind)
	}
	data, err := afero.ReadFile(fs, p.RefScript(t.id))
	if err != nil {
		return "", fmt.Errorf("loading reference source for %s: %w", t.id, err)
	}
	return string(data), nil
}

// LoadReferenceDocuments reads the test's stored reference PNGs under ref/.
// It fails if the test is not Persistent.
func (t Test) LoadReferenceDocuments(fs afero.Fs, p paths.Paths) (doc.Document, error) {
	if t.kind != Persistent {
		return doc.Document{}, fmt.Errorf("test %s is %s, not persistent: has no reference documents", t.id, t.kind)
	}
	d, err := doc.Load(fs, p.RefDir(t.id))
	if err != nil {
		return doc.Document{}, fmt.Errorf("loading reference documents for %s: %w", t.id, err)
	}
	return d, nil
}

// TryCollect attempts to classify testID as a test: it returns ok=false,
// with no error, if there is no test.typ at that location.
func TryCollect(fs afero.Fs, p paths.Paths, testID id.Id) (test Test, ok bool, err error) {
	data, err := afero.ReadFile(fs, p.TestScript(testID))
	if errors.Is(err, os.ErrNotExist) {
		return Test{}, false, nil
	}
	if err != nil {
		return Test{}, false, fmt.Errorf("reading test script for %s: %w", testID, err)
	}

	annotations, err := ParseAnnotations(string(data))
	if err != nil {
		return Test{}, false, fmt.Errorf("parsing annotations for %s: %w", testID, err)
	}

	kind, err := classifyKind(fs, p, testID)
	if err != nil {
		return Test{}, false, err
	}

	return Test{id: testID, kind: kind, annotations: annotations}, true, nil
}

func classifyKind(fs afero.Fs, p paths.Paths, testID id.Id) (Kind, error) {
	hasRefScript, err := afero.Exists(fs, p.RefScript(testID))
	if err != nil {
		return 0, fmt.Errorf("checking reference script for %s: %w", testID, err)
	}
	if hasRefScript {
		return Ephemeral, nil
	}

	hasRefDir, err := afero.DirExists(fs, p.RefDir(testID))
	if err != nil {
		return 0, fmt.Errorf("checking reference directory for %s: %w", testID, err)
	}
	if hasRefDir {
		return Persistent, nil
	}

	return CompileOnly, nil
}
