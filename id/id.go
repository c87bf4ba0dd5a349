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

// Package id implements test identifiers and the pattern matchers used to
// select them.
package id

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Separator joins the components of an Id.
const Separator = "/"

// Id is a non-empty, ordered sequence of validated path components
// identifying a single test. Ids compare and hash by their string form.
type Id struct {
	s string
}

// ParseError reports why a string could not be turned into an Id.
type ParseError struct {
	// Fragment is the offending component, if any.
	Fragment string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("invalid id: %s", e.Reason)
	}
	return fmt.Sprintf("invalid id component %q: %s", e.Fragment, e.Reason)
}

// New validates s and wraps it in an Id. s must be a non-empty sequence of
// Separator-delimited components, each matching [A-Za-z][A-Za-z0-9_-]*.
func New(s string) (Id, error) {
	if s == "" {
		return Id{}, &ParseError{Reason: "id must not be empty"}
	}

	for _, comp := range strings.Split(s, Separator) {
		if err := validateComponent(comp); err != nil {
			return Id{}, err
		}
	}

	return Id{s: s}, nil
}

// NewFromPath is like New, but accepts an OS path and normalizes its
// separators before validating components. It rejects "." and ".."
// components and anything that is not valid UTF-8.
func NewFromPath(path string) (Id, error) {
	path = filepath.ToSlash(path)
	path = strings.Trim(path, "/")

	if path == "" {
		return Id{}, &ParseError{Reason: "id must not be empty"}
	}

	for _, comp := range strings.Split(path, "/") {
		if comp == "." || comp == ".." {
			return Id{}, &ParseError{Fragment: comp, Reason: "path components must not be relative"}
		}
		if err := validateComponent(comp); err != nil {
			return Id{}, err
		}
	}

	return Id{s: path}, nil
}

// ValidComponent reports whether comp, on its own, is a syntactically valid
// Id component. Suite collection uses this to decide whether a directory
// name can possibly name a test without constructing a full Id.
func ValidComponent(comp string) bool {
	return validateComponent(comp) == nil
}

func validateComponent(comp string) error {
	if comp == "" {
		return &ParseError{Reason: "components must not be empty"}
	}

	for i, r := range comp {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return &ParseError{Fragment: comp, Reason: "components must start with a letter"}
			}
		case r == '_' || r == '-':
			if i == 0 {
				return &ParseError{Fragment: comp, Reason: "components must start with a letter"}
			}
		default:
			return &ParseError{Fragment: comp, Reason: fmt.Sprintf("invalid character %q", r)}
		}
	}

	return nil
}

// String returns the id in its canonical, Separator-joined form.
func (id Id) String() string {
	return id.s
}

// IsZero reports whether id is the zero value (not a valid Id).
func (id Id) IsZero() bool {
	return id.s == ""
}

// Components returns the id's components in order, from root to leaf.
func (id Id) Components() []string {
	return strings.Split(id.s, Separator)
}

// ReverseComponents returns the id's components in order, from leaf to root.
func (id Id) ReverseComponents() []string {
	comps := id.Components()
	out := make([]string, len(comps))
	for i, c := range comps {
		out[len(comps)-1-i] = c
	}
	return out
}

// Name returns the last component of the id.
func (id Id) Name() string {
	comps := id.Components()
	return comps[len(comps)-1]
}

// Module returns all but the last component of the id, joined by
// Separator. It is empty if the id has a single component.
func (id Id) Module() string {
	comps := id.Components()
	if len(comps) == 1 {
		return ""
	}
	return strings.Join(comps[:len(comps)-1], Separator)
}

// Ancestors returns the ids of every proper ancestor of id, from the
// immediate parent up to (but not including) the root, in that order. A
// single-component id has no ancestors.
func (id Id) Ancestors() []Id {
	comps := id.Components()
	if len(comps) <= 1 {
		return nil
	}

	out := make([]Id, 0, len(comps)-1)
	for n := len(comps) - 1; n >= 1; n-- {
		out = append(out, Id{s: strings.Join(comps[:n], Separator)})
	}
	return out
}

// PushComponent returns a new Id with comp appended, validating comp first.
func (id Id) PushComponent(comp string) (Id, error) {
	if err := validateComponent(comp); err != nil {
		return Id{}, err
	}
	if id.IsZero() {
		return Id{s: comp}, nil
	}
	return Id{s: id.s + Separator + comp}, nil
}

// Compare returns -1, 0 or 1 as id sorts before, equal to, or after other,
// using byte-lexicographic order on the string form (see DESIGN.md's Open
// Question decision on id collation).
func (id Id) Compare(other Id) int {
	return strings.Compare(id.s, other.s)
}

// Less reports whether id sorts strictly before other.
func (id Id) Less(other Id) bool {
	return id.Compare(other) < 0
}
