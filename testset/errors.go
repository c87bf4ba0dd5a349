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

package testset

import (
	"fmt"
	"strings"
)

// UnknownBindingError is returned when an identifier has no binding in the
// evaluation Context. Suggestions lists similarly-spelled bound names, most
// similar first.
type UnknownBindingError struct {
	Name        string
	Suggestions []string
}

func (e *UnknownBindingError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("unknown identifier %q", e.Name)
	}
	return fmt.Sprintf("unknown identifier %q, did you mean %s?", e.Name, strings.Join(e.Suggestions, ", "))
}

// TypeMismatchError is returned when a value of the wrong kind is used
// where a specific ValueKind was required.
type TypeMismatchError struct {
	Expected ValueKind
	Found    ValueKind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("expected a %s, found a %s", e.Expected, e.Found)
}

// InvalidArgumentCountError is returned when a function call's argument
// count falls outside what the callee accepts.
type InvalidArgumentCountError struct {
	Func     string
	Expected int
	IsMin    bool
	Found    int
}

func (e *InvalidArgumentCountError) Error() string {
	rel := "exactly"
	if e.IsMin {
		rel = "at least"
	}
	return fmt.Sprintf("%s() takes %s %d argument(s), found %d", e.Func, rel, e.Expected, e.Found)
}

// NotCallableError is returned when a call target resolves to a non-Func
// value.
type NotCallableError struct {
	Name string
	Kind ValueKind
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("%q is a %s, not callable", e.Name, e.Kind)
}
