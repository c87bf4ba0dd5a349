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

// Package errext provides helpers for attaching user-facing hints, process
// exit codes and abort reasons to arbitrary errors without requiring every
// call site to define its own error type.
package errext

import (
	"errors"
	"fmt"

	"go.typst-test.dev/typst-test/errext/exitcodes"
)

// HasHint is implemented by errors that carry a user-facing hint.
type HasHint interface {
	error
	Hint() string
}

// HasExitCode is implemented by errors that dictate a process exit code.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// AbortReason describes why a run was aborted, for errors produced by
// cooperative cancellation rather than a stage failure.
type AbortReason uint8

// HasAbortReason is implemented by errors produced by cancellation.
type HasAbortReason interface {
	error
	AbortReason() AbortReason
}

type hintError struct {
	error
	hint string
}

func (e hintError) Hint() string {
	return e.hint
}

func (e hintError) Unwrap() error {
	return e.error
}

// WithHint wraps err so that it carries hint. If err already carries a hint,
// the new hint is prefixed and the previous hint is kept in parentheses, so
// callers can layer increasingly specific guidance as an error propagates
// up the call stack. WithHint returns nil if err is nil.
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}

	var existing HasHint
	if errors.As(err, &existing) {
		hint = fmt.Sprintf("%s (%s)", hint, existing.Hint())
	}

	return hintError{error: err, hint: hint}
}

type exitCodeError struct {
	error
	exitCode exitcodes.ExitCode
}

func (e exitCodeError) ExitCode() exitcodes.ExitCode {
	return e.exitCode
}

func (e exitCodeError) Unwrap() error {
	return e.error
}

// WithExitCodeIfNone wraps err with exitCode unless err already carries an
// exit code, in which case the existing one is kept. WithExitCodeIfNone
// returns nil if err is nil.
func WithExitCodeIfNone(err error, exitCode exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}

	var existing HasExitCode
	if errors.As(err, &existing) {
		return err
	}

	return exitCodeError{error: err, exitCode: exitCode}
}
