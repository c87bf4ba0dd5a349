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

package errext

import "errors"

// HasStackTrace is implemented by errors carrying a formatted stack trace,
// typically produced deep inside an embedded script interpreter.
type HasStackTrace interface {
	error
	StackTrace() string
}

// Format extracts a user-facing error message and a set of structured
// fields (currently just "hint", when present) from err. The message is
// the stack trace when err carries one, otherwise err.Error(). Format
// returns ("", nil) for a nil error.
func Format(err error) (string, map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	message := err.Error()

	var withTrace HasStackTrace
	if errors.As(err, &withTrace) {
		message = withTrace.StackTrace()
	}

	var fields map[string]interface{}

	var withHint HasHint
	if errors.As(err, &withHint) {
		fields = map[string]interface{}{"hint": withHint.Hint()}
	}

	return message, fields
}
