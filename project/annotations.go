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
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"go.typst-test.dev/typst-test/errext"
	"go.typst-test.dev/typst-test/errext/exitcodes"
	"go.typst-test.dev/typst-test/id"
)

// AnnotationError reports a leading `///` line that does not match the
// annotation grammar in spec section 6.
type AnnotationError struct {
	Line   string
	Reason string
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("malformed annotation %q: %s", e.Line, e.Reason)
}

var annotationShape = regexp.MustCompile(`^\[([A-Za-z][A-Za-z0-9_-]*)(?:\(([^()]*)\))?\]$`)

// ParseAnnotations scans the consecutive leading lines of source that start
// with `///` and parses each as an annotation. Scanning stops at the first
// line that is not `///`-prefixed; everything before that must be a
// well-formed annotation or ParseAnnotations fails.
func ParseAnnotations(source string) (Annotations, error) {
	var ann Annotations

	scanner := bufio.NewScanner(strings.NewReader(source))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimLeft(line, " \t")
		if !strings.HasPrefix(trimmed, "///") {
			break
		}

		body := strings.TrimSpace(strings.TrimPrefix(trimmed, "///"))

		m := annotationShape.FindStringSubmatch(body)
		if m == nil {
			return Annotations{}, errext.WithExitCodeIfNone(&AnnotationError{Line: body, Reason: "expected [ident] or [ident(arg)]"}, exitcodes.OperationFailure)
		}

		name, arg := m[1], m[2]
		switch name {
		case "skip":
			if arg != "" {
				return Annotations{}, errext.WithExitCodeIfNone(&AnnotationError{Line: body, Reason: "[skip] takes no argument"}, exitcodes.OperationFailure)
			}
			ann.Skip = true

		case "custom":
			if arg == "" {
				return Annotations{}, errext.WithExitCodeIfNone(&AnnotationError{Line: body, Reason: "[custom(...)] requires an identifier argument"}, exitcodes.OperationFailure)
			}
			customID, err := id.New(strings.TrimSpace(arg))
			if err != nil {
				return Annotations{}, errext.WithExitCodeIfNone(&AnnotationError{Line: body, Reason: err.Error()}, exitcodes.OperationFailure)
			}
			ann.Custom = customID
			ann.HasCustom = true

		default:
			// Reserved shape (spec section 6): a syntactically valid
			// annotation this engine doesn't recognize yet is accepted and
			// ignored, rather than erroring, to stay forward compatible.
		}
	}

	return ann, errext.WithExitCodeIfNone(scanner.Err(), exitcodes.OperationFailure)
}
