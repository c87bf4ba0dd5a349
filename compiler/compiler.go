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

// Package compiler declares the narrow seam the runner calls into the
// typesetting compiler through. The compiler itself, the thing that turns a
// source script into a page model, is an out-of-scope external collaborator
// (spec section 1); this package only models the shape of that call so the
// runner can be written and tested against a fake.
package compiler

import (
	"context"
	"fmt"
	"strings"

	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/result"
)

// Page is an opaque compiled page, as produced by World.Compile and
// consumed by World.Render. The runner never inspects its contents.
type Page any

// Compiled is one source's compilation output.
type Compiled struct {
	Pages    []Page
	Warnings []result.Diagnostic
}

// CompileError is returned when a source fails to compile outright;
// Diagnostics holds what the compiler reported.
type CompileError struct {
	Diagnostics []result.Diagnostic
}

func (e *CompileError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = d.String()
	}
	return fmt.Sprintf("compilation failed: %s", strings.Join(msgs, "; "))
}

// World is the long-lived compiler host shared read-only across concurrently
// running tests (spec section 5: "its internal caches must be thread-safe
// for concurrent reads"). An embedding CLI constructs the real
// implementation (font/package discovery, the actual typesetting compiler);
// this package only describes the two calls the runner needs from it.
type World interface {
	// Compile compiles src, identified by sourcePath for diagnostics, into a
	// Compiled page model. A compiler error is returned as *CompileError;
	// any other error is an unexpected failure reaching the host.
	Compile(ctx context.Context, sourcePath string, src []byte) (*Compiled, error)

	// Render rasterizes compiled's pages at the given pixel-per-point
	// density into a document the doc package can save, diff and compare.
	Render(ctx context.Context, compiled *Compiled, pixelPerPt float64) (doc.Document, error)
}
