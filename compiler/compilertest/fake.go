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

// Package compilertest provides a fake compiler.World for tests elsewhere in
// the module, the way k6's lib/testutils provides shared test doubles.
package compilertest

import (
	"context"
	"image"
	"image/color"
	"strings"
	"sync"

	"go.typst-test.dev/typst-test/compiler"
	"go.typst-test.dev/typst-test/doc"
	"go.typst-test.dev/typst-test/result"
)

// World stands in for the real typesetting compiler: it "compiles" a source
// by treating each non-empty line as a page marker and "renders" each page
// as a single-pixel canvas colored deterministically by the line's content,
// so tests can assert on colors rather than text layout. Sources containing
// the literal substring "error" fail to compile; sources containing "warn"
// produce a warning.
type World struct {
	mu    sync.Mutex
	calls int
}

// Calls returns the number of times Compile has been invoked, for tests
// asserting on concurrency or caching behavior.
func (w *World) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Compile implements compiler.World.
func (w *World) Compile(_ context.Context, sourcePath string, src []byte) (*compiler.Compiled, error) {
	w.mu.Lock()
	w.calls++
	w.mu.Unlock()

	text := string(src)
	if strings.Contains(text, "error") {
		return nil, &compiler.CompileError{Diagnostics: []result.Diagnostic{
			{Severity: result.SeverityError, Message: "fake compile error", File: sourcePath},
		}}
	}

	var warnings []result.Diagnostic
	if strings.Contains(text, "warn") {
		warnings = append(warnings, result.Diagnostic{
			Severity: result.SeverityWarning, Message: "fake warning", File: sourcePath,
		})
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	pages := make([]compiler.Page, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pages = append(pages, page{text: line})
	}
	if len(pages) == 0 {
		pages = []compiler.Page{page{text: ""}}
	}

	return &compiler.Compiled{Pages: pages, Warnings: warnings}, nil
}

// Render implements compiler.World.
func (w *World) Render(_ context.Context, compiled *compiler.Compiled, _ float64) (doc.Document, error) {
	pages := make([]*image.NRGBA, len(compiled.Pages))
	for i, p := range compiled.Pages {
		pages[i] = solidPage(p.(page).text)
	}
	return doc.New(pages), nil
}

type page struct {
	text string
}

// solidPage renders a 1x1 page colored deterministically from text, so two
// compiles of the same source produce pixel-identical pages.
func solidPage(text string) *image.NRGBA {
	var sum byte
	for i := 0; i < len(text); i++ {
		sum += text[i]
	}
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.NRGBA{R: sum, G: sum, B: sum, A: 255})
	return img
}
