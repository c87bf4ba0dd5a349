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

// Package doc implements rendered page buffers: their on-disk layout, visual
// diffing and pixel comparison. The PNG codec itself is treated as an
// external, byte-in/byte-out dependency (stdlib image/png).
package doc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Document is an ordered, non-empty-when-loaded sequence of rendered pages.
type Document struct {
	pages []*image.NRGBA
}

// New wraps pages into a Document.
func New(pages []*image.NRGBA) Document {
	return Document{pages: pages}
}

// Len returns the number of pages.
func (d Document) Len() int {
	return len(d.pages)
}

// Page returns the page at the given 0-based index.
func (d Document) Page(i int) *image.NRGBA {
	return d.pages[i]
}

// Pages returns the document's pages in order.
func (d Document) Pages() []*image.NRGBA {
	return d.pages
}

// Optimizer losslessly re-encodes a PNG buffer, e.g. to shrink a stored
// reference. The typesetting project's actual optimizer is an external
// collaborator (spec section 1); this interface is the seam it plugs into.
type Optimizer interface {
	Optimize(pngBytes []byte) ([]byte, error)
}

// BestCompression is an Optimizer that re-encodes with png's highest
// compression level. It is the default used when a caller asks to optimize
// but does not supply a specific third-party optimizer.
type BestCompression struct{}

// Optimize implements Optimizer.
func (BestCompression) Optimize(pngBytes []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the document's pages to dir as "1.png", "2.png", etc. If
// optimize is non-nil, each encoded page is passed through it before being
// written.
func (d Document) Save(fs afero.Fs, dir string, optimize Optimizer) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	for i, page := range d.pages {
		var buf bytes.Buffer
		if err := png.Encode(&buf, page); err != nil {
			return fmt.Errorf("encoding page %d: %w", i+1, err)
		}

		out := buf.Bytes()
		if optimize != nil {
			optimized, err := optimize.Optimize(out)
			if err != nil {
				return fmt.Errorf("optimizing page %d: %w", i+1, err)
			}
			out = optimized
		}

		path := filepath.Join(dir, strconv.Itoa(i+1)+".png")
		if err := afero.WriteFile(fs, path, out, 0o644); err != nil {
			return fmt.Errorf("writing page %d: %w", i+1, err)
		}
	}

	return nil
}

// MissingPagesError is returned by Load when the pages found under dir are
// not exactly the contiguous range {1, ..., N}.
type MissingPagesError struct {
	Found map[int]bool
}

func (e *MissingPagesError) Error() string {
	found := make([]int, 0, len(e.Found))
	for n := range e.Found {
		found = append(found, n)
	}
	sort.Ints(found)

	parts := make([]string, len(found))
	for i, n := range found {
		parts[i] = strconv.Itoa(n)
	}
	return fmt.Sprintf("pages are not contiguous starting at 1, found: [%s]", strings.Join(parts, ", "))
}

// Load reads every "<n>.png" regular file directly under dir and returns
// them as a Document ordered by n. It fails with *MissingPagesError unless
// the found page numbers are exactly {1, ..., N}.
func Load(fs afero.Fs, dir string) (Document, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return Document{}, err
	}

	byNumber := map[int]*image.NRGBA{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) != ".png" {
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		n, err := strconv.Atoi(stem)
		if err != nil || n <= 0 {
			continue
		}

		f, err := fs.Open(filepath.Join(dir, name))
		if err != nil {
			return Document{}, err
		}
		img, err := png.Decode(f)
		closeErr := f.Close()
		if err != nil {
			return Document{}, fmt.Errorf("decoding %s: %w", name, err)
		}
		if closeErr != nil {
			return Document{}, closeErr
		}

		byNumber[n] = toNRGBA(img)
	}

	found := make(map[int]bool, len(byNumber))
	for n := range byNumber {
		found[n] = true
	}

	for n := 1; n <= len(byNumber); n++ {
		if !found[n] {
			return Document{}, &MissingPagesError{Found: found}
		}
	}
	for n := range found {
		if n > len(byNumber) {
			return Document{}, &MissingPagesError{Found: found}
		}
	}

	pages := make([]*image.NRGBA, len(byNumber))
	for n := 1; n <= len(byNumber); n++ {
		pages[n-1] = byNumber[n]
	}

	return Document{pages: pages}, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba
	}

	bounds := img.Bounds()
	out := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
