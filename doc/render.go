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

package doc

import (
	"image"

	"golang.org/x/image/draw"
)

// pixelPerPtToPixelPerInchFactor converts a typesetting density given in
// pixels-per-point into pixels-per-inch (72 points to the inch).
const pixelPerPtToPixelPerInchFactor = 72.0

// DefaultPixelPerPt is the density used when a caller does not request a
// specific resolution.
const DefaultPixelPerPt = 144.0 / 72.0

// PixelPerPtToPixelPerInch converts a pixel-per-point density to the
// pixel-per-inch density a renderer collaborator expects.
func PixelPerPtToPixelPerInch(pixelPerPt float64) float64 {
	return pixelPerPt * pixelPerPtToPixelPerInchFactor
}

// PixelPerInchToPixelPerPt is the inverse of PixelPerPtToPixelPerInch.
func PixelPerInchToPixelPerPt(pixelPerInch float64) float64 {
	return pixelPerInch / pixelPerPtToPixelPerInchFactor
}

// Origin is the corner of the diff canvas that base and change are aligned
// against when their dimensions differ.
type Origin int

const (
	// TopLeft aligns both images against the top-left corner. This is the
	// default.
	TopLeft Origin = iota
	TopRight
	BottomLeft
	BottomRight
)

func (o Origin) isRight() bool {
	return o == TopRight || o == BottomRight
}

func (o Origin) isBottom() bool {
	return o == BottomLeft || o == BottomRight
}

// alignedOffset returns the (base, change) offsets along one axis given the
// two images' extents on that axis and whether this origin anchors the
// "far" (right/bottom) edge on this axis.
func alignedOffset(baseExtent, changeExtent int, far bool) (baseOffset, changeOffset int) {
	switch {
	case baseExtent < changeExtent && far:
		return changeExtent - baseExtent, 0
	case baseExtent > changeExtent && far:
		return 0, baseExtent - changeExtent
	default:
		return 0, 0
	}
}

// PageDiff renders a single-page visual diff of base against change: the
// canvas covers the union of both extents, base is drawn as-is, and change
// is drawn over it using a difference blend so that matching pixels go
// black and differing ones show the delta. Where only one image covers a
// region that image's own pixels show through unblended; where neither
// covers a region the canvas stays fully transparent. Either argument may
// be nil, standing in for a zero-size page.
func PageDiff(base, change *image.NRGBA, origin Origin) *image.NRGBA {
	baseW, baseH := extent(base)
	changeW, changeH := extent(change)

	width := max(baseW, changeW)
	height := max(baseH, changeH)

	baseX, changeX := alignedOffset(baseW, changeW, origin.isRight())
	baseY, changeY := alignedOffset(baseH, changeH, origin.isBottom())

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))

	if base != nil {
		dstRect := image.Rect(baseX, baseY, baseX+baseW, baseY+baseH)
		draw.Draw(canvas, dstRect, base, base.Bounds().Min, draw.Src)
	}

	if change != nil {
		dstRect := image.Rect(changeX, changeY, changeX+changeW, changeY+changeH)
		drawDifference(canvas, dstRect, change, change.Bounds().Min)
	}

	return canvas
}

func extent(img *image.NRGBA) (width, height int) {
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

// drawDifference composites src onto dst within dstRect using a
// per-channel absolute-difference blend: where dst is fully transparent
// (nothing was drawn there by base) src shows through unchanged, otherwise
// the result is |dst-src| per channel with alpha taking the more opaque of
// the two.
func drawDifference(dst *image.NRGBA, dstRect image.Rectangle, src *image.NRGBA, srcMin image.Point) {
	dstRect = dstRect.Intersect(dst.Bounds())

	for y := dstRect.Min.Y; y < dstRect.Max.Y; y++ {
		for x := dstRect.Min.X; x < dstRect.Max.X; x++ {
			sx := srcMin.X + (x - dstRect.Min.X)
			sy := srcMin.Y + (y - dstRect.Min.Y)

			si := src.PixOffset(sx, sy)
			sr, sg, sb, sa := src.Pix[si+0], src.Pix[si+1], src.Pix[si+2], src.Pix[si+3]

			di := dst.PixOffset(x, y)
			dr, dg, db, da := dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3]

			if da == 0 {
				dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2], dst.Pix[di+3] = sr, sg, sb, sa
				continue
			}

			dst.Pix[di+0] = absDiff(dr, sr)
			dst.Pix[di+1] = absDiff(dg, sg)
			dst.Pix[di+2] = absDiff(db, sb)
			dst.Pix[di+3] = maxByte(da, sa)
		}
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func maxByte(a, b uint8) uint8 {
	if a > b {
		return a
	}
	return b
}

// RenderDiff pairs up base and change page-by-page (by index) and renders a
// PageDiff for each pair, padding the shorter document with absent pages.
func RenderDiff(base, change Document, origin Origin) Document {
	n := max(base.Len(), change.Len())
	pages := make([]*image.NRGBA, n)

	for i := 0; i < n; i++ {
		var basePage, changePage *image.NRGBA
		if i < base.Len() {
			basePage = base.Page(i)
		}
		if i < change.Len() {
			changePage = change.Page(i)
		}
		pages[i] = PageDiff(basePage, changePage, origin)
	}

	return Document{pages: pages}
}
