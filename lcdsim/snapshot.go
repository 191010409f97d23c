// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"
)

// Snapshot geometry, in pixels.
const (
	dotSize = 2
	cellW   = 6 * dotSize
	cellH   = 9 * dotSize
	margin  = 8
)

// Snapshot draws the visible characters the way the panel shows them.
func Snapshot(d *Dev) image.Image {
	return render(d).Image()
}

// WritePNG encodes Snapshot(d) as PNG to w.
func WritePNG(d *Dev, w io.Writer) error {
	return render(d).EncodePNG(w)
}

func render(d *Dev) *gg.Context {
	rows, cols := d.Size()
	lines := d.Lines()
	on := d.DisplayOn()
	lit := d.Backlight()

	dc := gg.NewContext(cols*cellW+2*margin, rows*cellH+2*margin)
	if lit {
		dc.SetRGB255(0x9c, 0xd0, 0x3c)
	} else {
		dc.SetRGB255(0x50, 0x60, 0x30)
	}
	dc.Clear()
	// Unlit dot matrix of every cell.
	if lit {
		dc.SetRGB255(0x8c, 0xc0, 0x30)
	} else {
		dc.SetRGB255(0x48, 0x58, 0x2a)
	}
	for r := range rows {
		for c := range cols {
			x, y := cellOrigin(r, c)
			dc.DrawRectangle(x, y, 5*dotSize, 8*dotSize)
		}
	}
	dc.Fill()
	if !on {
		return dc
	}
	dc.SetRGB255(0x10, 0x20, 0x10)
	dc.SetFontFace(basicfont.Face7x13)
	for r, l := range lines {
		for c := 0; c < len(l); c++ {
			x, y := cellOrigin(r, c)
			ch := l[c]
			switch dots, ok := romDots[ch]; {
			case ch < 0x08:
				drawDots(dc, x, y, d.Glyph(ch))
			case ok:
				drawDots(dc, x, y, dots)
			case ch == ' ':
			case ch < 0x20 || ch > 0x7e:
				dc.DrawString("?", x+1, y+13)
			default:
				dc.DrawString(string(rune(ch)), x+1, y+13)
			}
		}
	}
	return dc
}

// romDots are the character generator ROM patterns that differ from ASCII
// or that the font face has no glyph for.
var romDots = map[byte][8]byte{
	0x5c: {0x11, 0x0a, 0x1f, 0x04, 0x1f, 0x04, 0x04, 0x00},
	0x7e: {0x00, 0x04, 0x02, 0x1f, 0x02, 0x04, 0x00, 0x00},
	0x7f: {0x00, 0x04, 0x08, 0x1f, 0x08, 0x04, 0x00, 0x00},
	0xdf: {0x1c, 0x14, 0x1c, 0x00, 0x00, 0x00, 0x00, 0x00},
	0xff: {0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f, 0x1f},
}

// drawDots fills the lit dots of a 5x8 pattern in the cell at x, y.
func drawDots(dc *gg.Context, x, y float64, rows [8]byte) {
	for gy, bits := range rows {
		for gx := range 5 {
			if bits&(0x10>>gx) != 0 {
				dc.DrawRectangle(x+float64(gx*dotSize), y+float64(gy*dotSize), dotSize, dotSize)
			}
		}
	}
	dc.Fill()
}

func cellOrigin(row, col int) (float64, float64) {
	return float64(margin + col*cellW), float64(margin + row*cellH)
}
