// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

// Default bezel colors.
var (
	DefaultLit   = color.NRGBA{0x40, 0xc0, 0x40, 0xff}
	DefaultUnlit = color.NRGBA{0x20, 0x30, 0x20, 0xff}
)

// TerminalOpts represents the options available for the terminal renderer.
type TerminalOpts struct {
	// W defaults to a colorable stdout.
	W       io.Writer
	Palette *ansi256.Palette
	// Lit and Unlit are the bezel colors with the backlight on and off. The
	// zero value selects a default green.
	Lit   color.NRGBA
	Unlit color.NRGBA

	_ struct{}
}

// Terminal draws the display state to a console using ANSI color codes.
type Terminal struct {
	d       *Dev
	w       io.Writer
	palette ansi256.Palette
	lit     color.NRGBA
	unlit   color.NRGBA

	buf bytes.Buffer
}

// NewTerminal returns a Terminal rendering d.
//
// Permits to see what the LCD would show without one connected.
func NewTerminal(d *Dev, opts *TerminalOpts) *Terminal {
	if opts == nil {
		opts = &TerminalOpts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	t := &Terminal{
		d:       d,
		w:       opts.W,
		palette: *p,
		lit:     opts.Lit,
		unlit:   opts.Unlit,
	}
	if t.w == nil {
		t.w = colorable.NewColorableStdout()
	}
	if t.lit == (color.NRGBA{}) {
		t.lit = DefaultLit
	}
	if t.unlit == (color.NRGBA{}) {
		t.unlit = DefaultUnlit
	}
	return t
}

func (t *Terminal) String() string {
	return fmt.Sprintf("Terminal(%s)", t.d)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so it is not corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Refresh draws every row between a colored bezel. The bezel shows the
// backlight state. A display that is off shows blank rows.
func (t *Terminal) Refresh() error {
	lines := t.d.Lines()
	on := t.d.DisplayOn()
	bezel := t.unlit
	if t.d.Backlight() {
		bezel = t.lit
	}
	block := t.palette.Block(bezel)
	t.buf.Reset()
	for _, l := range lines {
		_, _ = t.buf.WriteString("\r\033[0m")
		_, _ = io.WriteString(&t.buf, block)
		_, _ = t.buf.WriteString("\033[0m")
		for i := 0; i < len(l); i++ {
			c := byte(' ')
			if on {
				c = l[i]
			}
			_, _ = t.buf.WriteString(glyph(c))
		}
		_, _ = io.WriteString(&t.buf, block)
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	_, err := t.buf.WriteTo(t.w)
	return err
}

// glyph maps a character code of the A00 character ROM to what a terminal can
// show. Custom characters are drawn as a shaded block.
func glyph(c byte) string {
	switch {
	case c < 0x08:
		return "▒"
	case c == 0x5c:
		return "¥"
	case c == 0x7e:
		return "→"
	case c == 0x7f:
		return "←"
	case c == 0xdf:
		return "°"
	case c == 0xff:
		return "█"
	case c >= 0x20 && c < 0x80:
		return string(rune(c))
	default:
		return "?"
	}
}
