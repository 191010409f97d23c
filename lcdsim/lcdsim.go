// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim simulates an HD44780 character display behind a PCF8574
// backpack, at the i2c.Bus level.
//
// Every byte written is latched on the expander pins. The controller samples
// D4-D7 and RS on the falling edge of EN, pairs nibbles once in 4-bit mode,
// and executes the instruction set against its own display data RAM. It starts
// in 8-bit mode like a freshly powered controller, so the initialization by
// instruction sequence is required and can be verified.
//
// Timing is not simulated: the controller is never busy.
package lcdsim

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/i2clcd/backpack"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	lineLen  = 40
	ramLen   = 80
	cgramLen = 64
)

// Dev is a simulated backpack and display. It implements i2c.Bus and only
// answers its own address.
type Dev struct {
	mu   sync.Mutex
	addr uint16
	pins backpack.PinMap
	rows int
	cols int

	latch    byte
	latches  []byte
	commands []byte

	fourBit bool
	pending bool
	hi      byte

	ddram   [ramLen]byte
	cgram   [cgramLen]byte
	ac      byte
	cg      bool
	shift   int
	inc     bool
	scroll  bool
	on      bool
	cursor  bool
	blink   bool
	twoLine bool
	font    bool
}

// New returns a display with rows x cols visible characters, answering addr
// with the expander pins wired as pins.
func New(addr uint16, pins backpack.PinMap, rows, cols int) *Dev {
	d := &Dev{addr: addr, pins: pins, rows: rows, cols: cols, latch: 0xff}
	d.reset()
	return d
}

// reset is the internal reset circuit state.
func (d *Dev) reset() {
	for i := range d.ddram {
		d.ddram[i] = ' '
	}
	d.fourBit = false
	d.pending = false
	d.ac = 0
	d.cg = false
	d.shift = 0
	d.inc = true
	d.scroll = false
	d.on = false
	d.cursor = false
	d.blink = false
	d.twoLine = false
	d.font = false
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcdsim(0x%02x)", d.addr)
}

// Tx implements i2c.Bus.
//
// Written bytes are latched one at a time. Reads return the latch, as the
// quasi-bidirectional expander pins do when the LCD doesn't drive them.
func (d *Dev) Tx(addr uint16, w, r []byte) error {
	if addr != d.addr {
		return fmt.Errorf("lcdsim: no device at address 0x%02x", addr)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, v := range w {
		d.write(v)
	}
	for i := range r {
		r[i] = d.latch
	}
	return nil
}

// SetSpeed implements i2c.Bus.
func (d *Dev) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("lcdsim: invalid frequency %s", f)
	}
	return nil
}

// Lines returns the visible characters, one string per row.
//
// Rows 3 and 4 of a 4 line display continue rows 1 and 2.
func (d *Dev) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, d.rows)
	for r := range d.rows {
		var b bytes.Buffer
		for c := range d.cols {
			b.WriteByte(d.visible(r, c))
		}
		out[r] = b.String()
	}
	return out
}

// Commands returns the instructions executed so far.
func (d *Dev) Commands() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.commands...)
}

// Latches returns every byte written to the expander.
func (d *Dev) Latches() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.latches...)
}

// ResetLog forgets the recorded latches and commands.
func (d *Dev) ResetLog() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latches = nil
	d.commands = nil
}

// Backlight reports whether the backlight pin is high.
func (d *Dev) Backlight() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pins.Decode(d.latch).Backlight
}

// DisplayOn reports whether the display is on.
func (d *Dev) DisplayOn() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.on
}

// Cursor reports the underline cursor and blink settings.
func (d *Dev) Cursor() (underline, blink bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, d.blink
}

// FourBit reports whether the controller is in 4-bit interface mode.
func (d *Dev) FourBit() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fourBit
}

// Address returns the address counter. It points into character generator
// RAM after a set CGRAM address instruction.
func (d *Dev) Address() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ac
}

// Glyph returns the dot rows of the custom character c (0-7).
func (d *Dev) Glyph(c byte) [8]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var g [8]byte
	copy(g[:], d.cgram[(c&7)*8:])
	return g
}

// Size returns the visible rows and columns.
func (d *Dev) Size() (rows, cols int) {
	return d.rows, d.cols
}

func (d *Dev) write(v byte) {
	prev := d.pins.Decode(d.latch)
	d.latch = v
	d.latches = append(d.latches, v)
	l := d.pins.Decode(v)
	if !prev.EN || l.EN || l.RW {
		return
	}
	if !d.fourBit {
		// D0-D3 are not connected and read as 0.
		d.exec(l.Nibble<<4, l.RS)
		return
	}
	if !d.pending {
		d.hi = l.Nibble
		d.pending = true
		return
	}
	d.pending = false
	d.exec(d.hi<<4|l.Nibble, l.RS)
}

func (d *Dev) exec(v byte, rs bool) {
	if rs {
		d.data(v)
		return
	}
	d.commands = append(d.commands, v)
	switch {
	case v&0x80 != 0:
		d.ac = v & 0x7f
		d.cg = false
	case v&0x40 != 0:
		d.ac = v & 0x3f
		d.cg = true
	case v&0x20 != 0:
		d.fourBit = v&0x10 == 0
		d.pending = false
		d.twoLine = v&0x08 != 0
		d.font = v&0x04 != 0
	case v&0x10 != 0:
		right := v&0x04 != 0
		if v&0x08 != 0 {
			d.shiftDisplay(right)
		} else {
			d.moveCursor(right)
		}
	case v&0x08 != 0:
		d.on = v&0x04 != 0
		d.cursor = v&0x02 != 0
		d.blink = v&0x01 != 0
	case v&0x04 != 0:
		d.inc = v&0x02 != 0
		d.scroll = v&0x01 != 0
	case v&0x02 != 0:
		d.ac = 0
		d.cg = false
		d.shift = 0
	case v&0x01 != 0:
		for i := range d.ddram {
			d.ddram[i] = ' '
		}
		d.ac = 0
		d.cg = false
		d.shift = 0
		d.inc = true
	}
}

func (d *Dev) data(v byte) {
	if d.cg {
		d.cgram[d.ac&0x3f] = v & 0x1f
		if d.inc {
			d.ac = (d.ac + 1) & 0x3f
		} else {
			d.ac = (d.ac - 1) & 0x3f
		}
		return
	}
	d.ddram[d.index(d.ac)] = v
	d.moveCursor(d.inc)
	if d.scroll {
		d.shiftDisplay(!d.inc)
	}
}

// index maps a DDRAM address to the ddram slice.
func (d *Dev) index(a byte) int {
	if !d.twoLine {
		return int(a) % ramLen
	}
	if a >= 0x40 {
		return lineLen + int(a-0x40)%lineLen
	}
	return int(a) % lineLen
}

// moveCursor steps the address counter, wrapping from the end of one line to
// the start of the next.
func (d *Dev) moveCursor(right bool) {
	if d.cg {
		return
	}
	i := d.index(d.ac)
	if right {
		i = (i + 1) % ramLen
	} else {
		i = (i + ramLen - 1) % ramLen
	}
	d.ac = byte(i)
	if d.twoLine && i >= lineLen {
		d.ac = 0x40 + byte(i-lineLen)
	}
}

// shiftDisplay scrolls the window: shifting the display left makes the
// characters move left, so the window moves right.
func (d *Dev) shiftDisplay(right bool) {
	if right {
		d.shift--
	} else {
		d.shift++
	}
}

func (d *Dev) visible(row, col int) byte {
	if !d.twoLine {
		if row != 0 {
			return ' '
		}
		return d.ddram[mod(col+d.shift, ramLen)]
	}
	line := row % 2
	pos := (row/2)*d.cols + col
	return d.ddram[line*lineLen+mod(pos+d.shift, lineLen)]
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

var _ i2c.Bus = &Dev{}
