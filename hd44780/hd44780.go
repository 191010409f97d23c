// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 controls the Hitachi LCD display chipset HD-44780 in 4-bit
// mode, through a backpack that presents one nibble at a time.
//
// The busy flag is never read. Every instruction is followed by the fixed
// wait returned by CommandDelay, and the display is write only.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/i2clcd/backpack"
	"github.com/GermanBionicSystems/i2clcd/delay"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
)

type ifMode byte

const (
	mode4Bit ifMode = 0x04
	mode8Bit ifMode = 0x08
)

// ErrInterfaceMode is returned when the controller is not in 4-bit mode,
// either because it was never initialized or because an 8-bit function set
// was sent. Call Init to recover.
var ErrInterfaceMode = errors.New("hd44780: controller is not in 4-bit mode")

// NibbleSender presents a nibble to the controller with one Enable pulse.
// *backpack.Encoder implements it.
type NibbleSender interface {
	SendNibble(nibble byte, rs, rw, backlight bool) error
	// Latch sets the lines without pulsing Enable.
	Latch(l backpack.Lines) error
}

// Opts is the display geometry and power-on settings.
type Opts struct {
	Rows int
	Cols int
	// Font5x10 selects the 5x10 dots font. It is only available on single
	// line displays.
	Font5x10 bool
	// Backlight is the initial backlight state.
	Backlight bool
}

// DefaultOpts is a 2x16 display with the backlight on.
var DefaultOpts = Opts{
	Rows:      2,
	Cols:      16,
	Backlight: true,
}

// Dev is an HD44780 character display.
//
// Implements periph.io/conn/x/display/TextDisplay and display.DisplayBacklight
type Dev struct {
	mu        sync.Mutex
	enc       NibbleSender
	delay     delay.Delayer
	rows      int
	cols      int
	font5x10  bool
	function  byte
	control   byte
	entry     byte
	backlight bool
	mode      ifMode
	ready     bool
}

// New returns an initialized display driven by enc. The waits between
// instructions are done with d.
func New(enc NibbleSender, d delay.Delayer, opts *Opts) (*Dev, error) {
	if enc == nil || d == nil {
		return nil, errors.New("hd44780: encoder and delay are required")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.Rows < 1 || opts.Rows > 4 || opts.Cols < 1 || opts.Cols > 40 || opts.Rows*opts.Cols > 80 {
		return nil, fmt.Errorf("hd44780: unsupported geometry %dx%d", opts.Rows, opts.Cols)
	}
	lcd := &Dev{
		enc:       enc,
		delay:     d,
		rows:      opts.Rows,
		cols:      opts.Cols,
		font5x10:  opts.Font5x10 && opts.Rows == 1,
		backlight: opts.Backlight,
		mode:      mode8Bit,
	}
	if err := lcd.Init(); err != nil {
		return nil, err
	}
	return lcd, nil
}

// Init runs the initialization by instruction sequence, which works whatever
// state the controller was left in, then sets up a blank display with the
// cursor off.
//
// Calling it again resets the logical state and sends the exact same bytes.
func (lcd *Dev) Init() error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	lcd.ready = false
	lcd.delay.Delay(powerOnDelay)
	// Three times 8-bit mode, as the controller may be in 4-bit mode expecting
	// a low nibble, then the switch to 4-bit mode.
	wake := []struct {
		nibble byte
		wait   time.Duration
	}{
		{0x3, wakeDelay1},
		{0x3, wakeDelay2},
		{0x3, ShortDelay},
		{0x2, ShortDelay},
	}
	for _, w := range wake {
		if err := lcd.enc.SendNibble(w.nibble, false, false, lcd.backlight); err != nil {
			return wrap(err)
		}
		lcd.delay.Delay(w.wait)
	}
	lcd.mode = mode4Bit
	lcd.function = FunctionSet(false, lcd.rows > 1, lcd.font5x10)
	lcd.control = DisplayControl(true, false, false)
	lcd.entry = EntryMode(true, false)
	for _, c := range []byte{lcd.function, lcd.control, ClearDisplay, lcd.entry} {
		if err := lcd.cmd(c); err != nil {
			return err
		}
	}
	lcd.ready = true
	return nil
}

// Cmd sends an instruction and waits for it to complete.
//
// Any code is accepted. A function set selecting the 8-bit interface is sent
// as-is, after which the controller is no longer reachable in 4-bit mode and
// every call returns ErrInterfaceMode until Init is called.
func (lcd *Dev) Cmd(code byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.cmd(code)
}

// Putc writes one character at the current address.
func (lcd *Dev) Putc(c byte) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.putc(c)
}

// Puts writes s one byte at a time. Nothing is sent for an empty string.
//
// There is no wrapping; characters past the end of a line land in the
// off-screen part of display data RAM.
func (lcd *Dev) Puts(s string) error {
	_, err := lcd.WriteString(s)
	return err
}

// Ready reports whether Init completed and the controller is still in 4-bit
// mode.
func (lcd *Dev) Ready() bool {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.ready && lcd.mode == mode4Bit
}

// AutoScroll sets the entry mode to shift the display on each character.
func (lcd *Dev) AutoScroll(enabled bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.cmd(EntryMode(lcd.entry&entryIncrement != 0, enabled))
}

// Clear clears the screen and moves the cursor to the first position.
func (lcd *Dev) Clear() error {
	return lcd.Cmd(ClearDisplay)
}

// Cols returns the number of columns the display supports.
func (lcd *Dev) Cols() int {
	return lcd.cols
}

// Cursor sets the cursor mode. You can pass multiple arguments.
// Cursor(CursorOff, CursorUnderline)
//
// The block cursor of the HD44780 is the blinking one, so CursorBlock and
// CursorBlink are the same.
func (lcd *Dev) Cursor(modes ...display.CursorMode) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	cursor := lcd.control&controlCursor != 0
	blink := lcd.control&controlBlink != 0
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			cursor = false
			blink = false
		case display.CursorUnderline:
			cursor = true
		case display.CursorBlock, display.CursorBlink:
			blink = true
		default:
			return fmt.Errorf("hd44780: unexpected cursor: %d", mode)
		}
	}
	return lcd.cmd(DisplayControl(lcd.control&controlOn != 0, cursor, blink))
}

// Home moves the cursor home (MinRow(),MinCol()) and undoes display shifts.
func (lcd *Dev) Home() error {
	return lcd.Cmd(ReturnHome)
}

// MinCol returns the min column position.
func (lcd *Dev) MinCol() int {
	return 1
}

// MinRow returns the min row position.
func (lcd *Dev) MinRow() int {
	return 1
}

// Move moves the cursor forward or backward.
func (lcd *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Backward:
		return lcd.Cmd(CursorShift(false, false))
	case display.Forward:
		return lcd.Cmd(CursorShift(false, true))
	default:
		return fmt.Errorf("hd44780: %w", display.ErrNotImplemented)
	}
}

// MoveTo moves the cursor to an arbitrary position. Rows and columns are 1
// based.
func (lcd *Dev) MoveTo(row, col int) error {
	if row < lcd.MinRow() || row > lcd.rows || col < lcd.MinCol() || col > lcd.cols {
		return fmt.Errorf("hd44780: MoveTo(%d,%d) value out of range", row, col)
	}
	return lcd.Cmd(SetDDRAMAddr(lcd.rowOffset(row) + byte(col-1)))
}

// Rows returns the number of rows the display supports.
func (lcd *Dev) Rows() int {
	return lcd.rows
}

func (lcd *Dev) String() string {
	return fmt.Sprintf("HD44780 - Rows: %d, Cols: %d", lcd.rows, lcd.cols)
}

// Display turns the display on or off. The cursor settings are kept.
func (lcd *Dev) Display(on bool) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.cmd(DisplayControl(on, lcd.control&controlCursor != 0, lcd.control&controlBlink != 0))
}

// Write writes a set of bytes to the display as characters.
func (lcd *Dev) Write(p []byte) (n int, err error) {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	for _, c := range p {
		if err = lcd.putc(c); err != nil {
			return
		}
		n++
	}
	return
}

// WriteString writes a string output to the display.
func (lcd *Dev) WriteString(text string) (int, error) {
	return lcd.Write([]byte(text))
}

// CreateChar defines the custom character slot (0-7) from the 8 rows of
// pattern, 5 least significant bits per row. It is then displayed by writing
// the byte slot. The cursor is moved home.
func (lcd *Dev) CreateChar(slot byte, pattern [8]byte) error {
	if slot > 7 {
		return fmt.Errorf("hd44780: character slot %d out of range", slot)
	}
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	if err := lcd.cmd(SetCGRAMAddr(slot << 3)); err != nil {
		return err
	}
	for _, row := range pattern {
		if err := lcd.putc(row & 0x1f); err != nil {
			return err
		}
	}
	return lcd.cmd(SetDDRAMAddr(0))
}

// Halt clears the display, turns the backlight off, and turns the display off.
func (lcd *Dev) Halt() error {
	err := lcd.Clear()
	if err2 := lcd.Display(false); err == nil {
		err = err2
	}
	if err2 := lcd.Backlight(0); err == nil {
		err = err2
	}
	return err
}

func (lcd *Dev) cmd(code byte) error {
	if lcd.mode != mode4Bit {
		return ErrInterfaceMode
	}
	if err := lcd.send(code, false); err != nil {
		return err
	}
	switch {
	case code&cmdSetDDRAM != 0, code&cmdSetCGRAM != 0:
	case code&cmdFunction != 0:
		lcd.function = code
		if code&function8Bit != 0 {
			lcd.mode = mode8Bit
			lcd.ready = false
		}
	case code&cmdShift != 0:
	case code&cmdControl != 0:
		lcd.control = code
	case code&cmdEntryMode != 0:
		lcd.entry = code
	case code == cmdClear:
		// Clearing also sets the address counter to increment.
		lcd.entry |= entryIncrement
	}
	lcd.delay.Delay(CommandDelay(code))
	return nil
}

func (lcd *Dev) putc(c byte) error {
	if lcd.mode != mode4Bit {
		return ErrInterfaceMode
	}
	if err := lcd.send(c, true); err != nil {
		return err
	}
	lcd.delay.Delay(ShortDelay)
	return nil
}

// send writes v as two nibbles, high first.
func (lcd *Dev) send(v byte, rs bool) error {
	if err := lcd.enc.SendNibble(v>>4, rs, false, lcd.backlight); err != nil {
		return wrap(err)
	}
	return wrap(lcd.enc.SendNibble(v&0x0f, rs, false, lcd.backlight))
}

// rowOffset returns the display data RAM address of the first column of row.
// Rows 3 and 4 continue rows 1 and 2 past the visible columns.
func (lcd *Dev) rowOffset(row int) byte {
	return [...]byte{0x00, 0x40, byte(lcd.cols), 0x40 + byte(lcd.cols)}[row-1]
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), "hd44780: ") {
		return err
	}
	return fmt.Errorf("hd44780: %w", err)
}

var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
var _ conn.Resource = &Dev{}
