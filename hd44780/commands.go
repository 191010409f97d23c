// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "time"

// Instruction families. The family of a code is its highest set bit.
const (
	cmdClear       byte = 0x01
	cmdHome        byte = 0x02
	cmdEntryMode   byte = 0x04
	cmdControl     byte = 0x08
	cmdShift       byte = 0x10
	cmdFunction    byte = 0x20
	cmdSetCGRAM    byte = 0x40
	cmdSetDDRAM    byte = 0x80
	entryIncrement byte = 0x02
	entryShift     byte = 0x01
	controlOn      byte = 0x04
	controlCursor  byte = 0x02
	controlBlink   byte = 0x01
	shiftDisplay   byte = 0x08
	shiftRight     byte = 0x04
	function8Bit   byte = 0x10
	function2Line  byte = 0x08
	function5x10   byte = 0x04
)

// Ready made command codes.
const (
	ClearDisplay = cmdClear
	ReturnHome   = cmdHome

	// Line1 and Line2 set the DDRAM address to the first column of the row.
	// Add the 0-based column to move further right.
	Line1 = cmdSetDDRAM | 0x00
	Line2 = cmdSetDDRAM | 0x40

	LCD4Bit58F2Line   = cmdFunction | function2Line
	LCD8Bit58F2Line   = cmdFunction | function8Bit | function2Line
	LCDOn             = cmdControl | controlOn
	LCDOff            = cmdControl
	LCDOnCursor       = cmdControl | controlOn | controlCursor
	LCDOnBlinkCursor  = cmdControl | controlOn | controlCursor | controlBlink
	LCDEntryIncrement = cmdEntryMode | entryIncrement
	LCDCursorLeft     = cmdShift
	LCDCursorRight    = cmdShift | shiftRight
	LCDDisplayLeft    = cmdShift | shiftDisplay
	LCDDisplayRight   = cmdShift | shiftDisplay | shiftRight
	LCDFirstLine      = Line1
	LCDSecondLine     = Line2
)

// Command settle times. The controller is not polled for its busy flag, so
// each instruction is followed by a fixed wait.
const (
	// LongDelay follows clear display and return home, rated at 1.52ms.
	LongDelay = 2 * time.Millisecond
	// ShortDelay follows every other instruction and data write, rated at
	// 37µs.
	ShortDelay = 50 * time.Microsecond

	powerOnDelay = 50 * time.Millisecond
	wakeDelay1   = 5 * time.Millisecond
	wakeDelay2   = 150 * time.Microsecond
)

// CommandDelay returns how long to wait after sending code.
func CommandDelay(code byte) time.Duration {
	if code == cmdClear || code&^0x01 == cmdHome {
		return LongDelay
	}
	return ShortDelay
}

// EntryMode returns the entry mode set instruction. increment moves the
// address counter right after each character, shift scrolls the display
// instead of the cursor.
func EntryMode(increment, shift bool) byte {
	return cmdEntryMode | flag(increment, entryIncrement) | flag(shift, entryShift)
}

// DisplayControl returns the display on/off control instruction.
func DisplayControl(on, cursor, blink bool) byte {
	return cmdControl | flag(on, controlOn) | flag(cursor, controlCursor) | flag(blink, controlBlink)
}

// CursorShift returns the instruction that moves the cursor, or the whole
// display when display is true, by one position.
func CursorShift(display, right bool) byte {
	return cmdShift | flag(display, shiftDisplay) | flag(right, shiftRight)
}

// FunctionSet returns the function set instruction.
func FunctionSet(eightBit, twoLine, font5x10 bool) byte {
	return cmdFunction | flag(eightBit, function8Bit) | flag(twoLine, function2Line) | flag(font5x10, function5x10)
}

// SetCGRAMAddr returns the instruction selecting character generator RAM
// address a (0-63).
func SetCGRAMAddr(a byte) byte {
	return cmdSetCGRAM | a&0x3f
}

// SetDDRAMAddr returns the instruction selecting display data RAM address a
// (0-127).
func SetDDRAMAddr(a byte) byte {
	return cmdSetDDRAM | a&0x7f
}

func flag(on bool, bit byte) byte {
	if on {
		return bit
	}
	return 0
}
