// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package backpack encodes the HD44780 control lines into the single latch
// byte of an I²C LCD backpack and generates the Enable strobe.
//
// A backpack wires an 8-bit I/O expander to the LCD in 4-bit mode: four
// expander pins carry D4-D7, the remaining four carry RS, RW, EN and the
// backlight transistor. Every logical LCD nibble therefore costs two bus
// writes, one with EN high and one with EN low. The LCD samples the nibble on
// the falling edge.
//
// This layer has no notion of commands or characters. RS is forwarded as
// given.
package backpack

import (
	"fmt"
)

// Lines is the state of the LCD lines driven by the backpack.
type Lines struct {
	// Nibble is presented on D4-D7. Only the low 4 bits are used.
	Nibble    byte
	RS        bool
	RW        bool
	EN        bool
	Backlight bool
}

func (l Lines) String() string {
	return fmt.Sprintf("D=0x%x RS=%d RW=%d EN=%d BL=%d", l.Nibble&0x0f, b2i(l.RS), b2i(l.RW), b2i(l.EN), b2i(l.Backlight))
}

// PinMap gives the expander pin number (0-7) of each LCD line.
type PinMap struct {
	Backlight uint8
	EN        uint8
	RW        uint8
	RS        uint8
	D4        uint8
	D5        uint8
	D6        uint8
	D7        uint8
}

var (
	// DefaultPinMap puts the backlight on P0, EN on P1, RW on P2, RS on P3 and
	// the data nibble on P4-P7.
	DefaultPinMap = PinMap{Backlight: 0, EN: 1, RW: 2, RS: 3, D4: 4, D5: 5, D6: 6, D7: 7}
	// HandsontecPinMap is the wiring of the common LCD1602/LCD2004 backpacks:
	// RS on P0, RW on P1, EN on P2, backlight on P3 and D4-D7 on P4-P7.
	HandsontecPinMap = PinMap{RS: 0, RW: 1, EN: 2, Backlight: 3, D4: 4, D5: 5, D6: 6, D7: 7}
)

// Validate returns an error unless every line is on a distinct pin 0-7.
func (m PinMap) Validate() error {
	var seen byte
	for _, p := range m.pins() {
		if p > 7 {
			return fmt.Errorf("backpack: pin %d out of range", p)
		}
		if seen&(1<<p) != 0 {
			return fmt.Errorf("backpack: pin %d mapped twice", p)
		}
		seen |= 1 << p
	}
	return nil
}

func (m PinMap) pins() [8]uint8 {
	return [8]uint8{m.Backlight, m.EN, m.RW, m.RS, m.D4, m.D5, m.D6, m.D7}
}

// Encode returns the latch byte for l.
func (m PinMap) Encode(l Lines) byte {
	var v byte
	set := func(pin uint8, on bool) {
		if on {
			v |= 1 << pin
		}
	}
	set(m.Backlight, l.Backlight)
	set(m.EN, l.EN)
	set(m.RW, l.RW)
	set(m.RS, l.RS)
	set(m.D4, l.Nibble&0x01 != 0)
	set(m.D5, l.Nibble&0x02 != 0)
	set(m.D6, l.Nibble&0x04 != 0)
	set(m.D7, l.Nibble&0x08 != 0)
	return v
}

// Decode is the inverse of Encode.
func (m PinMap) Decode(v byte) Lines {
	on := func(pin uint8) bool {
		return v&(1<<pin) != 0
	}
	l := Lines{RS: on(m.RS), RW: on(m.RW), EN: on(m.EN), Backlight: on(m.Backlight)}
	for i, p := range []uint8{m.D4, m.D5, m.D6, m.D7} {
		if on(p) {
			l.Nibble |= 1 << i
		}
	}
	return l
}

// LatchWriter writes a full byte to the expander latch. *pcf857x.Dev
// implements it.
type LatchWriter interface {
	Out(v byte) error
}

// Encoder drives the LCD lines through a LatchWriter.
type Encoder struct {
	w    LatchWriter
	pins PinMap
}

// New returns an Encoder writing to w with the pin assignment pins.
func New(w LatchWriter, pins PinMap) (*Encoder, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	return &Encoder{w: w, pins: pins}, nil
}

// Pins returns the pin assignment.
func (e *Encoder) Pins() PinMap {
	return e.pins
}

// SendNibble presents nibble with the given RS, RW and backlight levels and
// strobes EN high then low. It always performs two latch writes, unless the
// first one fails, in which case its error is returned and the second write is
// not attempted.
//
// The two writes are each a full bus transaction, which is far longer than
// the 450ns minimum Enable pulse width and cycle time of the HD44780.
func (e *Encoder) SendNibble(nibble byte, rs, rw, backlight bool) error {
	l := Lines{Nibble: nibble & 0x0f, RS: rs, RW: rw, EN: true, Backlight: backlight}
	if err := e.w.Out(e.pins.Encode(l)); err != nil {
		return err
	}
	l.EN = false
	return e.w.Out(e.pins.Encode(l))
}

// Latch writes l once with EN forced low, so the LCD doesn't sample anything.
// It is used to switch the backlight.
func (e *Encoder) Latch(l Lines) error {
	l.EN = false
	return e.w.Out(e.pins.Encode(l))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
