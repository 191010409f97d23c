// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// This package provides a driver for the TI/NXP PCF8574 I2C I/O Expander. The
// device provides 8 pins of "quasi-bidirectional" input/output. This device is
// commonly used in LCD backpacks, particularly those sold as LCD2004, LCD1602.
//
// # Datasheet
//
// https://www.ti.com/lit/ds/symlink/pcf8574.pdf
//
// A good description of the I2C LCD backpack usage can be found here:
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// # Notes
//
// This chip doesn't implement normal i2c register architectures. You write 8
// bits out, and that sets the corresponding pins, or you read 8 bits and get
// the state of the pins.
//
// Every Out() is one bus write of the full latch, even when the value didn't
// change. The LCD backpack relies on this to realise the Enable strobe as two
// distinct writes.
//
// Setting a pin to Low activates an Open Drain to ground. Reading a pin
// requires that a High was written to it first.
package pcf857x

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	// DefaultAddress is the address of the common LCD backpacks with A0-A2
	// left open. Bare PCF8574 breakouts default to 0x20.
	DefaultAddress uint16 = 0x27
)

var (
	ErrInvalidAddress = errors.New("pcf857x: invalid 7-bit address")
)

// Dev is representation of a PCF8574 device.
type Dev struct {
	mu    sync.Mutex
	d     *i2c.Dev
	value byte
}

// New creates a new PCF8574 io expander and returns it.
func New(bus i2c.Bus, address uint16) (*Dev, error) {
	if address > 0x7f {
		return nil, fmt.Errorf("%w: 0x%x", ErrInvalidAddress, address)
	}
	return &Dev{d: &i2c.Dev{Bus: bus, Addr: address}, value: 0xff}, nil
}

// Out writes v to the output latch.
func (dev *Dev) Out(v byte) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := dev.d.Tx([]byte{v}, nil); err != nil {
		return fmt.Errorf("pcf857x: %w", err)
	}
	dev.value = v
	return nil
}

// Read returns the level of the 8 pins. Pins latched Low always read Low.
func (dev *Dev) Read() (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	r := make([]byte, 1)
	if err := dev.d.Tx(nil, r); err != nil {
		return 0, fmt.Errorf("pcf857x: %w", err)
	}
	return r[0], nil
}

// Value returns the last value successfully written to the latch. The chip
// powers up with every pin High.
func (dev *Dev) Value() byte {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.value
}

// Addr returns the device address on the bus.
func (dev *Dev) Addr() uint16 {
	return dev.d.Addr
}

// Halt drives every pin Low.
func (dev *Dev) Halt() error {
	return dev.Out(0)
}

func (dev *Dev) String() string {
	return fmt.Sprintf("PCF8574_%x", dev.d.Addr)
}

var _ conn.Resource = &Dev{}
