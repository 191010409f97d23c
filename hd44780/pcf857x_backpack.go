// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"github.com/GermanBionicSystems/i2clcd/backpack"
	"github.com/GermanBionicSystems/i2clcd/delay"
	"github.com/GermanBionicSystems/i2clcd/pcf857x"
	"periph.io/x/conn/v3/i2c"
)

// NewPCF857xBackpack returns a display configured to use a PCF8574 i2c
// backpack with the default pin assignment of this package: backlight on P0,
// EN on P1, RW on P2, RS on P3 and D4-D7 on P4-P7.
//
// Use NewPCF857xBackpackPins for other wirings, e.g. backpack.HandsontecPinMap
// for the boards described at
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
func NewPCF857xBackpack(bus i2c.Bus, address uint16, opts *Opts) (*Dev, error) {
	return NewPCF857xBackpackPins(bus, address, backpack.DefaultPinMap, opts)
}

// NewPCF857xBackpackPins is NewPCF857xBackpack with an explicit pin map.
func NewPCF857xBackpackPins(bus i2c.Bus, address uint16, pins backpack.PinMap, opts *Opts) (*Dev, error) {
	pcf, err := pcf857x.New(bus, address)
	if err != nil {
		return nil, wrap(err)
	}
	enc, err := backpack.New(pcf, pins)
	if err != nil {
		return nil, wrap(err)
	}
	return New(enc, delay.NewSpin(nil), opts)
}
