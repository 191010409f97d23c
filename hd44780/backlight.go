// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"github.com/GermanBionicSystems/i2clcd/backpack"
	"periph.io/x/conn/v3/display"
)

// Backlight turns the display backlight on or off. The backpack switches it
// with a transistor, so any non-zero intensity is full brightness.
//
// The new state is latched immediately without pulsing Enable, and kept on
// every following write.
func (lcd *Dev) Backlight(intensity display.Intensity) error {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	lcd.backlight = intensity != 0
	return wrap(lcd.enc.Latch(backpack.Lines{Backlight: lcd.backlight}))
}

// BacklightOn reports the backlight state.
func (lcd *Dev) BacklightOn() bool {
	lcd.mu.Lock()
	defer lcd.mu.Unlock()
	return lcd.backlight
}
