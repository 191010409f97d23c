// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2clcd is a container for the packages driving an HD44780
// character LCD through an I²C expander backpack.
//
// From the wire up:
//
//   - twowire bit-bangs an I²C master on two GPIO lines. Any periph i2c.Bus
//     works as well.
//   - pcf857x writes the latch of the PCF8574 expander.
//   - backpack maps the LCD lines onto the latch byte and pulses Enable.
//   - hd44780 speaks the 4-bit controller protocol.
//
// lcdsim simulates the backpack and display for tests and bring-up, and
// cmd/lcd1602 is a shell to drive a display.
package i2clcd
