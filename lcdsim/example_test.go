// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim_test

import (
	"fmt"
	"log"

	"github.com/GermanBionicSystems/i2clcd/backpack"
	"github.com/GermanBionicSystems/i2clcd/hd44780"
	"github.com/GermanBionicSystems/i2clcd/lcdsim"
	"github.com/GermanBionicSystems/i2clcd/pcf857x"
)

func Example() {
	sim := lcdsim.New(pcf857x.DefaultAddress, backpack.DefaultPinMap, 2, 16)
	lcd, err := hd44780.NewPCF857xBackpack(sim, pcf857x.DefaultAddress, nil)
	if err != nil {
		log.Fatal(err)
	}
	_ = lcd.Puts("Hello")
	_ = lcd.MoveTo(2, 3)
	_ = lcd.Puts("World!")
	for _, l := range sim.Lines() {
		fmt.Printf("|%s|\n", l)
	}
	// Output:
	// |Hello           |
	// |  World!        |
}
