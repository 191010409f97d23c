// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package backpack_test

import (
	"fmt"

	"github.com/GermanBionicSystems/i2clcd/backpack"
)

func ExamplePinMap_Encode() {
	l := backpack.Lines{Nibble: 0x4, RS: true, EN: true, Backlight: true}
	fmt.Printf("0x%02x\n", backpack.DefaultPinMap.Encode(l))
	fmt.Printf("0x%02x\n", backpack.HandsontecPinMap.Encode(l))
	fmt.Println(backpack.DefaultPinMap.Decode(0x49))
	// Output:
	// 0x4b
	// 0x4d
	// D=0x4 RS=1 RW=0 EN=0 BL=1
}
