// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/i2clcd/backpack"
	"github.com/GermanBionicSystems/i2clcd/delay/delaytest"
	"github.com/GermanBionicSystems/i2clcd/pcf857x"
	"github.com/GermanBionicSystems/i2clcd/twowire"
	"github.com/GermanBionicSystems/i2clcd/twowire/twowiretest"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

type transfer struct {
	RS bool
	V  byte
}

// decode checks the Enable strobe of every pair of latch writes and returns
// the bytes they carry.
func decode(t *testing.T, pins backpack.PinMap, ops []i2ctest.IO) []transfer {
	t.Helper()
	if len(ops)%4 != 0 {
		t.Fatalf("%d writes is not a whole number of bytes", len(ops))
	}
	var out []transfer
	var nibbles []backpack.Lines
	for i := 0; i < len(ops); i += 2 {
		for _, op := range ops[i : i+2] {
			if op.Addr != pcf857x.DefaultAddress || len(op.W) != 1 || len(op.R) != 0 {
				t.Fatalf("unexpected transaction %#v", op)
			}
		}
		hi, lo := pins.Decode(ops[i].W[0]), pins.Decode(ops[i+1].W[0])
		if !hi.EN || lo.EN {
			t.Fatalf("write %d: EN must go 1 then 0: %s, %s", i, hi, lo)
		}
		if hi.RW || !hi.Backlight {
			t.Fatalf("write %d: unexpected lines %s", i, hi)
		}
		hi.EN = false
		if hi != lo {
			t.Fatalf("write %d: lines other than EN changed: %s, %s", i, hi, lo)
		}
		nibbles = append(nibbles, lo)
	}
	for i := 0; i < len(nibbles); i += 2 {
		if nibbles[i].RS != nibbles[i+1].RS {
			t.Fatalf("nibble %d: RS changed within a byte", i)
		}
		out = append(out, transfer{RS: nibbles[i].RS, V: nibbles[i].Nibble<<4 | nibbles[i+1].Nibble})
	}
	return out
}

func cmds(codes ...byte) []transfer {
	var out []transfer
	for _, c := range codes {
		out = append(out, transfer{V: c})
	}
	return out
}

func chars(s string) []transfer {
	var out []transfer
	for _, c := range []byte(s) {
		out = append(out, transfer{RS: true, V: c})
	}
	return out
}

func TestPCF857xBackpack(t *testing.T) {
	for _, pins := range []backpack.PinMap{backpack.DefaultPinMap, backpack.HandsontecPinMap} {
		rec := &i2ctest.Record{}
		lcd, err := NewPCF857xBackpackPins(rec, pcf857x.DefaultAddress, pins, nil)
		if err != nil {
			t.Fatal(err)
		}
		// The wake-up nibbles are not byte aligned.
		wake := rec.Ops[:8]
		for i := 0; i < 8; i += 2 {
			l := pins.Decode(wake[i].W[0])
			want := byte(0x3)
			if i == 6 {
				want = 0x2
			}
			if !l.EN || l.RS || l.Nibble != want {
				t.Fatalf("wake nibble %d: %s", i/2, l)
			}
		}
		got := decode(t, pins, rec.Ops[8:])
		if diff := cmp.Diff(got, cmds(0x28, 0x0c, 0x01, 0x06)); diff != "" {
			t.Fatalf("difference (-got +want):\n%s", diff)
		}

		rec.Ops = nil
		steps := []error{
			lcd.Cmd(LCD4Bit58F2Line),
			lcd.Cmd(ClearDisplay),
			lcd.Cmd(ReturnHome),
			lcd.Cmd(LCDOnBlinkCursor),
			lcd.Puts("Mike"),
			lcd.Cmd(Line1 + 8),
			lcd.Putc('1'),
			lcd.Putc('2'),
			lcd.Putc('3'),
			lcd.Putc('4'),
			lcd.Cmd(Line2 + 2),
			lcd.Puts("Hello World!"),
		}
		for i, err := range steps {
			if err != nil {
				t.Fatalf("step %d: %v", i, err)
			}
		}
		var want []transfer
		want = append(want, cmds(0x28, 0x01, 0x02, 0x0f)...)
		want = append(want, chars("Mike")...)
		want = append(want, cmds(0x88)...)
		want = append(want, chars("1234")...)
		want = append(want, cmds(0xc2)...)
		want = append(want, chars("Hello World!")...)
		if diff := cmp.Diff(decode(t, pins, rec.Ops), want); diff != "" {
			t.Fatalf("difference (-got +want):\n%s", diff)
		}
	}
}

func TestPCF857xBackpackBusError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	_, err := NewPCF857xBackpack(bus, pcf857x.DefaultAddress, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.HasPrefix(err.Error(), "hd44780: pcf857x: ") {
		t.Fatalf("unexpected message %q", err)
	}
	if _, err := NewPCF857xBackpack(bus, 0x80, nil); !errors.Is(err, pcf857x.ErrInvalidAddress) {
		t.Fatalf("got %v", err)
	}
}

// An expander that doesn't answer its address stops the transfer after the
// address byte.
func TestAddressNACK(t *testing.T) {
	w := &twowiretest.Wire{Addr: 0x3f}
	bus, err := twowire.New(w.SCL(), w.SDA(), &twowire.Opts{Delay: &delaytest.Recorder{}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = NewPCF857xBackpack(bus, pcf857x.DefaultAddress, nil)
	if !errors.Is(err, twowire.ErrAddressNACK) {
		t.Fatalf("got %v", err)
	}
	if diff := cmp.Diff(w.Trace, []string{"S", "0x4e-N", "P"}); diff != "" {
		t.Fatalf("difference (-got +want):\n%s", diff)
	}
}

// The same scenario down to the wire level.
func TestTwoWire(t *testing.T) {
	w := &twowiretest.Wire{Addr: pcf857x.DefaultAddress}
	bus, err := twowire.New(w.SCL(), w.SDA(), &twowire.Opts{Delay: &delaytest.Recorder{}})
	if err != nil {
		t.Fatal(err)
	}
	pcf, err := pcf857x.New(bus, pcf857x.DefaultAddress)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := backpack.New(pcf, backpack.DefaultPinMap)
	if err != nil {
		t.Fatal(err)
	}
	rec := &delaytest.Recorder{}
	lcd, err := New(enc, rec, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Reset()
	if err := lcd.Putc('M'); err != nil {
		t.Fatal(err)
	}
	// 'M' = 0x4d, RS and backlight set, EN high then low for each nibble.
	want := []string{
		"S", "0x4e+A", "0x4b+A", "P",
		"S", "0x4e+A", "0x49+A", "P",
		"S", "0x4e+A", "0xdb+A", "P",
		"S", "0x4e+A", "0xd9+A", "P",
	}
	if diff := cmp.Diff(w.Trace, want); diff != "" {
		t.Fatalf("difference (-got +want):\n%s", diff)
	}
	if diff := cmp.Diff(decode(t, backpack.DefaultPinMap, w.Ops), chars("M")); diff != "" {
		t.Fatalf("difference (-got +want):\n%s", diff)
	}
}
