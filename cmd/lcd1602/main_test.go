// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/i2clcd/hd44780"
)

func newSimApp(t *testing.T, args ...string) (*app, *bytes.Buffer, *[]time.Duration) {
	c := config{}
	fs := flag.NewFlagSet("lcd1602", flag.ContinueOnError)
	c.register(fs)
	if err := fs.Parse(append([]string{"-sim", "-speed", "400kHz", "-addr", "0x27"}, args...)); err != nil {
		t.Fatal(err)
	}
	if c.speed != 400*physic.KiloHertz || c.addr != 0x27 {
		t.Fatalf("unexpected flags %+v", c)
	}
	pins, err := pinMap(c.pinmap)
	if err != nil {
		t.Fatal(err)
	}
	bus, sim, err := c.open(pins)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bus.Close() })
	lcd, err := hd44780.NewPCF857xBackpackPins(bus, uint16(c.addr), pins, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	a := newApp(lcd, sim, &out)
	var pauses []time.Duration
	a.pause = func(d time.Duration) { pauses = append(pauses, d) }
	return a, &out, &pauses
}

func TestDemo(t *testing.T) {
	for _, pm := range []string{"default", "handsontec"} {
		t.Run(pm, func(t *testing.T) {
			a, _, pauses := newSimApp(t, "-pinmap", pm)
			if err := a.demo(); err != nil {
				t.Fatal(err)
			}
			want := []string{"Mike    1234    ", "  Hello World!  "}
			if diff := cmp.Diff(a.sim.Lines(), want); diff != "" {
				t.Fatalf("difference (-got +want):\n%s", diff)
			}
			if diff := cmp.Diff(*pauses, []time.Duration{time.Second}); diff != "" {
				t.Fatalf("difference (-got +want):\n%s", diff)
			}
			if a.sim.FourBit() {
				t.Fatal("the demo ends with an 8-bit function set")
			}
			// Further writes are refused until the next init.
			if err := a.puts([]string{"x"}); !errors.Is(err, hd44780.ErrInterfaceMode) {
				t.Fatalf("got %v", err)
			}
			if err := a.lcd.Init(); err != nil {
				t.Fatal(err)
			}
			if err := a.puts([]string{"x"}); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	a, out, _ := newSimApp(t)
	steps := []struct {
		name string
		err  error
	}{
		{"cmd", a.cmd([]string{"0x01"})},
		{"puts", a.puts([]string{"Hello", "you"})},
		{"goto", a.moveTo([]string{"2", "3"})},
		{"putc", a.putc([]string{"A"})},
		{"putc_code", a.putc([]string{"0x42"})},
		{"backlight", a.backlight([]string{"off"})},
	}
	for _, s := range steps {
		if s.err != nil {
			t.Fatalf("%s: %v", s.name, s.err)
		}
	}
	want := []string{"Hello you       ", "  AB            "}
	if diff := cmp.Diff(a.sim.Lines(), want); diff != "" {
		t.Fatalf("difference (-got +want):\n%s", diff)
	}
	if a.sim.Backlight() {
		t.Fatal("expected backlight off")
	}
	if err := a.show(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(out.Bytes(), []byte("Hello you")) {
		t.Fatalf("%q", out.String())
	}
}

func TestCommandErrors(t *testing.T) {
	a, _, _ := newSimApp(t)
	data := []struct {
		name string
		err  error
	}{
		{"cmd_missing", a.cmd(nil)},
		{"cmd_invalid", a.cmd([]string{"0x100"})},
		{"putc_invalid", a.putc([]string{"abc"})},
		{"goto_missing", a.moveTo([]string{"1"})},
		{"goto_range", a.moveTo([]string{"3", "1"})},
		{"goto_invalid", a.moveTo([]string{"x", "1"})},
		{"backlight_invalid", a.backlight([]string{"dim"})},
	}
	for _, line := range data {
		if line.err == nil {
			t.Errorf("%s: expected error", line.name)
		}
	}
	if _, err := pinMap("foo"); err == nil {
		t.Error("expected error for unknown pin map")
	}
	a.term = nil
	if err := a.show(); err == nil {
		t.Error("show without simulator must fail")
	}
}

func TestShellCommands(t *testing.T) {
	a, out, _ := newSimApp(t)
	cmds := map[string]*ishell.Cmd{}
	for _, c := range a.commands() {
		cmds[c.Name] = c
	}
	for _, name := range []string{"demo", "cmd", "putc", "puts", "clear", "home", "goto", "backlight", "init", "show"} {
		if cmds[name] == nil {
			t.Fatalf("missing command %q", name)
		}
	}
	cmds["puts"].Func(&ishell.Context{Args: []string{"Hi"}})
	if got := a.sim.Lines()[0]; got != "Hi              " {
		t.Fatalf("%q", got)
	}
	if !bytes.Contains(out.Bytes(), []byte("Hi")) {
		t.Fatal("screen must be redrawn after a command")
	}
	cmds["clear"].Func(&ishell.Context{})
	if got := a.sim.Lines()[0]; got != "                " {
		t.Fatalf("%q", got)
	}
}

func TestCommandFailureIsKept(t *testing.T) {
	a, _, _ := newSimApp(t)
	if err := a.run("goto", a.moveTo, []string{"1", "1"}); err != nil {
		t.Fatal(err)
	}
	if a.err != nil {
		t.Fatalf("got %v", a.err)
	}
	if err := a.run("goto", a.moveTo, []string{"9", "9"}); err == nil {
		t.Fatal("expected error")
	}
	if a.err == nil {
		t.Fatal("the failure must be kept for the exit status")
	}

	// The demo leaves the controller in 8-bit mode, so a second run fails.
	a.err = nil
	if err := a.run("demo", noArgs(a.demo), nil); err != nil {
		t.Fatal(err)
	}
	if err := a.run("demo", noArgs(a.demo), nil); !errors.Is(err, hd44780.ErrInterfaceMode) {
		t.Fatalf("got %v", err)
	}
	if !errors.Is(a.err, hd44780.ErrInterfaceMode) {
		t.Fatalf("got %v", a.err)
	}
}

func TestSnapshotFile(t *testing.T) {
	a, _, _ := newSimApp(t)
	if err := a.puts([]string{"png"}); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(t.TempDir(), "lcd.png")
	if err := writeSnapshot(a.sim, p); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(b, []byte("\x89PNG")) {
		t.Fatal("not a PNG file")
	}
}
