// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"

	"github.com/GermanBionicSystems/i2clcd/hd44780"
	"github.com/GermanBionicSystems/i2clcd/lcdsim"
)

// app holds the display and the optional simulator behind it.
type app struct {
	lcd   *hd44780.Dev
	sim   *lcdsim.Dev
	term  *lcdsim.Terminal
	pause func(time.Duration)
	// err is the error of the last command that failed.
	err error
}

// demo shows a greeting, a counter and a second line, then leaves the
// controller in 8-bit mode with an 8-bit function set.
func (a *app) demo() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"function set", func() error { return a.lcd.Cmd(hd44780.LCD4Bit58F2Line) }},
		{"clear", func() error { return a.lcd.Cmd(hd44780.ClearDisplay) }},
		{"home", func() error { return a.lcd.Cmd(hd44780.ReturnHome) }},
		{"cursor", func() error { return a.lcd.Cmd(hd44780.LCDOnBlinkCursor) }},
		{"greeting", func() error { return a.lcd.Puts("Mike") }},
		{"move", func() error { return a.lcd.Cmd(hd44780.Line1 + 8) }},
		{"counter", func() error {
			for _, c := range []byte("1234") {
				if err := a.lcd.Putc(c); err != nil {
					return err
				}
			}
			a.pause(time.Second)
			return nil
		}},
		{"move", func() error { return a.lcd.Cmd(hd44780.Line2 + 2) }},
		{"message", func() error { return a.lcd.Puts("Hello World!") }},
		{"8-bit function set", func() error { return a.lcd.Cmd(hd44780.LCD8Bit58F2Line) }},
	}
	for _, s := range steps {
		glog.V(1).Infof("demo: %s", s.name)
		if err := s.fn(); err != nil {
			return fmt.Errorf("demo %s: %w", s.name, err)
		}
	}
	return nil
}

func (a *app) cmd(args []string) error {
	if len(args) != 1 {
		return errors.New("CODE required")
	}
	v, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil {
		return fmt.Errorf("invalid CODE: %w", err)
	}
	glog.V(2).Infof("cmd 0x%02x", v)
	return a.lcd.Cmd(byte(v))
}

func (a *app) putc(args []string) error {
	if len(args) != 1 {
		return errors.New("CHAR required")
	}
	var c byte
	if len(args[0]) == 1 {
		c = args[0][0]
	} else {
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid CHAR: %w", err)
		}
		c = byte(v)
	}
	return a.lcd.Putc(c)
}

func (a *app) puts(args []string) error {
	return a.lcd.Puts(strings.Join(args, " "))
}

func (a *app) moveTo(args []string) error {
	if len(args) != 2 {
		return errors.New("ROW COL required")
	}
	row, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid ROW: %w", err)
	}
	col, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid COL: %w", err)
	}
	return a.lcd.MoveTo(row, col)
}

func (a *app) backlight(args []string) error {
	if len(args) != 1 {
		return errors.New("on|off required")
	}
	switch args[0] {
	case "on", "1":
		return a.lcd.Backlight(255)
	case "off", "0":
		return a.lcd.Backlight(0)
	default:
		return fmt.Errorf("invalid state %q", args[0])
	}
}

func (a *app) show() error {
	if a.term == nil {
		return errors.New("show requires -sim")
	}
	return a.term.Refresh()
}

// shellCmd adapts f to an ishell command. The simulated screen is redrawn
// after every successful command.
func (a *app) shellCmd(name string, aliases []string, help string, f func(args []string) error) *ishell.Cmd {
	return &ishell.Cmd{
		Name:    name,
		Aliases: aliases,
		Help:    help,
		Func: func(c *ishell.Context) {
			if err := a.run(name, f, c.Args); err != nil {
				c.Err(err)
			}
		},
	}
}

// run executes one command and remembers its failure, since ishell only
// reports it to the user.
func (a *app) run(name string, f func(args []string) error, args []string) error {
	err := f(args)
	if err == nil && a.term != nil && name != "show" {
		err = a.term.Refresh()
	}
	if err != nil {
		glog.V(1).Infof("%s: %v", name, err)
		a.err = fmt.Errorf("%s: %w", name, err)
	}
	return err
}

func noArgs(f func() error) func([]string) error {
	return func([]string) error {
		return f()
	}
}

func (a *app) commands() []*ishell.Cmd {
	return []*ishell.Cmd{
		a.shellCmd("demo", nil, "run the demo sequence", noArgs(a.demo)),
		a.shellCmd("cmd", []string{"c"}, "CODE: send an instruction, e.g. 0x01", a.cmd),
		a.shellCmd("putc", nil, "CHAR: write one character, or its code", a.putc),
		a.shellCmd("puts", []string{"p"}, "TEXT: write text at the cursor", a.puts),
		a.shellCmd("clear", nil, "clear the display", noArgs(a.lcd.Clear)),
		a.shellCmd("home", nil, "move the cursor home", noArgs(a.lcd.Home)),
		a.shellCmd("goto", []string{"g"}, "ROW COL: move the cursor, 1 based", a.moveTo),
		a.shellCmd("backlight", []string{"bl"}, "on|off", a.backlight),
		a.shellCmd("init", nil, "run the initialization sequence", noArgs(a.lcd.Init)),
		a.shellCmd("show", nil, "draw the simulated display", noArgs(a.show)),
	}
}
