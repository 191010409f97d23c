// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// lcd1602 drives a 2x16 character LCD through a PCF8574 I²C backpack.
//
// Without arguments it opens an interactive shell. With arguments, they are
// run as one shell command, e.g.:
//
//	lcd1602 -bus 1 demo
//	lcd1602 -scl GPIO3 -sda GPIO2 puts Hello
//	lcd1602 -sim -png lcd.png demo
//
// With -sim, the display is simulated and drawn on the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/i2clcd/backpack"
	"github.com/GermanBionicSystems/i2clcd/hd44780"
	"github.com/GermanBionicSystems/i2clcd/lcdsim"
	"github.com/GermanBionicSystems/i2clcd/pcf857x"
	"github.com/GermanBionicSystems/i2clcd/twowire"
	"github.com/GermanBionicSystems/i2clcd/twowire/twowiretest"
)

type config struct {
	bus      string
	scl      string
	sda      string
	speed    physic.Frequency
	addr     i2c.Addr
	pinmap   string
	sim      bool
	png      string
	evalOnly bool
}

func (c *config) register(fs *flag.FlagSet) {
	fs.StringVar(&c.bus, "bus", "", "I²C bus to use, as registered by periph")
	fs.StringVar(&c.scl, "scl", "", "GPIO for SCL, to bit-bang the bus")
	fs.StringVar(&c.sda, "sda", "", "GPIO for SDA, to bit-bang the bus")
	fs.Var(&c.speed, "speed", "I²C clock rate")
	fs.Var(&c.addr, "addr", "I²C address of the backpack")
	fs.StringVar(&c.pinmap, "pinmap", "default", "backpack wiring: default or handsontec")
	fs.BoolVar(&c.sim, "sim", false, "simulate the backpack and display")
	fs.StringVar(&c.png, "png", "", "with -sim, write a snapshot of the display to this file on exit")
	fs.BoolVar(&c.evalOnly, "e", false, "Evaluation only, no interactive shell.")
}

func pinMap(name string) (backpack.PinMap, error) {
	switch name {
	case "default", "":
		return backpack.DefaultPinMap, nil
	case "handsontec":
		return backpack.HandsontecPinMap, nil
	default:
		return backpack.PinMap{}, fmt.Errorf("unknown pin map %q", name)
	}
}

// open returns the bus selected by c, and the simulator when c.sim is set.
func (c *config) open(pins backpack.PinMap) (i2c.BusCloser, *lcdsim.Dev, error) {
	opts := &twowire.Opts{Frequency: c.speed}
	if c.sim {
		sim := lcdsim.New(uint16(c.addr), pins, 2, 16)
		w := &twowiretest.Wire{Addr: uint16(c.addr), Target: sim}
		bus, err := twowire.New(w.SCL(), w.SDA(), opts)
		return bus, sim, err
	}
	if c.scl != "" || c.sda != "" {
		bus, err := twowire.Open(c.scl, c.sda, opts)
		return bus, nil, err
	}
	bus, err := i2creg.Open(c.bus)
	if err != nil {
		return nil, nil, err
	}
	if err := bus.SetSpeed(c.speed); err != nil {
		glog.Warningf("%s: keeping the default clock rate: %v", bus, err)
	}
	return bus, nil, nil
}

func writeSnapshot(sim *lcdsim.Dev, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lcdsim.WritePNG(sim, f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newApp(lcd *hd44780.Dev, sim *lcdsim.Dev, out io.Writer) *app {
	a := &app{lcd: lcd, sim: sim, pause: time.Sleep}
	if sim != nil {
		a.term = lcdsim.NewTerminal(sim, &lcdsim.TerminalOpts{W: out})
	}
	return a
}

func mainImpl() error {
	c := config{speed: twowire.DefaultFrequency, addr: i2c.Addr(pcf857x.DefaultAddress)}
	c.register(flag.CommandLine)
	flag.Parse()

	pins, err := pinMap(c.pinmap)
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, sim, err := c.open(pins)
	if err != nil {
		return err
	}
	defer bus.Close()
	glog.Infof("using %s at %s", bus, c.addr)

	lcd, err := hd44780.NewPCF857xBackpackPins(bus, uint16(c.addr), pins, nil)
	if err != nil {
		return err
	}
	glog.Infof("%s ready", lcd)

	a := newApp(lcd, sim, nil)
	sh := ishell.New()
	sh.SetPrompt("lcd1602 > ")
	for _, cmd := range a.commands() {
		sh.AddCmd(cmd)
	}
	if args := flag.Args(); len(args) > 0 {
		if err = sh.Process(args...); err == nil {
			err = a.err
		}
	} else if c.evalOnly {
		err = fmt.Errorf("command expected")
	} else {
		sh.Run()
	}
	if sim != nil && c.png != "" {
		if err2 := writeSnapshot(sim, c.png); err == nil {
			err = err2
		}
		glog.Infof("wrote %s", c.png)
	}
	return err
}

func main() {
	defer glog.Flush()
	if err := mainImpl(); err != nil {
		glog.Exitf("lcd1602: %v", err)
	}
}
