// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twowiretest simulates an open-drain I²C line pair with a single
// slave attached, to test bit-banged masters without hardware.
package twowiretest

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

type phase int

const (
	idle phase = iota
	address
	receiving
	transmitting
	ignoring
)

// Wire is a simulated SCL/SDA pair with one slave device.
//
// The slave acknowledges Addr. Completed write transactions are forwarded to
// Target, and bytes for read transactions are fetched from it one at a time.
// Target may be nil, in which case writes are only recorded and reads return
// 0xff.
//
// Modify the exported fields before use, or while holding the lock.
type Wire struct {
	Addr   uint16
	Target i2c.Bus

	// NackData makes the slave refuse every data byte.
	NackData bool
	// Stretch is the number of SCL reads that keep returning Low after the
	// master releases SCL. -1 holds SCL low forever.
	Stretch int
	// HoldSDA makes the slave keep SDA low, so the bus never goes idle.
	HoldSDA bool

	sync.Mutex
	// Trace is the bus monitor log: "S" for a start, "P" for a stop and
	// "0xNN+A" or "0xNN-N" for every byte with its acknowledgment bit.
	Trace []string
	// Ops are the completed transactions addressed to the slave.
	Ops []i2ctest.IO
	// Errors collects errors returned by Target.
	Errors []error

	scl, sda       linePin
	slaveSCLLow    bool
	stretchLeft    int
	slaveSDALow    bool
	phase          phase
	clk            int
	cur            byte
	read           bool
	pending        []byte
	masterAck      bool
	tx             byte
	lastAddressAck bool
}

// SCL returns the clock line as seen by the master.
func (w *Wire) SCL() gpio.PinIO {
	w.init()
	return &w.scl
}

// SDA returns the data line as seen by the master.
func (w *Wire) SDA() gpio.PinIO {
	w.init()
	return &w.sda
}

func (w *Wire) init() {
	w.Lock()
	defer w.Unlock()
	if w.scl.w == nil {
		w.scl = linePin{w: w, name: "SIM_SCL", num: 0}
		w.sda = linePin{w: w, name: "SIM_SDA", num: 1}
	}
}

// Reset clears the recorded trace and operations.
func (w *Wire) Reset() {
	w.Lock()
	defer w.Unlock()
	w.Trace = nil
	w.Ops = nil
	w.Errors = nil
}

func (w *Wire) String() string {
	return fmt.Sprintf("twowiretest(0x%02x)", w.Addr)
}

func (w *Wire) levels() (scl, sda gpio.Level) {
	scl = gpio.Level(!w.scl.low && !w.slaveSCLLow)
	sda = gpio.Level(!w.sda.low && !w.slaveSDALow && !w.HoldSDA)
	return
}

// drive applies a master pin change and dispatches the resulting bus events.
// Must be called with the lock held.
func (w *Wire) drive(p *linePin, low bool) {
	oldSCL, oldSDA := w.levels()
	p.low = low
	if p == &w.scl && !low && !w.scl.wasReleased {
		w.stretchLeft = w.Stretch
		w.slaveSCLLow = w.Stretch != 0
	}
	w.scl.wasReleased = !w.scl.low
	newSCL, newSDA := w.levels()
	w.dispatch(oldSCL, oldSDA, newSCL, newSDA)
}

func (w *Wire) dispatch(oldSCL, oldSDA, newSCL, newSDA gpio.Level) {
	switch {
	case oldSCL != newSCL:
		if newSCL {
			w.rising(newSDA)
		} else {
			w.falling()
		}
	case bool(newSCL && oldSDA && !newSDA):
		w.start()
	case bool(newSCL && !oldSDA && newSDA):
		w.stop()
	}
}

// readSCL accounts for clock stretching.
func (w *Wire) readSCL() gpio.Level {
	if w.slaveSCLLow && w.stretchLeft > 0 {
		w.stretchLeft--
		if w.stretchLeft == 0 {
			oldSCL, oldSDA := w.levels()
			w.slaveSCLLow = false
			newSCL, newSDA := w.levels()
			w.dispatch(oldSCL, oldSDA, newSCL, newSDA)
		}
	}
	l, _ := w.levels()
	return l
}

func (w *Wire) start() {
	w.flush()
	w.Trace = append(w.Trace, "S")
	w.phase = address
	w.clk = 0
	w.cur = 0
	w.slaveSDALow = false
}

func (w *Wire) stop() {
	w.flush()
	w.Trace = append(w.Trace, "P")
	w.phase = idle
	w.clk = 0
	w.slaveSDALow = false
}

// flush forwards a completed write transaction to the target.
func (w *Wire) flush() {
	if w.phase == receiving && len(w.pending) != 0 {
		io := i2ctest.IO{Addr: w.Addr, W: w.pending}
		w.Ops = append(w.Ops, io)
		if w.Target != nil {
			if err := w.Target.Tx(w.Addr, io.W, nil); err != nil {
				w.Errors = append(w.Errors, err)
			}
		}
	}
	w.pending = nil
}

func (w *Wire) rising(sda gpio.Level) {
	if w.phase == idle {
		return
	}
	w.clk++
	switch {
	case w.clk <= 8 && w.phase != transmitting:
		w.cur <<= 1
		if sda {
			w.cur |= 1
		}
	case w.clk == 9 && w.phase == transmitting:
		w.masterAck = !bool(sda)
		w.Trace = append(w.Trace, ackToken(w.tx, w.masterAck))
	case w.clk == 9:
		var ack bool
		if w.phase == address {
			ack = w.lastAddressAck
		} else {
			ack = w.phase == receiving && !w.NackData
		}
		w.Trace = append(w.Trace, ackToken(w.cur, ack))
	}
}

func (w *Wire) falling() {
	if w.phase == idle {
		return
	}
	switch {
	case w.clk < 8 && w.phase == transmitting:
		w.slaveSDALow = w.tx&(0x80>>uint(w.clk)) == 0
	case w.clk == 8 && w.phase == transmitting:
		w.slaveSDALow = false
	case w.clk == 8 && w.phase == address:
		w.lastAddressAck = uint16(w.cur>>1) == w.Addr
		w.read = w.cur&1 == 1
		w.slaveSDALow = w.lastAddressAck
	case w.clk == 8 && w.phase == receiving:
		w.slaveSDALow = !w.NackData
		if !w.NackData {
			w.pending = append(w.pending, w.cur)
		}
	case w.clk == 9:
		w.slaveSDALow = false
		w.clk = 0
		w.cur = 0
		switch w.phase {
		case address:
			switch {
			case !w.lastAddressAck:
				w.phase = ignoring
			case w.read:
				w.phase = transmitting
				w.load()
			default:
				w.phase = receiving
			}
		case transmitting:
			if w.masterAck {
				w.load()
			} else {
				w.phase = ignoring
			}
		}
	}
}

// load fetches the next byte to transmit and drives its MSB.
func (w *Wire) load() {
	r := []byte{0xff}
	if w.Target != nil {
		if err := w.Target.Tx(w.Addr, nil, r); err != nil {
			w.Errors = append(w.Errors, err)
		}
	}
	w.Ops = append(w.Ops, i2ctest.IO{Addr: w.Addr, R: r})
	w.tx = r[0]
	w.slaveSDALow = w.tx&0x80 == 0
}

func ackToken(v byte, ack bool) string {
	if ack {
		return fmt.Sprintf("0x%02x+A", v)
	}
	return fmt.Sprintf("0x%02x-N", v)
}

// linePin is the master's view of one line.
type linePin struct {
	w           *Wire
	name        string
	num         int
	low         bool
	wasReleased bool
}

func (p *linePin) String() string { return p.name }
func (p *linePin) Halt() error { return nil }
func (p *linePin) Name() string { return p.name }
func (p *linePin) Number() int { return p.num }
func (p *linePin) Function() string { return "I2C" }
func (p *linePin) Pull() gpio.Pull { return gpio.PullUp }
func (p *linePin) DefaultPull() gpio.Pull { return gpio.PullUp }
func (p *linePin) WaitForEdge(time.Duration) bool { return false }
func (p *linePin) PWM(gpio.Duty, physic.Frequency) error {
	return fmt.Errorf("twowiretest: PWM not supported on %s", p.name)
}

// In releases the line.
func (p *linePin) In(pull gpio.Pull, edge gpio.Edge) error {
	if edge != gpio.NoEdge {
		return fmt.Errorf("twowiretest: edge detection not supported on %s", p.name)
	}
	p.w.Lock()
	defer p.w.Unlock()
	p.w.drive(p, false)
	return nil
}

// Out drives the line low, or releases it for High.
func (p *linePin) Out(l gpio.Level) error {
	p.w.Lock()
	defer p.w.Unlock()
	p.w.drive(p, !bool(l))
	return nil
}

// Read returns the wired-AND level of the line.
func (p *linePin) Read() gpio.Level {
	p.w.Lock()
	defer p.w.Unlock()
	if p == &p.w.scl {
		return p.w.readSCL()
	}
	_, sda := p.w.levels()
	return sda
}

var _ gpio.PinIO = &linePin{}
