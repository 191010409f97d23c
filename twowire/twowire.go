// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package twowire implements a master-only I²C bus by bit-banging two GPIO
// lines.
//
// The lines are driven open-drain: a Low is actively driven, a High is
// produced by switching the pin to input with a pull-up and letting the
// external pull-up resistors raise the line. This lets slaves acknowledge
// bytes and stretch the clock.
//
// Only 7-bit addressing is supported. There is no multi-master arbitration.
// Every wait on the bus (clock stretching, bus idle) is bounded by
// Opts.StretchLimit half-periods; there is no retry.
//
// The Bus implements periph.io/x/conn/v3/i2c.BusCloser, so any periph device
// driver can sit on it.
package twowire

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/i2clcd/delay"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
)

// DefaultFrequency is the standard mode I²C clock rate.
const DefaultFrequency = 100 * physic.KiloHertz

// Opts configures a Bus.
type Opts struct {
	// Frequency is the SCL clock rate. Zero means DefaultFrequency.
	Frequency physic.Frequency
	// StretchLimit is the number of half-periods to wait for a line to be
	// released, either by a slave stretching SCL or while waiting for the bus
	// to become idle. Zero means 64.
	StretchLimit int
	// Delay is used for the half-period waits. Nil means delay.NewSpin(nil).
	Delay delay.Delayer
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Frequency:    DefaultFrequency,
	StretchLimit: 64,
}

// Bus is a bit-banged I²C master.
type Bus struct {
	mu    sync.Mutex
	scl   gpio.PinIO
	sda   gpio.PinIO
	freq  physic.Frequency
	half  time.Duration
	limit int
	delay delay.Delayer
}

// New returns a Bus using the scl and sda pins.
//
// Both lines are released and the bus must read idle (both lines high) within
// the stretch limit, otherwise a *TxError wrapping ErrBusBusy is returned.
func New(scl, sda gpio.PinIO, opts *Opts) (*Bus, error) {
	if scl == nil || sda == nil {
		return nil, errors.New("twowire: scl and sda pins are required")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	b := &Bus{
		scl:   scl,
		sda:   sda,
		limit: opts.StretchLimit,
		delay: opts.Delay,
	}
	if b.limit <= 0 {
		b.limit = DefaultOpts.StretchLimit
	}
	if b.delay == nil {
		b.delay = delay.NewSpin(nil)
	}
	f := opts.Frequency
	if f == 0 {
		f = DefaultFrequency
	}
	if err := b.SetSpeed(f); err != nil {
		return nil, err
	}
	if err := b.init(); err != nil {
		return nil, err
	}
	return b, nil
}

// Open returns a Bus using the GPIO pins registered in gpioreg under sclName
// and sdaName.
func Open(sclName, sdaName string, opts *Opts) (*Bus, error) {
	scl := gpioreg.ByName(sclName)
	if scl == nil {
		return nil, fmt.Errorf("twowire: unknown SCL pin %q", sclName)
	}
	sda := gpioreg.ByName(sdaName)
	if sda == nil {
		return nil, fmt.Errorf("twowire: unknown SDA pin %q", sdaName)
	}
	return New(scl, sda, opts)
}

// Register makes a bit-banged bus on the named pins available through
// i2creg.Open(name). The pins are looked up when the bus is opened.
func Register(name, sclName, sdaName string, opts *Opts) error {
	var o Opts
	if opts != nil {
		o = *opts
	}
	return i2creg.Register(name, nil, -1, func() (i2c.BusCloser, error) {
		return Open(sclName, sdaName, &o)
	})
}

func (b *Bus) String() string {
	return fmt.Sprintf("twowire(%s,%s)@%s", b.scl, b.sda, b.freq)
}

// Close releases both lines.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.scl.In(gpio.PullUp, gpio.NoEdge)
	if err2 := b.sda.In(gpio.PullUp, gpio.NoEdge); err == nil {
		err = err2
	}
	return err
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	if f <= 0 {
		return fmt.Errorf("twowire: invalid frequency %s", f)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.freq = f
	b.half = f.Period() / 2
	return nil
}

// Frequency returns the configured SCL clock rate.
func (b *Bus) Frequency() physic.Frequency {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.freq
}

// SCL implements i2c.Pins.
func (b *Bus) SCL() gpio.PinIO {
	return b.scl
}

// SDA implements i2c.Pins.
func (b *Bus) SDA() gpio.PinIO {
	return b.sda
}

// Write sends p to the device at addr.
func (b *Bus) Write(addr uint16, p []byte) error {
	return b.Tx(addr, p, nil)
}

// Tx implements i2c.Bus.
//
// The write part is sent first, followed by a repeated start and the read
// part. Every byte is acknowledgment checked; on the first missing
// acknowledgment a stop condition is emitted and the transfer is abandoned.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if addr > 0x7f {
		return &TxError{Op: "address", Addr: addr, Index: -1, Err: ErrInvalidAddress}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(w) != 0 || len(r) == 0 {
		if err := b.transfer(addr, false, w); err != nil {
			return err
		}
	}
	if len(r) != 0 {
		if err := b.transfer(addr, true, r); err != nil {
			return err
		}
	}
	return b.wrap("stop", addr, -1, b.stop())
}

// transfer runs one addressed phase. A start (or repeated start) is emitted
// first. On failure the bus is left stopped.
func (b *Bus) transfer(addr uint16, read bool, buf []byte) error {
	if err := b.start(); err != nil {
		return b.abort("address", addr, -1, err)
	}
	a := byte(addr << 1)
	if read {
		a |= 1
	}
	ack, err := b.writeByte(a)
	if err == nil && !ack {
		err = ErrAddressNACK
	}
	if err != nil {
		return b.abort("address", addr, -1, err)
	}
	if !read {
		for i, v := range buf {
			ack, err := b.writeByte(v)
			if err == nil && !ack {
				err = ErrDataNACK
			}
			if err != nil {
				return b.abort("write", addr, i, err)
			}
		}
		return nil
	}
	for i := range buf {
		v, err := b.readByte(i != len(buf)-1)
		if err != nil {
			return b.abort("read", addr, i, err)
		}
		buf[i] = v
	}
	return nil
}

// abort emits a stop condition and returns err wrapped in a *TxError. A
// failure to stop is ignored in favor of err.
func (b *Bus) abort(op string, addr uint16, index int, err error) error {
	if !errors.Is(err, ErrTimeout) {
		_ = b.stop()
	} else {
		_ = b.release()
	}
	return b.wrap(op, addr, index, err)
}

func (b *Bus) wrap(op string, addr uint16, index int, err error) error {
	if err == nil {
		return nil
	}
	return &TxError{Op: op, Addr: addr, Index: index, Err: err}
}

// init releases both lines and waits for the bus to be idle.
func (b *Bus) init() error {
	if err := b.release(); err != nil {
		return b.wrap("init", 0, -1, err)
	}
	for i := 0; b.scl.Read() == gpio.Low || b.sda.Read() == gpio.Low; i++ {
		if i >= b.limit {
			return b.wrap("init", 0, -1, ErrBusBusy)
		}
		b.delay.Delay(b.half)
	}
	return nil
}

func (b *Bus) release() error {
	err := b.sda.In(gpio.PullUp, gpio.NoEdge)
	if err2 := b.scl.In(gpio.PullUp, gpio.NoEdge); err == nil {
		err = err2
	}
	return err
}

// sclHigh releases SCL and waits for slaves to let go of it.
func (b *Bus) sclHigh() error {
	if err := b.scl.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return err
	}
	for i := 0; b.scl.Read() == gpio.Low; i++ {
		if i >= b.limit {
			return ErrTimeout
		}
		b.delay.Delay(b.half)
	}
	return nil
}

func (b *Bus) sclLow() error {
	return b.scl.Out(gpio.Low)
}

func (b *Bus) sdaSet(l gpio.Level) error {
	if l {
		return b.sda.In(gpio.PullUp, gpio.NoEdge)
	}
	return b.sda.Out(gpio.Low)
}

// start emits a start condition. It doubles as a repeated start when called
// with SCL low at the end of a byte.
func (b *Bus) start() error {
	if err := b.sdaSet(gpio.High); err != nil {
		return err
	}
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	if err := b.sdaSet(gpio.Low); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	return b.sclLow()
}

func (b *Bus) stop() error {
	if err := b.sdaSet(gpio.Low); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	if err := b.sdaSet(gpio.High); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	return nil
}

// writeBit clocks out one bit. SCL is low on entry and on return.
func (b *Bus) writeBit(l gpio.Level) error {
	if err := b.sdaSet(l); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	if err := b.sclHigh(); err != nil {
		return err
	}
	b.delay.Delay(b.half)
	return b.sclLow()
}

// readBit releases SDA and samples it while SCL is high.
func (b *Bus) readBit() (gpio.Level, error) {
	if err := b.sdaSet(gpio.High); err != nil {
		return gpio.Low, err
	}
	b.delay.Delay(b.half)
	if err := b.sclHigh(); err != nil {
		return gpio.Low, err
	}
	l := b.sda.Read()
	b.delay.Delay(b.half)
	return l, b.sclLow()
}

// writeByte sends v MSB first and returns whether the slave acknowledged it.
func (b *Bus) writeByte(v byte) (bool, error) {
	for i := 7; i >= 0; i-- {
		if err := b.writeBit(gpio.Level(v&(1<<uint(i)) != 0)); err != nil {
			return false, err
		}
	}
	l, err := b.readBit()
	return l == gpio.Low, err
}

// readByte receives one byte MSB first and answers with an ACK when ack is
// true, a NACK otherwise.
func (b *Bus) readByte(ack bool) (byte, error) {
	var v byte
	for range 8 {
		l, err := b.readBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if l {
			v |= 1
		}
	}
	return v, b.writeBit(gpio.Level(!ack))
}

var _ i2c.BusCloser = &Bus{}
var _ i2c.Pins = &Bus{}
