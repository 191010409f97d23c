// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package delay provides the blocking waits used by the bus and LCD layers.
//
// The HD44780 has no usable busy flag on write-only backpacks, so every
// command is followed by a fixed settle time. Those waits, and the bus
// half-period, go through a Delayer so they can be substituted in tests.
package delay

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Delayer blocks the caller for at least d.
type Delayer interface {
	Delay(d time.Duration)
}

// Spin busy-waits on a clock. Sub-millisecond waits on a host OS are far too
// coarse with time.Sleep, so this is the default for bus and LCD timing.
type Spin struct {
	clock clockwork.Clock
}

// NewSpin returns a Spin delayer. If clock is nil, the real clock is used.
//
// The clock must advance on its own; a clockwork.FakeClock that nobody
// advances will spin forever.
func NewSpin(clock clockwork.Clock) *Spin {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Spin{clock: clock}
}

// Delay implements Delayer.
func (s *Spin) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := s.clock.Now().Add(d)
	for s.clock.Now().Before(deadline) {
	}
}

func (s *Spin) String() string {
	return "spin"
}

// Sleep yields to the scheduler instead of spinning.
type Sleep struct {
	clock clockwork.Clock
}

// NewSleep returns a Sleep delayer. If clock is nil, the real clock is used.
func NewSleep(clock clockwork.Clock) *Sleep {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sleep{clock: clock}
}

// Delay implements Delayer.
func (s *Sleep) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	s.clock.Sleep(d)
}

func (s *Sleep) String() string {
	return "sleep"
}

var _ Delayer = &Spin{}
var _ Delayer = &Sleep{}
