// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package delaytest is meant to be used to test drivers that wait through a
// delay.Delayer.
package delaytest

import (
	"sync"
	"time"

	"github.com/GermanBionicSystems/i2clcd/delay"
	"github.com/jonboulle/clockwork"
)

// Recorder implements delay.Delayer and records every requested wait without
// blocking.
type Recorder struct {
	// Clock, if set, is advanced by every recorded delay so code reading it
	// observes simulated elapsed time.
	Clock clockwork.FakeClock

	sync.Mutex
	Delays []time.Duration
}

// Delay implements delay.Delayer.
func (r *Recorder) Delay(d time.Duration) {
	r.Lock()
	r.Delays = append(r.Delays, d)
	r.Unlock()
	if r.Clock != nil && d > 0 {
		r.Clock.Advance(d)
	}
}

// Total returns the sum of all the recorded delays.
func (r *Recorder) Total() time.Duration {
	r.Lock()
	defer r.Unlock()
	var t time.Duration
	for _, d := range r.Delays {
		t += d
	}
	return t
}

// Reset forgets the recorded delays.
func (r *Recorder) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Delays = nil
}

func (r *Recorder) String() string {
	return "delaytest"
}

var _ delay.Delayer = &Recorder{}
