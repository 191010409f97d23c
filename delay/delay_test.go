// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package delay_test

import (
	"testing"
	"time"

	"github.com/GermanBionicSystems/i2clcd/delay"
	"github.com/GermanBionicSystems/i2clcd/delay/delaytest"
	"github.com/jonboulle/clockwork"
)

func TestSpin(t *testing.T) {
	s := delay.NewSpin(nil)
	start := time.Now()
	s.Delay(200 * time.Microsecond)
	if elapsed := time.Since(start); elapsed < 200*time.Microsecond {
		t.Errorf("Spin.Delay(200µs) returned after %s", elapsed)
	}
	// Non positive values must not block.
	s.Delay(0)
	s.Delay(-time.Second)
	if s.String() != "spin" {
		t.Errorf("unexpected String() %q", s.String())
	}
}

func TestSleep(t *testing.T) {
	s := delay.NewSleep(nil)
	start := time.Now()
	s.Delay(time.Millisecond)
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Errorf("Sleep.Delay(1ms) returned after %s", elapsed)
	}
	s.Delay(-1)
}

func TestRecorder(t *testing.T) {
	fc := clockwork.NewFakeClock()
	start := fc.Now()
	r := &delaytest.Recorder{Clock: fc}
	r.Delay(40 * time.Microsecond)
	r.Delay(2 * time.Millisecond)
	if got, want := r.Total(), 2040*time.Microsecond; got != want {
		t.Errorf("Total()=%s, want %s", got, want)
	}
	if got := fc.Since(start); got != 2040*time.Microsecond {
		t.Errorf("fake clock advanced %s, want 2.04ms", got)
	}
	r.Reset()
	if len(r.Delays) != 0 || r.Total() != 0 {
		t.Error("Reset() did not clear the recorded delays")
	}
}
