// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package twowire

import (
	"errors"
	"fmt"
)

var (
	// ErrAddressNACK is returned when no device acknowledged the address byte.
	ErrAddressNACK = errors.New("twowire: address not acknowledged")
	// ErrDataNACK is returned when the device refused a data byte.
	ErrDataNACK = errors.New("twowire: data not acknowledged")
	// ErrTimeout is returned when SCL stays low longer than the stretch limit.
	ErrTimeout = errors.New("twowire: clock stretching timeout")
	// ErrBusBusy is returned by New when the bus never reaches the idle state.
	ErrBusBusy = errors.New("twowire: bus not idle")
	// ErrInvalidAddress is returned for addresses that don't fit in 7 bits.
	ErrInvalidAddress = errors.New("twowire: invalid 7-bit address")
)

// TxError describes a failed bus operation. Err is one of the package errors
// or an error from the underlying GPIO pins.
type TxError struct {
	Op   string // "init", "address", "write" or "read"
	Addr uint16
	// Index is the offset of the data byte within the write or read buffer.
	// It is -1 when the failure is not tied to a data byte.
	Index int
	Err   error
}

func (e *TxError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s (op=%s addr=0x%02x)", e.Err, e.Op, e.Addr)
	}
	return fmt.Sprintf("%s (op=%s addr=0x%02x byte=%d)", e.Err, e.Op, e.Addr, e.Index)
}

func (e *TxError) Unwrap() error {
	return e.Err
}

// IsNACK reports whether err is an address or data acknowledgment failure.
func IsNACK(err error) bool {
	return errors.Is(err, ErrAddressNACK) || errors.Is(err, ErrDataNACK)
}
