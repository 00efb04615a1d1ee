// go-twi
// Copyright (c) 2025 The go-twi Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-twi.
//
// go-twi is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-twi is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-twi; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package twi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the synchronous transaction surface. The interrupt
// engines themselves never produce errors; they resolve every fault to the
// boolean result flag plus a status snapshot. These sentinels exist so the
// blocking wrappers can report what the snapshot said.
var (
	// ErrArbitrationLost means another master won the bus mid-transaction.
	ErrArbitrationLost = errors.New("bus arbitration lost")
	// ErrBusFault means an illegal bus condition (framing, collision).
	ErrBusFault = errors.New("bus fault")
	// ErrNACK means the target did not acknowledge a sent byte.
	ErrNACK = errors.New("NACK received")
	// ErrNoDevice means no device acknowledged the address.
	ErrNoDevice = errors.New("no device at address")
	// ErrBusBusy means a transaction was already in flight.
	ErrBusBusy = errors.New("bus transaction in flight")
	// ErrTimeout means the bounded wait expired while still busy.
	ErrTimeout = errors.New("bus operation timeout")
	// ErrCommunicationFailed is the catch-all for a failed transaction
	// whose status snapshot carries no specific cause.
	ErrCommunicationFailed = errors.New("bus communication failed")
	// ErrDataTooLarge means a buffer exceeds what the target can take.
	ErrDataTooLarge = errors.New("data too large")
)

// ErrorType classifies errors for retry decisions.
type ErrorType int

const (
	// ErrorTypePermanent means retrying cannot help.
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient means the operation may succeed if retried.
	ErrorTypeTransient
	// ErrorTypeTimeout means the operation timed out.
	ErrorTypeTimeout
)

// BusError wraps a bus-level failure with the operation and unit it happened
// on.
type BusError struct {
	Err       error
	Op        string
	Unit      string
	Type      ErrorType
	Retryable bool
}

// NewBusError creates a BusError, deriving retryability from the type.
func NewBusError(op, unit string, err error, errType ErrorType) *BusError {
	return &BusError{
		Op:        op,
		Unit:      unit,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable timeout BusError.
func NewTimeoutError(op, unit string) *BusError {
	return NewBusError(op, unit, ErrTimeout, ErrorTypeTimeout)
}

// NewNoDeviceError creates a BusError for an unacknowledged address. Marked
// transient: the device may simply be mid write cycle.
func NewNoDeviceError(op, unit string) *BusError {
	return NewBusError(op, unit, ErrNoDevice, ErrorTypeTransient)
}

// NewDataTooLargeError creates a permanent BusError for an oversized buffer.
func NewDataTooLargeError(op, unit string) *BusError {
	return NewBusError(op, unit, ErrDataTooLarge, ErrorTypePermanent)
}

func (e *BusError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("twi %s %s: %v", e.Op, e.Unit, e.Err)
	}
	return fmt.Sprintf("twi %s: %v", e.Op, e.Err)
}

func (e *BusError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error is worth retrying. A BusError's own
// flag wins; bare sentinels are classified by kind.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var busErr *BusError
	if errors.As(err, &busErr) {
		return busErr.Retryable
	}
	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrNACK),
		errors.Is(err, ErrNoDevice),
		errors.Is(err, ErrArbitrationLost),
		errors.Is(err, ErrBusBusy),
		errors.Is(err, ErrCommunicationFailed):
		return true
	}
	return false
}

// GetErrorType classifies an error for backoff decisions.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var busErr *BusError
	if errors.As(err, &busErr) {
		return busErr.Type
	}
	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrNACK),
		errors.Is(err, ErrNoDevice),
		errors.Is(err, ErrArbitrationLost),
		errors.Is(err, ErrBusBusy),
		errors.Is(err, ErrCommunicationFailed):
		return ErrorTypeTransient
	}
	return ErrorTypePermanent
}

// statusError maps a finalizing status snapshot to the most specific
// sentinel it supports.
func statusError(s Status) error {
	switch {
	case s&StatusArbLost != 0:
		return ErrArbitrationLost
	case s&StatusBusErr != 0:
		return ErrBusFault
	case s&StatusRxNack != 0:
		return ErrNACK
	}
	return ErrCommunicationFailed
}
