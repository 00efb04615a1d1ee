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

import "sync/atomic"

// SlaveState classifies one slave-session event.
type SlaveState uint8

const (
	// SlaveAddressed means a bus master addressed us; the status carries
	// the direction of the phase about to start.
	SlaveAddressed SlaveState = iota
	// SlaveMasterRead means the bus master is reading a byte from us; the
	// callback supplies it with WriteByte.
	SlaveMasterRead
	// SlaveMasterWrite means the bus master wrote a byte to us; the
	// callback consumes it with ReadByte.
	SlaveMasterWrite
	// SlaveStopped means the transaction terminated with a stop condition.
	SlaveStopped
	// SlaveError means a collision or bus error ended the session.
	SlaveError
)

func (s SlaveState) String() string {
	switch s {
	case SlaveAddressed:
		return "addressed"
	case SlaveMasterRead:
		return "master-read"
	case SlaveMasterWrite:
		return "master-write"
	case SlaveStopped:
		return "stopped"
	case SlaveError:
		return "error"
	}
	return "unknown"
}

// SlaveCallback is invoked from the unit's event context once per decoded
// slave event, with the raw status snapshot. Returning true continues the
// transaction (ACK); returning false aborts it (NACK then complete). The
// callback must be non-blocking and reentrant-safe: it runs at interrupt
// priority and may fire again as soon as it returns.
//
// On SlaveError, and on a SlaveMasterRead event carrying a non-stale NACK
// (the bus master ending the read), the session is aborted regardless of the
// return value; the callback is informational on those events.
type SlaveCallback func(state SlaveState, status SlaveStatus) bool

// Slave responds to inbound bus addressing on one unit. All protocol
// decisions are delegated to the installed callback; the engine decodes
// status bits, tracks the first-byte rule of read phases, and issues the
// ACK/NACK control action.
type Slave struct {
	port SlavePort
	cb   SlaveCallback

	// first is true until the first data byte of a master-read phase has
	// been handled; it is only touched from the event context.
	first bool

	lastAddr atomic.Uint32
}

// NewSlave creates a slave engine over the given port and installs its event
// handler. The engine stays disabled until Listen is called.
func NewSlave(port SlavePort) *Slave {
	s := &Slave{port: port}
	port.SetHandler(s.handleEvent)
	return s
}

// Listen configures the own address and installs the callback, then enables
// the slave function with general-call addressing on. The engine is disabled
// and its flags cleared first, so re-initialization is always safe. A nil
// callback just disables the engine.
func (s *Slave) Listen(addr byte, cb SlaveCallback) {
	s.Off()
	if cb == nil {
		return
	}
	s.cb = cb
	s.port.SetAddress(addr, true)
	s.port.EnableInterrupts()
	s.port.Enable()
}

// Off disables the slave function and clears pending flags.
func (s *Slave) Off() {
	s.port.DisableInterrupts()
	s.port.Disable()
	s.port.ClearFlags()
}

// WriteByte loads one byte into the output register. Meant for callback use
// during SlaveMasterRead.
func (s *Slave) WriteByte(b byte) { s.port.WriteData(b) }

// ReadByte fetches one byte from the input register. Meant for callback use
// during SlaveMasterWrite.
func (s *Slave) ReadByte() byte { return s.port.ReadData() }

// LastAddress returns the last address this engine was matched on. With
// general call or an address mask in effect this is how the callback learns
// which address the bus master actually used.
func (s *Slave) LastAddress() byte { return byte(s.lastAddr.Load()) }

// SetSecondAddress configures an additional exact-match address.
func (s *Slave) SetSecondAddress(addr byte) { s.port.SetSecondAddress(addr) }

// SetAddressMask configures an address bit mask instead of a second address.
func (s *Slave) SetAddressMask(mask byte) { s.port.SetAddressMask(mask) }

// decodeSlaveState resolves the raw status into a session state. Error bits
// take precedence, then stop, then address phase, then data direction.
func decodeSlaveState(s SlaveStatus) SlaveState {
	switch {
	case s.isError():
		return SlaveError
	case s.isStop():
		return SlaveStopped
	case s.isAddress():
		return SlaveAddressed
	case s.isDataRead():
		return SlaveMasterRead
	case s.isDataWrite():
		return SlaveMasterWrite
	}
	return SlaveError
}

// handleEvent is the interrupt-level engine, invoked once per slave event.
func (s *Slave) handleEvent() {
	raw := s.port.Status()
	state := decodeSlaveState(raw)
	nacked := raw.isNack()
	done := false

	switch state {
	case SlaveAddressed:
		// The matched address sits in the data register during the
		// address phase.
		s.lastAddr.Store(uint32(s.port.ReadData() >> 1))
		s.first = true
	case SlaveMasterRead:
		if s.first {
			// The NACK bit is stale on the first byte of a read phase:
			// it still reflects the previous phase and must be ignored.
			s.first = false
		} else if nacked {
			// The bus master ended the read. The callback still sees this
			// event, with the NACK bit visible, but the session terminates
			// regardless of its return.
			done = true
		}
	case SlaveMasterWrite:
		// Nothing to track; the callback consumes the byte.
	default:
		// Stopped or error: the session is over either way.
		done = true
	}

	if !s.cb(state, raw) {
		done = true
	}
	if done {
		s.port.NackComplete()
	} else {
		s.port.Ack()
	}
}
