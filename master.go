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
	"sync/atomic"
	"time"
)

// Master drives outbound transactions on one bus unit. All arming operations
// return immediately; transaction progress happens inside the unit's byte
// event handler. Exactly one transaction may be in flight; the caller must
// check IsBusy before arming another.
//
// Buffers handed to an arming operation are borrowed by the engine and must
// stay valid and unmodified until completion is observed, either through the
// completion callback or through IsBusy going false.
type Master struct {
	port     MasterPort
	callback func()

	// Transaction cursors, owned by the event handler once armed.
	tx   []byte
	txi  int
	tx2  []byte
	tx2i int
	rx   []byte
	rxi  int

	lastResult atomic.Bool
	lastStatus atomic.Uint32
}

// NewMaster creates a master engine over the given port and installs its
// event handler. The port's master half stays disabled until On is called.
func NewMaster(port MasterPort) *Master {
	m := &Master{port: port}
	port.SetHandler(m.handleEvent)
	return m
}

// SetCallback installs an optional completion callback. It is invoked from
// the unit's event context after every transaction, success or failure, and
// may immediately arm a new transaction. Pass nil to remove it.
func (m *Master) SetCallback(fn func()) { m.callback = fn }

// On programs the target address, clears stale status and enables the master
// function. The address stays in effect for subsequent transactions until On
// is called again; mid-transaction re-addressing is unsupported by the
// hardware ordering rules.
func (m *Master) On(addr byte) {
	m.port.SetAddress(addr)
	m.port.ClearFlags()
	m.port.Enable()
}

// Off disables the master function, forcing the bus to be released. This is
// the only way to abandon a transaction in flight and is meant for shutdown
// and safety paths.
func (m *Master) Off() { m.port.Disable() }

// IsBusy reports whether a transaction is armed. True from the moment an
// arming operation returns until the event handler finalizes the transaction.
func (m *Master) IsBusy() bool { return m.port.InterruptsEnabled() }

// LastResultOK reports whether the most recently completed transaction
// finished without error. The value is unstable while IsBusy is true.
func (m *Master) LastResultOK() bool { return m.lastResult.Load() }

// LastStatus returns the raw status snapshot taken when the last transaction
// finalized. Diagnostic only.
func (m *Master) LastStatus() Status { return Status(m.lastStatus.Load()) }

// WriteRead arms a write followed, without releasing the bus, by a read into
// rbuf. Either buffer may be empty: a nil or empty wbuf arms a pure read, a
// nil rbuf a pure write.
func (m *Master) WriteRead(wbuf, rbuf []byte) {
	m.tx, m.txi = wbuf, 0
	m.tx2, m.tx2i = nil, 0
	m.rx, m.rxi = rbuf, 0
	if len(rbuf) == 0 {
		m.rx = nil
	}
	// A zero-length write with nothing to read still addresses in the write
	// direction; that is the ping.
	m.start(len(wbuf) > 0 || m.rx == nil)
}

// WriteWrite arms wbuf immediately followed by wbuf2 as one continuous write
// phase, such as a command byte then a payload.
func (m *Master) WriteWrite(wbuf, wbuf2 []byte) {
	m.tx, m.txi = wbuf, 0
	m.tx2, m.tx2i = wbuf2, 0
	m.rx, m.rxi = nil, 0
	m.start(true)
}

// Write arms a pure write of wbuf.
func (m *Master) Write(wbuf []byte) { m.WriteRead(wbuf, nil) }

// Read arms a pure read into rbuf.
func (m *Master) Read(rbuf []byte) { m.WriteRead(nil, rbuf) }

// Wait busy-polls IsBusy until a wall-clock deadline of now+timeout and
// returns LastResultOK. If the deadline passes while still busy the
// transaction is left running and the return value is false; the caller
// must separately check IsBusy to distinguish a timeout from a completed
// failure. Polling yields for the scheduler's minimum sleep between checks.
func (m *Master) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for m.IsBusy() && time.Now().Before(deadline) {
		time.Sleep(time.Microsecond)
	}
	return m.LastResultOK()
}

// start issues the start condition in the requested direction and arms the
// byte-event interrupt. The result flag is pessimistically cleared so a
// timed-out Wait reads false.
func (m *Master) start(write bool) {
	m.lastResult.Store(false)
	if write {
		m.port.StartWrite()
	} else {
		m.port.StartRead()
	}
	m.port.EnableInterrupts()
}

// handleEvent is the interrupt-level engine, invoked once per byte-level bus
// event. One bounded unit of work per invocation; it never waits.
func (m *Master) handleEvent() {
	s := m.port.Status()
	switch {
	case s&statusAnyError != 0:
		m.finish(false, s)

	case s == statusReadReady:
		m.rx[m.rxi] = m.port.ReadData()
		m.rxi++
		if m.rxi < len(m.rx) {
			m.port.AckRead()
		} else {
			m.finish(true, s)
		}

	case s == statusWriteReady:
		switch {
		case m.txi < len(m.tx):
			m.port.WriteData(m.tx[m.txi])
			m.txi++
		case m.tx2i < len(m.tx2):
			m.port.WriteData(m.tx2[m.tx2i])
			m.tx2i++
		case m.rx != nil:
			// Write phase done, flip to read. The hardware reuses the
			// already-programmed address.
			m.port.StartRead()
		default:
			m.finish(true, s)
		}

	default:
		// Unexpected pattern, typically a NACKed write.
		m.finish(false, s)
	}
}

// finish finalizes the transaction: NACK+STOP (harmless when not mid-read),
// interrupts off before the callback so the callback can arm a new transfer,
// then the result flag and the optional callback.
func (m *Master) finish(ok bool, s Status) {
	m.lastStatus.Store(uint32(s))
	m.lastResult.Store(ok)
	m.port.NackStop()
	m.port.DisableInterrupts()
	if m.callback != nil {
		m.callback()
	}
}
