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

// Package monitor implements the bus-monitor slave application: it accepts
// writes up to a fixed buffer, echoes the previous write back to a reading
// master, classifies each completed transaction and hands it to the
// foreground for tracing.
package monitor

import (
	"sync"

	twi "github.com/busforge/go-twi"
)

// BufferSize bounds a single write phase; the byte that would overflow is
// NACKed.
const BufferSize = 32

// Op classifies a completed transaction.
type Op uint8

const (
	OpPing Op = iota
	OpWrite
	OpRead
	OpWriteRead
)

func (o Op) String() string {
	switch o {
	case OpPing:
		return "ping"
	case OpWrite:
		return "write"
	case OpRead:
		return "read"
	case OpWriteRead:
		return "write-read"
	}
	return "unknown"
}

// Transaction is one completed slave session as seen by the monitor.
type Transaction struct {
	Addr   byte
	Status twi.SlaveStatus // status snapshot at the stop event
	Wrote  []byte          // bytes the bus master wrote to us
	Echoed int             // bytes the bus master read back
	Op     Op
}

// Responder is the interrupt-side glue: its callback runs the echo protocol
// and records completed transactions for the foreground. One Responder
// serves one slave engine.
type Responder struct {
	slave *twi.Slave

	// filter optionally vetoes addresses at match time. Nil accepts all.
	filter func(addr byte) bool

	mu      sync.Mutex
	rx      [BufferSize]byte
	rxn     int
	tx      [BufferSize]byte
	txn     int
	txi     int
	echoed  int
	rdFirst bool
	addr    byte
	pending *Transaction
	onDone  func(Transaction)
}

// NewResponder creates a responder for the given slave engine. Listen must
// still be called to go on the bus.
func NewResponder(s *twi.Slave) *Responder { return &Responder{slave: s} }

// SetAddressFilter installs a veto over matched addresses; returning false
// NACKs the address so the transaction never starts. Useful with an address
// mask, where the hardware match is wider than the served set.
func (r *Responder) SetAddressFilter(fn func(addr byte) bool) {
	r.mu.Lock()
	r.filter = fn
	r.mu.Unlock()
}

// OnComplete installs a callback fired from the event context after every
// completed transaction. Most callers poll Take instead.
func (r *Responder) OnComplete(fn func(Transaction)) {
	r.mu.Lock()
	r.onDone = fn
	r.mu.Unlock()
}

// Listen joins the bus at addr.
func (r *Responder) Listen(addr byte) { r.slave.Listen(addr, r.handle) }

// Off leaves the bus.
func (r *Responder) Off() { r.slave.Off() }

// Take returns the most recently completed transaction and clears it. The
// second result is false when nothing completed since the last Take.
func (r *Responder) Take() (Transaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return Transaction{}, false
	}
	t := *r.pending
	r.pending = nil
	return t, true
}

// handle is the slave callback. It runs at event priority. The completion
// callback fires outside the lock so it may call Take.
func (r *Responder) handle(state twi.SlaveState, status twi.SlaveStatus) bool {
	ok, done, fn := r.handleLocked(state, status)
	if done != nil && fn != nil {
		fn(*done)
	}
	return ok
}

func (r *Responder) handleLocked(state twi.SlaveState, status twi.SlaveStatus) (bool, *Transaction, func(Transaction)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch state {
	case twi.SlaveAddressed:
		r.addr = r.slave.LastAddress()
		if r.filter != nil && !r.filter(r.addr) {
			return false, nil, nil
		}
		if status&twi.SlaveDirRead != 0 {
			// Read phase starting: stage the accumulated write for echo.
			copy(r.tx[:], r.rx[:r.rxn])
			r.txn = r.rxn
			r.txi = 0
			r.rdFirst = true
		} else {
			// Fresh write phase.
			r.rxn = 0
			r.echoed = 0
		}
		return true, nil, nil

	case twi.SlaveMasterRead:
		// The NACK bit is stale on the phase's first event; on any later
		// event it is the bus master ending the read, so the byte loaded
		// last time was the final one and nothing new is staged.
		stale := r.rdFirst
		r.rdFirst = false
		if !stale && status&twi.SlaveRxNack != 0 {
			return false, nil, nil
		}
		b := byte(0)
		if r.txi < r.txn {
			b = r.tx[r.txi]
			r.txi++
		}
		r.slave.WriteByte(b)
		r.echoed++
		return true, nil, nil

	case twi.SlaveMasterWrite:
		b := r.slave.ReadByte()
		if r.rxn < BufferSize {
			r.rx[r.rxn] = b
			r.rxn++
		}
		return r.rxn < BufferSize, nil, nil

	case twi.SlaveStopped:
		return true, r.complete(status), r.onDone

	default: // SlaveError
		r.rxn = 0
		r.echoed = 0
		return false, nil, nil
	}
}

func (r *Responder) complete(status twi.SlaveStatus) *Transaction {
	t := Transaction{
		Addr:   r.addr,
		Status: status,
		Wrote:  append([]byte(nil), r.rx[:r.rxn]...),
		Echoed: r.echoed,
	}
	switch {
	case r.rxn > 0 && r.echoed > 0:
		t.Op = OpWriteRead
	case r.rxn > 0:
		t.Op = OpWrite
	case r.echoed > 0:
		t.Op = OpRead
	default:
		t.Op = OpPing
	}
	r.pending = &t
	r.echoed = 0
	return &t
}
