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

package sim

import (
	"sync"

	twi "github.com/busforge/go-twi"
	"github.com/busforge/go-twi/intr"
)

// Wire is one shared two-wire medium. Units attached to the same wire see
// each other's transactions; units on different wires are fully independent.
//
// All byte-level events are dispatched by a single pump goroutine, which
// serializes handler invocations exactly the way a single status register
// serializes a hardware unit's interrupts. Events across two wires interleave
// arbitrarily, as the hardware's independent units do.
type Wire struct {
	name string
	gate *intr.Gate

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	running bool
	closed  bool
	units   []*Unit

	// Current transaction, touched only by the pump goroutine.
	cur txnState
}

// txnState tracks the in-flight transaction on the wire.
type txnState struct {
	master *Unit
	slave  *Unit
	read   bool
	done   bool // the slave completed its session early with a NACK
	await  int
}

// What the wire is waiting for next.
const (
	awaitNone         = iota
	awaitSlaveAddrAck // slave must ack or nack the address
	awaitSlaveDataAck // slave must ack or nack a received byte
	awaitSlaveData    // slave must supply a byte for the reading master
	awaitMaster       // master owns the next move
)

// NewWire creates a wire and starts its event pump.
func NewWire(name string) *Wire {
	w := &Wire{name: name, gate: intr.NewGate()}
	w.cond = sync.NewCond(&w.mu)
	go w.pump()
	return w
}

// Name returns the wire's name.
func (w *Wire) Name() string { return w.name }

// AddUnit attaches a new two-wire unit to the wire.
func (w *Wire) AddUnit(name string) *Unit {
	u := newUnit(w, name)
	w.mu.Lock()
	w.units = append(w.units, u)
	w.mu.Unlock()
	return u
}

// Close shuts the pump down. Queued events are dropped.
func (w *Wire) Close() {
	w.mu.Lock()
	w.closed = true
	w.queue = nil
	w.cond.Broadcast()
	w.mu.Unlock()
}

// Critical enters a scoped critical section: event delivery pauses, any
// in-flight handler finishes first, and Exit restores the prior
// interrupt-enable state exactly. Must not be called from a handler.
func (w *Wire) Critical() *intr.Critical { return w.gate.Enter() }

// Gate exposes the wire's interrupt gate for collaborators that share it.
func (w *Wire) Gate() *intr.Gate { return w.gate }

// Settle blocks until the event queue has drained and no handler is running.
// Test helper: after Settle, a transaction has progressed as far as it can
// without further external action.
func (w *Wire) Settle() {
	w.mu.Lock()
	for !w.closed && (len(w.queue) > 0 || w.running) {
		w.cond.Wait()
	}
	w.mu.Unlock()
}

func (w *Wire) post(fn func()) {
	w.mu.Lock()
	if !w.closed {
		w.queue = append(w.queue, fn)
		w.cond.Broadcast()
	}
	w.mu.Unlock()
}

func (w *Wire) pump() {
	for {
		w.mu.Lock()
		for !w.closed && len(w.queue) == 0 {
			w.cond.Wait()
		}
		if w.closed {
			w.mu.Unlock()
			return
		}
		fn := w.queue[0]
		w.queue = w.queue[1:]
		w.running = true
		w.mu.Unlock()

		w.gate.Run(fn)

		w.mu.Lock()
		w.running = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// findSlave scans attached units for one whose slave half matches addr.
func (w *Wire) findSlave(addr byte) *Unit {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, u := range w.units {
		if u.slaveMatches(addr) {
			return u
		}
	}
	return nil
}

// masterStart runs an address phase for unit m. Every (repeated) start
// re-broadcasts the address, so a write-to-read flip produces a fresh
// address event at the slave.
func (w *Wire) masterStart(m *Unit, read bool) {
	if w.cur.master != nil && w.cur.master != m {
		// The bus is owned by someone else: arbitration lost.
		m.setMasterStatus(twi.StatusArbLost | twi.BusStateBusy)
		w.fireMaster(m)
		return
	}

	addr := m.masterAddr() >> 1
	sl := w.findSlave(addr)
	if sl == nil {
		// Nobody acknowledged the address. The hardware reports this as a
		// NACKed write event regardless of direction.
		w.cur = txnState{master: m, await: awaitMaster}
		m.setMasterStatus(statusWriteOK | twi.StatusRxNack)
		w.fireMaster(m)
		return
	}

	w.cur = txnState{master: m, slave: sl, read: read, await: awaitSlaveAddrAck}
	if sl.clockHeld() {
		// The slave stretches the clock indefinitely; no event ever
		// reaches the master.
		return
	}
	st := twi.SlaveAddrIntf | twi.SlaveAddrMatch | twi.SlaveClockHold
	if read {
		st |= twi.SlaveDirRead
	}
	sl.setSlaveData(addr<<1 | rwBit(read))
	sl.setSlaveStatus(st | sl.nackLatchBit())
	w.fireSlave(sl)
}

// slaveResponded handles an Ack or NackComplete issued by unit u's slave
// half. Stale responses (after the transaction moved on) are dropped.
func (w *Wire) slaveResponded(u *Unit, ack bool) {
	if w.cur.slave != u {
		return
	}
	switch w.cur.await {
	case awaitSlaveAddrAck:
		if !ack {
			// Address vetoed: the slave has completed its session and the
			// master sees a NACKed address.
			w.cur.slave = nil
			w.cur.await = awaitMaster
			w.cur.master.setMasterStatus(statusWriteOK | twi.StatusRxNack)
			w.fireMaster(w.cur.master)
			return
		}
		if w.cur.read {
			w.requestSlaveByte(u)
			return
		}
		w.cur.await = awaitMaster
		w.cur.master.setMasterStatus(statusWriteOK)
		w.fireMaster(w.cur.master)

	case awaitSlaveDataAck:
		st := statusWriteOK
		if !ack {
			st |= twi.StatusRxNack
			w.cur.done = true // still gets the stop event
		}
		w.cur.await = awaitMaster
		w.cur.master.setMasterStatus(st)
		w.fireMaster(w.cur.master)

	case awaitSlaveData:
		b := byte(0xFF)
		if ack {
			b = u.slaveData()
		} else {
			// The slave completed; a master that keeps clocking reads an
			// undriven data line.
			w.cur.done = true
		}
		w.cur.await = awaitMaster
		w.cur.master.setMasterData(b)
		w.cur.master.setMasterStatus(statusReadOK)
		w.fireMaster(w.cur.master)
	}
}

// requestSlaveByte delivers the next read-phase data event to the slave.
func (w *Wire) requestSlaveByte(sl *Unit) {
	w.cur.await = awaitSlaveData
	sl.setSlaveStatus(twi.SlaveDataIntf | twi.SlaveDirRead | twi.SlaveClockHold | sl.nackLatchBit())
	w.fireSlave(sl)
}

// masterWrote handles a data byte written by the master.
func (w *Wire) masterWrote(m *Unit, b byte) {
	if w.cur.master != m || w.cur.read {
		return
	}
	sl := w.cur.slave
	if sl == nil || w.cur.done {
		// Session already over; the byte goes nowhere and stays NACKed.
		m.setMasterStatus(statusWriteOK | twi.StatusRxNack)
		w.fireMaster(m)
		return
	}
	w.cur.await = awaitSlaveDataAck
	sl.setSlaveData(b)
	sl.setSlaveStatus(twi.SlaveDataIntf | twi.SlaveClockHold | sl.nackLatchBit())
	w.fireSlave(sl)
}

// masterAckRead handles the master acknowledging a received byte and
// clocking the next one.
func (w *Wire) masterAckRead(m *Unit) {
	if w.cur.master != m || !w.cur.read {
		return
	}
	sl := w.cur.slave
	if sl == nil || w.cur.done {
		m.setMasterData(0xFF)
		m.setMasterStatus(statusReadOK)
		w.fireMaster(m)
		return
	}
	sl.setNackLatch(false)
	w.requestSlaveByte(sl)
}

// masterNackStop handles NACK+STOP from the master, including the harmless
// cases where no read was in progress.
func (w *Wire) masterNackStop(m *Unit) {
	if w.cur.master != m {
		return
	}
	sl := w.cur.slave
	read := w.cur.read && !w.cur.done
	w.cur = txnState{}
	if sl == nil {
		return
	}
	w.finishSlaveSession(sl, read)
}

// finishSlaveSession delivers the trailing events a stop condition produces
// at the slave: during a read phase the master's NACK is visible first as a
// data event with the NACK bit set, then the stop event follows. A slave
// that already completed its session with its own NACK only sees the stop.
func (w *Wire) finishSlaveSession(sl *Unit, read bool) {
	if read {
		sl.setNackLatch(true)
		sl.setSlaveStatus(twi.SlaveDataIntf | twi.SlaveDirRead | twi.SlaveClockHold | twi.SlaveRxNack)
		w.fireSlave(sl)
	}
	sl.setSlaveStatus(twi.SlaveAddrIntf | twi.SlaveClockHold)
	w.fireSlave(sl)
}

// masterDisabled force-releases the bus when the master function is turned
// off mid-transaction.
func (w *Wire) masterDisabled(m *Unit) {
	if w.cur.master != m {
		return
	}
	sl := w.cur.slave
	read := w.cur.read && !w.cur.done
	w.cur = txnState{}
	if sl != nil {
		w.finishSlaveSession(sl, read)
	}
}

func (w *Wire) fireMaster(m *Unit) {
	if h := m.masterHandler(); h != nil && m.masterIrqEnabled() {
		h()
	}
}

func (w *Wire) fireSlave(sl *Unit) {
	if h := sl.slaveHandler(); h != nil && sl.slaveIrqEnabled() {
		h()
	}
}

const (
	statusWriteOK = twi.StatusWriteIntf | twi.StatusClockHold | twi.BusStateOwner
	statusReadOK  = twi.StatusReadIntf | twi.StatusClockHold | twi.BusStateOwner
)

func rwBit(read bool) byte {
	if read {
		return 1
	}
	return 0
}
