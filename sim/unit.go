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
)

// Unit is one simulated two-wire unit: a master half and a slave half
// sharing a wire. It implements twi.Unit.
//
// Register accesses are individually locked; transaction ordering comes from
// the wire's event pump, exactly as hardware register reads are individually
// atomic while transaction ordering comes from the bus itself.
type Unit struct {
	wire *Wire
	name string

	mu sync.Mutex

	pins twi.PinRouting
	baud uint32

	// Master half.
	mEnabled bool
	mIrq     bool
	mHandler func()
	mAddr    byte // programmed address, shifted, low bit = direction
	mData    byte
	mStatus  twi.Status
	mPending bool // start armed before interrupts were enabled
	mPendRd  bool

	// Slave half.
	sEnabled bool
	sIrq     bool
	sHandler func()
	sAddr    byte // 7-bit own address
	sGencall bool
	sMask    byte // secondary match register, low bit selects the mode
	sData    byte
	sStatus  twi.SlaveStatus
	sNack    bool // last byte the bus master read was NACKed
	sHold    bool // stretch the clock forever, never delivering events
}

func newUnit(w *Wire, name string) *Unit {
	return &Unit{wire: w, name: name}
}

// Name identifies the unit in errors and logs.
func (u *Unit) Name() string { return u.name }

// Master returns the unit's master-half register interface.
func (u *Unit) Master() twi.MasterPort { return (*masterPort)(u) }

// Slave returns the unit's slave-half register interface.
func (u *Unit) Slave() twi.SlavePort { return (*slavePort)(u) }

// UsePins records the pin routing. The simulation does not model pads, but
// the selection is observable for tests.
func (u *Unit) UsePins(r twi.PinRouting) {
	u.mu.Lock()
	u.pins = r
	u.mu.Unlock()
}

// Pins reports the routing selected with UsePins.
func (u *Unit) Pins() twi.PinRouting {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pins
}

// BaudRate reports the last programmed bus clock.
func (u *Unit) BaudRate() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.baud
}

// SetClockHold makes the slave half stretch the clock indefinitely. While
// held, an addressing master never receives a byte event and simply stays
// busy until it gives up.
func (u *Unit) SetClockHold(hold bool) {
	u.mu.Lock()
	u.sHold = hold
	u.mu.Unlock()
}

// InjectBusError makes the master half observe an illegal bus condition on
// its next event.
func (u *Unit) InjectBusError() {
	u.wire.post(func() {
		u.setMasterStatus(twi.StatusBusErr | twi.BusStateBusy)
		u.wire.fireMaster(u)
	})
}

// InjectArbitrationLost makes the master half observe a lost arbitration.
func (u *Unit) InjectArbitrationLost() {
	u.wire.post(func() {
		u.setMasterStatus(twi.StatusArbLost | twi.BusStateBusy)
		u.wire.fireMaster(u)
	})
}

// InjectSlaveBusError makes the slave half observe an illegal bus condition.
func (u *Unit) InjectSlaveBusError() {
	u.wire.post(func() {
		u.setSlaveStatus(twi.SlaveBusErr | twi.SlaveClockHold)
		u.wire.fireSlave(u)
	})
}

// slaveMatches reports whether the enabled slave half answers addr.
func (u *Unit) slaveMatches(addr byte) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.sEnabled {
		return false
	}
	if u.sGencall && addr == 0 {
		return true
	}
	if u.sMask&0x01 != 0 {
		// Second exact address.
		if addr == u.sMask>>1 {
			return true
		}
		return addr == u.sAddr
	}
	// Address bits covered by the mask are ignored.
	mask := u.sMask >> 1
	return addr&^mask == u.sAddr&^mask
}

func (u *Unit) clockHeld() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sHold
}

func (u *Unit) masterAddr() byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.mAddr
}

func (u *Unit) masterHandler() func() {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.mHandler
}

func (u *Unit) masterIrqEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.mIrq
}

func (u *Unit) slaveHandler() func() {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sHandler
}

func (u *Unit) slaveIrqEnabled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sIrq && u.sEnabled
}

func (u *Unit) setMasterStatus(s twi.Status) {
	u.mu.Lock()
	u.mStatus = s
	u.mu.Unlock()
}

func (u *Unit) setMasterData(b byte) {
	u.mu.Lock()
	u.mData = b
	u.mu.Unlock()
}

func (u *Unit) setSlaveStatus(s twi.SlaveStatus) {
	u.mu.Lock()
	u.sStatus = s
	u.mu.Unlock()
}

func (u *Unit) setSlaveData(b byte) {
	u.mu.Lock()
	u.sData = b
	u.mu.Unlock()
}

func (u *Unit) slaveData() byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.sData
}

func (u *Unit) nackLatchBit() twi.SlaveStatus {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sNack {
		return twi.SlaveRxNack
	}
	return 0
}

func (u *Unit) setNackLatch(v bool) {
	u.mu.Lock()
	u.sNack = v
	u.mu.Unlock()
}

// masterPort adapts a Unit to twi.MasterPort.
type masterPort Unit

func (p *masterPort) unit() *Unit { return (*Unit)(p) }

func (p *masterPort) Enable() {
	p.mu.Lock()
	p.mEnabled = true
	p.mu.Unlock()
}

func (p *masterPort) Disable() {
	p.mu.Lock()
	p.mEnabled = false
	p.mIrq = false
	p.mPending = false
	p.mu.Unlock()
	u := p.unit()
	u.wire.post(func() { u.wire.masterDisabled(u) })
}

func (p *masterPort) SetAddress(addr byte) {
	p.mu.Lock()
	p.mAddr = addr << 1
	p.mu.Unlock()
}

func (p *masterPort) StartWrite() {
	p.mu.Lock()
	p.mAddr &^= 0x01
	p.mu.Unlock()
	p.start(false)
}

func (p *masterPort) StartRead() {
	p.mu.Lock()
	p.mAddr |= 0x01
	p.mu.Unlock()
	p.start(true)
}

// start issues the (repeated) start condition. A start armed before the
// interrupt enable lands is deferred until EnableInterrupts, so the caller's
// arm-then-enable sequence never loses an event.
func (p *masterPort) start(read bool) {
	p.mu.Lock()
	if !p.mEnabled {
		p.mu.Unlock()
		return
	}
	if !p.mIrq {
		p.mPending = true
		p.mPendRd = read
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	u := p.unit()
	u.wire.post(func() { u.wire.masterStart(u, read) })
}

func (p *masterPort) AckRead() {
	u := p.unit()
	u.wire.post(func() { u.wire.masterAckRead(u) })
}

func (p *masterPort) NackStop() {
	u := p.unit()
	u.wire.post(func() { u.wire.masterNackStop(u) })
}

func (p *masterPort) WriteData(b byte) {
	u := p.unit()
	u.wire.post(func() { u.wire.masterWrote(u, b) })
}

func (p *masterPort) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mData
}

func (p *masterPort) Status() twi.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mStatus
}

func (p *masterPort) ClearFlags() {
	p.mu.Lock()
	p.mStatus = twi.BusStateIdle
	p.mu.Unlock()
}

func (p *masterPort) SetHandler(fn func()) {
	p.mu.Lock()
	p.mHandler = fn
	p.mu.Unlock()
}

func (p *masterPort) EnableInterrupts() {
	p.mu.Lock()
	p.mIrq = true
	pending := p.mPending
	read := p.mPendRd
	p.mPending = false
	p.mu.Unlock()
	if pending {
		u := p.unit()
		u.wire.post(func() { u.wire.masterStart(u, read) })
	}
}

func (p *masterPort) DisableInterrupts() {
	p.mu.Lock()
	p.mIrq = false
	p.mPending = false
	p.mu.Unlock()
}

func (p *masterPort) InterruptsEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mIrq
}

func (p *masterPort) SetBaudRate(hz uint32) {
	p.mu.Lock()
	p.baud = hz
	p.mu.Unlock()
}

// slavePort adapts a Unit to twi.SlavePort.
type slavePort Unit

func (p *slavePort) unit() *Unit { return (*Unit)(p) }

func (p *slavePort) Enable() {
	p.mu.Lock()
	p.sEnabled = true
	p.mu.Unlock()
}

func (p *slavePort) Disable() {
	p.mu.Lock()
	p.sEnabled = false
	p.sIrq = false
	p.mu.Unlock()
}

func (p *slavePort) SetAddress(addr byte, gencall bool) {
	p.mu.Lock()
	p.sAddr = addr
	p.sGencall = gencall
	p.mu.Unlock()
}

func (p *slavePort) SetSecondAddress(addr byte) {
	p.mu.Lock()
	p.sMask = addr<<1 | 0x01
	p.mu.Unlock()
}

func (p *slavePort) SetAddressMask(mask byte) {
	p.mu.Lock()
	p.sMask = mask << 1
	p.mu.Unlock()
}

func (p *slavePort) Ack() {
	u := p.unit()
	u.wire.post(func() { u.wire.slaveResponded(u, true) })
}

func (p *slavePort) NackComplete() {
	u := p.unit()
	u.wire.post(func() { u.wire.slaveResponded(u, false) })
}

func (p *slavePort) WriteData(b byte) {
	p.mu.Lock()
	p.sData = b
	p.mu.Unlock()
}

func (p *slavePort) ReadData() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sData
}

func (p *slavePort) Status() twi.SlaveStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sStatus
}

func (p *slavePort) ClearFlags() {
	p.mu.Lock()
	p.sStatus = 0
	p.mu.Unlock()
}

func (p *slavePort) SetHandler(fn func()) {
	p.mu.Lock()
	p.sHandler = fn
	p.mu.Unlock()
}

func (p *slavePort) EnableInterrupts() {
	p.mu.Lock()
	p.sIrq = true
	p.mu.Unlock()
}

func (p *slavePort) DisableInterrupts() {
	p.mu.Lock()
	p.sIrq = false
	p.mu.Unlock()
}

var (
	_ twi.Unit       = (*Unit)(nil)
	_ twi.MasterPort = (*masterPort)(nil)
	_ twi.SlavePort  = (*slavePort)(nil)
)
