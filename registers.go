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

// Status is the raw master status byte of a two-wire unit. The bit layout
// follows the AVR TWI master status register:
// RIF | WIF | CLKHOLD | RXACK | ARBLOST | BUSERR | BUSSTATE[1:0]
type Status uint8

// Master status bits.
const (
	StatusReadIntf  Status = 0x80 // read interrupt flag: a received byte is ready
	StatusWriteIntf Status = 0x40 // write interrupt flag: address or data byte was sent
	StatusClockHold Status = 0x20 // the unit is stretching the clock
	StatusRxNack    Status = 0x10 // the last byte sent was NACKed
	StatusArbLost   Status = 0x08 // lost bus arbitration to another master
	StatusBusErr    Status = 0x04 // illegal bus condition
)

// Bus state field (low two bits of Status).
const (
	BusStateUnknown Status = 0x00
	BusStateIdle    Status = 0x01
	BusStateOwner   Status = 0x02
	BusStateBusy    Status = 0x03

	busStateMask Status = 0x03
)

const (
	statusAnyError = StatusArbLost | StatusBusErr

	// The two status patterns a healthy transaction produces, one per byte.
	statusReadReady  = StatusReadIntf | StatusClockHold | BusStateOwner
	statusWriteReady = StatusWriteIntf | StatusClockHold | BusStateOwner
)

// BusState extracts the bus state field.
func (s Status) BusState() Status { return s & busStateMask }

// SlaveStatus is the raw slave status byte of a two-wire unit. The bit layout
// follows the AVR TWI slave status register:
// DIF | APIF | CLKHOLD | RXACK | COLL | BUSERR | DIR | AP
type SlaveStatus uint8

// Slave status bits.
const (
	SlaveDataIntf  SlaveStatus = 0x80 // data interrupt flag
	SlaveAddrIntf  SlaveStatus = 0x40 // address or stop interrupt flag
	SlaveClockHold SlaveStatus = 0x20
	SlaveRxNack    SlaveStatus = 0x10 // the bus master NACKed the last byte it read
	SlaveCollision SlaveStatus = 0x08
	SlaveBusErr    SlaveStatus = 0x04
	SlaveDirRead   SlaveStatus = 0x02 // 1 = bus master is reading from us
	SlaveAddrMatch SlaveStatus = 0x01 // with SlaveAddrIntf: 1 = address, 0 = stop
)

const slaveErrMask = SlaveCollision | SlaveBusErr

func (s SlaveStatus) isDataRead() bool  { return s&(SlaveDataIntf|SlaveDirRead) == SlaveDataIntf|SlaveDirRead }
func (s SlaveStatus) isDataWrite() bool { return s&(SlaveDataIntf|SlaveDirRead) == SlaveDataIntf }
func (s SlaveStatus) isAddress() bool {
	return s&(SlaveAddrIntf|SlaveAddrMatch) == SlaveAddrIntf|SlaveAddrMatch
}
func (s SlaveStatus) isStop() bool  { return s&(SlaveAddrIntf|SlaveAddrMatch) == SlaveAddrIntf }
func (s SlaveStatus) isNack() bool  { return s&SlaveRxNack != 0 }
func (s SlaveStatus) isError() bool { return s&slaveErrMask != 0 }

// MasterPort is the register-level capability of one physical unit's master
// half. Implementations are pure side-effecting primitives over hardware (or
// simulated hardware) state; no call blocks and none reports errors beyond
// what the status byte carries.
type MasterPort interface {
	// Enable turns the master function on. Disable turns it off, which
	// forcibly releases the bus.
	Enable()
	Disable()

	// SetAddress programs the 7-bit target address without producing a
	// start condition.
	SetAddress(addr byte)

	// StartWrite issues a (repeated) start in the write direction, reusing
	// the programmed address. StartRead selects the ACK action and flips
	// the direction to read, again reusing the programmed address.
	StartWrite()
	StartRead()

	// AckRead acknowledges the received byte and continues the read phase.
	AckRead()

	// NackStop responds NACK and issues a stop condition. Harmless when not
	// mid-read.
	NackStop()

	WriteData(b byte)
	ReadData() byte

	Status() Status

	// ClearFlags clears all status flags and forces the bus state to idle.
	ClearFlags()

	// SetHandler installs the byte-event handler. The handler is invoked
	// once per byte-level bus event while interrupts are enabled, always
	// from the unit's event context, never concurrently with itself.
	SetHandler(fn func())
	EnableInterrupts()
	DisableInterrupts()
	InterruptsEnabled() bool

	// SetBaudRate selects the bus clock. Purely advisory for simulated
	// hardware.
	SetBaudRate(hz uint32)
}

// SlavePort is the register-level capability of one physical unit's slave
// half.
type SlavePort interface {
	Enable()
	Disable()

	// SetAddress programs the own address. With gencall set the unit also
	// answers the general-call (broadcast) address.
	SetAddress(addr byte, gencall bool)

	// SetSecondAddress configures an additional exact-match address.
	// SetAddressMask instead configures a bit mask: address bits covered by
	// the mask are ignored during matching. The two are mutually exclusive;
	// the most recent call wins.
	SetSecondAddress(addr byte)
	SetAddressMask(mask byte)

	// Ack responds ACK and keeps the session alive. NackComplete responds
	// NACK and completes the session.
	Ack()
	NackComplete()

	WriteData(b byte)
	ReadData() byte

	Status() SlaveStatus
	ClearFlags()

	SetHandler(fn func())
	EnableInterrupts()
	DisableInterrupts()
}

// PinRouting selects which physical pin pair a unit drives.
type PinRouting uint8

const (
	// DefaultPins routes the unit to its default pin pair.
	DefaultPins PinRouting = iota
	// AlternatePins routes the unit to its alternate pin pair.
	AlternatePins
)

// Unit bundles both halves of one physical two-wire unit. Units are fully
// independent; no state is shared between instances.
type Unit interface {
	Master() MasterPort
	Slave() SlavePort

	// UsePins selects the pin routing for the unit. Must be called before
	// either half is enabled.
	UsePins(r PinRouting)
}
