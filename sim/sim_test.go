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

package sim_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twi "github.com/busforge/go-twi"
	"github.com/busforge/go-twi/sim"
)

func TestUnitIdentity(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	t.Cleanup(wire.Close)

	u := wire.AddUnit("twi0")
	assert.Equal(t, "twi0", u.Name())
	assert.Equal(t, "wire0", wire.Name())

	u.UsePins(twi.AlternatePins)
	assert.Equal(t, twi.AlternatePins, u.Pins())
}

// An address nobody answers must surface as a NACKed write event with the
// bus-owner state, the exact raw pattern the engine maps to a failure.
func TestUnansweredAddressStatusPattern(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	t.Cleanup(wire.Close)
	u := wire.AddUnit("twi0")
	mp := u.Master()

	var got []twi.Status
	mp.SetHandler(func() { got = append(got, mp.Status()) })
	mp.SetAddress(0x41)
	mp.ClearFlags()
	mp.Enable()
	mp.StartWrite()
	mp.EnableInterrupts()
	wire.Settle()

	require.Len(t, got, 1)
	want := twi.StatusWriteIntf | twi.StatusClockHold | twi.BusStateOwner | twi.StatusRxNack
	assert.Equal(t, want, got[0])
}

// A start armed before the interrupt enable lands must not lose its event.
func TestStartBeforeInterruptEnableIsDeferred(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	t.Cleanup(wire.Close)
	u := wire.AddUnit("twi0")
	mp := u.Master()

	events := 0
	mp.SetHandler(func() { events++ })
	mp.SetAddress(0x41)
	mp.Enable()
	mp.StartWrite()
	wire.Settle()
	assert.Zero(t, events, "no event may fire while interrupts are off")

	mp.EnableInterrupts()
	wire.Settle()
	assert.Equal(t, 1, events)
}

func TestCriticalPausesEventDelivery(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	t.Cleanup(wire.Close)

	bus, err := twi.NewBus(wire.AddUnit("twi0"))
	require.NoError(t, err)

	c := wire.Critical()
	m := bus.Master()
	m.On(0x41)
	m.Write([]byte{0x01})
	assert.True(t, m.IsBusy())

	// Nothing may progress while the section is held.
	time.Sleep(5 * time.Millisecond)
	assert.True(t, m.IsBusy())

	c.Exit()
	assert.False(t, m.Wait(5*time.Millisecond), "no device, so the transaction fails")
	assert.False(t, m.IsBusy())
}

func TestInjectSlaveBusErrorAbortsSession(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	t.Cleanup(wire.Close)
	u := wire.AddUnit("twi0")

	s := twi.NewSlave(u.Slave())
	var states []twi.SlaveState
	s.Listen(0x2A, func(state twi.SlaveState, _ twi.SlaveStatus) bool {
		states = append(states, state)
		return true
	})
	t.Cleanup(s.Off)

	u.InjectSlaveBusError()
	wire.Settle()

	require.Len(t, states, 1)
	assert.Equal(t, twi.SlaveError, states[0])
}

func TestCloseDropsQueuedEvents(t *testing.T) {
	t.Parallel()

	wire := sim.NewWire("wire0")
	u := wire.AddUnit("twi0")
	mp := u.Master()
	mp.SetHandler(func() {})
	wire.Close()

	// Posting after close must neither block nor panic.
	mp.Enable()
	mp.StartWrite()
	mp.EnableInterrupts()
	wire.Settle()
}
