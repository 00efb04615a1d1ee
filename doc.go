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

/*
Package twi implements an asynchronous, interrupt-driven two-wire (TWI/I2C)
bus engine: a master/slave transaction protocol designed to share the
processor with other timed work and to expose a minimal non-blocking API to a
single-threaded control loop.

Each physical two-wire unit is an independent bus instance pairing a master
engine and a slave engine over a register-level capability (MasterPort,
SlavePort). All transaction progress happens inside byte-event handlers
serialized by the unit; main-loop code only arms transfers and later inspects
the completion flags or buffers.

The master engine supports write, read, write-then-read and
write-then-write transactions, a busy flag, a last-result flag and a bounded
busy-wait. The slave engine decodes each event into a session state and
delegates every ACK/NACK decision to an installed callback.

Basic usage against simulated hardware:

	import (
	    "github.com/busforge/go-twi"
	    "github.com/busforge/go-twi/sim"
	)

	wire := sim.NewWire("wire0")
	defer wire.Close()

	bus, err := twi.NewBus(wire.AddUnit("twi0"))
	if err != nil {
	    return err
	}

	bus.Master().On(0x29)
	bus.Master().Write([]byte{0x07})
	if !bus.Master().Wait(3 * time.Millisecond) {
	    if bus.Master().IsBusy() {
	        // timed out, transaction still running
	    }
	}

Synchronous callers layer a Transactor over the engine; see the eeprom
package for a consumer and the transport/i2c package for a kernel-bus
backed implementation of the same interface.
*/
package twi
