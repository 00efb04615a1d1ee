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

// Bus is one fully independent bus instance: a master engine and a slave
// engine over a single physical two-wire unit. Two units never share state;
// a higher layer may run different roles on two instances concurrently.
//
// Thread safety: a Bus is NOT safe for concurrent main-loop use. All
// per-instance transaction state is mutated exclusively inside the unit's
// event context; main-loop code only arms transfers while not busy and reads
// the flags afterwards.
type Bus struct {
	unit   Unit
	master *Master
	slave  *Slave
}

// NewBus wires a master and slave engine onto the unit and applies options.
// Both engines stay disabled until Master().On or Slave().Listen is called.
func NewBus(unit Unit, opts ...Option) (*Bus, error) {
	b := &Bus{
		unit:   unit,
		master: NewMaster(unit.Master()),
		slave:  NewSlave(unit.Slave()),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Master returns the instance's master engine.
func (b *Bus) Master() *Master { return b.master }

// Slave returns the instance's slave engine.
func (b *Bus) Slave() *Slave { return b.slave }

// Unit returns the underlying hardware unit.
func (b *Bus) Unit() Unit { return b.unit }

// Off disables both engines, forcing NACK+STOP semantics on anything in
// flight. Meant for shutdown and safety paths only.
func (b *Bus) Off() {
	b.master.Off()
	b.slave.Off()
}

// UnitNamer is optionally implemented by units that can identify themselves,
// used to label errors from the synchronous wrappers.
type UnitNamer interface {
	Name() string
}

func unitName(u Unit) string {
	if n, ok := u.(UnitNamer); ok {
		return n.Name()
	}
	return ""
}
