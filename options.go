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

// Option is a functional option for configuring a Bus.
type Option func(*Bus) error

// WithAlternatePins routes the unit to its alternate pin pair. Must be
// applied before either engine is enabled, which NewBus guarantees.
func WithAlternatePins() Option {
	return func(b *Bus) error {
		b.unit.UsePins(AlternatePins)
		return nil
	}
}

// WithBaudRate selects the bus clock frequency for the master function.
func WithBaudRate(hz uint32) Option {
	return func(b *Bus) error {
		b.unit.Master().SetBaudRate(hz)
		return nil
	}
}

// WithMasterCallback installs the master completion callback. Optional;
// synchronous callers use Master.Wait instead.
func WithMasterCallback(fn func()) Option {
	return func(b *Bus) error {
		b.master.SetCallback(fn)
		return nil
	}
}

// WithSecondAddress configures an additional exact-match slave address.
func WithSecondAddress(addr byte) Option {
	return func(b *Bus) error {
		b.slave.SetSecondAddress(addr)
		return nil
	}
}

// WithAddressMask configures a slave address bit mask; masked bits are
// ignored when matching inbound addressing.
func WithAddressMask(mask byte) Option {
	return func(b *Bus) error {
		b.slave.SetAddressMask(mask)
		return nil
	}
}
