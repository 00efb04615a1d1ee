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

// Package i2c adapts a host kernel I2C bus to the twi.Transactor interface,
// so drivers written against the engine (EEPROM, probes, demos) run
// unchanged against /dev/i2c-* style adapters.
package i2c

import (
	"fmt"
	"sync"

	twi "github.com/busforge/go-twi"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// DefaultClock is the standard-mode bus clock.
const DefaultClock = 100 * physic.KiloHertz

var hostInit sync.Once

// HostBus is one open kernel I2C adapter implementing twi.Transactor.
type HostBus struct {
	bus  i2c.BusCloser
	name string

	mu sync.Mutex
}

// Open opens a host bus by periph name ("1", "/dev/i2c-1", board aliases).
// An empty name selects the first available bus.
func Open(name string) (*HostBus, error) {
	var initErr error
	hostInit.Do(func() { _, initErr = host.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("i2c: host init: %w", initErr)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c: open bus %q: %w", name, err)
	}
	_ = bus.SetSpeed(DefaultClock) // keep the adapter's default on failure
	return &HostBus{bus: bus, name: name}, nil
}

// Name returns the bus name the adapter was opened with.
func (h *HostBus) Name() string { return h.name }

// Transact implements twi.Transactor. The kernel issues the write, a
// repeated start, then the read, matching the engine's WriteRead shape.
func (h *HostBus) Transact(addr byte, w, r []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.bus.Tx(uint16(addr), w, r); err != nil {
		return twi.NewBusError("transact", h.name, fmt.Errorf("bus tx: %w", err), twi.ErrorTypeTransient)
	}
	return nil
}

// TransactSplit implements twi.Transactor. The two buffers form one
// continuous write phase on the wire, so they are joined before handoff to
// the kernel.
func (h *HostBus) TransactSplit(addr byte, w, w2 []byte) error {
	joined := make([]byte, 0, len(w)+len(w2))
	joined = append(joined, w...)
	joined = append(joined, w2...)
	return h.Transact(addr, joined, nil)
}

// Ping addresses the target with a zero-length write.
func (h *HostBus) Ping(addr byte) error {
	return h.Transact(addr, nil, nil)
}

// Close releases the adapter.
func (h *HostBus) Close() error {
	if err := h.bus.Close(); err != nil {
		return fmt.Errorf("i2c: close bus %q: %w", h.name, err)
	}
	return nil
}

var _ twi.Transactor = (*HostBus)(nil)
