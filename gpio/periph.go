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

package gpio

import (
	"fmt"
	"sync"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var periphInit sync.Once

// PeriphPin drives one host pin through periph.io.
type PeriphPin struct {
	pin pgpio.PinIO

	mu   sync.Mutex
	cfg  Config
	last Level
}

// OpenPeriph resolves a host pin by name ("GPIO17", "PA2", board aliases)
// and wraps it as a Pin. The host driver set is initialized on first use.
func OpenPeriph(name string) (*PeriphPin, error) {
	var initErr error
	periphInit.Do(func() { _, initErr = host.Init() })
	if initErr != nil {
		return nil, fmt.Errorf("gpio: host init: %w", initErr)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: no pin named %q", name)
	}
	return &PeriphPin{pin: p}, nil
}

// Name returns the underlying host pin name.
func (p *PeriphPin) Name() string { return p.pin.Name() }

// Configure implements Pin.
func (p *PeriphPin) Configure(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cfg = cfg
	if cfg.Direction == Output {
		p.last = cfg.Initial
		return p.pin.Out(pgpio.Level(cfg.Initial))
	}
	pull := pgpio.Float
	if cfg.Pull == PullUp {
		pull = pgpio.PullUp
	}
	return p.pin.In(pull, pgpio.NoEdge)
}

// Set implements Pin.
func (p *PeriphPin) Set(l Level) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.Direction != Output {
		return fmt.Errorf("gpio: pin %s is not an output", p.pin.Name())
	}
	p.last = l
	return p.pin.Out(pgpio.Level(l))
}

// Get implements Pin. Outputs report the last driven level; inputs read the
// pad.
func (p *PeriphPin) Get() (Level, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.Direction == Output {
		return p.last, nil
	}
	return Level(p.pin.Read()), nil
}

// Toggle implements Pin.
func (p *PeriphPin) Toggle() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.Direction != Output {
		return fmt.Errorf("gpio: pin %s is not an output", p.pin.Name())
	}
	p.last = !p.last
	return p.pin.Out(pgpio.Level(p.last))
}

var _ Pin = (*PeriphPin)(nil)
