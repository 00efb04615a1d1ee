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

// Package gpio abstracts the digital pins the bus firmware drives alongside
// its two-wire traffic: status LEDs, shutdown-request inputs, power control.
// The Mem driver backs tests and the simulator; the periph adapter drives
// real host pins.
package gpio

import (
	"fmt"
	"sync"
)

// Level is a digital pin level.
type Level bool

// Pin levels.
const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l {
		return "high"
	}
	return "low"
}

// Direction configures a pin as input or output.
type Direction uint8

const (
	Input Direction = iota
	Output
)

// Pull selects the input pull resistor.
type Pull uint8

const (
	PullNone Pull = iota
	PullUp
)

// Config is a pin configuration.
type Config struct {
	Direction Direction
	Pull      Pull
	// Initial is driven when configuring an output.
	Initial Level
}

// Pin is one digital pin.
type Pin interface {
	Name() string
	Configure(cfg Config) error
	Set(l Level) error
	Get() (Level, error)
	Toggle() error
}

// Mem is an in-memory Pin for tests and simulation. The zero value is an
// unconfigured input reading low.
type Mem struct {
	name string

	mu      sync.Mutex
	cfg     Config
	level   Level
	writes  int
	watcher func(Level)
}

// NewMem creates a named in-memory pin.
func NewMem(name string) *Mem { return &Mem{name: name} }

// Name returns the pin name.
func (m *Mem) Name() string { return m.name }

// Configure implements Pin.
func (m *Mem) Configure(cfg Config) error {
	m.mu.Lock()
	m.cfg = cfg
	if cfg.Direction == Output {
		m.level = cfg.Initial
	} else if cfg.Pull == PullUp {
		m.level = High
	}
	m.mu.Unlock()
	return nil
}

// Set implements Pin. Setting an input-configured pin is an error, matching
// the way the console command layer reports misuse.
func (m *Mem) Set(l Level) error {
	m.mu.Lock()
	if m.cfg.Direction != Output {
		m.mu.Unlock()
		return fmt.Errorf("gpio: pin %s is not an output", m.name)
	}
	m.level = l
	m.writes++
	w := m.watcher
	m.mu.Unlock()
	if w != nil {
		w(l)
	}
	return nil
}

// Get implements Pin.
func (m *Mem) Get() (Level, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level, nil
}

// Toggle implements Pin.
func (m *Mem) Toggle() error {
	m.mu.Lock()
	if m.cfg.Direction != Output {
		m.mu.Unlock()
		return fmt.Errorf("gpio: pin %s is not an output", m.name)
	}
	m.level = !m.level
	m.writes++
	l := m.level
	w := m.watcher
	m.mu.Unlock()
	if w != nil {
		w(l)
	}
	return nil
}

// Drive forces the observed level of an input pin, simulating the external
// world.
func (m *Mem) Drive(l Level) {
	m.mu.Lock()
	m.level = l
	m.mu.Unlock()
}

// Writes reports how many times the pin has been driven. Test helper.
func (m *Mem) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Watch installs a callback fired after every Set or Toggle. A nil callback
// removes it.
func (m *Mem) Watch(fn func(Level)) {
	m.mu.Lock()
	m.watcher = fn
	m.mu.Unlock()
}

var _ Pin = (*Mem)(nil)
