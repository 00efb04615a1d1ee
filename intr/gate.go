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

// Package intr models a global interrupt-enable flag with scoped critical
// sections. Event sources run their handlers through a Gate; main-loop code
// that needs a multi-byte snapshot atomic with respect to those handlers
// enters a Critical, which records the prior enable state and restores it
// exactly on exit, nested or not.
package intr

import "sync"

// Gate is an interrupt-enable flag shared between one or more event
// dispatchers and the main loop. The zero value is not usable; call NewGate.
type Gate struct {
	mu      sync.Mutex
	cond    *sync.Cond
	enabled bool
	active  int
}

// NewGate returns an enabled gate.
func NewGate() *Gate {
	g := &Gate{enabled: true}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Enabled reports whether event delivery is currently enabled.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Run executes one handler invocation. It blocks while the gate is disabled
// and excludes any Critical for the duration of fn. Handlers must never
// enter a Critical on their own gate.
func (g *Gate) Run(fn func()) {
	g.mu.Lock()
	for !g.enabled {
		g.cond.Wait()
	}
	g.active++
	g.mu.Unlock()

	fn()

	g.mu.Lock()
	g.active--
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Critical is a scoped critical section. Exit restores the enable state that
// was in effect at Enter, so nested sections compose correctly.
type Critical struct {
	gate     *Gate
	prev     bool
	released bool
}

// Enter disables event delivery and waits for any in-flight handler to
// finish, then returns a Critical recording the prior enable state.
func (g *Gate) Enter() *Critical {
	g.mu.Lock()
	prev := g.enabled
	g.enabled = false
	for g.active > 0 {
		g.cond.Wait()
	}
	g.mu.Unlock()
	return &Critical{gate: g, prev: prev}
}

// Exit restores the prior enable state exactly. Safe to call more than once;
// only the first call has effect.
func (c *Critical) Exit() {
	if c.released {
		return
	}
	c.released = true
	c.gate.mu.Lock()
	c.gate.enabled = c.prev
	c.gate.cond.Broadcast()
	c.gate.mu.Unlock()
}

// Atomically runs fn inside a critical section on g.
func (g *Gate) Atomically(fn func()) {
	c := g.Enter()
	defer c.Exit()
	fn()
}
