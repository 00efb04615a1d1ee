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

package intr

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateStartsEnabled(t *testing.T) {
	t.Parallel()

	g := NewGate()
	assert.True(t, g.Enabled())

	ran := false
	g.Run(func() { ran = true })
	assert.True(t, ran)
}

func TestCriticalBlocksHandlers(t *testing.T) {
	t.Parallel()

	g := NewGate()
	c := g.Enter()
	assert.False(t, g.Enabled())

	done := make(chan struct{})
	go func() {
		g.Run(func() {})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("handler ran inside a critical section")
	case <-time.After(20 * time.Millisecond):
	}

	c.Exit()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("handler did not resume after Exit")
	}
	assert.True(t, g.Enabled())
}

func TestEnterWaitsForInFlightHandler(t *testing.T) {
	t.Parallel()

	g := NewGate()
	inHandler := make(chan struct{})
	release := make(chan struct{})
	go g.Run(func() {
		close(inHandler)
		<-release
	})
	<-inHandler

	entered := make(chan struct{})
	go func() {
		c := g.Enter()
		defer c.Exit()
		close(entered)
	}()

	select {
	case <-entered:
		t.Fatal("Enter returned while a handler was still running")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("Enter did not complete after the handler finished")
	}
}

// Nested sections must restore the state in effect at their own Enter, not
// unconditionally re-enable.
func TestNestedCriticalRestoresPriorState(t *testing.T) {
	t.Parallel()

	g := NewGate()
	outer := g.Enter()
	inner := g.Enter()

	inner.Exit()
	assert.False(t, g.Enabled(), "inner Exit must not re-enable inside the outer section")

	outer.Exit()
	assert.True(t, g.Enabled())
}

func TestExitIsIdempotent(t *testing.T) {
	t.Parallel()

	g := NewGate()
	outer := g.Enter()
	inner := g.Enter()
	inner.Exit()
	inner.Exit() // second call must not resurrect the outer section's state
	assert.False(t, g.Enabled())
	outer.Exit()
	assert.True(t, g.Enabled())
}

func TestAtomicallyExcludesHandlers(t *testing.T) {
	t.Parallel()

	g := NewGate()
	var mu sync.Mutex
	counter := 0

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			g.Run(func() {
				mu.Lock()
				counter++
				mu.Unlock()
			})
		}
	}()

	for i := 0; i < 100; i++ {
		g.Atomically(func() {
			mu.Lock()
			before := counter
			mu.Unlock()
			time.Sleep(50 * time.Microsecond)
			mu.Lock()
			after := counter
			mu.Unlock()
			require.Equal(t, before, after, "handler fired inside a critical section")
		})
	}
	close(stop)
	wg.Wait()
}
