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

// Package clock provides millisecond tick counting with the wraparound
// semantics of a free-running 32-bit hardware counter. Elapsed-time math
// stays correct across the wrap, so schedulers built on it never need a
// special case.
package clock

import (
	"sync/atomic"
	"time"
)

// Ticks is a free-running millisecond counter value. It wraps to zero after
// about 49.7 days.
type Ticks uint32

// FromDuration converts a duration to ticks, truncating below a millisecond.
func FromDuration(d time.Duration) Ticks { return Ticks(d.Milliseconds()) }

// Duration converts a tick count to a duration.
func (t Ticks) Duration() time.Duration { return time.Duration(t) * time.Millisecond }

// Source yields the current tick count.
type Source interface {
	Now() Ticks
}

// Elapsed returns the ticks passed since a previously sampled value.
// Unsigned subtraction keeps the result correct across counter wraparound.
func Elapsed(src Source, since Ticks) Ticks { return src.Now() - since }

// Expired reports whether at least d has passed since the sample was taken.
func Expired(src Source, since Ticks, d time.Duration) bool {
	return Elapsed(src, since) >= FromDuration(d)
}

// System is a Source backed by the wall clock, counting from its creation.
type System struct {
	start time.Time
}

// NewSystem creates a system tick source starting at zero.
func NewSystem() *System { return &System{start: time.Now()} }

// Now implements Source.
func (s *System) Now() Ticks { return Ticks(time.Since(s.start).Milliseconds()) }

// Fake is a manually advanced Source for tests. Safe for concurrent use.
type Fake struct {
	now atomic.Uint32
}

// NewFake creates a fake source positioned at start. Starting close to the
// wrap point is the usual way to exercise wraparound paths.
func NewFake(start Ticks) *Fake {
	f := &Fake{}
	f.now.Store(uint32(start))
	return f
}

// Now implements Source.
func (f *Fake) Now() Ticks { return Ticks(f.now.Load()) }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.now.Add(uint32(FromDuration(d))) }

// AdvanceTicks moves the fake clock forward by n ticks.
func (f *Fake) AdvanceTicks(n Ticks) { f.now.Add(uint32(n)) }
