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

package clock

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestElapsedAcrossWraparound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		start   Ticks
		advance Ticks
	}{
		{name: "mid range", start: 1000, advance: 250},
		{name: "just before wrap", start: math.MaxUint32 - 5, advance: 10},
		{name: "at wrap point", start: math.MaxUint32, advance: 1},
		{name: "zero elapsed", start: 42, advance: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := NewFake(tt.start)
			since := src.Now()
			src.AdvanceTicks(tt.advance)
			assert.Equal(t, tt.advance, Elapsed(src, since))
		})
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	src := NewFake(math.MaxUint32 - 2)
	since := src.Now()

	assert.False(t, Expired(src, since, 5*time.Millisecond))
	src.Advance(4 * time.Millisecond)
	assert.False(t, Expired(src, since, 5*time.Millisecond))
	src.Advance(time.Millisecond)
	assert.True(t, Expired(src, since, 5*time.Millisecond))
}

func TestTicksDurationRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Ticks(1500), FromDuration(1500*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, Ticks(1500).Duration())
	// Sub-millisecond remainders truncate.
	assert.Equal(t, Ticks(2), FromDuration(2999*time.Microsecond))
}

func TestSystemSourceAdvances(t *testing.T) {
	t.Parallel()

	src := NewSystem()
	since := src.Now()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, Elapsed(src, since), Ticks(4))
}
