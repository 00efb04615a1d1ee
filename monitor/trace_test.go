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

package monitor

import (
	"bufio"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twi "github.com/busforge/go-twi"
	"github.com/busforge/go-twi/uart"
)

func traceLine(t *testing.T, txn Transaction) string {
	t.Helper()
	near, far := uart.NewMemPair()
	t.Cleanup(func() { _ = near.Close() })

	lines := make(chan string, 1)
	go func() {
		r := bufio.NewReader(far)
		line, err := r.ReadString('\n')
		if err == nil {
			lines <- line
		}
	}()

	tr := NewTrace(near)
	require.True(t, tr.Load(txn))
	require.NoError(t, tr.Drain())
	assert.False(t, tr.Busy())
	return <-lines
}

func TestTraceEmitsValidJSONLine(t *testing.T) {
	t.Parallel()

	line := traceLine(t, Transaction{
		Addr:   0x2A,
		Status: twi.SlaveAddrIntf | twi.SlaveClockHold,
		Wrote:  []byte{0x07, 0xFF},
		Echoed: 2,
		Op:     OpWriteRead,
	})

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))

	entries, ok := decoded["monitor_0x2A"]
	require.True(t, ok, "line: %s", line)
	require.Len(t, entries, 5)
	assert.Equal(t, "0x60", entries[0]["status"])
	assert.Equal(t, "write-read", entries[1]["op"])
	assert.Equal(t, float64(2), entries[2]["len"])
	assert.Equal(t, "0x07", entries[3]["W1"])
	assert.Equal(t, "0xFF", entries[4]["W2"])
}

func TestTraceEmptyTransaction(t *testing.T) {
	t.Parallel()

	line := traceLine(t, Transaction{Addr: 0x10, Op: OpPing})
	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	entries := decoded["monitor_0x10"]
	require.Len(t, entries, 3)
	assert.Equal(t, "ping", entries[1]["op"])
	assert.Equal(t, float64(0), entries[2]["len"])
}

func TestTraceSingleSlotHandoff(t *testing.T) {
	t.Parallel()

	near, _ := uart.NewMemPair()
	t.Cleanup(func() { _ = near.Close() })
	tr := NewTrace(near)

	require.True(t, tr.Load(Transaction{Addr: 0x2A}))
	assert.True(t, tr.Busy())
	assert.False(t, tr.Load(Transaction{Addr: 0x2B}), "a busy printer drops the new transaction")
}

func TestOpString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ping", OpPing.String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "read", OpRead.String())
	assert.Equal(t, "write-read", OpWriteRead.String())
}
