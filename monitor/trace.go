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
	"fmt"

	"github.com/busforge/go-twi/uart"
)

// Trace renders completed transactions as JSON lines on a console port,
// one small fragment per Service call so a slow console never stalls the
// bus side. A fragment is only emitted when the port has room for it.
//
// The line format, one object per transaction:
//
//	{"monitor_0x2A":[{"status":"0x41"},{"op":"write-read"},{"len":2},{"W1":"0x07"},{"W2":"0x00"}]}
type Trace struct {
	port uart.Port

	txn   Transaction
	stage int
	armed bool
}

// NewTrace creates a trace printer on the given console port.
func NewTrace(port uart.Port) *Trace { return &Trace{port: port} }

// Load arms the printer with a completed transaction. A still-busy printer
// drops the new transaction, mirroring the single-slot handoff from the
// event side.
func (t *Trace) Load(txn Transaction) bool {
	if t.armed {
		return false
	}
	t.txn = txn
	t.stage = 0
	t.armed = true
	return true
}

// Busy reports whether a line is still being emitted.
func (t *Trace) Busy() bool { return t.armed }

// maxFragment is the longest fragment Service emits, used as the room check.
const maxFragment = 24

// Service emits at most one fragment of the armed line. Call it from the
// foreground loop; it never blocks while the port has the room it reported.
func (t *Trace) Service() error {
	if !t.armed || t.port.AvailableToWrite() < maxFragment {
		return nil
	}
	var frag string
	last := 3 + len(t.txn.Wrote)
	switch {
	case t.stage == 0:
		frag = fmt.Sprintf("{\"monitor_0x%02X\":[", t.txn.Addr)
	case t.stage == 1:
		frag = fmt.Sprintf("{\"status\":\"0x%02X\"},", byte(t.txn.Status))
	case t.stage == 2:
		frag = fmt.Sprintf("{\"op\":\"%s\"},", t.txn.Op)
	case t.stage == 3:
		frag = fmt.Sprintf("{\"len\":%d}", len(t.txn.Wrote))
	case t.stage < last+1:
		i := t.stage - 4
		frag = fmt.Sprintf(",{\"W%d\":\"0x%02X\"}", i+1, t.txn.Wrote[i])
	default:
		frag = "]}\r\n"
	}
	if _, err := t.port.Write([]byte(frag)); err != nil {
		return fmt.Errorf("monitor: trace write: %w", err)
	}
	if t.stage > last {
		t.armed = false
	}
	t.stage++
	return nil
}

// Drain services the printer until the armed line is fully emitted.
func (t *Trace) Drain() error {
	for t.armed {
		if err := t.Service(); err != nil {
			return err
		}
	}
	return nil
}
