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

// Package uart provides the byte-stream ports the console and monitor
// layers print to. The interface mirrors a buffered hardware UART:
// non-blocking availability checks in both directions on top of the plain
// stream reads and writes.
package uart

import (
	"errors"
	"io"
	"sync"
)

// Port is a full-duplex byte stream with buffered-UART semantics.
type Port interface {
	io.ReadWriter

	// AvailableToRead reports how many bytes can be read without blocking.
	AvailableToRead() int

	// AvailableToWrite reports how many bytes can be written without
	// blocking. Implementations without a bounded transmit buffer report a
	// large constant.
	AvailableToWrite() int

	// Flush blocks until the transmit buffer has drained.
	Flush() error

	Close() error
}

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("uart: port closed")

// fifo is one direction of a memory port.
type fifo struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []byte
	limit  int
	closed bool
}

func newFifo(limit int) *fifo {
	f := &fifo{limit: limit}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *fifo) write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for n < len(p) {
		if f.closed {
			return n, ErrClosed
		}
		if len(f.buf) >= f.limit {
			f.cond.Wait()
			continue
		}
		room := f.limit - len(f.buf)
		chunk := p[n:]
		if len(chunk) > room {
			chunk = chunk[:room]
		}
		f.buf = append(f.buf, chunk...)
		n += len(chunk)
		f.cond.Broadcast()
	}
	return n, nil
}

func (f *fifo) read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.buf) == 0 {
		if f.closed {
			return 0, io.EOF
		}
		f.cond.Wait()
	}
	n := copy(p, f.buf)
	f.buf = f.buf[n:]
	f.cond.Broadcast()
	return n, nil
}

func (f *fifo) length() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.buf)
}

func (f *fifo) room() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit - len(f.buf)
}

func (f *fifo) close() {
	f.mu.Lock()
	f.closed = true
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Mem is an in-memory Port. NewMemPair returns two of them cross-connected,
// so writes to one side are read from the other, like a null-modem cable.
type Mem struct {
	rx, tx *fifo
}

// DefaultMemBuffer matches a typical hardware FIFO depth for each direction.
const DefaultMemBuffer = 256

// NewMemPair creates two cross-connected in-memory ports.
func NewMemPair() (*Mem, *Mem) {
	a2b := newFifo(DefaultMemBuffer)
	b2a := newFifo(DefaultMemBuffer)
	return &Mem{rx: b2a, tx: a2b}, &Mem{rx: a2b, tx: b2a}
}

// Read implements io.Reader, blocking until at least one byte is available.
func (m *Mem) Read(p []byte) (int, error) { return m.rx.read(p) }

// Write implements io.Writer, blocking when the peer's buffer is full.
func (m *Mem) Write(p []byte) (int, error) { return m.tx.write(p) }

// AvailableToRead implements Port.
func (m *Mem) AvailableToRead() int { return m.rx.length() }

// AvailableToWrite implements Port.
func (m *Mem) AvailableToWrite() int { return m.tx.room() }

// Flush implements Port. The in-memory transmit path is immediate, so this
// only reports the closed state.
func (m *Mem) Flush() error { return nil }

// Close implements Port. Both directions wake up; the peer's pending reads
// return io.EOF once drained.
func (m *Mem) Close() error {
	m.rx.close()
	m.tx.close()
	return nil
}

var _ Port = (*Mem)(nil)
