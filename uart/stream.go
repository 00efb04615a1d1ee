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

package uart

import (
	"io"
	"sync"
)

// Stream wraps a plain reader/writer pair (stdio, pipes, sockets) as a Port.
// A background reader feeds the receive buffer so availability checks work.
type Stream struct {
	w  io.Writer
	rx *fifo

	closeOnce sync.Once
}

// NewStream creates a Port over r and w.
func NewStream(r io.Reader, w io.Writer) *Stream {
	s := &Stream{w: w, rx: newFifo(4096)}
	go func() {
		buf := make([]byte, 512)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if _, werr := s.rx.write(buf[:n]); werr != nil {
					return
				}
			}
			if err != nil {
				s.rx.close()
				return
			}
		}
	}()
	return s
}

// Read implements io.Reader from the buffered receive side.
func (s *Stream) Read(p []byte) (int, error) { return s.rx.read(p) }

// Write implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) { return s.w.Write(p) }

// AvailableToRead implements Port.
func (s *Stream) AvailableToRead() int { return s.rx.length() }

// AvailableToWrite implements Port.
func (s *Stream) AvailableToWrite() int { return 4096 }

// Flush implements Port; the underlying writer is unbuffered from our side.
func (s *Stream) Flush() error { return nil }

// Close implements Port, closing the receive side. The underlying streams
// stay owned by the caller.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() { s.rx.close() })
	return nil
}

var _ Port = (*Stream)(nil)
