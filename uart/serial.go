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
	"fmt"
	"sync"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the firmware console rate.
const DefaultBaudRate = 115200

// Serial is a Port over a host serial device. A background reader keeps the
// receive side buffered so AvailableToRead works the way it does on a
// hardware FIFO.
type Serial struct {
	port serial.Port
	name string
	rx   *fifo

	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the named device at the given baud rate, 8N1.
func OpenSerial(name string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("uart: open %s: %w", name, err)
	}
	s := &Serial{port: p, name: name, rx: newFifo(4096)}
	go s.pump()
	return s, nil
}

// ListPorts enumerates the host's serial devices.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("uart: list ports: %w", err)
	}
	return ports, nil
}

// Name returns the device path the port was opened with.
func (s *Serial) Name() string { return s.name }

func (s *Serial) pump() {
	buf := make([]byte, 512)
	for {
		n, err := s.port.Read(buf)
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
}

// Read implements io.Reader from the buffered receive side.
func (s *Serial) Read(p []byte) (int, error) { return s.rx.read(p) }

// Write implements io.Writer.
func (s *Serial) Write(p []byte) (int, error) { return s.port.Write(p) }

// AvailableToRead implements Port.
func (s *Serial) AvailableToRead() int { return s.rx.length() }

// AvailableToWrite implements Port. The kernel buffers the transmit side, so
// writes of console-sized payloads never block meaningfully.
func (s *Serial) AvailableToWrite() int { return 4096 }

// Flush implements Port, draining the kernel transmit buffer to the wire.
func (s *Serial) Flush() error { return s.port.Drain() }

// Close implements Port.
func (s *Serial) Close() error {
	s.closeOnce.Do(func() {
		s.rx.close()
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}

var _ Port = (*Serial)(nil)
