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

// Package eeprom drives serial EEPROM parts over a bus transactor. Writes
// are split on the part's page boundaries, each page write followed by
// acknowledge polling until the part's internal write cycle completes.
package eeprom

import (
	"errors"
	"fmt"
	"io"
	"time"

	twi "github.com/busforge/go-twi"
)

// Config describes one EEPROM part family.
type Config struct {
	// Size is the total capacity in bytes.
	Size int
	// PageSize is the write page size in bytes; must be a power of two.
	PageSize int
	// AddrBytes is the memory-address width on the wire, 1 or 2.
	AddrBytes int
	// WriteDelay is the part's worst-case internal write cycle.
	WriteDelay time.Duration
}

// Common part configurations.
var (
	Conf24C02  = Config{Size: 256, PageSize: 8, AddrBytes: 1, WriteDelay: 5 * time.Millisecond}
	Conf24C08  = Config{Size: 1024, PageSize: 16, AddrBytes: 1, WriteDelay: 5 * time.Millisecond}
	Conf24C256 = Config{Size: 32768, PageSize: 64, AddrBytes: 2, WriteDelay: 5 * time.Millisecond}
)

// ErrOutOfRange is returned when an access would pass the end of the part.
var ErrOutOfRange = errors.New("eeprom: access beyond device capacity")

// ackPollLimit bounds acknowledge polling to a multiple of the nominal
// write cycle before giving up.
const ackPollLimit = 4

// Device is one EEPROM part behind a transactor.
type Device struct {
	bus  twi.Transactor
	addr byte
	cfg  Config

	pos int64
}

// NewDevice creates a device handle. The configuration is validated so page
// math cannot silently corrupt: a zero or non-power-of-two page size is
// refused.
func NewDevice(bus twi.Transactor, addr byte, cfg Config) (*Device, error) {
	if cfg.PageSize <= 0 || cfg.PageSize&(cfg.PageSize-1) != 0 {
		return nil, fmt.Errorf("eeprom: page size %d is not a power of two", cfg.PageSize)
	}
	if cfg.AddrBytes != 1 && cfg.AddrBytes != 2 {
		return nil, fmt.Errorf("eeprom: unsupported address width %d", cfg.AddrBytes)
	}
	if cfg.Size <= 0 || cfg.Size%cfg.PageSize != 0 {
		return nil, fmt.Errorf("eeprom: size %d is not a multiple of the page size", cfg.Size)
	}
	return &Device{bus: bus, addr: addr, cfg: cfg}, nil
}

// Size returns the part capacity in bytes.
func (d *Device) Size() int64 { return int64(d.cfg.Size) }

func (d *Device) memAddr(off int64) []byte {
	if d.cfg.AddrBytes == 2 {
		return []byte{byte(off >> 8), byte(off)}
	}
	return []byte{byte(off)}
}

// banked reports whether address bits above the single address byte select
// a 256-byte block through the device address, the scheme of 24C04..24C16
// parts.
func (d *Device) banked() bool { return d.cfg.AddrBytes == 1 && d.cfg.Size > 256 }

// devAddr folds the block-select bits into the device address for banked
// parts.
func (d *Device) devAddr(off int64) byte {
	if d.banked() {
		return d.addr | byte(off>>8)
	}
	return d.addr
}

// ReadAt implements io.ReaderAt. EEPROM reads cross page boundaries freely,
// so a read is a single transaction per 256-byte block for banked parts and
// one transaction otherwise.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(d.cfg.Size) {
		return 0, ErrOutOfRange
	}
	if off == int64(d.cfg.Size) {
		return 0, io.EOF
	}
	n := len(p)
	var errEOF error
	if rem := int(int64(d.cfg.Size) - off); n > rem {
		n = rem
		errEOF = io.EOF
	}
	if n == 0 {
		return 0, errEOF
	}
	for read := 0; read < n; {
		chunk := n - read
		if d.banked() {
			// A banked read cannot cross a block boundary in one
			// transaction; the block lives in the device address.
			if bank := 256 - int(off)&0xFF; chunk > bank {
				chunk = bank
			}
		}
		if err := d.bus.Transact(d.devAddr(off), d.memAddr(off), p[read:read+chunk]); err != nil {
			return read, fmt.Errorf("eeprom: read at %#x: %w", off, err)
		}
		read += chunk
		off += int64(chunk)
	}
	return n, errEOF
}

// WriteAt implements io.WriterAt. The destination offset determines the
// first chunk length: a write never crosses a page boundary on the wire, so
// a page-interior start is topped up to the boundary first, then whole pages
// follow. Each chunk is acknowledge-polled to completion.
func (d *Device) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(d.cfg.Size) {
		return 0, ErrOutOfRange
	}
	written := 0
	for written < len(p) {
		inPage := int(off) & (d.cfg.PageSize - 1)
		n := d.cfg.PageSize - inPage
		if rem := len(p) - written; n > rem {
			n = rem
		}
		chunk := p[written : written+n]
		// Pages never straddle a 256-byte block, so the banked device
		// address is stable for the whole chunk.
		if err := d.bus.TransactSplit(d.devAddr(off), d.memAddr(off), chunk); err != nil {
			return written, fmt.Errorf("eeprom: write at %#x: %w", off, err)
		}
		if err := d.waitWriteCycle(); err != nil {
			return written, err
		}
		written += n
		off += int64(n)
	}
	return written, nil
}

// waitWriteCycle acknowledge-polls the part: it NACKs its own address while
// the internal write cycle runs and ACKs again once done.
func (d *Device) waitWriteCycle() error {
	deadline := time.Now().Add(time.Duration(ackPollLimit) * d.cfg.WriteDelay)
	for {
		err := d.bus.Transact(d.addr, nil, nil)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("eeprom: write cycle did not complete: %w", err)
		}
		time.Sleep(d.cfg.WriteDelay / 4)
	}
}

// Read implements io.Reader at the seek cursor.
func (d *Device) Read(p []byte) (int, error) {
	n, err := d.ReadAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

// Write implements io.Writer at the seek cursor.
func (d *Device) Write(p []byte) (int, error) {
	n, err := d.WriteAt(p, d.pos)
	d.pos += int64(n)
	return n, err
}

// Seek implements io.Seeker over the part's address space.
func (d *Device) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = d.pos + offset
	case io.SeekEnd:
		pos = int64(d.cfg.Size) + offset
	default:
		return 0, fmt.Errorf("eeprom: invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fmt.Errorf("eeprom: negative position %d", pos)
	}
	d.pos = pos
	return pos, nil
}

var (
	_ io.ReaderAt        = (*Device)(nil)
	_ io.WriterAt        = (*Device)(nil)
	_ io.ReadWriteSeeker = (*Device)(nil)
)
