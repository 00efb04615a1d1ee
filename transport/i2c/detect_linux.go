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

//go:build linux

package i2c

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// i2cSlave is the ioctl command to bind the file descriptor to a
	// target address.
	i2cSlave = 0x0703

	// i2cFuncs is the ioctl command to query adapter functionality.
	i2cFuncs = 0x0705

	// i2cFuncI2C flags plain I2C support in the functionality mask.
	i2cFuncI2C = 0x00000001
)

// BusInfo describes one kernel I2C adapter.
type BusInfo struct {
	Path   string // device path, e.g. "/dev/i2c-1"
	Number int
}

// Buses discovers the host's I2C adapters, keeping only those that report
// plain I2C capability.
func Buses() ([]BusInfo, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("i2c: scan adapters: %w", err)
	}

	buses := make([]BusInfo, 0, len(matches))
	for _, path := range matches {
		var busNum int
		if _, err := fmt.Sscanf(filepath.Base(path), "i2c-%d", &busNum); err != nil {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}

		fd, err := unix.Open(path, unix.O_RDWR, 0)
		if err != nil {
			continue
		}
		var funcs uint32
		ioctlErr := ioctl(fd, i2cFuncs, uintptr(unsafe.Pointer(&funcs)))
		_ = unix.Close(fd)
		if ioctlErr != nil || funcs&i2cFuncI2C == 0 {
			continue
		}

		buses = append(buses, BusInfo{Path: path, Number: busNum})
	}
	return buses, nil
}

// ScanAddresses probes the usable 7-bit address range on one adapter and
// returns the addresses that acknowledged. Reserved addresses are skipped.
func ScanAddresses(ctx context.Context, busPath string) ([]byte, error) {
	fd, err := unix.Open(busPath, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", busPath, err)
	}
	defer func() { _ = unix.Close(fd) }()

	var found []byte
	for addr := byte(0x08); addr <= 0x77; addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		if err := ioctl(fd, i2cSlave, uintptr(addr)); err != nil {
			continue
		}
		buf := make([]byte, 1)
		if _, err := unix.Read(fd, buf); err == nil {
			found = append(found, addr)
		}
	}
	return found, nil
}

// Probe reports whether a device acknowledges at addr on the adapter.
func Probe(busPath string, addr byte) bool {
	fd, err := unix.Open(busPath, unix.O_RDWR, 0)
	if err != nil {
		return false
	}
	defer func() { _ = unix.Close(fd) }()
	if err := ioctl(fd, i2cSlave, uintptr(addr)); err != nil {
		return false
	}
	buf := make([]byte, 1)
	_, err = unix.Read(fd, buf)
	return err == nil
}

func ioctl(fd int, request uint, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(request), arg)
	if errno != 0 {
		return errno
	}
	return nil
}
