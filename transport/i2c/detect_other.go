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

//go:build !linux

package i2c

import (
	"context"
	"errors"
)

// ErrUnsupportedPlatform is returned by adapter discovery on hosts without
// userspace I2C access.
var ErrUnsupportedPlatform = errors.New("i2c: adapter discovery not supported on this platform")

// BusInfo describes one kernel I2C adapter.
type BusInfo struct {
	Path   string
	Number int
}

// Buses is unsupported on this platform.
func Buses() ([]BusInfo, error) { return nil, ErrUnsupportedPlatform }

// ScanAddresses is unsupported on this platform.
func ScanAddresses(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrUnsupportedPlatform
}

// Probe is unsupported on this platform.
func Probe(_ string, _ byte) bool { return false }
