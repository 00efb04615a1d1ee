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

// Package sim provides simulated two-wire hardware for development and
// testing. A Wire carries byte-level events between attached Units; each
// Unit implements the register-level twi.MasterPort and twi.SlavePort
// interfaces, so the engines in package twi run against it unchanged.
//
// The simulation is event-accurate rather than timing-accurate: status
// patterns, acknowledge handling, repeated starts and stop conditions match
// the hardware's observable behavior, while bus timing collapses to queue
// order. Fault injection (bus errors, lost arbitration, indefinite clock
// stretching) covers the failure paths real wiring produces.
package sim
