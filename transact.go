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

package twi

import (
	"context"
	"time"
)

// Transactor runs complete bus transactions synchronously. It is the
// blocking convenience surface layered over a master engine for callers such
// as EEPROM drivers; it can equally be backed by a kernel bus adapter.
type Transactor interface {
	// Transact writes w to addr then, without releasing the bus, reads
	// len(r) bytes into r. Either buffer may be empty.
	Transact(addr byte, w, r []byte) error

	// TransactSplit writes w immediately followed by w2 as one continuous
	// write phase, such as a register byte then a payload.
	TransactSplit(addr byte, w, w2 []byte) error
}

// DefaultTransactTimeout bounds a synchronous transaction. Generous for a
// 100 kHz bus with small buffers.
const DefaultTransactTimeout = 20 * time.Millisecond

// MasterTransactor adapts a master engine to the Transactor interface using
// the bounded busy-wait.
type MasterTransactor struct {
	master  *Master
	unit    string
	Timeout time.Duration
}

// NewMasterTransactor creates a synchronous wrapper around the bus
// instance's master engine.
func NewMasterTransactor(b *Bus) *MasterTransactor {
	return &MasterTransactor{
		master:  b.Master(),
		unit:    unitName(b.Unit()),
		Timeout: DefaultTransactTimeout,
	}
}

// Transact implements Transactor.
func (t *MasterTransactor) Transact(addr byte, w, r []byte) error {
	return t.run("transact", addr, func() { t.master.WriteRead(w, r) })
}

// TransactSplit implements Transactor.
func (t *MasterTransactor) TransactSplit(addr byte, w, w2 []byte) error {
	return t.run("transact-split", addr, func() { t.master.WriteWrite(w, w2) })
}

// Ping addresses the target with a zero-length write, the standard probe
// for ack polling.
func (t *MasterTransactor) Ping(addr byte) error {
	return t.Transact(addr, nil, nil)
}

func (t *MasterTransactor) run(op string, addr byte, arm func()) error {
	if t.master.IsBusy() {
		return NewBusError(op, t.unit, ErrBusBusy, ErrorTypeTransient)
	}
	t.master.On(addr)
	arm()
	if t.master.Wait(t.Timeout) {
		return nil
	}
	if t.master.IsBusy() {
		// Timed out, transaction still running. The narrow contract: only
		// the busy flag distinguishes this from a definite failure.
		debugf("%s addr 0x%02X: still busy after %v", op, addr, t.Timeout)
		return NewTimeoutError(op, t.unit)
	}
	err := statusError(t.master.LastStatus())
	debugf("%s addr 0x%02X: status 0x%02X: %v", op, addr, uint8(t.master.LastStatus()), err)
	return NewBusError(op, t.unit, err, GetErrorType(err))
}

// TransactorWithRetry wraps a Transactor with retry logic for transient
// failures.
type TransactorWithRetry struct {
	transactor Transactor
	config     *RetryConfig
}

// NewTransactorWithRetry creates a retrying wrapper. A nil config selects
// the defaults.
func NewTransactorWithRetry(tr Transactor, config *RetryConfig) *TransactorWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransactorWithRetry{transactor: tr, config: config}
}

// SetRetryConfig updates the retry configuration.
func (t *TransactorWithRetry) SetRetryConfig(config *RetryConfig) { t.config = config }

// Transact runs Transact with retries.
func (t *TransactorWithRetry) Transact(addr byte, w, r []byte) error {
	return RetryWithConfig(context.Background(), t.config, func() error {
		return t.transactor.Transact(addr, w, r)
	})
}

// TransactSplit runs TransactSplit with retries.
func (t *TransactorWithRetry) TransactSplit(addr byte, w, w2 []byte) error {
	return RetryWithConfig(context.Background(), t.config, func() error {
		return t.transactor.TransactSplit(addr, w, w2)
	})
}

var (
	_ Transactor = (*MasterTransactor)(nil)
	_ Transactor = (*TransactorWithRetry)(nil)
)
