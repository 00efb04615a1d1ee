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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusErrorFormatting(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *BusError
		name string
		want string
	}{
		{
			name: "with unit",
			err:  NewBusError("transact", "twi0", ErrNACK, ErrorTypeTransient),
			want: "twi transact twi0: NACK received",
		},
		{
			name: "without unit",
			err:  NewBusError("ping", "", ErrNoDevice, ErrorTypeTransient),
			want: "twi ping: no device at address",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestBusErrorUnwrapping(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("transact", "twi1")
	assert.ErrorIs(t, err, ErrTimeout)

	var busErr *BusError
	require.ErrorAs(t, error(err), &busErr)
	assert.Equal(t, "twi1", busErr.Unit)
	assert.Equal(t, ErrorTypeTimeout, busErr.Type)
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "timeout sentinel", err: ErrTimeout, want: true},
		{name: "nack sentinel", err: ErrNACK, want: true},
		{name: "arbitration lost", err: ErrArbitrationLost, want: true},
		{name: "bus busy", err: ErrBusBusy, want: true},
		{name: "bus fault sentinel", err: ErrBusFault, want: false},
		{name: "data too large", err: ErrDataTooLarge, want: false},
		{name: "unknown error", err: errors.New("weird"), want: false},
		{
			name: "bus error flag wins over kind",
			err:  NewBusError("transact", "twi0", ErrBusFault, ErrorTypeTransient),
			want: true,
		},
		{
			name: "permanent bus error",
			err:  NewDataTooLargeError("write", "twi0"),
			want: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil", err: nil, want: ErrorTypePermanent},
		{name: "timeout", err: ErrTimeout, want: ErrorTypeTimeout},
		{name: "nack", err: ErrNACK, want: ErrorTypeTransient},
		{name: "no device", err: ErrNoDevice, want: ErrorTypeTransient},
		{name: "unknown", err: errors.New("weird"), want: ErrorTypePermanent},
		{
			name: "wrapped timeout bus error",
			err:  NewTimeoutError("transact", "twi0"),
			want: ErrorTypeTimeout,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestStatusErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want   error
		name   string
		status Status
	}{
		{name: "arbitration lost wins", status: StatusArbLost | StatusBusErr, want: ErrArbitrationLost},
		{name: "bus fault", status: StatusBusErr | BusStateBusy, want: ErrBusFault},
		{name: "nacked write", status: statusWriteReady | StatusRxNack, want: ErrNACK},
		{name: "anything else", status: BusStateIdle, want: ErrCommunicationFailed},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, statusError(tt.status), tt.want)
		})
	}
}
