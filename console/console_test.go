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

package console

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/busforge/go-twi/uart"
)

// harness wires a console to the near end of a memory pair; the test drives
// the far end like a terminal.
type harness struct {
	c   *Console
	far *uart.Mem
	r   *bufio.Reader
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	near, far := uart.NewMemPair()
	t.Cleanup(func() { _ = near.Close() })
	return &harness{c: New(near), far: far, r: bufio.NewReader(far)}
}

// send types one line and services the console until the reply arrives.
func (h *harness) send(t *testing.T, line string) map[string]any {
	t.Helper()
	_, err := fmt.Fprintf(h.far, "%s\r\n", line)
	require.NoError(t, err)
	require.NoError(t, h.c.Service())

	reply, err := h.r.ReadString('\n')
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(reply), &decoded))
	return decoded
}

func TestDispatchAndReply(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.c.Register("add", func(args []string) (any, error) {
		return map[string]int{"args": len(args)}, nil
	})

	reply := h.send(t, "add one two three")
	assert.Equal(t, float64(3), reply["args"])
}

func TestNilHandlerResultRepliesOK(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.c.Register("noop", func(_ []string) (any, error) { return nil, nil })
	reply := h.send(t, "noop")
	assert.Equal(t, true, reply["ok"])
}

func TestErrorsReplyUniformly(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		wantErr string
	}{
		{name: "unknown command", line: "bogus", wantErr: `unknown command "bogus"`},
		{name: "handler error", line: "fail", wantErr: "broken"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			h.c.Register("fail", func(_ []string) (any, error) {
				return nil, errors.New("broken")
			})
			reply := h.send(t, tt.line)
			assert.Equal(t, tt.wantErr, reply["err"])
		})
	}
}

func TestBlankLinesAndBareCRIgnored(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.c.Register("hi", func(_ []string) (any, error) { return nil, nil })
	_, err := h.far.Write([]byte("\r\n  \r\n"))
	require.NoError(t, err)
	require.NoError(t, h.c.Service())
	assert.Zero(t, h.far.AvailableToRead(), "blank lines must not produce replies")

	reply := h.send(t, "  hi  ")
	assert.Equal(t, true, reply["ok"])
}

func TestOverlongLineRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	long := make([]byte, maxLine+10)
	for i := range long {
		long[i] = 'a'
	}
	_, err := h.far.Write(append(long, '\n'))
	require.NoError(t, err)
	require.NoError(t, h.c.Service())

	reply, err := h.r.ReadString('\n')
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(reply), &decoded))
	assert.Equal(t, "line too long", decoded["err"])
}

func TestCommandsSorted(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	h.c.Register("zeta", func(_ []string) (any, error) { return nil, nil })
	h.c.Register("alpha", func(_ []string) (any, error) { return nil, nil })
	assert.Equal(t, []string{"alpha", "zeta"}, h.c.Commands())
}
