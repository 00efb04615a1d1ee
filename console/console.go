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

// Package console implements the line-oriented command console the firmware
// exposes on its UART. Commands are single lines of whitespace-separated
// fields; every reply is a single JSON line, errors uniformly as
// {"err":"..."}.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/busforge/go-twi/uart"
)

// Handler runs one command. The returned value is marshaled as the reply;
// a nil value with a nil error replies {"ok":true}.
type Handler func(args []string) (any, error)

// maxLine bounds command accumulation, matching a small input buffer.
const maxLine = 128

// Console dispatches command lines from a port to registered handlers.
type Console struct {
	port uart.Port

	mu   sync.Mutex
	cmds map[string]Handler

	line []byte
}

// New creates a console on the given port.
func New(port uart.Port) *Console {
	return &Console{port: port, cmds: make(map[string]Handler)}
}

// Register binds a command name to a handler. Re-registering replaces.
func (c *Console) Register(name string, h Handler) {
	c.mu.Lock()
	c.cmds[name] = h
	c.mu.Unlock()
}

// Commands returns the registered command names, sorted.
func (c *Console) Commands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.cmds))
	for n := range c.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Service consumes the bytes currently available on the port, dispatching
// every completed line. It never blocks on input; call it from the
// foreground loop.
func (c *Console) Service() error {
	for c.port.AvailableToRead() > 0 {
		var b [1]byte
		if _, err := c.port.Read(b[:]); err != nil {
			return fmt.Errorf("console: read: %w", err)
		}
		if err := c.feed(b[0]); err != nil {
			return err
		}
	}
	return nil
}

// Run blocks, reading and dispatching lines until the context is canceled
// or the port closes.
func (c *Console) Run(ctx context.Context) error {
	buf := make([]byte, 64)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.port.Read(buf)
		for i := 0; i < n; i++ {
			if ferr := c.feed(buf[i]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			return fmt.Errorf("console: read: %w", err)
		}
	}
}

func (c *Console) feed(b byte) error {
	switch b {
	case '\r':
		return nil
	case '\n':
		line := string(c.line)
		c.line = c.line[:0]
		return c.dispatch(line)
	}
	if len(c.line) >= maxLine {
		c.line = c.line[:0]
		return c.replyErr("line too long")
	}
	c.line = append(c.line, b)
	return nil
}

func (c *Console) dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	c.mu.Lock()
	h, ok := c.cmds[fields[0]]
	c.mu.Unlock()
	if !ok {
		return c.replyErr(fmt.Sprintf("unknown command %q", fields[0]))
	}
	v, err := h(fields[1:])
	if err != nil {
		return c.replyErr(err.Error())
	}
	if v == nil {
		v = map[string]bool{"ok": true}
	}
	return c.reply(v)
}

func (c *Console) reply(v any) error {
	out, err := json.Marshal(v)
	if err != nil {
		return c.replyErr("unencodable reply")
	}
	if _, err := c.port.Write(append(out, '\r', '\n')); err != nil {
		return fmt.Errorf("console: write: %w", err)
	}
	return nil
}

func (c *Console) replyErr(msg string) error {
	return c.reply(map[string]string{"err": msg})
}
