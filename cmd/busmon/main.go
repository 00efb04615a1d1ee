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

// busmon runs a bus-monitor slave on a simulated wire and exposes an
// interactive console for driving transactions against it. With -hostscan
// it instead enumerates the host's kernel I2C adapters and their devices.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	twi "github.com/busforge/go-twi"
	"github.com/busforge/go-twi/console"
	"github.com/busforge/go-twi/monitor"
	"github.com/busforge/go-twi/sim"
	hosti2c "github.com/busforge/go-twi/transport/i2c"
	"github.com/busforge/go-twi/uart"
)

type config struct {
	monitorAddr *uint
	debug       *bool
	hostScan    *bool
	scanTimeout *time.Duration
}

func parseFlags() *config {
	cfg := &config{
		monitorAddr: flag.Uint("addr", 0x2A, "7-bit address the monitor slave answers"),
		debug:       flag.Bool("debug", false, "Enable debug output"),
		hostScan:    flag.Bool("hostscan", false, "Scan host kernel I2C adapters and exit"),
		scanTimeout: flag.Duration("scan-timeout", 5*time.Second, "Timeout for the host adapter scan"),
	}
	flag.Parse()
	if *cfg.debug {
		twi.SetDebugEnabled(true)
	}
	return cfg
}

func runHostScan(timeout time.Duration) error {
	buses, err := hosti2c.Buses()
	if err != nil {
		return err
	}
	if len(buses) == 0 {
		return errors.New("no I2C adapters found")
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, b := range buses {
		addrs, err := hosti2c.ScanAddresses(ctx, b.Path)
		if err != nil {
			fmt.Printf("%s: %v\n", b.Path, err)
			continue
		}
		fmt.Printf("%s:", b.Path)
		for _, a := range addrs {
			fmt.Printf(" 0x%02X", a)
		}
		fmt.Println()
	}
	return nil
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > 0x77 {
		return 0, fmt.Errorf("bad address %q", s)
	}
	return byte(v), nil
}

func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, 0, len(args))
	for _, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("bad byte %q", a)
		}
		out = append(out, byte(v))
	}
	return out, nil
}

func hexSlice(b []byte) []string {
	out := make([]string, len(b))
	for i, v := range b {
		out[i] = fmt.Sprintf("0x%02X", v)
	}
	return out
}

func registerCommands(c *console.Console, tr *twi.MasterTransactor, wire *sim.Wire, resp *monitor.Responder, port uart.Port) {
	c.Register("ping", func(args []string) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("usage: ping <addr>")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return nil, err
		}
		if err := tr.Ping(addr); err != nil {
			return nil, err
		}
		return map[string]string{"ack": fmt.Sprintf("0x%02X", addr)}, nil
	})

	c.Register("scan", func(_ []string) (any, error) {
		var found []string
		for addr := byte(0x08); addr <= 0x77; addr++ {
			if tr.Ping(addr) == nil {
				found = append(found, fmt.Sprintf("0x%02X", addr))
			}
		}
		return map[string]any{"found": found}, nil
	})

	c.Register("w", func(args []string) (any, error) {
		if len(args) < 2 {
			return nil, errors.New("usage: w <addr> <byte>...")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return nil, err
		}
		data, err := parseBytes(args[1:])
		if err != nil {
			return nil, err
		}
		if err := tr.Transact(addr, data, nil); err != nil {
			return nil, err
		}
		return map[string]int{"wrote": len(data)}, nil
	})

	c.Register("r", func(args []string) (any, error) {
		if len(args) != 2 {
			return nil, errors.New("usage: r <addr> <n>")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 || n > monitor.BufferSize {
			return nil, fmt.Errorf("bad count %q", args[1])
		}
		buf := make([]byte, n)
		if err := tr.Transact(addr, nil, buf); err != nil {
			return nil, err
		}
		return map[string]any{"read": hexSlice(buf)}, nil
	})

	c.Register("wr", func(args []string) (any, error) {
		if len(args) < 3 {
			return nil, errors.New("usage: wr <addr> <n> <byte>...")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 || n > monitor.BufferSize {
			return nil, fmt.Errorf("bad count %q", args[1])
		}
		data, err := parseBytes(args[2:])
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if err := tr.Transact(addr, data, buf); err != nil {
			return nil, err
		}
		return map[string]any{"read": hexSlice(buf)}, nil
	})

	c.Register("mon", func(_ []string) (any, error) {
		wire.Settle()
		txn, ok := resp.Take()
		if !ok {
			return map[string]bool{"pending": false}, nil
		}
		tr := monitor.NewTrace(port)
		tr.Load(txn)
		if err := tr.Drain(); err != nil {
			return nil, err
		}
		return nil, nil
	})

	c.Register("help", func(_ []string) (any, error) {
		return map[string]any{"commands": c.Commands()}, nil
	})
}

func run(cfg *config) error {
	wire := sim.NewWire("wire0")
	defer wire.Close()

	masterBus, err := twi.NewBus(wire.AddUnit("twi0"))
	if err != nil {
		return err
	}
	slaveBus, err := twi.NewBus(wire.AddUnit("twi1"))
	if err != nil {
		return err
	}

	resp := monitor.NewResponder(slaveBus.Slave())
	resp.Listen(byte(*cfg.monitorAddr))
	defer resp.Off()

	tr := twi.NewMasterTransactor(masterBus)
	port := uart.NewStream(os.Stdin, os.Stdout)
	defer port.Close()

	c := console.New(port)
	registerCommands(c, tr, wire, resp, port)

	fmt.Printf("monitor slave at 0x%02X; try: scan | wr 0x%02X 1 0x07 | mon\n",
		*cfg.monitorAddr, *cfg.monitorAddr)
	err = c.Run(context.Background())
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func main() {
	cfg := parseFlags()
	if *cfg.hostScan {
		if err := runHostScan(*cfg.scanTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "busmon: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := run(cfg); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "busmon: %v\n", err)
		os.Exit(1)
	}
}
