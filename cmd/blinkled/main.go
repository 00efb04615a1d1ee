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

// blinkled is the minimal example application: it toggles a status LED and
// pings a peer on every toggle, reporting whether the peer acknowledged.
// Wire and peer are simulated, so it runs anywhere.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	twi "github.com/busforge/go-twi"
	"github.com/busforge/go-twi/clock"
	"github.com/busforge/go-twi/gpio"
	"github.com/busforge/go-twi/monitor"
	"github.com/busforge/go-twi/sim"
)

func main() {
	count := flag.Int("count", 10, "Number of blinks (0 = forever)")
	interval := flag.Duration("interval", 500*time.Millisecond, "Toggle interval")
	peer := flag.Uint("addr", 0x2A, "7-bit address of the peer to ping")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()
	if *debug {
		twi.SetDebugEnabled(true)
	}

	if err := run(*count, *interval, byte(*peer)); err != nil {
		fmt.Fprintf(os.Stderr, "blinkled: %v\n", err)
		os.Exit(1)
	}
}

func run(count int, interval time.Duration, peer byte) error {
	wire := sim.NewWire("wire0")
	defer wire.Close()

	bus, err := twi.NewBus(wire.AddUnit("twi0"))
	if err != nil {
		return err
	}
	peerBus, err := twi.NewBus(wire.AddUnit("twi1"))
	if err != nil {
		return err
	}
	resp := monitor.NewResponder(peerBus.Slave())
	resp.Listen(peer)
	defer resp.Off()

	led := gpio.NewMem("LED")
	if err := led.Configure(gpio.Config{Direction: gpio.Output}); err != nil {
		return err
	}

	tr := twi.NewMasterTransactor(bus)
	tr.Timeout = 3 * time.Millisecond

	ticks := clock.NewSystem()
	for i := 0; count == 0 || i < count; i++ {
		if err := led.Toggle(); err != nil {
			return err
		}
		level, _ := led.Get()
		ack := "ack"
		if err := tr.Ping(peer); err != nil {
			ack = fmt.Sprintf("no ack (%v)", err)
		}
		fmt.Printf("[%6dms] LED %-4s ping 0x%02X: %s\n", ticks.Now(), level, peer, ack)
		time.Sleep(interval)
	}
	return nil
}
