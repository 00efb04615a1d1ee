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

// Package adc provides background analog channel scanning. A Scanner walks
// its channel list continuously, keeping the latest conversion per channel
// available without blocking the caller. Reads that must not tear against a
// concurrent update go through the same interrupt gate the bus events use.
package adc

import (
	"errors"
	"sync"
	"time"

	"github.com/busforge/go-twi/intr"
)

// Channel identifies one analog input.
type Channel uint8

// Converter performs one conversion. Implementations are the hardware
// binding; tests substitute a fake.
type Converter interface {
	Convert(ch Channel) (uint16, error)
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ch Channel) (uint16, error)

// Convert implements Converter.
func (f ConverterFunc) Convert(ch Channel) (uint16, error) { return f(ch) }

// ErrAutoRunning is returned by Single while the background scan owns the
// converter.
var ErrAutoRunning = errors.New("adc: auto conversion running")

// ErrUnknownChannel is returned for a channel outside the scan list.
var ErrUnknownChannel = errors.New("adc: channel not scanned")

// Scanner cycles through a fixed channel list, latching the latest value of
// each. Updates run inside the interrupt gate, so Atomic excludes them the
// way a disabled-interrupt window excludes the conversion-complete handler.
type Scanner struct {
	conv     Converter
	gate     *intr.Gate
	channels []Channel

	mu     sync.Mutex
	values map[Channel]uint16
	auto   bool
	stop   chan struct{}
	donec  chan struct{}
}

// NewScanner creates a scanner over the given channels. The gate is shared
// with whatever event source must be excluded during atomic reads.
func NewScanner(conv Converter, gate *intr.Gate, channels ...Channel) *Scanner {
	return &Scanner{
		conv:     conv,
		gate:     gate,
		channels: channels,
		values:   make(map[Channel]uint16, len(channels)),
	}
}

// EnableAuto starts the background scan cycling at the given per-conversion
// interval. Enabling an already running scanner is a no-op.
func (s *Scanner) EnableAuto(interval time.Duration) {
	s.mu.Lock()
	if s.auto {
		s.mu.Unlock()
		return
	}
	s.auto = true
	s.stop = make(chan struct{})
	s.donec = make(chan struct{})
	stop, done := s.stop, s.donec
	s.mu.Unlock()
	go s.scan(interval, stop, done)
}

// DisableAuto stops the background scan and waits for it to finish. Latched
// values remain readable.
func (s *Scanner) DisableAuto() {
	s.mu.Lock()
	if !s.auto {
		s.mu.Unlock()
		return
	}
	s.auto = false
	close(s.stop)
	done := s.donec
	s.mu.Unlock()
	<-done
}

func (s *Scanner) scan(interval time.Duration, stop, done chan struct{}) {
	defer close(done)
	t := time.NewTicker(interval)
	defer t.Stop()
	i := 0
	for {
		select {
		case <-stop:
			return
		case <-t.C:
		}
		ch := s.channels[i]
		i = (i + 1) % len(s.channels)
		v, err := s.conv.Convert(ch)
		if err != nil {
			continue
		}
		s.gate.Run(func() {
			s.mu.Lock()
			s.values[ch] = v
			s.mu.Unlock()
		})
	}
}

// Latest returns the most recent conversion for ch. The second result is
// false until the channel has been converted at least once.
func (s *Scanner) Latest(ch Channel) (uint16, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[ch]
	return v, ok
}

// Atomic returns the latest conversion with the interrupt gate held, so the
// value cannot be replaced mid-read by the background scan.
func (s *Scanner) Atomic(ch Channel) (uint16, bool) {
	c := s.gate.Enter()
	defer c.Exit()
	return s.Latest(ch)
}

// Single performs one immediate conversion. Refused while the background
// scan owns the converter.
func (s *Scanner) Single(ch Channel) (uint16, error) {
	s.mu.Lock()
	auto := s.auto
	s.mu.Unlock()
	if auto {
		return 0, ErrAutoRunning
	}
	if !s.scans(ch) {
		return 0, ErrUnknownChannel
	}
	v, err := s.conv.Convert(ch)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.values[ch] = v
	s.mu.Unlock()
	return v, nil
}

func (s *Scanner) scans(ch Channel) bool {
	for _, c := range s.channels {
		if c == ch {
			return true
		}
	}
	return false
}
