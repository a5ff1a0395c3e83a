// go-tfluna
// Copyright (c) 2025 The LunaSense Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-tfluna.
//
// go-tfluna is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-tfluna is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-tfluna; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package i2c provides the periph.io host I2C transport for the TF-Luna.
// This is the blocking transport flavor: Tx returns once the bus
// transaction completed.
package i2c

import (
	"context"
	"fmt"
	"strings"
	"time"

	tfluna "github.com/LunaSenseProject/go-tfluna"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// The TF-Luna supports up to 400 kHz as an I2C slave.
const maxClockFreq = 400 * physic.KiloHertz

// Transport implements tfluna.Transport over a periph.io I2C bus.
type Transport struct {
	bus     busCloser
	busName string
	timeout time.Duration
}

// busCloser is the slice of periph's i2c.BusCloser this transport needs.
type busCloser interface {
	Tx(addr uint16, w, r []byte) error
	Close() error
}

// New opens the named I2C bus ("" selects the first available one).
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", busName, err)
	}

	// Best effort; continue at the default speed if the bus refuses.
	_ = bus.SetSpeed(maxClockFreq)

	return &Transport{
		bus:     bus,
		busName: busName,
		timeout: 50 * time.Millisecond,
	}, nil
}

// Tx performs one write-then-read transaction against addr. A transaction
// exceeding the configured timeout fails with a transient timeout error;
// the kernel transaction itself cannot be aborted and finishes on its own.
func (t *Transport) Tx(addr byte, w, r []byte) error {
	bus := t.bus
	if bus == nil {
		return tfluna.NewTransportError("Tx", t.busName, tfluna.ErrTransportClosed, tfluna.ErrorTypeFatal)
	}
	if t.timeout <= 0 {
		return t.busTx(bus, addr, w, r)
	}

	done := make(chan error, 1)
	go func() {
		done <- t.busTx(bus, addr, w, r)
	}()
	timer := time.NewTimer(t.timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return tfluna.NewTimeoutError("Tx", t.busName)
	}
}

func (t *Transport) busTx(bus busCloser, addr byte, w, r []byte) error {
	if err := bus.Tx(uint16(addr), w, r); err != nil {
		// periph reports bus failures as plain errors; NACKs are
		// recognized by message so callers can tell an absent or
		// sleeping device from other transient failures.
		if isNACK(err) {
			return tfluna.NewTransportError("Tx", t.busName,
				fmt.Errorf("%w: %v", tfluna.ErrNoACK, err), tfluna.ErrorTypeTransient)
		}
		return tfluna.NewTransportError("Tx", t.busName, err, tfluna.ErrorTypeTransient)
	}
	return nil
}

// isNACK reports whether a periph bus error describes an unacknowledged
// address or data byte.
func isNACK(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "nak") || strings.Contains(msg, "nack") ||
		strings.Contains(msg, "no ack") || strings.Contains(msg, "remote i/o")
}

// TxContext performs the transaction with context support. The periph bus
// has no native cancellation, so an expired context is only honored
// between transactions.
func (t *Transport) TxContext(ctx context.Context, addr byte, w, r []byte) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before transaction: %w", ctx.Err())
	default:
	}
	return t.Tx(addr, w, r)
}

// SetTimeout sets the per-transaction timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes the bus.
func (t *Transport) Close() error {
	if t.bus == nil {
		return nil
	}
	bus := t.bus
	t.bus = nil
	if err := bus.Close(); err != nil {
		return fmt.Errorf("failed to close I2C bus %q: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true while the bus is open.
func (t *Transport) IsConnected() bool {
	return t.bus != nil
}

// Type returns the transport type.
func (*Transport) Type() tfluna.TransportType {
	return tfluna.TransportI2C
}

var _ tfluna.TransportContext = (*Transport)(nil)
