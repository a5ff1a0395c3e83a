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

// Package gobot adapts a gobot platform adaptor into a tfluna.Transport,
// so the driver runs on any board gobot supports (Raspberry Pi,
// BeagleBone, Up2, ...).
package gobot

import (
	"fmt"
	"strings"
	"time"

	tfluna "github.com/LunaSenseProject/go-tfluna"
	"gobot.io/x/gobot/v2/drivers/i2c"
)

// Transport implements tfluna.Transport over a gobot i2c.Connector.
//
// gobot connections are bound to one device address, while the TF-Luna can
// be moved between addresses at runtime, so connections are opened lazily
// per address and cached.
type Transport struct {
	connector i2c.Connector
	conns     map[byte]i2c.Connection
	busNum    int
	busName   string
	timeout   time.Duration
	closed    bool
}

// OptionFunc configures a Transport.
type OptionFunc func(*Transport)

// WithBus selects a bus number other than the adaptor's default.
func WithBus(busNum int) OptionFunc {
	return func(t *Transport) {
		t.busNum = busNum
	}
}

// New creates a transport over the given adaptor.
func New(connector i2c.Connector, opts ...OptionFunc) *Transport {
	t := &Transport{
		connector: connector,
		conns:     make(map[byte]i2c.Connection),
		busNum:    connector.DefaultI2cBus(),
		timeout:   50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.busName = fmt.Sprintf("gobot-bus-%d", t.busNum)
	return t
}

func (t *Transport) connection(addr byte) (i2c.Connection, error) {
	if conn, ok := t.conns[addr]; ok {
		return conn, nil
	}
	conn, err := t.connector.GetI2cConnection(int(addr), t.busNum)
	if err != nil {
		return nil, tfluna.NewTransportError("connect", t.busName, err, tfluna.ErrorTypeFatal)
	}
	t.conns[addr] = conn
	return conn, nil
}

// Tx performs one write-then-read transaction against addr.
func (t *Transport) Tx(addr byte, w, r []byte) error {
	if t.closed {
		return tfluna.NewTransportError("Tx", t.busName, tfluna.ErrTransportClosed, tfluna.ErrorTypeFatal)
	}
	conn, err := t.connection(addr)
	if err != nil {
		return err
	}

	if len(w) > 0 {
		n, err := conn.Write(w)
		if err != nil {
			return tfluna.NewTransportError("Tx", t.busName, classify(err), tfluna.ErrorTypeTransient)
		}
		if n != len(w) {
			return tfluna.NewTransportError("Tx", t.busName,
				fmt.Errorf("%w: wrote %d of %d bytes", tfluna.ErrTransportWrite, n, len(w)),
				tfluna.ErrorTypeTransient)
		}
	}
	if len(r) > 0 {
		n, err := conn.Read(r)
		if err != nil {
			return tfluna.NewTransportError("Tx", t.busName, classify(err), tfluna.ErrorTypeTransient)
		}
		if n != len(r) {
			// Truncated data must never reach the driver.
			return tfluna.NewTransportError("Tx", t.busName,
				fmt.Errorf("%w: read %d of %d bytes", tfluna.ErrTransportRead, n, len(r)),
				tfluna.ErrorTypeTransient)
		}
	}
	return nil
}

// classify recognizes unacknowledged transactions by message, so callers
// can tell an absent or sleeping device from other transient failures.
// Linux i2c-dev reports a NACK as a remote I/O error.
func classify(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "nak") || strings.Contains(msg, "nack") ||
		strings.Contains(msg, "no ack") || strings.Contains(msg, "remote i/o") {
		return fmt.Errorf("%w: %v", tfluna.ErrNoACK, err)
	}
	return err
}

// SetTimeout sets the per-transaction timeout.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

// Close closes all cached connections.
func (t *Transport) Close() error {
	t.closed = true
	var firstErr error
	for addr, conn := range t.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close connection for %#02x: %w", addr, err)
		}
		delete(t.conns, addr)
	}
	return firstErr
}

// IsConnected returns true until the transport is closed.
func (t *Transport) IsConnected() bool {
	return !t.closed
}

// Type returns the transport type.
func (*Transport) Type() tfluna.TransportType {
	return tfluna.TransportGobot
}

var _ tfluna.Transport = (*Transport)(nil)
