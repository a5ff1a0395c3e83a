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

package tfluna

import (
	"context"
	"fmt"
	"time"
)

// Transport is the single capability the driver core depends on: perform
// one atomic I2C write-then-read transaction against a device address.
// Implementations must never return truncated data; a failed transaction
// surfaces a transport error instead.
//
// The blocking execution variant of the driver uses this interface
// directly; the suspending variant goes through TransportContext.
type Transport interface {
	// Tx writes w to the device at addr, then reads len(r) bytes back
	// into r. Either w or r may be empty for write-only or read-only
	// transactions. The transaction is atomic from the caller's point of
	// view: no other transaction's bytes interleave with it.
	Tx(addr byte, w, r []byte) error

	// Close closes the transport connection.
	Close() error

	// SetTimeout sets the per-transaction timeout.
	SetTimeout(timeout time.Duration) error

	// IsConnected returns true if the transport is usable.
	IsConnected() bool

	// Type returns the transport type.
	Type() TransportType
}

// TransportType identifies a transport realization.
type TransportType string

const (
	// TransportI2C is the periph.io host I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportGobot is the gobot adaptor transport.
	TransportGobot TransportType = "gobot"
	// TransportMock is a test double.
	TransportMock TransportType = "mock"
)

// TransportWithRetry wraps a Transport with caller-side retry policy. The
// driver core itself never retries; wrap a transport in this only when the
// application's timing budget allows re-issuing whole transactions.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a retrying wrapper around transport.
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// Tx performs the transaction, retrying transient failures per the
// configured policy.
func (t *TransportWithRetry) Tx(addr byte, w, r []byte) error {
	return RetryWithConfig(context.Background(), t.config, func() error {
		return t.transport.Tx(addr, w, r)
	})
}

// Close closes the underlying transport.
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// SetTimeout sets the per-transaction timeout on the underlying transport.
func (t *TransportWithRetry) SetTimeout(timeout time.Duration) error {
	if err := t.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on underlying transport: %w", err)
	}
	return nil
}

// IsConnected returns true if the underlying transport is usable.
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the underlying transport type.
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetRetryConfig updates the retry configuration.
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}
