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
)

// TransportContext is the suspending flavor of Transport: the same
// transaction capability, but the calling goroutine parks at each
// transaction boundary until the transport signals completion or the
// context is done. Abandoning a call via the context leaves the sensor's
// register state wherever the bus left it; there is no rollback.
type TransportContext interface {
	Transport

	// TxContext performs the transaction with context support.
	TxContext(ctx context.Context, addr byte, w, r []byte) error
}

// transportContextAdapter upgrades a plain Transport to TransportContext.
type transportContextAdapter struct {
	Transport
}

// TxContext implements TransportContext by running the blocking Tx in a
// goroutine and suspending on either its completion or the context.
func (t *transportContextAdapter) TxContext(ctx context.Context, addr byte, w, r []byte) error {
	// Check if the context is already cancelled.
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before transaction: %w", ctx.Err())
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- t.Tx(addr, w, r)
	}()

	select {
	case <-ctx.Done():
		// The in-flight transaction cannot be cancelled; it finishes or
		// fails on its own and the goroutine exits via the buffered
		// channel.
		return fmt.Errorf("context cancelled while waiting for transaction: %w", ctx.Err())
	case err := <-done:
		return err
	}
}

// AsTransportContext converts a Transport to a TransportContext. Transports
// with native context support are returned as-is; everything else is
// wrapped in a goroutine-based adapter.
func AsTransportContext(t Transport) TransportContext {
	if tc, ok := t.(TransportContext); ok {
		return tc
	}
	return &transportContextAdapter{Transport: t}
}
