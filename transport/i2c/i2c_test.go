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

package i2c

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tfluna "github.com/LunaSenseProject/go-tfluna"
)

// fakeBus stands in for a periph i2c.BusCloser.
type fakeBus struct {
	txs      []fakeTx
	readData []byte
	err      error
	block    chan struct{}
	closed   bool
}

type fakeTx struct {
	addr uint16
	w    []byte
	rLen int
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.block != nil {
		<-b.block
	}
	b.txs = append(b.txs, fakeTx{addr: addr, w: append([]byte(nil), w...), rLen: len(r)})
	if b.err != nil {
		return b.err
	}
	copy(r, b.readData)
	return nil
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func newFakeTransport(bus *fakeBus) *Transport {
	return &Transport{
		bus:     bus,
		busName: "fake",
		timeout: 50 * time.Millisecond,
	}
}

func TestTransport_Tx(t *testing.T) {
	t.Parallel()

	t.Run("passes transaction through", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{readData: []byte("LUNA")}
		tr := newFakeTransport(bus)

		r := make([]byte, 4)
		require.NoError(t, tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegSignature}, r))
		assert.Equal(t, []byte("LUNA"), r)

		require.Len(t, bus.txs, 1)
		assert.Equal(t, uint16(tfluna.DefaultAddress), bus.txs[0].addr)
		assert.Equal(t, []byte{tfluna.RegSignature}, bus.txs[0].w)
		assert.Equal(t, 4, bus.txs[0].rLen)
	})

	t.Run("bus errors are transient", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{err: errors.New("i2c: NACK")}
		tr := newFakeTransport(bus)

		err := tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegEnable, 0x01}, nil)
		require.Error(t, err)
		assert.Equal(t, tfluna.ErrorTypeTransient, tfluna.GetErrorType(err))
		assert.True(t, tfluna.IsRetryable(err))
	})

	t.Run("nack surfaces as ErrNoACK", func(t *testing.T) {
		t.Parallel()
		for _, msg := range []string{"i2c: NAK", "device NACK on address", "read: remote I/O error"} {
			bus := &fakeBus{err: errors.New(msg)}
			tr := newFakeTransport(bus)

			err := tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegDistanceLow}, make([]byte, 1))
			require.ErrorIs(t, err, tfluna.ErrNoACK, "message %q", msg)
			assert.Equal(t, tfluna.ErrorTypeTransient, tfluna.GetErrorType(err))
		}
	})

	t.Run("slow transaction hits the configured timeout", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{block: make(chan struct{})}
		defer close(bus.block)
		tr := newFakeTransport(bus)
		require.NoError(t, tr.SetTimeout(10*time.Millisecond))

		start := time.Now()
		err := tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegDistanceLow}, make([]byte, 7))
		require.ErrorIs(t, err, tfluna.ErrTransportTimeout)
		assert.Equal(t, tfluna.ErrorTypeTransient, tfluna.GetErrorType(err))
		assert.Less(t, time.Since(start), 5*time.Second, "caller must not block on the hung transaction")
	})

	t.Run("zero timeout never expires", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{}
		tr := newFakeTransport(bus)
		require.NoError(t, tr.SetTimeout(0))
		require.NoError(t, tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegEnable, 0x01}, nil))
	})

	t.Run("closed transport is fatal", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{}
		tr := newFakeTransport(bus)

		require.NoError(t, tr.Close())
		assert.True(t, bus.closed)
		assert.False(t, tr.IsConnected())

		err := tr.Tx(tfluna.DefaultAddress, []byte{tfluna.RegEnable, 0x01}, nil)
		require.ErrorIs(t, err, tfluna.ErrTransportClosed)
		assert.Equal(t, tfluna.ErrorTypeFatal, tfluna.GetErrorType(err))
	})

	t.Run("double close is a no-op", func(t *testing.T) {
		t.Parallel()
		tr := newFakeTransport(&fakeBus{})
		require.NoError(t, tr.Close())
		require.NoError(t, tr.Close())
	})
}

func TestTransport_TxContext(t *testing.T) {
	t.Parallel()

	t.Run("honors cancellation before the transaction", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{}
		tr := newFakeTransport(bus)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := tr.TxContext(ctx, tfluna.DefaultAddress, []byte{tfluna.RegDistanceLow}, nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, bus.txs)
	})

	t.Run("live context passes through", func(t *testing.T) {
		t.Parallel()
		bus := &fakeBus{}
		tr := newFakeTransport(bus)

		err := tr.TxContext(context.Background(), tfluna.DefaultAddress, []byte{tfluna.RegEnable, 0x01}, nil)
		require.NoError(t, err)
		assert.Len(t, bus.txs, 1)
	})
}

func TestTransport_DriverIntegration(t *testing.T) {
	t.Parallel()

	bus := &fakeBus{readData: []byte("LUNA")}
	device, err := tfluna.New(newFakeTransport(bus))
	require.NoError(t, err)
	assert.Equal(t, tfluna.StateConfigured, device.State())
	assert.Equal(t, tfluna.TransportI2C, device.Transport().Type())
}
