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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDevice builds a device over a fresh mock and clears the
// construction-time transaction log so tests only see their own calls.
func newTestDevice(t *testing.T) (*Device, *MockTransport) {
	t.Helper()
	mock := NewMockTransport()
	device, err := New(mock)
	require.NoError(t, err)
	require.Equal(t, StateConfigured, device.State())
	mock.Reset()
	return device, mock
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("probes signature and configures", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device, err := New(mock)
		require.NoError(t, err)
		assert.Equal(t, StateConfigured, device.State())
		assert.Equal(t, byte(DefaultAddress), device.Address())
		assert.Equal(t, 1, mock.Calls())

		txs := mock.Transactions()
		assert.Equal(t, []byte{RegSignature}, txs[0].W)
		assert.Equal(t, 4, txs[0].ReadLen)
	})

	t.Run("invalid address rejected before any transaction", func(t *testing.T) {
		t.Parallel()
		for _, addr := range []byte{0x00, 0x07, 0x78, 0xFF} {
			mock := NewMockTransport()
			_, err := New(mock, WithAddress(addr))
			require.ErrorIs(t, err, ErrInvalidAddress, "address %#02x", addr)
			assert.Zero(t, mock.Calls(), "address %#02x touched the bus", addr)
		}
	})

	t.Run("signature mismatch", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		mock.SetResponse(RegSignature, []byte("NOPE"))
		_, err := New(mock)
		require.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("unresponsive device", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		mock.SetError(RegSignature, NewTimeoutError("Tx", "mock"))
		_, err := New(mock)
		require.ErrorIs(t, err, ErrNoResponse)
	})

	t.Run("custom address targets every transaction", func(t *testing.T) {
		t.Parallel()
		mock := NewMockTransport()
		device, err := New(mock, WithAddress(0x21))
		require.NoError(t, err)
		assert.Equal(t, byte(0x21), device.Address())
		assert.Equal(t, byte(0x21), mock.LastAddr())
	})
}

func TestDevice_EnableDisable(t *testing.T) {
	t.Parallel()

	t.Run("enable writes and transitions", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Enable())
		assert.Equal(t, StateEnabled, device.State())
		require.Equal(t, 1, mock.Calls())
		assert.Equal(t, []byte{RegEnable, 0x01}, mock.Transactions()[0].W)
	})

	t.Run("enable is idempotent", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Enable())
		require.NoError(t, device.Enable())
		assert.Equal(t, StateEnabled, device.State())
		assert.Equal(t, 1, mock.Calls(), "second enable must not touch the bus")
	})

	t.Run("disable is idempotent", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Enable())
		require.NoError(t, device.Disable())
		require.NoError(t, device.Disable())
		assert.Equal(t, StateDisabled, device.State())
		assert.Equal(t, 2, mock.Calls())
		assert.Equal(t, []byte{RegEnable, 0x00}, mock.Transactions()[1].W)
	})

	t.Run("disable then enable resumes", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegDistanceLow, BuildMeasurementFrame(Measurement{Distance: 321}))

		require.NoError(t, device.Enable())
		require.NoError(t, device.Disable())
		require.NoError(t, device.Enable())

		m, err := device.Measure()
		require.NoError(t, err)
		assert.Equal(t, uint16(321), m.Distance)
	})

	t.Run("enable failure keeps state", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegEnable, NewTransportError("Tx", "mock", ErrTransportWrite, ErrorTypeTransient))

		err := device.Enable()
		require.Error(t, err)
		assert.Equal(t, StateConfigured, device.State())
	})

	t.Run("enable before init", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Reset())
		mock.Reset()

		require.ErrorIs(t, device.Enable(), ErrNotConfigured)
		require.ErrorIs(t, device.Disable(), ErrNotConfigured)
		assert.Zero(t, mock.Calls())
	})
}

func TestDevice_Measure(t *testing.T) {
	t.Parallel()

	t.Run("valid frame", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegDistanceLow, []byte{0x64, 0x00, 0x32, 0x00, 0xDC, 0x05, 0x77})

		require.NoError(t, device.Enable())
		m, err := device.Measure()
		require.NoError(t, err)
		assert.Equal(t, Measurement{Distance: 100, Strength: 50, Temperature: 1500}, m)

		txs := mock.Transactions()
		last := txs[len(txs)-1]
		assert.Equal(t, []byte{RegDistanceLow}, last.W)
		assert.Equal(t, MeasurementFrameLength, last.ReadLen)
	})

	t.Run("not enabled means no transaction", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		_, err := device.Measure()
		require.ErrorIs(t, err, ErrNotEnabled)
		assert.Zero(t, mock.Calls())
	})

	t.Run("not enabled after disable", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Enable())
		require.NoError(t, device.Disable())
		mock.Reset()

		_, err := device.Measure()
		require.ErrorIs(t, err, ErrNotEnabled)
		assert.Zero(t, mock.Calls())
	})

	t.Run("checksum mismatch discards frame and keeps state", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		corrupted := BuildMeasurementFrame(Measurement{Distance: 100, Strength: 50, Temperature: 1500})
		corrupted[6]++
		mock.SetResponse(RegDistanceLow, corrupted)

		require.NoError(t, device.Enable())
		_, err := device.Measure()
		require.ErrorIs(t, err, ErrChecksumMismatch)
		assert.Equal(t, StateEnabled, device.State())

		// A later read sees a fresh frame and succeeds; the core itself
		// never retried.
		calls := mock.Calls()
		mock.SetResponse(RegDistanceLow, BuildMeasurementFrame(Measurement{Distance: 42}))
		m, err := device.Measure()
		require.NoError(t, err)
		assert.Equal(t, uint16(42), m.Distance)
		assert.Equal(t, calls+1, mock.Calls())
	})

	t.Run("transient transport failure keeps state", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Enable())
		mock.SetError(RegDistanceLow, NewTimeoutError("Tx", "mock"))

		_, err := device.Measure()
		require.ErrorIs(t, err, ErrTransportTimeout)
		assert.Equal(t, StateEnabled, device.State())
	})
}

func TestDevice_FrameRate(t *testing.T) {
	t.Parallel()

	t.Run("read", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegFrameRateLow, []byte{0x64, 0x00})

		rate, err := device.FrameRate()
		require.NoError(t, err)
		assert.Equal(t, uint16(100), rate)
	})

	t.Run("write", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.SetFrameRate(250))
		require.Equal(t, 1, mock.Calls())
		assert.Equal(t, []byte{RegFrameRateLow, 0xFA, 0x00}, mock.Transactions()[0].W)
	})

	t.Run("invalid rate rejected before any transaction", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		for _, rate := range []uint16{0, 3, 251, 500} {
			require.ErrorIs(t, device.SetFrameRate(rate), ErrInvalidFrameRate, "rate %d", rate)
		}
		assert.Zero(t, mock.Calls())
	})

	t.Run("valid in disabled state", func(t *testing.T) {
		t.Parallel()
		device, _ := newTestDevice(t)

		require.NoError(t, device.Enable())
		require.NoError(t, device.Disable())
		require.NoError(t, device.SetFrameRate(100))
		assert.Equal(t, StateDisabled, device.State())
	})
}

func TestDevice_SetAddress(t *testing.T) {
	t.Parallel()

	t.Run("subsequent transactions target the new address", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.SetAddress(0x20))
		assert.Equal(t, byte(0x20), device.Address())

		txs := mock.Transactions()
		require.Len(t, txs, 1)
		assert.Equal(t, []byte{RegSlaveAddress, 0x20}, txs[0].W)
		assert.Equal(t, byte(DefaultAddress), txs[0].Addr, "the change itself goes to the old address")

		require.NoError(t, device.Enable())
		assert.Equal(t, byte(0x20), mock.LastAddr())
	})

	t.Run("invalid address rejected before any transaction", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.ErrorIs(t, device.SetAddress(0x78), ErrInvalidAddress)
		assert.Zero(t, mock.Calls())
		assert.Equal(t, byte(DefaultAddress), device.Address())
	})

	t.Run("write failure keeps the old address", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegSlaveAddress, NewTransportError("Tx", "mock", ErrTransportWrite, ErrorTypeTransient))

		require.Error(t, device.SetAddress(0x20))
		assert.Equal(t, byte(DefaultAddress), device.Address())

		mock.SetError(RegSlaveAddress, nil)
		require.NoError(t, device.Enable())
		assert.Equal(t, byte(DefaultAddress), mock.LastAddr())
	})
}

func TestDevice_Faulted(t *testing.T) {
	t.Parallel()

	t.Run("fatal transport failure is terminal", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegDistanceLow, NewTransportError("Tx", "mock", ErrTransportClosed, ErrorTypeFatal))

		require.NoError(t, device.Enable())
		_, err := device.Measure()
		require.Error(t, err)
		assert.Equal(t, StateFaulted, device.State())

		// Nothing touches the bus after the fault.
		calls := mock.Calls()
		require.ErrorIs(t, device.Enable(), ErrFaulted)
		require.ErrorIs(t, device.Disable(), ErrFaulted)
		_, err = device.Measure()
		require.ErrorIs(t, err, ErrFaulted)
		require.ErrorIs(t, device.SetFrameRate(100), ErrFaulted)
		require.ErrorIs(t, device.SetAddress(0x20), ErrFaulted)
		require.ErrorIs(t, device.Reset(), ErrFaulted)
		require.ErrorIs(t, device.Init(), ErrFaulted)
		assert.Equal(t, calls, mock.Calls())
	})

	t.Run("transient failures never fault", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegEnable, NewTimeoutError("Tx", "mock"))

		require.Error(t, device.Enable())
		assert.NotEqual(t, StateFaulted, device.State())
	})
}

func TestDevice_Reset(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	require.NoError(t, device.Enable())

	require.NoError(t, device.Reset())
	assert.Equal(t, StateUninitialized, device.State())
	txs := mock.Transactions()
	assert.Equal(t, []byte{RegShutdownReboot, 0x02}, txs[len(txs)-1].W)

	// The instance must pass identity verification again before use.
	require.ErrorIs(t, device.Enable(), ErrNotConfigured)
	require.NoError(t, device.Init())
	assert.Equal(t, StateConfigured, device.State())
	require.NoError(t, device.Enable())
}

func TestDevice_SaveSettings(t *testing.T) {
	t.Parallel()

	t.Run("save writes the save register", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.SaveSettings())
		require.Equal(t, 1, mock.Calls())
		assert.Equal(t, []byte{RegSave, 0x01}, mock.Transactions()[0].W)
	})

	t.Run("configuration writes never save implicitly", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.SetFrameRate(100))
		require.NoError(t, device.SetAddress(0x20))
		for _, tx := range mock.Transactions() {
			assert.NotEqual(t, byte(RegSave), tx.W[0])
		}
	})
}

func TestDevice_Identity(t *testing.T) {
	t.Parallel()

	t.Run("firmware version", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegVersionRevision, []byte{0x07, 0x01, 0x02})

		v, err := device.FirmwareVersion()
		require.NoError(t, err)
		assert.Equal(t, FirmwareVersion{Major: 2, Minor: 1, Revision: 7}, v)
		assert.Equal(t, "2.1.7", v.String())
	})

	t.Run("serial number", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegSerialNumber, []byte("T3416052xxxxxx"))

		sn, err := device.SerialNumber()
		require.NoError(t, err)
		assert.Equal(t, "T3416052xxxxxx", sn.String())
	})

	t.Run("signature", func(t *testing.T) {
		t.Parallel()
		device, _ := newTestDevice(t)

		sig, err := device.Signature()
		require.NoError(t, err)
		assert.Equal(t, "LUNA", sig.String())
	})
}

func TestDevice_RangingMode(t *testing.T) {
	t.Parallel()

	t.Run("read", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegRangingMode, []byte{0x01})

		mode, err := device.RangingMode()
		require.NoError(t, err)
		assert.Equal(t, RangingTrigger, mode)
	})

	t.Run("unknown register value", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegRangingMode, []byte{0x07})

		_, err := device.RangingMode()
		require.ErrorIs(t, err, ErrInvalidData)
	})

	t.Run("set and trigger", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.SetRangingMode(RangingTrigger))
		require.NoError(t, device.Trigger())

		txs := mock.Transactions()
		require.Len(t, txs, 2)
		assert.Equal(t, []byte{RegRangingMode, 0x01}, txs[0].W)
		assert.Equal(t, []byte{RegTrigger, 0x01}, txs[1].W)
	})
}

func TestDevice_Thresholds(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)

	require.NoError(t, device.SetSignalThreshold(100))
	require.NoError(t, device.SetDummyDistance(0))
	require.NoError(t, device.SetMinimumDistance(200))
	require.NoError(t, device.SetMaximumDistance(8000))

	txs := mock.Transactions()
	require.Len(t, txs, 4)
	assert.Equal(t, []byte{RegAmpThresholdLow, 0x64, 0x00}, txs[0].W)
	assert.Equal(t, []byte{RegDummyDistanceLow, 0x00, 0x00}, txs[1].W)
	assert.Equal(t, []byte{RegMinimumDistanceLow, 0xC8, 0x00}, txs[2].W)
	assert.Equal(t, []byte{RegMaximumDistanceLow, 0x40, 0x1F}, txs[3].W)

	mock.SetResponse(RegAmpThresholdLow, []byte{0x64, 0x00})
	threshold, err := device.SignalThreshold()
	require.NoError(t, err)
	assert.Equal(t, uint16(100), threshold)
}

func TestDevice_SlaveAddress(t *testing.T) {
	t.Parallel()

	device, mock := newTestDevice(t)
	mock.SetResponse(RegSlaveAddress, []byte{0x21})

	// The register read reports what the device holds, not the cache.
	addr, err := device.SlaveAddress()
	require.NoError(t, err)
	assert.Equal(t, byte(0x21), addr)
	assert.Equal(t, byte(DefaultAddress), device.Address())

	txs := mock.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, []byte{RegSlaveAddress}, txs[0].W)
	assert.Equal(t, 1, txs[0].ReadLen)
}

func TestDevice_PowerMode(t *testing.T) {
	t.Parallel()

	t.Run("normal", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegPowerSavingMode, []byte{0x00})

		mode, err := device.PowerMode()
		require.NoError(t, err)
		assert.Equal(t, PowerNormal, mode)
	})

	t.Run("power saving", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegPowerSavingMode, []byte{0x01})

		mode, err := device.PowerMode()
		require.NoError(t, err)
		assert.Equal(t, PowerSaving, mode)
	})

	t.Run("unacknowledged read means ultra-low", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegPowerSavingMode,
			NewTransportError("Tx", "mock", ErrNoACK, ErrorTypeTransient))

		mode, err := device.PowerMode()
		require.NoError(t, err)
		assert.Equal(t, PowerUltraLow, mode)
	})

	t.Run("timeout is a real error", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegPowerSavingMode, NewTimeoutError("Tx", "mock"))

		_, err := device.PowerMode()
		require.ErrorIs(t, err, ErrTransportTimeout)
	})

	t.Run("unknown register value", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetResponse(RegPowerSavingMode, []byte{0x07})

		_, err := device.PowerMode()
		require.ErrorIs(t, err, ErrInvalidData)
	})
}

func TestDevice_Wake(t *testing.T) {
	t.Parallel()

	t.Run("awake device acks immediately", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)

		require.NoError(t, device.Wake())
		assert.Equal(t, 1, mock.Calls())
	})

	t.Run("sleeping device nacks the first probe", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegDistanceLow, NewTransportError("Tx", "mock", ErrNoACK, ErrorTypeTransient))

		require.NoError(t, device.Wake())
	})

	t.Run("timeout is not mistaken for sleep", func(t *testing.T) {
		t.Parallel()
		device, mock := newTestDevice(t)
		mock.SetError(RegDistanceLow, NewTimeoutError("Tx", "mock"))

		err := device.Wake()
		require.ErrorIs(t, err, ErrTransportTimeout)
	})
}
