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

// DeviceConfig contains configuration options for the Device.
type DeviceConfig struct {
	// RetryConfig configures the caller-side retry wrapper, if one is
	// installed around the transport. The driver core never retries.
	RetryConfig *RetryConfig
	// Timeout is the per-transaction timeout pushed to the transport.
	Timeout time.Duration
}

// DefaultDeviceConfig returns the default device configuration.
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		RetryConfig: DefaultRetryConfig(),
		Timeout:     1 * time.Second,
	}
}

// Device drives one TF-Luna sensor over one exclusively-owned transport.
//
// Every operation exists in two execution variants sharing the same
// protocol logic: a blocking method (Measure) that returns once its bus
// transactions complete, and a context-aware method (MeasureContext) that
// suspends at transaction and delay boundaries. The blocking form is a
// thin wrapper over the context form.
//
// Thread safety: Device is NOT thread-safe. Operations on one instance are
// strictly ordered by call order; use a single goroutine or external
// synchronization. Two instances on the same physical bus are only safe to
// interleave if the bus transport guarantees transaction atomicity.
type Device struct {
	transport TransportContext
	config    *DeviceConfig
	addr      byte
	state     DeviceState
}

// New creates a Device and verifies the sensor identity. Blocking variant
// of NewContext.
func New(transport Transport, opts ...Option) (*Device, error) {
	return NewContext(context.Background(), transport, opts...)
}

// NewContext creates a Device over transport, validates the configured
// address, and probes the signature register to confirm a responsive
// TF-Luna. On success the instance is in StateConfigured.
//
// The address is validated before any transaction: out-of-range addresses
// fail with ErrInvalidAddress and the bus is never touched. A transport
// failure during the probe surfaces as ErrNoResponse.
func NewContext(ctx context.Context, transport Transport, opts ...Option) (*Device, error) {
	device := &Device{
		transport: AsTransportContext(transport),
		config:    DefaultDeviceConfig(),
		addr:      DefaultAddress,
		state:     StateUninitialized,
	}

	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	if !ValidAddress(device.addr) {
		return nil, fmt.Errorf("%w: %#02x not in [%#02x, %#02x]",
			ErrInvalidAddress, device.addr, AddressMin, AddressMax)
	}

	if device.config.Timeout > 0 {
		if err := device.transport.SetTimeout(device.config.Timeout); err != nil {
			return nil, fmt.Errorf("failed to set timeout on transport: %w", err)
		}
	}

	if err := device.InitContext(ctx); err != nil {
		return nil, err
	}
	return device, nil
}

// Init verifies the device identity. Blocking variant of InitContext.
func (d *Device) Init() error {
	return d.InitContext(context.Background())
}

// Transport returns the underlying transport.
func (d *Device) Transport() Transport {
	return d.transport
}

// Address returns the 7-bit bus address the instance currently targets.
func (d *Device) Address() byte {
	return d.addr
}

// State returns the current lifecycle state of the instance.
func (d *Device) State() DeviceState {
	return d.state
}

// SetTimeout sets the default per-transaction timeout.
func (d *Device) SetTimeout(timeout time.Duration) error {
	d.config.Timeout = timeout
	if err := d.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on transport: %w", err)
	}
	return nil
}

// SetRetryConfig updates the retry configuration of a TransportWithRetry
// wrapper, if the device was constructed over one.
func (d *Device) SetRetryConfig(config *RetryConfig) {
	d.config.RetryConfig = config
	if tr, ok := d.transport.(*transportContextAdapter); ok {
		if wrapped, ok := tr.Transport.(*TransportWithRetry); ok {
			wrapped.SetRetryConfig(config)
		}
	}
}

// Close closes the device connection.
func (d *Device) Close() error {
	if d.transport != nil {
		if err := d.transport.Close(); err != nil {
			return fmt.Errorf("failed to close transport: %w", err)
		}
	}
	return nil
}

// Enable starts measurement sampling. Blocking variant of EnableContext.
func (d *Device) Enable() error {
	return d.EnableContext(context.Background())
}

// Disable pauses measurement sampling. Blocking variant of DisableContext.
func (d *Device) Disable() error {
	return d.DisableContext(context.Background())
}

// Measure reads one measurement snapshot. Blocking variant of
// MeasureContext.
func (d *Device) Measure() (Measurement, error) {
	return d.MeasureContext(context.Background())
}

// FrameRate reads the configured output frame rate in Hz. Blocking
// variant of FrameRateContext.
func (d *Device) FrameRate() (uint16, error) {
	return d.FrameRateContext(context.Background())
}

// SetFrameRate configures the output frame rate in Hz. Blocking variant of
// SetFrameRateContext.
func (d *Device) SetFrameRate(rate uint16) error {
	return d.SetFrameRateContext(context.Background(), rate)
}

// SetAddress moves the device to a new bus address. Blocking variant of
// SetAddressContext.
func (d *Device) SetAddress(addr byte) error {
	return d.SetAddressContext(context.Background(), addr)
}

// Reset issues a soft reboot. Blocking variant of ResetContext.
func (d *Device) Reset() error {
	return d.ResetContext(context.Background())
}

// SaveSettings persists the current configuration to the device's
// non-volatile storage. Blocking variant of SaveSettingsContext.
func (d *Device) SaveSettings() error {
	return d.SaveSettingsContext(context.Background())
}

// Trigger requests a one-shot measurement in RangingTrigger mode.
// Blocking variant of TriggerContext.
func (d *Device) Trigger() error {
	return d.TriggerContext(context.Background())
}

// RangingMode reads the sampling mode. Blocking variant of
// RangingModeContext.
func (d *Device) RangingMode() (RangingMode, error) {
	return d.RangingModeContext(context.Background())
}

// SetRangingMode selects continuous or trigger sampling. Blocking variant
// of SetRangingModeContext.
func (d *Device) SetRangingMode(mode RangingMode) error {
	return d.SetRangingModeContext(context.Background(), mode)
}

// FirmwareVersion reads the device firmware version. Blocking variant of
// FirmwareVersionContext.
func (d *Device) FirmwareVersion() (FirmwareVersion, error) {
	return d.FirmwareVersionContext(context.Background())
}

// SerialNumber reads the 14-byte production code. Blocking variant of
// SerialNumberContext.
func (d *Device) SerialNumber() (SerialNumber, error) {
	return d.SerialNumberContext(context.Background())
}

// Signature reads the 4-byte ASCII identity. Blocking variant of
// SignatureContext.
func (d *Device) Signature() (Signature, error) {
	return d.SignatureContext(context.Background())
}

// SignalThreshold reads the amplitude threshold. Blocking variant of
// SignalThresholdContext.
func (d *Device) SignalThreshold() (uint16, error) {
	return d.SignalThresholdContext(context.Background())
}

// SetSignalThreshold sets the amplitude threshold below which the dummy
// distance is reported. Blocking variant of SetSignalThresholdContext.
func (d *Device) SetSignalThreshold(value uint16) error {
	return d.SetSignalThresholdContext(context.Background(), value)
}

// DummyDistance reads the placeholder distance reported on weak signals.
// Blocking variant of DummyDistanceContext.
func (d *Device) DummyDistance() (uint16, error) {
	return d.DummyDistanceContext(context.Background())
}

// SetDummyDistance sets the placeholder distance reported on weak signals.
// Blocking variant of SetDummyDistanceContext.
func (d *Device) SetDummyDistance(value uint16) error {
	return d.SetDummyDistanceContext(context.Background(), value)
}

// MinimumDistance reads the lower measurement bound in millimeters.
// Blocking variant of MinimumDistanceContext.
func (d *Device) MinimumDistance() (uint16, error) {
	return d.MinimumDistanceContext(context.Background())
}

// SetMinimumDistance sets the lower measurement bound in millimeters.
// Blocking variant of SetMinimumDistanceContext.
func (d *Device) SetMinimumDistance(value uint16) error {
	return d.SetMinimumDistanceContext(context.Background(), value)
}

// MaximumDistance reads the upper measurement bound in millimeters.
// Blocking variant of MaximumDistanceContext.
func (d *Device) MaximumDistance() (uint16, error) {
	return d.MaximumDistanceContext(context.Background())
}

// SetMaximumDistance sets the upper measurement bound in millimeters.
// Blocking variant of SetMaximumDistanceContext.
func (d *Device) SetMaximumDistance(value uint16) error {
	return d.SetMaximumDistanceContext(context.Background(), value)
}

// ErrorCode reads the device-reported error word. Blocking variant of
// ErrorCodeContext.
func (d *Device) ErrorCode() (uint16, error) {
	return d.ErrorCodeContext(context.Background())
}

// RestoreFactoryDefaults resets all configurable parameters to factory
// values. Blocking variant of RestoreFactoryDefaultsContext.
func (d *Device) RestoreFactoryDefaults() error {
	return d.RestoreFactoryDefaultsContext(context.Background())
}

// SlaveAddress reads the address register from the device itself.
// Blocking variant of SlaveAddressContext.
func (d *Device) SlaveAddress() (byte, error) {
	return d.SlaveAddressContext(context.Background())
}

// PowerMode reads the device power profile. Blocking variant of
// PowerModeContext.
func (d *Device) PowerMode() (PowerMode, error) {
	return d.PowerModeContext(context.Background())
}

// SetPowerMode selects the device power profile. Blocking variant of
// SetPowerModeContext.
func (d *Device) SetPowerMode(mode PowerMode) error {
	return d.SetPowerModeContext(context.Background(), mode)
}

// Wake wakes the device from ultra-low power mode. Blocking variant of
// WakeContext.
func (d *Device) Wake() error {
	return d.WakeContext(context.Background())
}
