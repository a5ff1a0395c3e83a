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
	"errors"
	"fmt"
	"time"
)

// This file holds the single source of truth for the protocol state
// machine. The blocking methods in device.go delegate here with
// context.Background().

// guard rejects every operation on a faulted instance before any
// transaction is attempted.
func (d *Device) guard() error {
	if d.state == StateFaulted {
		return ErrFaulted
	}
	return nil
}

// txContext runs one transaction against the cached device address. A
// failure the transport classifies as fatal moves the instance to its
// terminal StateFaulted.
func (d *Device) txContext(ctx context.Context, w, r []byte) error {
	err := d.transport.TxContext(ctx, d.addr, w, r)
	if err != nil {
		if GetErrorType(err) == ErrorTypeFatal {
			d.state = StateFaulted
			debugf("fatal transport failure at %#02x, instance faulted", d.addr)
		}
		return err
	}
	return nil
}

func (d *Device) readContext(ctx context.Context, reg byte, buf []byte) error {
	return d.txContext(ctx, []byte{reg}, buf)
}

func (d *Device) readByteContext(ctx context.Context, reg byte) (byte, error) {
	var buf [1]byte
	if err := d.readContext(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readWordContext reads two consecutive registers as a little-endian word,
// low byte at reg.
func (d *Device) readWordContext(ctx context.Context, reg byte) (uint16, error) {
	var buf [2]byte
	if err := d.readContext(ctx, reg, buf[:]); err != nil {
		return 0, err
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (d *Device) writeContext(ctx context.Context, seq []byte) error {
	return d.txContext(ctx, seq, nil)
}

// delayContext honors a datasheet settling delay while remaining
// responsive to cancellation.
func (d *Device) delayContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InitContext probes the signature register and requires the device to
// identify as a TF-Luna. On success the instance moves to StateConfigured.
// Required after construction (NewContext does it) and again after any
// operation that reboots the device.
func (d *Device) InitContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	sig, err := d.SignatureContext(ctx)
	if err != nil {
		return fmt.Errorf("%w at %#02x: %w", ErrNoResponse, d.addr, err)
	}
	if sig != Signature(deviceSignature) {
		return fmt.Errorf("%w: read %q at %#02x, want %q",
			ErrDeviceNotFound, sig.String(), d.addr, string(deviceSignature[:]))
	}
	d.state = StateConfigured
	debugf("device at %#02x verified, signature %q", d.addr, sig.String())
	return nil
}

// EnableContext starts measurement sampling. Valid from StateConfigured,
// StateEnabled, or StateDisabled; enabling an already-enabled device is a
// no-op success. State is unchanged on failure.
func (d *Device) EnableContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if d.state == StateUninitialized {
		return ErrNotConfigured
	}
	if d.state == StateEnabled {
		return nil
	}
	if err := d.writeContext(ctx, EncodeEnable(true)); err != nil {
		return fmt.Errorf("enable failed: %w", err)
	}
	d.state = StateEnabled
	return nil
}

// DisableContext pauses measurement sampling; configuration is retained.
// Valid from StateConfigured, StateEnabled, or StateDisabled; disabling an
// already-disabled device is a no-op success. State is unchanged on
// failure.
func (d *Device) DisableContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if d.state == StateUninitialized {
		return ErrNotConfigured
	}
	if d.state == StateDisabled {
		return nil
	}
	if err := d.writeContext(ctx, EncodeEnable(false)); err != nil {
		return fmt.Errorf("disable failed: %w", err)
	}
	d.state = StateDisabled
	return nil
}

// MeasureContext reads one distance/strength/temperature snapshot. Valid
// only from StateEnabled; otherwise it fails with ErrNotEnabled without a
// transaction.
//
// A checksum failure surfaces as ErrChecksumMismatch with the frame
// discarded entirely and no retry: the sensor refreshes its registers
// continuously, so a caller re-issuing MeasureContext gets a fresh,
// independent read. The instance stays in StateEnabled.
func (d *Device) MeasureContext(ctx context.Context) (Measurement, error) {
	if err := d.guard(); err != nil {
		return Measurement{}, err
	}
	if d.state != StateEnabled {
		return Measurement{}, ErrNotEnabled
	}
	var buf [MeasurementFrameLength]byte
	if err := d.txContext(ctx, EncodeMeasurementRequest(), buf[:]); err != nil {
		return Measurement{}, fmt.Errorf("measurement read failed: %w", err)
	}
	m, err := DecodeMeasurement(buf[:])
	if err != nil {
		return Measurement{}, err
	}
	return m, nil
}

// FrameRateContext reads the configured output frame rate in Hz.
func (d *Device) FrameRateContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegFrameRateLow)
}

// SetFrameRateContext configures the output frame rate. The divisor rule
// (500/n Hz, n in [2, 500]) is checked before any transaction. Valid in
// any non-faulted state; does not change lifecycle state.
func (d *Device) SetFrameRateContext(ctx context.Context, rate uint16) error {
	if err := d.guard(); err != nil {
		return err
	}
	seq, err := EncodeFrameRate(rate)
	if err != nil {
		return err
	}
	if err := d.writeContext(ctx, seq); err != nil {
		return fmt.Errorf("frame rate write failed: %w", err)
	}
	return nil
}

// SetAddressContext writes a new 7-bit bus address into the device's
// configuration register. The cached in-memory address is updated only
// after the write transaction succeeds, so on failure both device and
// cache stay consistent with the address in effect before the call.
//
// The change does not survive a power cycle without SaveSettings.
func (d *Device) SetAddressContext(ctx context.Context, addr byte) error {
	if err := d.guard(); err != nil {
		return err
	}
	seq, err := EncodeAddressChange(addr)
	if err != nil {
		return err
	}
	if err := d.writeContext(ctx, seq); err != nil {
		return fmt.Errorf("address change write failed: %w", err)
	}
	debugf("device address changed %#02x -> %#02x", d.addr, addr)
	d.addr = addr
	return nil
}

// ResetContext issues the soft-reset command. The device re-enters its
// default or last-saved configuration; the instance drops back to
// StateUninitialized and must pass InitContext before further use, since a
// reset may change timing and defaults.
func (d *Device) ResetContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := d.writeContext(ctx, EncodeSoftReset()); err != nil {
		return fmt.Errorf("soft reset failed: %w", err)
	}
	d.state = StateUninitialized
	debugln("device rebooting, identity verification required before further use")
	return nil
}

// SaveSettingsContext persists the current configuration (address, frame
// rate, enable flag) to the device's non-volatile storage. Persistence is
// always explicit: no other operation saves implicitly. Does not change
// lifecycle state.
func (d *Device) SaveSettingsContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := d.writeContext(ctx, EncodeSaveSettings()); err != nil {
		return fmt.Errorf("save settings failed: %w", err)
	}
	return nil
}

// TriggerContext requests a one-shot measurement. Only effective when the
// device is in RangingTrigger mode.
func (d *Device) TriggerContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := d.writeContext(ctx, EncodeTrigger()); err != nil {
		return fmt.Errorf("trigger failed: %w", err)
	}
	return nil
}

// RangingModeContext reads the sampling mode.
func (d *Device) RangingModeContext(ctx context.Context) (RangingMode, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	b, err := d.readByteContext(ctx, RegRangingMode)
	if err != nil {
		return 0, err
	}
	switch RangingMode(b) {
	case RangingContinuous, RangingTrigger:
		return RangingMode(b), nil
	default:
		return 0, fmt.Errorf("%w: ranging mode register holds %#02x", ErrInvalidData, b)
	}
}

// SetRangingModeContext selects continuous or trigger sampling.
func (d *Device) SetRangingModeContext(ctx context.Context, mode RangingMode) error {
	if err := d.guard(); err != nil {
		return err
	}
	seq, err := EncodeRangingMode(mode)
	if err != nil {
		return err
	}
	if err := d.writeContext(ctx, seq); err != nil {
		return fmt.Errorf("ranging mode write failed: %w", err)
	}
	return nil
}

// FirmwareVersionContext reads the device firmware version.
func (d *Device) FirmwareVersionContext(ctx context.Context) (FirmwareVersion, error) {
	if err := d.guard(); err != nil {
		return FirmwareVersion{}, err
	}
	var buf [3]byte
	if err := d.readContext(ctx, RegVersionRevision, buf[:]); err != nil {
		return FirmwareVersion{}, err
	}
	return FirmwareVersion{
		Major:    buf[2],
		Minor:    buf[1],
		Revision: buf[0],
	}, nil
}

// SerialNumberContext reads the 14-byte production code.
func (d *Device) SerialNumberContext(ctx context.Context) (SerialNumber, error) {
	if err := d.guard(); err != nil {
		return SerialNumber{}, err
	}
	var sn SerialNumber
	if err := d.readContext(ctx, RegSerialNumber, sn[:]); err != nil {
		return SerialNumber{}, err
	}
	return sn, nil
}

// SignatureContext reads the 4-byte ASCII identity.
func (d *Device) SignatureContext(ctx context.Context) (Signature, error) {
	if err := d.guard(); err != nil {
		return Signature{}, err
	}
	var sig Signature
	if err := d.readContext(ctx, RegSignature, sig[:]); err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// SignalThresholdContext reads the amplitude threshold. When the measured
// strength falls below threshold*10 the device reports the dummy distance.
func (d *Device) SignalThresholdContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegAmpThresholdLow)
}

// SetSignalThresholdContext sets the amplitude threshold.
func (d *Device) SetSignalThresholdContext(ctx context.Context, value uint16) error {
	return d.writeWordContext(ctx, RegAmpThresholdLow, value)
}

// DummyDistanceContext reads the placeholder distance used on weak signals.
func (d *Device) DummyDistanceContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegDummyDistanceLow)
}

// SetDummyDistanceContext sets the placeholder distance.
func (d *Device) SetDummyDistanceContext(ctx context.Context, value uint16) error {
	return d.writeWordContext(ctx, RegDummyDistanceLow, value)
}

// MinimumDistanceContext reads the lower measurement bound in millimeters.
func (d *Device) MinimumDistanceContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegMinimumDistanceLow)
}

// SetMinimumDistanceContext sets the lower measurement bound.
func (d *Device) SetMinimumDistanceContext(ctx context.Context, value uint16) error {
	return d.writeWordContext(ctx, RegMinimumDistanceLow, value)
}

// MaximumDistanceContext reads the upper measurement bound in millimeters.
func (d *Device) MaximumDistanceContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegMaximumDistanceLow)
}

// SetMaximumDistanceContext sets the upper measurement bound.
func (d *Device) SetMaximumDistanceContext(ctx context.Context, value uint16) error {
	return d.writeWordContext(ctx, RegMaximumDistanceLow, value)
}

// ErrorCodeContext reads the device-reported error word.
func (d *Device) ErrorCodeContext(ctx context.Context) (uint16, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readWordContext(ctx, RegErrorLow)
}

// RestoreFactoryDefaultsContext resets all configurable parameters to
// factory values.
func (d *Device) RestoreFactoryDefaultsContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := d.writeContext(ctx, EncodeRestoreFactoryDefaults()); err != nil {
		return fmt.Errorf("restore factory defaults failed: %w", err)
	}
	return nil
}

// SlaveAddressContext reads the address register from the device itself,
// as opposed to Address, which returns the driver's cached value.
func (d *Device) SlaveAddressContext(ctx context.Context) (byte, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	return d.readByteContext(ctx, RegSlaveAddress)
}

// PowerModeContext reads the device power profile. A device in ultra-low
// power mode does not acknowledge bus transactions, so an unacknowledged
// probe read reports PowerUltraLow rather than an error.
func (d *Device) PowerModeContext(ctx context.Context) (PowerMode, error) {
	if err := d.guard(); err != nil {
		return 0, err
	}
	b, err := d.readByteContext(ctx, RegPowerSavingMode)
	if err != nil {
		if errors.Is(err, ErrNoACK) {
			return PowerUltraLow, nil
		}
		return 0, err
	}
	switch b {
	case 0x00:
		return PowerNormal, nil
	case 0x01:
		return PowerSaving, nil
	default:
		return 0, fmt.Errorf("%w: power mode register holds %#02x", ErrInvalidData, b)
	}
}

// writeWordContext writes a 16-bit value into two consecutive registers,
// low byte first.
func (d *Device) writeWordContext(ctx context.Context, reg byte, value uint16) error {
	if err := d.guard(); err != nil {
		return err
	}
	if err := d.writeContext(ctx, []byte{reg, byte(value), byte(value >> 8)}); err != nil {
		return fmt.Errorf("register %#02x write failed: %w", reg, err)
	}
	return nil
}

// SetPowerModeContext selects the device power profile.
//
// Transitions into and out of PowerUltraLow are multi-register composites
// (mode, save, reboot written in one transaction) and are NOT atomic as a
// group with any other configuration change. Any transition through
// ultra-low reboots the device: the instance drops to StateUninitialized
// and must pass InitContext before further use.
func (d *Device) SetPowerModeContext(ctx context.Context, mode PowerMode) error {
	if err := d.guard(); err != nil {
		return err
	}
	switch mode {
	case PowerNormal, PowerSaving:
		if err := d.exitUltraLowContext(ctx); err != nil {
			return err
		}
		value := byte(0x00)
		if mode == PowerSaving {
			value = 0x01
		}
		if err := d.writeContext(ctx, []byte{RegPowerSavingMode, value}); err != nil {
			return fmt.Errorf("power mode write failed: %w", err)
		}
		// The manual asks for a settling delay after power mode changes.
		return d.delayContext(ctx, 100*time.Millisecond)
	case PowerUltraLow:
		seq := []byte{RegUltraLowPower, 0x01, cmdSave, cmdReboot}
		if err := d.writeContext(ctx, seq); err != nil {
			return fmt.Errorf("ultra-low power write failed: %w", err)
		}
		d.state = StateUninitialized
		// Device saves and reboots; give it a second to come back.
		return d.delayContext(ctx, time.Second)
	default:
		return fmt.Errorf("%w: power mode %d", ErrInvalidData, byte(mode))
	}
}

// exitUltraLowContext wakes the device and clears the ultra-low power
// flag, saving and rebooting in the process.
func (d *Device) exitUltraLowContext(ctx context.Context) error {
	if err := d.WakeContext(ctx); err != nil {
		return err
	}
	seq := []byte{RegUltraLowPower, 0x00, cmdSave, cmdReboot}
	if err := d.writeContext(ctx, seq); err != nil {
		return fmt.Errorf("ultra-low power clear failed: %w", err)
	}
	d.state = StateUninitialized
	return d.delayContext(ctx, time.Second)
}

// WakeContext wakes the device from ultra-low power mode by touching a
// register. An unacknowledged read means the device was asleep; the manual
// requires a 12 ms wait after awakening. Any other failure, such as a bus
// timeout, is a real error and surfaces as one. In other power modes this
// is a plain register read with no delay.
func (d *Device) WakeContext(ctx context.Context) error {
	if err := d.guard(); err != nil {
		return err
	}
	if _, err := d.readByteContext(ctx, RegDistanceLow); err != nil {
		if errors.Is(err, ErrNoACK) {
			return d.delayContext(ctx, 12*time.Millisecond)
		}
		return fmt.Errorf("wake probe failed: %w", err)
	}
	return nil
}
