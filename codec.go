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
	"fmt"

	"github.com/LunaSenseProject/go-tfluna/internal/frame"
)

// This file is the pure codec layer: it turns register addresses and values
// into byte sequences and back, and owns every validity rule. Nothing here
// performs a bus transaction.

// MeasurementFrameLength is the size of the frame returned by a
// measurement read, including the trailing checksum byte.
const MeasurementFrameLength = frame.MeasurementFrameLength

// ValidAddress reports whether a is a legal unreserved 7-bit I2C address
// for the device.
func ValidAddress(a byte) bool {
	return a >= AddressMin && a <= AddressMax
}

// ValidFrameRate reports whether rate is an output rate the device
// accepts: 500/n Hz for integer n in [2, 500].
func ValidFrameRate(rate uint16) bool {
	return rate >= 1 && rate <= 250 && 500%rate == 0
}

// EncodeMeasurementRequest returns the selector written to initiate a read
// of the distance/strength/temperature block.
func EncodeMeasurementRequest() []byte {
	return []byte{RegDistanceLow}
}

// DecodeMeasurement parses the raw frame returned by a measurement
// transaction. The frame must be exactly MeasurementFrameLength bytes and
// its trailing byte must equal the sum mod 256 of the preceding bytes; on
// any failure no Measurement is produced.
func DecodeMeasurement(frm []byte) (Measurement, error) {
	if len(frm) != frame.MeasurementFrameLength {
		return Measurement{}, fmt.Errorf("%w: got %d bytes, want %d",
			ErrFrameLength, len(frm), frame.MeasurementFrameLength)
	}
	if !frame.Verify(frm) {
		return Measurement{}, fmt.Errorf("%w: computed %#02x, frame carries %#02x",
			ErrChecksumMismatch, frame.Checksum(frm[:frame.MeasurementPayloadLength]), frm[frame.MeasurementPayloadLength])
	}
	return Measurement{
		Distance:    frame.Word(frm[0], frm[1]),
		Strength:    frame.Word(frm[2], frm[3]),
		Temperature: int16(frame.Word(frm[4], frm[5])),
	}, nil
}

// EncodeEnable returns the write sequence that starts or stops sampling.
func EncodeEnable(enable bool) []byte {
	if enable {
		return []byte{RegEnable, cmdEnable}
	}
	return []byte{RegEnable, cmdDisable}
}

// EncodeFrameRate returns the write sequence for the output frame rate
// registers, or ErrInvalidFrameRate if rate violates the divisor rule.
func EncodeFrameRate(rate uint16) ([]byte, error) {
	if !ValidFrameRate(rate) {
		return nil, fmt.Errorf("%w: %d Hz", ErrInvalidFrameRate, rate)
	}
	lo, hi := frame.PutWord(rate)
	return []byte{RegFrameRateLow, lo, hi}, nil
}

// DecodeFrameRate parses the rate back out of a sequence produced by
// EncodeFrameRate.
func DecodeFrameRate(seq []byte) (uint16, error) {
	if len(seq) != 3 || seq[0] != RegFrameRateLow {
		return 0, fmt.Errorf("%w: not a frame rate sequence", ErrFrameLength)
	}
	return frame.Word(seq[1], seq[2]), nil
}

// EncodeAddressChange returns the write sequence that moves the device to
// a new 7-bit bus address, or ErrInvalidAddress if addr is out of range.
// The change only survives a power cycle after a save.
func EncodeAddressChange(addr byte) ([]byte, error) {
	if !ValidAddress(addr) {
		return nil, fmt.Errorf("%w: %#02x not in [%#02x, %#02x]",
			ErrInvalidAddress, addr, AddressMin, AddressMax)
	}
	return []byte{RegSlaveAddress, addr}, nil
}

// EncodeSoftReset returns the write sequence that reboots the device into
// its default or last-saved configuration.
func EncodeSoftReset() []byte {
	return []byte{RegShutdownReboot, cmdReboot}
}

// EncodeSaveSettings returns the write sequence that persists the current
// configuration to the device's non-volatile storage.
func EncodeSaveSettings() []byte {
	return []byte{RegSave, cmdSave}
}

// EncodeTrigger returns the write sequence that requests a one-shot
// measurement. Only effective in RangingTrigger mode.
func EncodeTrigger() []byte {
	return []byte{RegTrigger, cmdTrigger}
}

// EncodeRangingMode returns the write sequence selecting continuous or
// trigger sampling.
func EncodeRangingMode(mode RangingMode) ([]byte, error) {
	if mode != RangingContinuous && mode != RangingTrigger {
		return nil, fmt.Errorf("%w: ranging mode %d", ErrInvalidData, byte(mode))
	}
	return []byte{RegRangingMode, byte(mode)}, nil
}

// EncodeRestoreFactoryDefaults returns the write sequence that resets all
// configurable parameters to factory values.
func EncodeRestoreFactoryDefaults() []byte {
	return []byte{RegRestoreFactory, cmdRestoreFactory}
}
