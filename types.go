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

import "fmt"

// Measurement is a single snapshot read from the sensor's output block.
// It is a plain value; every successful Measure call produces a fresh one.
//
// Values outside the documented 20-800 cm operating range are returned
// verbatim. Judging validity (for example against Strength) is left to the
// caller.
type Measurement struct {
	// Distance to the target in centimeters.
	Distance uint16
	// Strength is the signal amplitude in sensor-internal units,
	// typically 0-1000. Low values mean low confidence.
	Strength uint16
	// Temperature is the internal chip temperature in hundredths of a
	// degree Celsius, e.g. 1500 for 15.00 degC.
	Temperature int16
}

// TemperatureCelsius returns the chip temperature in degrees Celsius.
func (m Measurement) TemperatureCelsius() float32 {
	return float32(m.Temperature) / 100
}

// String implements fmt.Stringer.
func (m Measurement) String() string {
	return fmt.Sprintf("distance=%dcm strength=%d temp=%.2fC",
		m.Distance, m.Strength, m.TemperatureCelsius())
}

// FirmwareVersion holds the device firmware version.
type FirmwareVersion struct {
	Major    uint8
	Minor    uint8
	Revision uint8
}

// String implements fmt.Stringer.
func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// SerialNumber is the 14-byte ASCII production code of the device.
type SerialNumber [serialNumberLength]byte

// String implements fmt.Stringer.
func (s SerialNumber) String() string {
	return string(s[:])
}

// Signature is the 4-byte ASCII identity of the device ("LUNA").
type Signature [4]byte

// String implements fmt.Stringer.
func (s Signature) String() string {
	return string(s[:])
}

// RangingMode selects how the sensor samples.
type RangingMode byte

const (
	// RangingContinuous keeps the sensor sampling at 500 Hz internally,
	// averaging down to the configured output frame rate.
	RangingContinuous RangingMode = 0
	// RangingTrigger stops autonomous sampling; measurements happen only
	// when explicitly triggered.
	RangingTrigger RangingMode = 1
)

// String implements fmt.Stringer.
func (m RangingMode) String() string {
	switch m {
	case RangingContinuous:
		return "continuous"
	case RangingTrigger:
		return "trigger"
	default:
		return fmt.Sprintf("ranging(%d)", byte(m))
	}
}

// PowerMode selects the device power profile.
type PowerMode byte

const (
	// PowerNormal is the full-performance mode.
	PowerNormal PowerMode = iota
	// PowerSaving reduces consumption at some performance cost.
	PowerSaving
	// PowerUltraLow is the lowest-consumption mode. Entering it saves
	// settings and reboots the device as a side effect.
	PowerUltraLow
)

// String implements fmt.Stringer.
func (m PowerMode) String() string {
	switch m {
	case PowerNormal:
		return "normal"
	case PowerSaving:
		return "power-saving"
	case PowerUltraLow:
		return "ultra-low"
	default:
		return fmt.Sprintf("power(%d)", byte(m))
	}
}

// DeviceState is the lifecycle state of a Device instance.
type DeviceState int

const (
	// StateUninitialized means the instance exists but the device has
	// not been verified, or a reset requires re-verification.
	StateUninitialized DeviceState = iota
	// StateConfigured means the device identity was verified.
	StateConfigured
	// StateEnabled means measurement sampling is active.
	StateEnabled
	// StateDisabled means sampling is paused; configuration is retained.
	StateDisabled
	// StateFaulted is terminal: the transport reported an unrecoverable
	// failure and the instance refuses all further operations.
	StateFaulted
)

// String implements fmt.Stringer.
func (s DeviceState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateEnabled:
		return "enabled"
	case StateDisabled:
		return "disabled"
	case StateFaulted:
		return "faulted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}
