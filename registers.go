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

// TF-Luna register map (I2C mode). Multi-byte values are little-endian with
// the low byte at the named register and the high byte at the next address.
const (
	// RegDistanceLow is the start of the measurement block:
	// distance (cm), amplitude, chip temperature (0.01 degC units).
	RegDistanceLow    = 0x00
	RegAmplitudeLow   = 0x02
	RegTemperatureLow = 0x04
	RegTickLow        = 0x06
	RegErrorLow       = 0x08

	// Firmware version bytes, revision first.
	RegVersionRevision = 0x0A
	RegVersionMinor    = 0x0B
	RegVersionMajor    = 0x0C

	// RegSerialNumber is the start of a 14-byte production code.
	RegSerialNumber = 0x10

	RegUltraLowPower   = 0x1F
	RegSave            = 0x20
	RegShutdownReboot  = 0x21
	RegSlaveAddress    = 0x22
	RegRangingMode     = 0x23
	RegTrigger         = 0x24
	RegEnable          = 0x25
	RegFrameRateLow    = 0x26
	RegFrameRateHigh   = 0x27
	RegPowerSavingMode = 0x28
	RegRestoreFactory  = 0x29

	RegAmpThresholdLow    = 0x2A
	RegDummyDistanceLow   = 0x2C
	RegMinimumDistanceLow = 0x2E
	RegMaximumDistanceLow = 0x30

	// RegSignature is the start of the 4-byte ASCII signature "LUNA".
	RegSignature = 0x3C
)

// Command values written to trigger-style registers.
const (
	cmdSave           = 0x01
	cmdReboot         = 0x02
	cmdRestoreFactory = 0x01
	cmdTrigger        = 0x01
	cmdEnable         = 0x01
	cmdDisable        = 0x00
)

// I2C addressing limits.
const (
	// DefaultAddress is the factory 7-bit device address.
	DefaultAddress byte = 0x10
	// AddressMin and AddressMax bound the legal unreserved 7-bit
	// address space the device may be moved to.
	AddressMin byte = 0x08
	AddressMax byte = 0x77
)

// deviceSignature is the ASCII signature at RegSignature.
var deviceSignature = [4]byte{'L', 'U', 'N', 'A'}

const serialNumberLength = 14
