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

// Package frame provides frame sizes and the additive checksum used by the
// TF-Luna measurement block.
package frame

// Measurement frame layout: three little-endian 16-bit words followed by a
// single additive checksum byte.
const (
	// MeasurementPayloadLength is the number of data bytes in a
	// measurement frame (distance, amplitude, temperature; 2 bytes each).
	MeasurementPayloadLength = 6
	// MeasurementFrameLength is the full frame size including the
	// trailing checksum byte.
	MeasurementFrameLength = MeasurementPayloadLength + 1
)

// Checksum computes the unsigned 8-bit sum (mod 256) of data.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Verify reports whether the last byte of frm equals the checksum of the
// bytes preceding it. Frames shorter than two bytes never verify.
func Verify(frm []byte) bool {
	if len(frm) < 2 {
		return false
	}
	return Checksum(frm[:len(frm)-1]) == frm[len(frm)-1]
}

// Append appends the checksum of payload to payload and returns the
// resulting frame.
func Append(payload []byte) []byte {
	return append(payload, Checksum(payload))
}

// Word combines two bytes into a 16-bit word, little-endian.
func Word(lo, hi byte) uint16 {
	return uint16(lo) | uint16(hi)<<8
}

// PutWord splits a 16-bit word into its little-endian bytes.
func PutWord(v uint16) (lo, hi byte) {
	return byte(v), byte(v >> 8)
}
