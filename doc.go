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

/*
Package tfluna provides a pure Go driver for the Benewake TF-Luna
single-beam LiDAR ranging sensor in I2C mode.

The TF-Luna reports distance (up to about 8 m), signal amplitude, and chip
temperature, and is reconfigurable over the same bus: output frame rate,
device address, sampling mode, and power profile. This library turns the
sensor's register map into a small set of verified, typed operations.

Features:
  - One protocol engine, two execution disciplines: every operation has a
    blocking form (Measure) and a context-aware form (MeasureContext)
  - Checksum-verified measurement frames; corrupted reads are discarded
    entirely, never partially trusted
  - Transports: periph.io host I2C, gobot adaptors, or any custom
    implementation of the two-method Transport interface
  - Explicit error taxonomy with errors.Is/As support
  - Opt-in caller-side retry wrapper; the core never retries on its own

Basic usage:

	import (
	    tfluna "github.com/LunaSenseProject/go-tfluna"
	    "github.com/LunaSenseProject/go-tfluna/transport/i2c"
	)

	transport, err := i2c.New("/dev/i2c-1")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	device, err := tfluna.New(transport)
	if err != nil {
	    log.Fatal(err)
	}
	if err := device.Enable(); err != nil {
	    log.Fatal(err)
	}

	m, err := device.Measure()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("distance: %d cm (strength %d, %.2f C)\n",
	    m.Distance, m.Strength, m.TemperatureCelsius())

Reconfiguration:

	// 10 Hz output; rates must be divisors of 500 in [1, 250]
	if err := device.SetFrameRate(10); err != nil { ... }

	// Move the sensor to a new bus address, then persist it
	if err := device.SetAddress(0x20); err != nil { ... }
	if err := device.SaveSettings(); err != nil { ... }

Nothing persists across a power cycle without an explicit SaveSettings
call; SetAddress and SetFrameRate alone only change the running
configuration.

Suspending execution:

The Context variants suspend the calling goroutine at transaction and
settling-delay boundaries instead of blocking, and honor cancellation
between (never inside) transactions:

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	m, err := device.MeasureContext(ctx)

Error handling:

All failures are explicit return values classified by sentinel:

	m, err := device.Measure()
	switch {
	case errors.Is(err, tfluna.ErrChecksumMismatch):
	    // corrupted frame; calling Measure again is a fresh read
	case errors.Is(err, tfluna.ErrNotEnabled):
	    // call Enable first
	case errors.Is(err, tfluna.ErrFaulted):
	    // terminal; rebuild the device over a fresh transport
	}

Device is not safe for concurrent use; each instance exclusively owns its
transport and serializes operations structurally.
*/
package tfluna
