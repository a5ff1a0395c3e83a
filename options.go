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
	"time"
)

// Option is a functional option for configuring a Device at construction.
type Option func(*Device) error

// WithAddress targets a device that was moved away from DefaultAddress.
// The address is range-checked before the constructor touches the bus.
func WithAddress(addr byte) Option {
	return func(d *Device) error {
		if !ValidAddress(addr) {
			return fmt.Errorf("%w: %#02x not in [%#02x, %#02x]",
				ErrInvalidAddress, addr, AddressMin, AddressMax)
		}
		d.addr = addr
		return nil
	}
}

// WithTimeout sets the default per-transaction timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		d.config.Timeout = timeout
		return nil
	}
}

// WithRetryConfig sets the retry configuration used by a
// TransportWithRetry wrapper, if the device is constructed over one.
func WithRetryConfig(config *RetryConfig) Option {
	return func(d *Device) error {
		d.SetRetryConfig(config)
		return nil
	}
}
