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

// Package polling provides a continuous measurement loop over one TF-Luna
// device with callback delivery.
package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	tfluna "github.com/LunaSenseProject/go-tfluna"
)

// Config controls the measurement loop.
type Config struct {
	// Interval between reads. Zero derives the interval from the
	// device's configured frame rate at Start.
	Interval time.Duration
	// StopOnError ends the loop on the first read error instead of
	// reporting it through OnError and continuing. Checksum failures are
	// never fatal to the loop: the next read is an independent frame.
	StopOnError bool
}

// DefaultConfig polls at 10 Hz and keeps going through transient errors.
func DefaultConfig() *Config {
	return &Config{Interval: 100 * time.Millisecond}
}

// Monitor reads measurements continuously and hands them to callbacks.
type Monitor struct {
	device *tfluna.Device
	config *Config

	// OnReading receives every successful measurement. Returning an
	// error stops the loop.
	OnReading func(m tfluna.Measurement) error
	// OnError receives read failures when StopOnError is unset.
	OnError func(err error)
}

// NewMonitor creates a monitor over device.
func NewMonitor(device *tfluna.Device, config *Config) *Monitor {
	if config == nil {
		config = DefaultConfig()
	}
	return &Monitor{
		device: device,
		config: config,
	}
}

// Device returns the underlying device.
func (m *Monitor) Device() *tfluna.Device {
	return m.device
}

// Close closes the monitor and its device.
func (m *Monitor) Close() error {
	if err := m.device.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}

// Start runs the measurement loop until the context is done, a callback
// returns an error, or (with StopOnError) a read fails. The device is
// enabled first if it is not already sampling.
func (m *Monitor) Start(ctx context.Context) error {
	if m.device.State() != tfluna.StateEnabled {
		if err := m.device.EnableContext(ctx); err != nil {
			return fmt.Errorf("failed to enable device: %w", err)
		}
	}

	interval := m.config.Interval
	if interval <= 0 {
		interval = m.intervalFromFrameRate(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		reading, err := m.device.MeasureContext(ctx)
		if err != nil {
			if errors.Is(err, tfluna.ErrFaulted) {
				return err
			}
			if m.config.StopOnError && !errors.Is(err, tfluna.ErrChecksumMismatch) {
				return err
			}
			if m.OnError != nil {
				m.OnError(err)
			}
			continue
		}

		if m.OnReading != nil {
			if err := m.OnReading(reading); err != nil {
				return err
			}
		}
	}
}

// intervalFromFrameRate asks the device for its output rate and polls at
// that cadence, falling back to the default on any failure.
func (m *Monitor) intervalFromFrameRate(ctx context.Context) time.Duration {
	rate, err := m.device.FrameRateContext(ctx)
	if err != nil || rate == 0 {
		return DefaultConfig().Interval
	}
	return time.Second / time.Duration(rate)
}
