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

// Package detection finds TF-Luna sensors on the host's I2C buses by
// probing candidate addresses for the device signature.
package detection

import (
	"context"
	"errors"
	"fmt"

	tfluna "github.com/LunaSenseProject/go-tfluna"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ErrNoDevicesFound means no bus had a responding TF-Luna.
var ErrNoDevicesFound = errors.New("no TF-Luna devices found")

// DeviceInfo describes one detected sensor.
type DeviceInfo struct {
	// Bus is the periph.io bus name, e.g. "/dev/i2c-1".
	Bus string
	// Address is the 7-bit device address that answered.
	Address byte
	// Firmware is the firmware version read during probing.
	Firmware tfluna.FirmwareVersion
}

// String implements fmt.Stringer.
func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s@%#02x (firmware %s)", d.Bus, d.Address, d.Firmware)
}

// Options controls the scan.
type Options struct {
	// Addresses to probe on every bus. Empty means the factory default
	// address only.
	Addresses []byte
}

// DefaultOptions probes the factory default address.
func DefaultOptions() *Options {
	return &Options{Addresses: []byte{tfluna.DefaultAddress}}
}

// DetectAll scans every registered I2C bus for responding TF-Luna devices.
// A device counts as detected when it answers a signature read with "LUNA".
// Buses that fail to open are skipped, not fatal.
func DetectAll(ctx context.Context, opts *Options) ([]DeviceInfo, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	addresses := opts.Addresses
	if len(addresses) == 0 {
		addresses = []byte{tfluna.DefaultAddress}
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	var found []DeviceInfo
	for _, ref := range i2creg.All() {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		default:
		}

		bus, err := ref.Open()
		if err != nil {
			continue
		}
		for _, addr := range addresses {
			if !tfluna.ValidAddress(addr) {
				continue
			}
			info, ok := probe(bus, ref.Name, addr)
			if ok {
				found = append(found, info)
			}
		}
		_ = bus.Close()
	}

	if len(found) == 0 {
		return nil, ErrNoDevicesFound
	}
	return found, nil
}

// txer is the slice of the periph bus used for probing.
type txer interface {
	Tx(addr uint16, w, r []byte) error
}

func probe(bus txer, busName string, addr byte) (DeviceInfo, bool) {
	var sig [4]byte
	if err := bus.Tx(uint16(addr), []byte{tfluna.RegSignature}, sig[:]); err != nil {
		return DeviceInfo{}, false
	}
	if string(sig[:]) != "LUNA" {
		return DeviceInfo{}, false
	}

	info := DeviceInfo{Bus: busName, Address: addr}
	var ver [3]byte
	if err := bus.Tx(uint16(addr), []byte{tfluna.RegVersionRevision}, ver[:]); err == nil {
		info.Firmware = tfluna.FirmwareVersion{
			Major:    ver[2],
			Minor:    ver[1],
			Revision: ver[0],
		}
	}
	return info, true
}
