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

package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/urfave/cli/v2"

	tfluna "github.com/LunaSenseProject/go-tfluna"
	"github.com/LunaSenseProject/go-tfluna/detection"
	"github.com/LunaSenseProject/go-tfluna/polling"
	"github.com/LunaSenseProject/go-tfluna/transport/i2c"
)

// openDevice builds a device from the global --bus/--address flags. The
// returned closer shuts down the transport.
func openDevice(c *cli.Context) (*tfluna.Device, func(), error) {
	transport, err := i2c.New(c.String("bus"))
	if err != nil {
		return nil, nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	device, err := tfluna.New(transport, tfluna.WithAddress(byte(c.Uint("address"))))
	if err != nil {
		_ = transport.Close()
		return nil, nil, fmt.Errorf("could not initialize device: %w", err)
	}
	return device, func() { _ = device.Close() }, nil
}

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read a single measurement",
	Action: func(c *cli.Context) error {
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		if err := device.Enable(); err != nil {
			return cli.Exit(fmt.Sprintf("could not enable sampling: %v", err), 1)
		}
		m, err := device.Measure()
		if err != nil {
			return cli.Exit(fmt.Sprintf("measurement failed: %v", err), 1)
		}
		logger.Info("measurement",
			"distance_cm", m.Distance,
			"strength", m.Strength,
			"temperature_c", fmt.Sprintf("%.2f", m.TemperatureCelsius()))
		return nil
	},
}

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "stream measurements until interrupted",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "poll interval (0 derives it from the device frame rate)",
		},
	},
	Action: func(c *cli.Context) error {
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		monitor := polling.NewMonitor(device, &polling.Config{Interval: c.Duration("interval")})
		monitor.OnReading = func(m tfluna.Measurement) error {
			logger.Info("measurement",
				"distance_cm", m.Distance,
				"strength", m.Strength,
				"temperature_c", fmt.Sprintf("%.2f", m.TemperatureCelsius()))
			return nil
		}
		monitor.OnError = func(err error) {
			logger.Warn("read failed", "err", err)
		}

		err = monitor.Start(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return cli.Exit(fmt.Sprintf("watch stopped: %v", err), 1)
		}
		return nil
	},
}

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "print device identity and configuration",
	Action: func(c *cli.Context) error {
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		firmware, err := device.FirmwareVersion()
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read firmware version: %v", err), 1)
		}
		serial, err := device.SerialNumber()
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read serial number: %v", err), 1)
		}
		rate, err := device.FrameRate()
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read frame rate: %v", err), 1)
		}
		mode, err := device.RangingMode()
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read ranging mode: %v", err), 1)
		}
		power, err := device.PowerMode()
		if err != nil {
			return cli.Exit(fmt.Sprintf("could not read power mode: %v", err), 1)
		}
		logger.Info("device",
			"address", fmt.Sprintf("%#02x", device.Address()),
			"firmware", firmware.String(),
			"serial", serial.String(),
			"frame_rate_hz", rate,
			"ranging_mode", mode.String(),
			"power_mode", power.String())
		return nil
	},
}

var rateCmd = cli.Command{
	Name:      "rate",
	Usage:     "set the output frame rate in Hz (must divide 500)",
	ArgsUsage: "<hz>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "save",
			Usage: "persist the new rate to non-volatile storage",
		},
	},
	Action: func(c *cli.Context) error {
		parsed, err := strconv.ParseUint(c.Args().First(), 10, 16)
		if err != nil {
			return cli.Exit("usage: lunactl rate <hz>", 2)
		}
		rate := uint16(parsed)
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		if err := device.SetFrameRate(rate); err != nil {
			return cli.Exit(fmt.Sprintf("could not set frame rate: %v", err), 1)
		}
		if c.Bool("save") {
			if err := device.SaveSettings(); err != nil {
				return cli.Exit(fmt.Sprintf("could not save settings: %v", err), 1)
			}
		}
		logger.Info("frame rate set", "hz", rate, "saved", c.Bool("save"))
		return nil
	},
}

var addrCmd = cli.Command{
	Name:      "addr",
	Usage:     "move the device to a new 7-bit bus address",
	ArgsUsage: "<address>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "save",
			Usage: "persist the new address to non-volatile storage",
		},
	},
	Action: func(c *cli.Context) error {
		parsed, err := strconv.ParseUint(c.Args().First(), 0, 8)
		if err != nil {
			return cli.Exit("usage: lunactl addr <address>", 2)
		}
		newAddr := byte(parsed)
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		if err := device.SetAddress(newAddr); err != nil {
			return cli.Exit(fmt.Sprintf("could not change address: %v", err), 1)
		}
		if c.Bool("save") {
			if err := device.SaveSettings(); err != nil {
				return cli.Exit(fmt.Sprintf("could not save settings: %v", err), 1)
			}
		}
		logger.Info("address changed", "address", fmt.Sprintf("%#02x", newAddr), "saved", c.Bool("save"))
		return nil
	},
}

var saveCmd = cli.Command{
	Name:  "save",
	Usage: "persist the current configuration to non-volatile storage",
	Action: func(c *cli.Context) error {
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		if err := device.SaveSettings(); err != nil {
			return cli.Exit(fmt.Sprintf("could not save settings: %v", err), 1)
		}
		logger.Info("settings saved")
		return nil
	},
}

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft-reset the device",
	Action: func(c *cli.Context) error {
		device, closer, err := openDevice(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		defer closer()

		if err := device.Reset(); err != nil {
			return cli.Exit(fmt.Sprintf("could not reset device: %v", err), 1)
		}
		logger.Info("device reset", "address", fmt.Sprintf("%#02x", device.Address()))
		return nil
	},
}

var detectCmd = cli.Command{
	Name:  "detect",
	Usage: "scan all I2C buses for TF-Luna devices",
	Action: func(c *cli.Context) error {
		found, err := detection.DetectAll(context.Background(), nil)
		if err != nil {
			return cli.Exit(fmt.Sprintf("detection failed: %v", err), 1)
		}
		for _, info := range found {
			logger.Info("found device",
				"bus", info.Bus,
				"address", fmt.Sprintf("%#02x", info.Address),
				"firmware", info.Firmware.String())
		}
		return nil
	},
}
