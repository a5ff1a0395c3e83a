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

// lunactl is a command-line tool for reading and configuring TF-Luna
// sensors attached to the host's I2C buses.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	tfluna "github.com/LunaSenseProject/go-tfluna"
)

var version string
var commit string
var date string

var logger = chlog.Default()

func main() {
	os.Exit(run())
}

func run() int {
	app := cli.NewApp()
	app.Name = "lunactl"
	app.EnableBashCompletion = true
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "TF-Luna LiDAR sensor cli"
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
		&cli.StringFlag{
			Name:  "bus",
			Usage: "I2C bus name, e.g. /dev/i2c-1 (empty selects the first bus)",
		},
		&cli.UintFlag{
			Name:  "address",
			Usage: "7-bit device address",
			Value: uint(tfluna.DefaultAddress),
		},
	}
	app.Before = func(ctx *cli.Context) error {
		logger = chlog.NewWithOptions(os.Stdout, chlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		logger.SetColorProfile(termenv.TrueColor)
		logger.SetLevel(chlog.InfoLevel)
		if ctx.Bool("verbose") {
			logger.SetLevel(chlog.DebugLevel)
			tfluna.SetDebugLogger(func(format string, args ...any) {
				logger.Debugf(format, args...)
			})
		}
		return nil
	}
	app.Commands = cli.Commands{
		&readCmd,
		&watchCmd,
		&infoCmd,
		&rateCmd,
		&addrCmd,
		&saveCmd,
		&resetCmd,
		&detectCmd,
	}
	err := app.Run(os.Args)
	if err != nil {
		var exerr cli.ExitCoder
		if errors.As(err, &exerr) {
			return exerr.ExitCode()
		}
		logger.Error("unexpected error", "err", err)
		return 1
	}
	return 0
}
