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

import "sync/atomic"

// DebugLogger receives diagnostic messages from the library. It is purely
// observational and never affects protocol behavior.
type DebugLogger func(format string, args ...any)

var debugLogger atomic.Value // DebugLogger

// SetDebugLogger installs a diagnostic logging hook. Pass nil to silence
// debug output (the default).
func SetDebugLogger(logger DebugLogger) {
	debugLogger.Store(logger)
}

func debugf(format string, args ...any) {
	if l, ok := debugLogger.Load().(DebugLogger); ok && l != nil {
		l(format, args...)
	}
}

func debugln(msg string) {
	debugf("%s", msg)
}
