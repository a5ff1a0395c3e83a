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
	"errors"
	"fmt"
)

// Validation and protocol errors. All of these are detected before (or
// instead of) a bus transaction; none of them changes device state.
var (
	// ErrInvalidAddress means the requested device address is outside
	// the legal 7-bit range [0x08, 0x77].
	ErrInvalidAddress = errors.New("device address outside legal range")
	// ErrInvalidFrameRate means the requested rate is not of the form
	// 500/n Hz for integer n in [2, 500].
	ErrInvalidFrameRate = errors.New("frame rate is not a divisor of 500 Hz")
	// ErrChecksumMismatch means a measurement frame failed integrity
	// verification and was discarded entirely.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	// ErrFrameLength means a frame did not have the expected fixed size.
	ErrFrameLength = errors.New("unexpected frame length")
	// ErrNotEnabled means a measurement was requested while sampling is
	// disabled or the device is not yet enabled.
	ErrNotEnabled = errors.New("device sampling not enabled")
	// ErrNotConfigured means an operation requires a verified device.
	ErrNotConfigured = errors.New("device not configured")
	// ErrFaulted means the instance reached a terminal failure state and
	// must be reconstructed before further use.
	ErrFaulted = errors.New("device instance faulted")
	// ErrNoResponse means the device did not answer during construction.
	ErrNoResponse = errors.New("no response from device")
	// ErrDeviceNotFound means something answered but did not identify
	// itself with the expected signature.
	ErrDeviceNotFound = errors.New("device signature mismatch")
	// ErrInvalidData means a register contained a value the protocol
	// does not define.
	ErrInvalidData = errors.New("register contains invalid data")
)

// Transport-level errors surfaced by Transport implementations.
var (
	// ErrTransportRead indicates a failed or truncated read phase.
	ErrTransportRead = errors.New("transport read failed")
	// ErrTransportWrite indicates a failed write phase.
	ErrTransportWrite = errors.New("transport write failed")
	// ErrTransportTimeout indicates the transaction did not complete in
	// time.
	ErrTransportTimeout = errors.New("transport timeout")
	// ErrNoACK indicates the device did not acknowledge its address or
	// a data byte.
	ErrNoACK = errors.New("no acknowledge from device")
	// ErrTransportClosed indicates the transport was closed or lost.
	ErrTransportClosed = errors.New("transport closed")
)

// ErrorType classifies transport failures for retry and fault handling.
type ErrorType int

const (
	// ErrorTypeTransient failures may succeed if the whole operation is
	// retried by the caller.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypePermanent failures will not be fixed by retrying with the
	// same inputs.
	ErrorTypePermanent
	// ErrorTypeFatal failures mean the transport itself is unusable; the
	// device instance transitions to StateFaulted.
	ErrorTypeFatal
)

// TransportError wraps a bus-level failure with enough context to decide
// on retry and fault policy.
type TransportError struct {
	// Err is the underlying cause.
	Err error
	// Op is the operation that failed, e.g. "Tx".
	Op string
	// Port identifies the bus, e.g. "/dev/i2c-1".
	Port string
	// Type classifies the failure.
	Type ErrorType
	// Retryable reports whether retrying the whole operation can help.
	Retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("transport %s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError. Retryable is derived from the
// error type: only transient failures are retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient,
	}
}

// NewTimeoutError creates a transient TransportError wrapping
// ErrTransportTimeout.
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTransient)
}

// GetErrorType classifies err. A *TransportError carries its own
// classification; known sentinels map to transient; everything else is
// treated as permanent.
func GetErrorType(err error) ErrorType {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}
	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrNoACK),
		errors.Is(err, ErrChecksumMismatch):
		return ErrorTypeTransient
	case errors.Is(err, ErrTransportClosed):
		return ErrorTypeFatal
	default:
		return ErrorTypePermanent
	}
}

// IsRetryable reports whether retrying the whole operation may succeed.
// Validation errors and fatal transport failures are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}
	return GetErrorType(err) == ErrorTypeTransient
}
