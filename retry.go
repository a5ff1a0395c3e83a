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
	"context"
	"fmt"
	"time"
)

// RetryConfig configures caller-side retry behavior. The sensor refreshes
// its output registers continuously, so re-issuing a whole transaction is
// a fresh, independent read rather than a resumption of a failed one.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
	// Multiplier grows the backoff after each failed attempt.
	Multiplier float64
}

// DefaultRetryConfig returns a conservative retry policy: three attempts
// with a short exponential backoff.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     100 * time.Millisecond,
		Multiplier:     2.0,
	}
}

// RetryWithConfig runs operation, retrying retryable failures per config.
// Non-retryable errors and context cancellation stop immediately.
func RetryWithConfig(ctx context.Context, config *RetryConfig, operation func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}

	backoff := config.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("retry abandoned: %w", ctx.Err())
			case <-timer.C:
			}
			backoff = time.Duration(float64(backoff) * config.Multiplier)
			if config.MaxBackoff > 0 && backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
	}
	return fmt.Errorf("retries exhausted after %d attempts: %w", config.MaxAttempts, lastErr)
}
