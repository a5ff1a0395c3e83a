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
	"sync"
	"time"
)

// MockTx records one transaction observed by MockTransport.
type MockTx struct {
	// W is a copy of the bytes written.
	W []byte
	// Addr is the device address the transaction targeted.
	Addr byte
	// ReadLen is the number of bytes the driver asked to read back.
	ReadLen int
}

// MockTransport is an in-memory Transport for tests. Responses and errors
// are keyed by the first written byte (the register selector), and every
// transaction is recorded so tests can assert exact call counts and
// addressing.
//
// A fresh MockTransport answers the signature register with "LUNA" so that
// New succeeds against it out of the box.
type MockTransport struct {
	mu        sync.Mutex
	responses map[byte][]byte
	errors    map[byte]error
	log       []MockTx
	closed    bool
}

// NewMockTransport creates a mock transport preloaded with the device
// signature.
func NewMockTransport() *MockTransport {
	m := &MockTransport{
		responses: make(map[byte][]byte),
		errors:    make(map[byte]error),
	}
	m.SetResponse(RegSignature, deviceSignature[:])
	return m
}

// SetResponse configures the bytes returned when a transaction selects reg.
func (m *MockTransport) SetResponse(reg byte, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[reg] = append([]byte(nil), data...)
}

// SetError configures an error returned when a transaction selects reg.
func (m *MockTransport) SetError(reg byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[reg] = err
}

// Tx implements Transport. The first written byte selects the configured
// response or error; unconfigured reads return zero bytes.
func (m *MockTransport) Tx(addr byte, w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return NewTransportError("Tx", "mock", ErrTransportClosed, ErrorTypeFatal)
	}

	m.log = append(m.log, MockTx{
		Addr:    addr,
		W:       append([]byte(nil), w...),
		ReadLen: len(r),
	})

	var reg byte
	if len(w) > 0 {
		reg = w[0]
	}
	if err, ok := m.errors[reg]; ok {
		return err
	}

	if len(r) > 0 {
		resp := m.responses[reg]
		if len(resp) > len(r) {
			resp = resp[:len(r)]
		}
		for i := range r {
			r[i] = 0
		}
		copy(r, resp)
	}
	return nil
}

// Calls returns the number of transactions seen so far.
func (m *MockTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.log)
}

// Transactions returns a copy of the recorded transaction log.
func (m *MockTransport) Transactions() []MockTx {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockTx(nil), m.log...)
}

// LastAddr returns the address targeted by the most recent transaction.
func (m *MockTransport) LastAddr() byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.log) == 0 {
		return 0
	}
	return m.log[len(m.log)-1].Addr
}

// Reset clears the recorded transaction log.
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = nil
}

// Close marks the transport as closed; subsequent transactions fail
// fatally.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout implements Transport; the mock has no real timeout.
func (*MockTransport) SetTimeout(time.Duration) error {
	return nil
}

// IsConnected returns true until the mock is closed.
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock.
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// BuildMeasurementFrame assembles a wire frame for the given reading with a
// correct trailing checksum. Test helper.
func BuildMeasurementFrame(m Measurement) []byte {
	frm := []byte{
		byte(m.Distance), byte(m.Distance >> 8),
		byte(m.Strength), byte(m.Strength >> 8),
		byte(uint16(m.Temperature)), byte(uint16(m.Temperature) >> 8),
	}
	var sum byte
	for _, b := range frm {
		sum += b
	}
	return append(frm, sum)
}

var _ Transport = (*MockTransport)(nil)
