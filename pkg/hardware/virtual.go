/*
 * Copyright 2025 Mu Two Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package hardware

import (
	"context"
	"fmt"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
)

// PinChange reports one simulated pin transition to an observer.
type PinChange struct {
	Pin   string
	Value interface{}
	Mode  string
}

// VirtualHardware simulates a board in memory. Pin writes update a state map
// and notify an optional observer so REPL surfaces can visualize them.
type VirtualHardware struct {
	mu        sync.Mutex
	connected bool
	digital   map[string]bool
	analog    map[string]float64
	i2c       map[byte][]byte
	observer  func(PinChange)
	logger    logger.Logger
}

// NewVirtualHardware creates a disconnected simulated board.
func NewVirtualHardware(log logger.Logger) *VirtualHardware {
	return &VirtualHardware{
		digital: make(map[string]bool),
		analog:  make(map[string]float64),
		i2c:     make(map[byte][]byte),
		logger:  log,
	}
}

// Observe registers a callback fired on every simulated pin write. Only one
// observer is kept; the coordinator owns it.
func (h *VirtualHardware) Observe(fn func(PinChange)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.observer = fn
}

func (h *VirtualHardware) Connect(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connected = true

	return nil
}

func (h *VirtualHardware) Disconnect(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connected = false

	return nil
}

func (h *VirtualHardware) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.connected
}

func (h *VirtualHardware) DigitalRead(_ context.Context, pin string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return false, errNotConnected
	}

	return h.digital[pin], nil
}

func (h *VirtualHardware) DigitalWrite(_ context.Context, pin string, value bool) error {
	h.mu.Lock()

	if !h.connected {
		h.mu.Unlock()
		return errNotConnected
	}

	h.digital[pin] = value
	observer := h.observer
	h.mu.Unlock()

	if observer != nil {
		observer(PinChange{Pin: pin, Value: value, Mode: "digital"})
	}

	return nil
}

func (h *VirtualHardware) AnalogRead(_ context.Context, pin string) (float64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return 0, errNotConnected
	}

	value, known := h.analog[pin]
	if !known {
		return 0, fmt.Errorf("%w: %s", errUnknownPin, pin)
	}

	return value, nil
}

func (h *VirtualHardware) AnalogWrite(_ context.Context, pin string, value float64) error {
	h.mu.Lock()

	if !h.connected {
		h.mu.Unlock()
		return errNotConnected
	}

	h.analog[pin] = value
	observer := h.observer
	h.mu.Unlock()

	if observer != nil {
		observer(PinChange{Pin: pin, Value: value, Mode: "analog"})
	}

	return nil
}

// I2CTransfer simulates a register write-then-read against a per-address
// scratch buffer.
func (h *VirtualHardware) I2CTransfer(_ context.Context, addr byte, write []byte, readLen int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.connected {
		return nil, errNotConnected
	}

	if len(write) > 0 {
		buf := make([]byte, len(write))
		copy(buf, write)
		h.i2c[addr] = buf
	}

	if readLen == 0 {
		return nil, nil
	}

	stored := h.i2c[addr]
	out := make([]byte, readLen)
	copy(out, stored)

	return out, nil
}

// SetAnalog seeds a simulated analog input, e.g. a virtual sensor value.
func (h *VirtualHardware) SetAnalog(pin string, value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.analog[pin] = value
}
