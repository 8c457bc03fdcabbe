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
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
)

// Dialer opens a raw stream to a serial device path.
type Dialer interface {
	Dial(ctx context.Context, devicePath string) (io.ReadWriteCloser, error)
}

const defaultBaudRate = 115200

// PhysicalSerial talks to a real board over its serial port using a small
// line protocol ("DR <pin>", "DW <pin> <0|1>", "AR <pin>", "AW <pin> <v>",
// "I2C <addr> <hex> <readLen>"); the device side is provided by the helper
// sketch the runtime uploads.
type PhysicalSerial struct {
	mu     sync.Mutex
	dialer Dialer
	path   string
	baud   int
	conn   io.ReadWriteCloser
	logger logger.Logger
}

// NewPhysicalSerial binds a serial hardware abstraction to devicePath. A
// baud of 0 uses the default 115200.
func NewPhysicalSerial(dialer Dialer, devicePath string, baud int, log logger.Logger) *PhysicalSerial {
	if baud == 0 {
		baud = defaultBaudRate
	}

	return &PhysicalSerial{
		dialer: dialer,
		path:   devicePath,
		baud:   baud,
		logger: log,
	}
}

func (h *PhysicalSerial) Connect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn != nil {
		return nil
	}

	conn, err := h.dialer.Dial(ctx, h.path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", h.path, err)
	}

	h.conn = conn

	h.logger.Debug().Str("path", h.path).Int("baud", h.baud).Msg("Serial hardware connected")

	return nil
}

func (h *PhysicalSerial) Disconnect(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn == nil {
		return nil
	}

	err := h.conn.Close()
	h.conn = nil

	if err != nil {
		return fmt.Errorf("failed to close %s: %w", h.path, err)
	}

	return nil
}

func (h *PhysicalSerial) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.conn != nil
}

func (h *PhysicalSerial) DigitalRead(ctx context.Context, pin string) (bool, error) {
	reply, err := h.roundTrip(ctx, fmt.Sprintf("DR %s", pin))
	if err != nil {
		return false, err
	}

	return reply == "1", nil
}

func (h *PhysicalSerial) DigitalWrite(ctx context.Context, pin string, value bool) error {
	level := "0"
	if value {
		level = "1"
	}

	_, err := h.roundTrip(ctx, fmt.Sprintf("DW %s %s", pin, level))

	return err
}

func (h *PhysicalSerial) AnalogRead(ctx context.Context, pin string) (float64, error) {
	reply, err := h.roundTrip(ctx, fmt.Sprintf("AR %s", pin))
	if err != nil {
		return 0, err
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, fmt.Errorf("bad analog reply %q from %s: %w", reply, h.path, err)
	}

	return value, nil
}

func (h *PhysicalSerial) AnalogWrite(ctx context.Context, pin string, value float64) error {
	_, err := h.roundTrip(ctx, fmt.Sprintf("AW %s %g", pin, value))

	return err
}

func (h *PhysicalSerial) I2CTransfer(ctx context.Context, addr byte, write []byte, readLen int) ([]byte, error) {
	reply, err := h.roundTrip(ctx, fmt.Sprintf("I2C %d %s %d", addr, hex.EncodeToString(write), readLen))
	if err != nil {
		return nil, err
	}

	if readLen == 0 {
		return nil, nil
	}

	data, err := hex.DecodeString(strings.TrimSpace(reply))
	if err != nil {
		return nil, fmt.Errorf("bad i2c reply %q from %s: %w", reply, h.path, err)
	}

	return data, nil
}

func (h *PhysicalSerial) roundTrip(ctx context.Context, command string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conn == nil {
		return "", errNotConnected
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if _, err := h.conn.Write([]byte(command + "\n")); err != nil {
		return "", fmt.Errorf("write to %s failed: %w", h.path, err)
	}

	reply, err := bufio.NewReader(h.conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("read from %s failed: %w", h.path, err)
	}

	return strings.TrimSpace(reply), nil
}
