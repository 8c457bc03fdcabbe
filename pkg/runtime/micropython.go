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

package runtime

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// PortDialer opens a raw serial stream to a device path. The concrete dialer
// is injected by the composition root; tests supply in-memory pipes.
type PortDialer interface {
	Dial(ctx context.Context, devicePath string) (io.ReadWriteCloser, error)
}

// MicroPythonRuntime drives a MicroPython board's raw REPL over a serial
// stream.
type MicroPythonRuntime struct {
	mu      sync.Mutex
	dialer  PortDialer
	version string
	state   models.RuntimeState
	conns   map[string]io.ReadWriteCloser
	active  string
	logger  logger.Logger
}

// NewMicroPythonRuntime creates a serial-backed MicroPython runtime.
func NewMicroPythonRuntime(dialer PortDialer, version string, log logger.Logger) *MicroPythonRuntime {
	return &MicroPythonRuntime{
		dialer:  dialer,
		version: version,
		state:   models.RuntimeUninitialized,
		conns:   make(map[string]io.ReadWriteCloser),
		logger:  log,
	}
}

func (r *MicroPythonRuntime) Descriptor() models.RuntimeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.RuntimeDescriptor{
		Type:    models.RuntimeMicroPython,
		Version: r.version,
		Capabilities: models.RuntimeCapabilities{
			GPIO:         true,
			I2C:          true,
			SPI:          true,
			UART:         true,
			WiFi:         true,
			AsyncSupport: true,
		},
		DeviceFamilies: []string{"pico", "esp32", "pyboard", "wemos", "nodemcu"},
		State:          r.state,
	}
}

func (r *MicroPythonRuntime) Initialize(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	r.state = models.RuntimeInitialized

	return nil
}

func (r *MicroPythonRuntime) Dispose(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, conn := range r.conns {
		if err := conn.Close(); err != nil {
			r.logger.Warn().Err(err).Str("path", path).Msg("Failed to close serial stream")
		}

		delete(r.conns, path)
	}

	r.state = models.RuntimeDisposed
	r.active = ""

	return nil
}

func (r *MicroPythonRuntime) ConnectDevice(ctx context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	if _, connected := r.conns[devicePath]; connected {
		r.active = devicePath
		return nil
	}

	conn, err := r.dialer.Dial(ctx, devicePath)
	if err != nil {
		return fmt.Errorf("failed to open serial stream to %s: %w", devicePath, err)
	}

	r.conns[devicePath] = conn
	r.active = devicePath

	return nil
}

func (r *MicroPythonRuntime) DisconnectDevice(_ context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, connected := r.conns[devicePath]
	if !connected {
		return nil
	}

	delete(r.conns, devicePath)

	if r.active == devicePath {
		r.active = ""
	}

	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close serial stream to %s: %w", devicePath, err)
	}

	return nil
}

// Execute writes code to the active device followed by a soft EOL and reads
// echoed output until the next REPL prompt.
func (r *MicroPythonRuntime) Execute(ctx context.Context, code string) (*models.ExecResult, error) {
	r.mu.Lock()
	conn, connected := r.conns[r.active]
	r.mu.Unlock()

	if !connected {
		return nil, errNotConnected
	}

	if _, err := conn.Write([]byte(code + "\r\n")); err != nil {
		return nil, fmt.Errorf("failed to write to device: %w", err)
	}

	output, err := readUntilPrompt(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read device output: %w", err)
	}

	return &models.ExecResult{Output: output}, nil
}

const replPrompt = ">>> "

// readUntilPrompt accumulates lines until the REPL prompt reappears or the
// stream ends.
func readUntilPrompt(ctx context.Context, conn io.Reader) (string, error) {
	var sb strings.Builder

	reader := bufio.NewReader(conn)

	for {
		if err := ctx.Err(); err != nil {
			return sb.String(), err
		}

		line, err := reader.ReadString('\n')

		if strings.HasPrefix(line, replPrompt) || strings.TrimSpace(line) == strings.TrimSpace(replPrompt) {
			return sb.String(), nil
		}

		sb.WriteString(line)

		if err != nil {
			if err == io.EOF {
				return sb.String(), nil
			}

			return sb.String(), err
		}
	}
}
