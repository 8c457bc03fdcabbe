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
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// PythonRuntime executes code with a host CPython interpreter (Blinka-style
// hardware access happens inside the interpreter, not here). Each Execute is
// one interpreter invocation.
type PythonRuntime struct {
	mu          sync.Mutex
	interpreter string
	version     string
	state       models.RuntimeState
	device      string
	logger      logger.Logger
}

// NewPythonRuntime creates a subprocess-backed Python runtime. interpreter
// is the python binary to invoke, typically inside the managed venv.
func NewPythonRuntime(interpreter, version string, log logger.Logger) *PythonRuntime {
	if interpreter == "" {
		interpreter = "python3"
	}

	return &PythonRuntime{
		interpreter: interpreter,
		version:     version,
		state:       models.RuntimeUninitialized,
		logger:      log,
	}
}

func (r *PythonRuntime) Descriptor() models.RuntimeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.RuntimeDescriptor{
		Type:    models.RuntimePython,
		Version: r.version,
		Capabilities: models.RuntimeCapabilities{
			GPIO:         true,
			I2C:          true,
			SPI:          true,
			UART:         true,
			WiFi:         true,
			Bluetooth:    true,
			AsyncSupport: true,
		},
		DeviceFamilies: []string{"blinka", "raspberry"},
		State:          r.state,
	}
}

func (r *PythonRuntime) Initialize(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	r.state = models.RuntimeInitialized

	return nil
}

func (r *PythonRuntime) Dispose(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = models.RuntimeDisposed
	r.device = ""

	return nil
}

func (r *PythonRuntime) ConnectDevice(_ context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	r.device = devicePath

	return nil
}

func (r *PythonRuntime) DisconnectDevice(_ context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == devicePath {
		r.device = ""
	}

	return nil
}

func (r *PythonRuntime) Execute(ctx context.Context, code string) (*models.ExecResult, error) {
	r.mu.Lock()

	if r.state != models.RuntimeInitialized {
		r.mu.Unlock()
		return nil, errRuntimeDisposed
	}

	interpreter := r.interpreter
	r.mu.Unlock()

	cmd := exec.CommandContext(ctx, interpreter, "-c", code)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	result := &models.ExecResult{Output: stdout.String()}

	if stderr.Len() > 0 {
		result.Output += stderr.String()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}

		return nil, err
	}

	return result, nil
}
