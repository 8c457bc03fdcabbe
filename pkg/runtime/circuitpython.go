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

//go:generate mockgen -destination=mock_engine.go -package=runtime github.com/mutwo-dev/mucore/pkg/runtime Engine

package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// Engine is the opaque WASM CircuitPython interpreter contract. The actual
// interpreter lives outside this module; only execute/reset/query-state are
// assumed.
type Engine interface {
	Execute(ctx context.Context, code string) (string, error)
	Reset(ctx context.Context) error
	QueryState(ctx context.Context, key string) (interface{}, error)
}

// CircuitPythonRuntime executes code on a WASM-hosted CircuitPython engine.
// It never touches real hardware; device "connections" bind the simulated
// board identity to a path.
type CircuitPythonRuntime struct {
	mu      sync.Mutex
	engine  Engine
	version string
	state   models.RuntimeState
	device  string
	logger  logger.Logger
}

// NewCircuitPythonRuntime wraps engine as a Runtime.
func NewCircuitPythonRuntime(engine Engine, version string, log logger.Logger) *CircuitPythonRuntime {
	return &CircuitPythonRuntime{
		engine:  engine,
		version: version,
		state:   models.RuntimeUninitialized,
		logger:  log,
	}
}

func (r *CircuitPythonRuntime) Descriptor() models.RuntimeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.RuntimeDescriptor{
		Type:    models.RuntimeCircuitPython,
		Version: r.version,
		Capabilities: models.RuntimeCapabilities{
			GPIO:          true,
			I2C:           true,
			SPI:           true,
			UART:          true,
			AsyncSupport:  true,
			Simulation:    true,
			WASMExecution: true,
		},
		DeviceFamilies: []string{"feather", "metro", "trinket", "qtpy", "circuitplayground", "xiao"},
		State:          r.state,
	}
}

func (r *CircuitPythonRuntime) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	if r.state == models.RuntimeInitialized {
		return nil
	}

	if err := r.engine.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset wasm engine: %w", err)
	}

	r.state = models.RuntimeInitialized

	return nil
}

func (r *CircuitPythonRuntime) Dispose(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return nil
	}

	if err := r.engine.Reset(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("Engine reset failed during dispose")
	}

	r.state = models.RuntimeDisposed
	r.device = ""

	return nil
}

func (r *CircuitPythonRuntime) ConnectDevice(_ context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == models.RuntimeDisposed {
		return errRuntimeDisposed
	}

	r.device = devicePath

	return nil
}

func (r *CircuitPythonRuntime) DisconnectDevice(_ context.Context, devicePath string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == devicePath {
		r.device = ""
	}

	return nil
}

func (r *CircuitPythonRuntime) Execute(ctx context.Context, code string) (*models.ExecResult, error) {
	r.mu.Lock()

	if r.state != models.RuntimeInitialized {
		r.mu.Unlock()
		return nil, errRuntimeDisposed
	}
	r.mu.Unlock()

	output, err := r.engine.Execute(ctx, code)
	if err != nil {
		return &models.ExecResult{Output: err.Error(), ExitCode: 1}, nil
	}

	return &models.ExecResult{Output: output}, nil
}

// QueryState exposes the engine's simulated hardware state (pin levels,
// sensor values) to the coordinator.
func (r *CircuitPythonRuntime) QueryState(ctx context.Context, key string) (interface{}, error) {
	return r.engine.QueryState(ctx, key)
}
