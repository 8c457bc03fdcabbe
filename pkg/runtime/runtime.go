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

//go:generate mockgen -destination=mock_runtime.go -package=runtime github.com/mutwo-dev/mucore/pkg/runtime Runtime

// Package runtime defines the pluggable execution-engine contract and the
// registry/selector that pair engines with detected devices.
package runtime

import (
	"context"

	"github.com/mutwo-dev/mucore/pkg/models"
)

// Runtime is one pluggable execution engine. Implementations are owned by
// the Registry: created once at startup or on demand, disposed on shutdown.
type Runtime interface {
	// Descriptor returns the engine's type, version, capabilities and
	// lifecycle state.
	Descriptor() models.RuntimeDescriptor

	// Initialize prepares the engine for use. Idempotent.
	Initialize(ctx context.Context) error

	// Dispose releases engine resources. The runtime cannot be used after.
	Dispose(ctx context.Context) error

	// ConnectDevice attaches the engine to a device path.
	ConnectDevice(ctx context.Context, devicePath string) error

	// DisconnectDevice detaches the engine from a device path.
	DisconnectDevice(ctx context.Context, devicePath string) error

	// Execute runs one REPL line or code block and returns its output.
	Execute(ctx context.Context, code string) (*models.ExecResult, error)
}
