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

// Package pairing tracks which runtime and hardware abstraction own each
// connected device. At most one binding exists per device path.
package pairing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mutwo-dev/mucore/pkg/hardware"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
	"github.com/mutwo-dev/mucore/pkg/runtime"
)

// HardwareFactory builds the hardware abstraction for a new binding. The
// virtual variant serves simulation/WASM-capable runtimes; the physical
// variant is bound to a real port.
type HardwareFactory interface {
	Virtual() hardware.Hardware
	Physical(devicePath string) hardware.Hardware
}

// Binding is one committed device-runtime-hardware triple.
type Binding struct {
	Device    *models.Device
	Runtime   runtime.Runtime
	Hardware  hardware.Hardware
	CreatedAt time.Time
}

// Table is the pairing table. Map access is synchronized, but connect,
// disconnect and switch for the same device path must not be interleaved by
// callers: each operation is a multi-step sequence and the table does not
// lock across the awaited steps.
type Table struct {
	mu       sync.RWMutex
	bindings map[string]*Binding
	registry *runtime.Registry
	factory  HardwareFactory
	logger   logger.Logger
}

// NewTable creates an empty pairing table and registers its runtime-removal
// migration hook with the registry.
func NewTable(registry *runtime.Registry, factory HardwareFactory, log logger.Logger) *Table {
	t := &Table{
		bindings: make(map[string]*Binding),
		registry: registry,
		factory:  factory,
		logger:   log,
	}

	registry.OnRemoval(t.migrateFrom)

	return t
}

// Connect establishes a binding for device using rt. An existing binding for
// the same path is torn down first. The sequence is: build hardware, connect
// runtime, connect hardware, commit; any failure rolls back without a
// partial commit.
func (t *Table) Connect(ctx context.Context, device *models.Device, rt runtime.Runtime) error {
	if existing := t.Get(device.Path); existing != nil {
		if err := t.Disconnect(ctx, device.Path); err != nil {
			return fmt.Errorf("failed to tear down existing binding for %s: %w", device.Path, err)
		}
	}

	hw := t.buildHardware(device.Path, rt)

	if err := rt.ConnectDevice(ctx, device.Path); err != nil {
		return fmt.Errorf("runtime %s failed to connect to %s: %w",
			rt.Descriptor().Type, device.Path, err)
	}

	if err := hw.Connect(ctx); err != nil {
		// Roll back the runtime connection so no half-open state leaks.
		if derr := rt.DisconnectDevice(ctx, device.Path); derr != nil {
			t.logger.Warn().Err(derr).Str("path", device.Path).Msg("Rollback disconnect failed")
		}

		return fmt.Errorf("hardware failed to connect to %s: %w", device.Path, err)
	}

	t.mu.Lock()
	t.bindings[device.Path] = &Binding{
		Device:    device,
		Runtime:   rt,
		Hardware:  hw,
		CreatedAt: time.Now(),
	}
	t.mu.Unlock()

	t.logger.Info().
		Str("path", device.Path).
		Str("runtime", string(rt.Descriptor().Type)).
		Str("board", device.DisplayName).
		Msg("Device paired")

	return nil
}

// Disconnect tears down the binding for devicePath. Order matters: hardware
// first (it may depend on the live runtime connection), then runtime, then
// the table entry.
func (t *Table) Disconnect(ctx context.Context, devicePath string) error {
	t.mu.Lock()
	binding, bound := t.bindings[devicePath]

	if !bound {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", errNotPaired, devicePath)
	}

	delete(t.bindings, devicePath)
	t.mu.Unlock()

	if err := binding.Hardware.Disconnect(ctx); err != nil {
		t.logger.Warn().Err(err).Str("path", devicePath).Msg("Hardware disconnect failed")
	}

	if err := binding.Runtime.DisconnectDevice(ctx, devicePath); err != nil {
		return fmt.Errorf("runtime disconnect from %s failed: %w", devicePath, err)
	}

	t.logger.Info().Str("path", devicePath).Msg("Device unpaired")

	return nil
}

// Get returns the current binding for devicePath, or nil.
func (t *Table) Get(devicePath string) *Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.bindings[devicePath]
}

// List returns all current bindings.
func (t *Table) List() []*Binding {
	t.mu.RLock()
	defer t.mu.RUnlock()

	list := make([]*Binding, 0, len(t.bindings))
	for _, b := range t.bindings {
		list = append(list, b)
	}

	return list
}

// SwitchRuntime re-pairs devicePath onto a different registered runtime.
func (t *Table) SwitchRuntime(ctx context.Context, devicePath string, newType models.RuntimeType) error {
	binding := t.Get(devicePath)
	if binding == nil {
		return fmt.Errorf("%w: %s", errNotPaired, devicePath)
	}

	newRuntime := t.registry.Get(newType)
	if newRuntime == nil {
		return fmt.Errorf("%w: %s", runtime.ErrRuntimeNotRegistered, newType)
	}

	device := binding.Device

	if err := t.Disconnect(ctx, devicePath); err != nil {
		return err
	}

	if err := t.Connect(ctx, device, newRuntime); err != nil {
		return fmt.Errorf("failed to switch %s to %s: %w", devicePath, newType, err)
	}

	return nil
}

// DisconnectAll tears down every binding. Called on shutdown.
func (t *Table) DisconnectAll(ctx context.Context) {
	for _, binding := range t.List() {
		if err := t.Disconnect(ctx, binding.Device.Path); err != nil {
			t.logger.Error().Err(err).Str("path", binding.Device.Path).Msg("Shutdown disconnect failed")
		}
	}
}

func (t *Table) buildHardware(devicePath string, rt runtime.Runtime) hardware.Hardware {
	caps := rt.Descriptor().Capabilities
	if caps.WASMExecution || caps.Simulation {
		return t.factory.Virtual()
	}

	return t.factory.Physical(devicePath)
}

// migrateFrom moves bindings off a removed runtime type: onto the current
// default when one exists, otherwise a forced disconnect.
func (t *Table) migrateFrom(removed models.RuntimeType) {
	ctx := context.Background()

	for _, binding := range t.List() {
		if binding.Runtime.Descriptor().Type != removed {
			continue
		}

		path := binding.Device.Path

		fallback := t.registry.GetDefault()
		if fallback != nil && fallback.Descriptor().Type != removed {
			if err := t.SwitchRuntime(ctx, path, fallback.Descriptor().Type); err == nil {
				t.logger.Info().
					Str("path", path).
					Str("from", string(removed)).
					Str("to", string(fallback.Descriptor().Type)).
					Msg("Migrated device after runtime removal")

				continue
			} else {
				t.logger.Error().Err(err).Str("path", path).Msg("Migration failed, disconnecting")
			}
		}

		if err := t.Disconnect(ctx, path); err != nil {
			t.logger.Error().Err(err).Str("path", path).Msg("Forced disconnect failed")
		}
	}
}
