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
	"context"
	"fmt"
	"sync"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// RemovalHook is invoked after a runtime is removed from the registry, so
// dependents (the pairing table) can migrate or tear down bindings that were
// using it.
type RemovalHook func(removed models.RuntimeType)

// Registry owns the set of available runtimes. It is safe for concurrent
// use.
type Registry struct {
	mu          sync.RWMutex
	runtimes    map[models.RuntimeType]Runtime
	defaultType models.RuntimeType
	hooks       []RemovalHook
	logger      logger.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(log logger.Logger) *Registry {
	return &Registry{
		runtimes: make(map[models.RuntimeType]Runtime),
		logger:   log,
	}
}

// Register adds a runtime. The first registered runtime becomes the default
// until SetDefault overrides it.
func (r *Registry) Register(rt Runtime) error {
	desc := rt.Descriptor()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runtimes[desc.Type]; exists {
		return fmt.Errorf("%w: %s", errAlreadyRegistered, desc.Type)
	}

	r.runtimes[desc.Type] = rt

	if r.defaultType == "" {
		r.defaultType = desc.Type
	}

	r.logger.Info().
		Str("runtime", string(desc.Type)).
		Str("version", desc.Version).
		Msg("Registered runtime")

	return nil
}

// Unregister removes a runtime by type and fires removal hooks so active
// device bindings migrate away from it. The removed runtime is not disposed;
// the caller decides its fate.
func (r *Registry) Unregister(t models.RuntimeType) error {
	r.mu.Lock()

	if _, exists := r.runtimes[t]; !exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRuntimeNotRegistered, t)
	}

	delete(r.runtimes, t)

	if r.defaultType == t {
		r.defaultType = ""

		// Any remaining runtime may become the new default; prefer the
		// flagship if it is still present.
		if _, ok := r.runtimes[models.RuntimeCircuitPython]; ok {
			r.defaultType = models.RuntimeCircuitPython
		} else {
			for remaining := range r.runtimes {
				r.defaultType = remaining
				break
			}
		}
	}

	hooks := make([]RemovalHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.Unlock()

	r.logger.Info().Str("runtime", string(t)).Msg("Unregistered runtime")

	// Hooks run outside the lock: migration calls back into Get/GetDefault.
	for _, hook := range hooks {
		hook(t)
	}

	return nil
}

// OnRemoval registers a hook fired after each Unregister.
func (r *Registry) OnRemoval(hook RemovalHook) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = append(r.hooks, hook)
}

// Get returns the runtime registered for t, or nil.
func (r *Registry) Get(t models.RuntimeType) Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.runtimes[t]
}

// ListAvailable returns all registered runtimes.
func (r *Registry) ListAvailable() []Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Runtime, 0, len(r.runtimes))
	for _, rt := range r.runtimes {
		list = append(list, rt)
	}

	return list
}

// SetDefault marks t as the default runtime.
func (r *Registry) SetDefault(t models.RuntimeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runtimes[t]; !exists {
		return fmt.Errorf("%w: %s", ErrRuntimeNotRegistered, t)
	}

	r.defaultType = t

	return nil
}

// GetDefault returns the default runtime, or nil if none is registered.
func (r *Registry) GetDefault() Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultType == "" {
		return nil
	}

	return r.runtimes[r.defaultType]
}

// DisposeAll disposes every registered runtime. Called on shutdown.
func (r *Registry) DisposeAll(ctx context.Context) {
	for _, rt := range r.ListAvailable() {
		desc := rt.Descriptor()

		if err := rt.Dispose(ctx); err != nil {
			r.logger.Error().
				Err(err).
				Str("runtime", string(desc.Type)).
				Msg("Failed to dispose runtime")
		}
	}
}
