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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// fakeRuntime is a minimal Runtime for registry and selector tests.
type fakeRuntime struct {
	desc     models.RuntimeDescriptor
	disposed bool
}

func (f *fakeRuntime) Descriptor() models.RuntimeDescriptor { return f.desc }
func (f *fakeRuntime) Initialize(context.Context) error     { return nil }

func (f *fakeRuntime) Dispose(context.Context) error {
	f.disposed = true
	return nil
}

func (f *fakeRuntime) ConnectDevice(context.Context, string) error    { return nil }
func (f *fakeRuntime) DisconnectDevice(context.Context, string) error { return nil }

func (f *fakeRuntime) Execute(context.Context, string) (*models.ExecResult, error) {
	return &models.ExecResult{}, nil
}

func newFakeRuntime(t models.RuntimeType) *fakeRuntime {
	return &fakeRuntime{desc: models.RuntimeDescriptor{Type: t, Version: "test"}}
}

func TestRegisterAndGet(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	cp := newFakeRuntime(models.RuntimeCircuitPython)
	require.NoError(t, reg.Register(cp))

	assert.Same(t, Runtime(cp), reg.Get(models.RuntimeCircuitPython))
	assert.Nil(t, reg.Get(models.RuntimeMicroPython))
	assert.Len(t, reg.ListAvailable(), 1)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	require.NoError(t, reg.Register(newFakeRuntime(models.RuntimeCircuitPython)))
	assert.Error(t, reg.Register(newFakeRuntime(models.RuntimeCircuitPython)))
}

func TestFirstRegisteredBecomesDefault(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	mp := newFakeRuntime(models.RuntimeMicroPython)
	require.NoError(t, reg.Register(mp))
	require.NoError(t, reg.Register(newFakeRuntime(models.RuntimePython)))

	assert.Same(t, Runtime(mp), reg.GetDefault())
}

func TestSetDefault(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	require.NoError(t, reg.Register(newFakeRuntime(models.RuntimeMicroPython)))
	py := newFakeRuntime(models.RuntimePython)
	require.NoError(t, reg.Register(py))

	require.NoError(t, reg.SetDefault(models.RuntimePython))
	assert.Same(t, Runtime(py), reg.GetDefault())

	assert.ErrorIs(t, reg.SetDefault(models.RuntimeCircuitPython), ErrRuntimeNotRegistered)
}

func TestUnregisterReelectsDefault(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	mp := newFakeRuntime(models.RuntimeMicroPython)
	cp := newFakeRuntime(models.RuntimeCircuitPython)
	require.NoError(t, reg.Register(mp))
	require.NoError(t, reg.Register(cp))

	// Removing the default promotes the flagship when it is available.
	require.NoError(t, reg.Unregister(models.RuntimeMicroPython))
	assert.Same(t, Runtime(cp), reg.GetDefault())

	require.NoError(t, reg.Unregister(models.RuntimeCircuitPython))
	assert.Nil(t, reg.GetDefault())
}

func TestUnregisterFiresRemovalHooks(t *testing.T) {
	reg := NewRegistry(logger.NewNop())
	require.NoError(t, reg.Register(newFakeRuntime(models.RuntimeMicroPython)))

	var removed []models.RuntimeType

	reg.OnRemoval(func(t models.RuntimeType) {
		removed = append(removed, t)
	})

	require.NoError(t, reg.Unregister(models.RuntimeMicroPython))
	assert.Equal(t, []models.RuntimeType{models.RuntimeMicroPython}, removed)

	assert.ErrorIs(t, reg.Unregister(models.RuntimeMicroPython), ErrRuntimeNotRegistered)
	assert.Len(t, removed, 1)
}

func TestRemovalHookCanCallBackIntoRegistry(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	cp := newFakeRuntime(models.RuntimeCircuitPython)
	require.NoError(t, reg.Register(cp))
	require.NoError(t, reg.Register(newFakeRuntime(models.RuntimeMicroPython)))

	var sawDefault Runtime

	reg.OnRemoval(func(models.RuntimeType) {
		sawDefault = reg.GetDefault()
	})

	require.NoError(t, reg.Unregister(models.RuntimeMicroPython))
	assert.Same(t, Runtime(cp), sawDefault)
}

func TestDisposeAll(t *testing.T) {
	reg := NewRegistry(logger.NewNop())

	cp := newFakeRuntime(models.RuntimeCircuitPython)
	mp := newFakeRuntime(models.RuntimeMicroPython)
	require.NoError(t, reg.Register(cp))
	require.NoError(t, reg.Register(mp))

	reg.DisposeAll(context.Background())

	assert.True(t, cp.disposed)
	assert.True(t, mp.disposed)
}
