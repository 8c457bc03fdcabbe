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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

func TestCircuitPythonLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewMockEngine(ctrl)
	ctx := context.Background()

	// One reset on initialize, one on dispose.
	engine.EXPECT().Reset(gomock.Any()).Return(nil).Times(2)

	rt := NewCircuitPythonRuntime(engine, "9.0.0", logger.NewNop())

	desc := rt.Descriptor()
	assert.Equal(t, models.RuntimeCircuitPython, desc.Type)
	assert.True(t, desc.Capabilities.WASMExecution)
	assert.Equal(t, models.RuntimeUninitialized, desc.State)

	require.NoError(t, rt.Initialize(ctx))
	// Idempotent: the second initialize must not reset again.
	require.NoError(t, rt.Initialize(ctx))
	assert.Equal(t, models.RuntimeInitialized, rt.Descriptor().State)

	require.NoError(t, rt.Dispose(ctx))
	assert.Equal(t, models.RuntimeDisposed, rt.Descriptor().State)

	// Disposed runtimes reject further use.
	assert.Error(t, rt.Initialize(ctx))
	assert.Error(t, rt.ConnectDevice(ctx, "/dev/ttyACM0"))

	_, err := rt.Execute(ctx, "print(1)")
	assert.Error(t, err)
}

func TestCircuitPythonExecute(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewMockEngine(ctrl)
	ctx := context.Background()

	engine.EXPECT().Reset(gomock.Any()).Return(nil)
	engine.EXPECT().Execute(gomock.Any(), "print('hi')").Return("hi\r\n", nil)

	rt := NewCircuitPythonRuntime(engine, "9.0.0", logger.NewNop())
	require.NoError(t, rt.Initialize(ctx))

	result, err := rt.Execute(ctx, "print('hi')")
	require.NoError(t, err)
	assert.Equal(t, "hi\r\n", result.Output)
	assert.Equal(t, 0, result.ExitCode)
}

func TestCircuitPythonExecuteEngineErrorBecomesOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewMockEngine(ctrl)
	ctx := context.Background()

	engine.EXPECT().Reset(gomock.Any()).Return(nil)
	engine.EXPECT().Execute(gomock.Any(), gomock.Any()).
		Return("", errors.New("NameError: name 'foo' is not defined"))

	rt := NewCircuitPythonRuntime(engine, "9.0.0", logger.NewNop())
	require.NoError(t, rt.Initialize(ctx))

	result, err := rt.Execute(ctx, "foo")
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Contains(t, result.Output, "NameError")
}

func TestCircuitPythonConnectDisconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewMockEngine(ctrl)
	ctx := context.Background()

	engine.EXPECT().Reset(gomock.Any()).Return(nil)

	rt := NewCircuitPythonRuntime(engine, "9.0.0", logger.NewNop())
	require.NoError(t, rt.Initialize(ctx))

	require.NoError(t, rt.ConnectDevice(ctx, "/dev/ttyACM0"))

	// Disconnecting a different path leaves the binding alone.
	require.NoError(t, rt.DisconnectDevice(ctx, "/dev/ttyACM1"))
	require.NoError(t, rt.DisconnectDevice(ctx, "/dev/ttyACM0"))
}

func TestCircuitPythonQueryState(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := NewMockEngine(ctrl)

	engine.EXPECT().QueryState(gomock.Any(), "pin.D13").Return(true, nil)

	rt := NewCircuitPythonRuntime(engine, "9.0.0", logger.NewNop())

	value, err := rt.QueryState(context.Background(), "pin.D13")
	require.NoError(t, err)
	assert.Equal(t, true, value)
}
