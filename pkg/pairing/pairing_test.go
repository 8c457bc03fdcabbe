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

package pairing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutwo-dev/mucore/pkg/hardware"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
	"github.com/mutwo-dev/mucore/pkg/runtime"
)

// callLog records the order of connect/disconnect steps across the fakes so
// tests can assert sequencing.
type callLog struct {
	calls []string
}

func (l *callLog) add(call string) { l.calls = append(l.calls, call) }

type fakeRuntime struct {
	desc          models.RuntimeDescriptor
	log           *callLog
	connectErr    error
	disconnectErr error
}

func (f *fakeRuntime) Descriptor() models.RuntimeDescriptor { return f.desc }
func (f *fakeRuntime) Initialize(context.Context) error     { return nil }
func (f *fakeRuntime) Dispose(context.Context) error        { return nil }

func (f *fakeRuntime) ConnectDevice(_ context.Context, path string) error {
	f.log.add("runtime.connect:" + string(f.desc.Type) + ":" + path)
	return f.connectErr
}

func (f *fakeRuntime) DisconnectDevice(_ context.Context, path string) error {
	f.log.add("runtime.disconnect:" + string(f.desc.Type) + ":" + path)
	return f.disconnectErr
}

func (f *fakeRuntime) Execute(context.Context, string) (*models.ExecResult, error) {
	return &models.ExecResult{}, nil
}

type fakeHardware struct {
	name       string
	log        *callLog
	connected  bool
	connectErr error
}

func (f *fakeHardware) Connect(context.Context) error {
	f.log.add("hardware.connect:" + f.name)

	if f.connectErr != nil {
		return f.connectErr
	}

	f.connected = true

	return nil
}

func (f *fakeHardware) Disconnect(context.Context) error {
	f.log.add("hardware.disconnect:" + f.name)
	f.connected = false

	return nil
}

func (f *fakeHardware) Connected() bool { return f.connected }

func (f *fakeHardware) DigitalRead(context.Context, string) (bool, error) { return false, nil }
func (f *fakeHardware) DigitalWrite(context.Context, string, bool) error  { return nil }
func (f *fakeHardware) AnalogRead(context.Context, string) (float64, error) {
	return 0, nil
}
func (f *fakeHardware) AnalogWrite(context.Context, string, float64) error { return nil }
func (f *fakeHardware) I2CTransfer(context.Context, byte, []byte, int) ([]byte, error) {
	return nil, nil
}

type fakeFactory struct {
	log        *callLog
	connectErr error
	virtual    int
	physical   int
}

func (f *fakeFactory) Virtual() hardware.Hardware {
	f.virtual++
	return &fakeHardware{name: "virtual", log: f.log, connectErr: f.connectErr}
}

func (f *fakeFactory) Physical(string) hardware.Hardware {
	f.physical++
	return &fakeHardware{name: "physical", log: f.log, connectErr: f.connectErr}
}

type fixture struct {
	registry *runtime.Registry
	table    *Table
	factory  *fakeFactory
	log      *callLog
}

func newFixture(t *testing.T, log *callLog, runtimes ...runtime.Runtime) *fixture {
	t.Helper()

	reg := runtime.NewRegistry(logger.NewNop())

	for _, rt := range runtimes {
		require.NoError(t, reg.Register(rt))
	}

	factory := &fakeFactory{log: log}
	table := NewTable(reg, factory, logger.NewNop())

	return &fixture{registry: reg, table: table, factory: factory, log: log}
}

func newDevice(path string) *models.Device {
	return &models.Device{Path: path, DisplayName: "Test Board"}
}

func cpRuntime(log *callLog) *fakeRuntime {
	return &fakeRuntime{
		desc: models.RuntimeDescriptor{
			Type:         models.RuntimeCircuitPython,
			Capabilities: models.RuntimeCapabilities{Simulation: true, WASMExecution: true},
		},
		log: log,
	}
}

func mpRuntime(log *callLog) *fakeRuntime {
	return &fakeRuntime{
		desc: models.RuntimeDescriptor{Type: models.RuntimeMicroPython},
		log:  log,
	}
}

func TestConnectCommitsBinding(t *testing.T) {
	log := &callLog{}
	rt := cpRuntime(log)
	f := newFixture(t, log, rt)

	dev := newDevice("/dev/ttyACM0")
	require.NoError(t, f.table.Connect(context.Background(), dev, rt))

	binding := f.table.Get("/dev/ttyACM0")
	require.NotNil(t, binding)
	assert.Same(t, dev, binding.Device)
	assert.True(t, binding.Hardware.Connected())
	assert.False(t, binding.CreatedAt.IsZero())
	assert.Len(t, f.table.List(), 1)

	// Runtime connects before hardware.
	assert.Equal(t, []string{
		"runtime.connect:circuitpython:/dev/ttyACM0",
		"hardware.connect:virtual",
	}, log.calls)
}

func TestConnectPicksHardwareByCapabilities(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	mp := mpRuntime(log)
	f := newFixture(t, log, cp, mp)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), cp))
	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM1"), mp))

	assert.Equal(t, 1, f.factory.virtual)
	assert.Equal(t, 1, f.factory.physical)
}

func TestConnectTearsDownExistingBinding(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	mp := mpRuntime(log)
	f := newFixture(t, log, cp, mp)

	dev := newDevice("/dev/ttyACM0")
	require.NoError(t, f.table.Connect(context.Background(), dev, cp))

	log.calls = nil
	require.NoError(t, f.table.Connect(context.Background(), dev, mp))

	// Old binding torn down fully before the new one connects.
	assert.Equal(t, []string{
		"hardware.disconnect:virtual",
		"runtime.disconnect:circuitpython:/dev/ttyACM0",
		"runtime.connect:micropython:/dev/ttyACM0",
		"hardware.connect:physical",
	}, log.calls)

	binding := f.table.Get("/dev/ttyACM0")
	require.NotNil(t, binding)
	assert.Equal(t, models.RuntimeMicroPython, binding.Runtime.Descriptor().Type)
	assert.Len(t, f.table.List(), 1)
}

func TestConnectRuntimeFailureLeavesNoBinding(t *testing.T) {
	log := &callLog{}
	rt := cpRuntime(log)
	rt.connectErr = errors.New("port busy")
	f := newFixture(t, log, rt)

	err := f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), rt)
	require.Error(t, err)
	assert.Nil(t, f.table.Get("/dev/ttyACM0"))
}

func TestConnectHardwareFailureRollsBackRuntime(t *testing.T) {
	log := &callLog{}
	rt := cpRuntime(log)
	f := newFixture(t, log, rt)
	f.factory.connectErr = errors.New("bus unavailable")

	err := f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), rt)
	require.Error(t, err)
	assert.Nil(t, f.table.Get("/dev/ttyACM0"))

	// The runtime connection must not leak.
	assert.Contains(t, log.calls, "runtime.disconnect:circuitpython:/dev/ttyACM0")
}

func TestDisconnectOrderAndRemoval(t *testing.T) {
	log := &callLog{}
	rt := cpRuntime(log)
	f := newFixture(t, log, rt)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), rt))

	log.calls = nil
	require.NoError(t, f.table.Disconnect(context.Background(), "/dev/ttyACM0"))

	assert.Equal(t, []string{
		"hardware.disconnect:virtual",
		"runtime.disconnect:circuitpython:/dev/ttyACM0",
	}, log.calls)
	assert.Nil(t, f.table.Get("/dev/ttyACM0"))
}

func TestDisconnectUnknownPath(t *testing.T) {
	f := newFixture(t, &callLog{})

	assert.Error(t, f.table.Disconnect(context.Background(), "/dev/ttyACM9"))
}

func TestSwitchRuntime(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	mp := mpRuntime(log)
	f := newFixture(t, log, cp, mp)

	dev := newDevice("/dev/ttyACM0")
	require.NoError(t, f.table.Connect(context.Background(), dev, cp))

	require.NoError(t, f.table.SwitchRuntime(context.Background(), "/dev/ttyACM0", models.RuntimeMicroPython))

	binding := f.table.Get("/dev/ttyACM0")
	require.NotNil(t, binding)
	assert.Equal(t, models.RuntimeMicroPython, binding.Runtime.Descriptor().Type)
	assert.Same(t, dev, binding.Device)
}

func TestSwitchRuntimeRejectsUnknownTarget(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	f := newFixture(t, log, cp)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), cp))

	err := f.table.SwitchRuntime(context.Background(), "/dev/ttyACM0", models.RuntimePython)
	assert.ErrorIs(t, err, runtime.ErrRuntimeNotRegistered)

	// Binding untouched.
	assert.NotNil(t, f.table.Get("/dev/ttyACM0"))
}

func TestUnregisterMigratesBindings(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	mp := mpRuntime(log)
	f := newFixture(t, log, cp, mp)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), mp))

	require.NoError(t, f.registry.Unregister(models.RuntimeMicroPython))

	binding := f.table.Get("/dev/ttyACM0")
	require.NotNil(t, binding)
	assert.Equal(t, models.RuntimeCircuitPython, binding.Runtime.Descriptor().Type)
}

func TestUnregisterLastRuntimeForcesDisconnect(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	f := newFixture(t, log, cp)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), cp))

	require.NoError(t, f.registry.Unregister(models.RuntimeCircuitPython))

	assert.Nil(t, f.table.Get("/dev/ttyACM0"))
}

func TestDisconnectAll(t *testing.T) {
	log := &callLog{}
	cp := cpRuntime(log)
	mp := mpRuntime(log)
	f := newFixture(t, log, cp, mp)

	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM0"), cp))
	require.NoError(t, f.table.Connect(context.Background(), newDevice("/dev/ttyACM1"), mp))

	f.table.DisconnectAll(context.Background())

	assert.Empty(t, f.table.List())
}
