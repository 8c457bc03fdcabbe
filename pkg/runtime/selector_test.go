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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

func newSelectorFixture(t *testing.T, runtimes ...Runtime) *Selector {
	t.Helper()

	reg := NewRegistry(logger.NewNop())
	for _, rt := range runtimes {
		require.NoError(t, reg.Register(rt))
	}

	return NewSelector(reg, logger.NewNop())
}

func TestSelectUserPreferenceWinsOverEverything(t *testing.T) {
	cp := newFakeRuntime(models.RuntimeCircuitPython)
	py := newFakeRuntime(models.RuntimePython)
	sel := newSelectorFixture(t, cp, py)

	device := &models.Device{Path: "/dev/ttyACM0", DetectedRuntime: models.RuntimeCircuitPython}

	got := sel.SelectBestRuntime(device, models.RuntimePython)
	assert.Same(t, Runtime(py), got)
}

func TestSelectUnregisteredPreferenceFallsThrough(t *testing.T) {
	mp := newFakeRuntime(models.RuntimeMicroPython)
	sel := newSelectorFixture(t, mp)

	device := &models.Device{Path: "/dev/ttyACM0", DetectedRuntime: models.RuntimeMicroPython}

	got := sel.SelectBestRuntime(device, models.RuntimePython)
	assert.Same(t, Runtime(mp), got)
}

func TestSelectDetectedRuntimeBeatsDefault(t *testing.T) {
	cp := newFakeRuntime(models.RuntimeCircuitPython)
	mp := newFakeRuntime(models.RuntimeMicroPython)
	sel := newSelectorFixture(t, cp, mp) // cp registered first, so it is the default

	device := &models.Device{Path: "/dev/ttyACM0", DetectedRuntime: models.RuntimeMicroPython}

	got := sel.SelectBestRuntime(device, "")
	assert.Same(t, Runtime(mp), got)
}

func TestSelectByCapabilityScore(t *testing.T) {
	rich := &fakeRuntime{desc: models.RuntimeDescriptor{
		Type: models.RuntimeMicroPython,
		Capabilities: models.RuntimeCapabilities{
			GPIO: true, I2C: true, SPI: true, UART: true, WiFi: true,
			Bluetooth: true, AsyncSupport: true, Simulation: true, WASMExecution: true,
		},
	}}
	poor := &fakeRuntime{desc: models.RuntimeDescriptor{Type: models.RuntimePython}}

	sel := newSelectorFixture(t, poor, rich)

	got := sel.SelectBestRuntime(&models.Device{Path: "/dev/ttyACM0"}, "")
	assert.Same(t, Runtime(rich), got)
}

func TestFlagshipBonusBreaksCapabilityTies(t *testing.T) {
	cp := &fakeRuntime{desc: models.RuntimeDescriptor{
		Type:         models.RuntimeCircuitPython,
		Capabilities: models.RuntimeCapabilities{GPIO: true},
	}}
	mp := &fakeRuntime{desc: models.RuntimeDescriptor{
		Type:         models.RuntimeMicroPython,
		Capabilities: models.RuntimeCapabilities{GPIO: true},
	}}

	sel := newSelectorFixture(t, mp, cp)

	got := sel.SelectBestRuntime(&models.Device{Path: "/dev/ttyACM0"}, "")
	assert.Same(t, Runtime(cp), got)
}

func TestFamilyMatchBonus(t *testing.T) {
	feather := &fakeRuntime{desc: models.RuntimeDescriptor{
		Type:           models.RuntimeMicroPython,
		Capabilities:   models.RuntimeCapabilities{GPIO: true},
		DeviceFamilies: []string{"feather"},
	}}
	// Outscores the family match on raw capabilities, but not by enough to
	// beat the bonus.
	generic := &fakeRuntime{desc: models.RuntimeDescriptor{
		Type:         models.RuntimePython,
		Capabilities: models.RuntimeCapabilities{GPIO: true, I2C: true, SPI: true},
	}}

	sel := newSelectorFixture(t, generic, feather)

	device := &models.Device{Path: "/dev/ttyACM0", BoardID: "feather_m4_express"}

	got := sel.SelectBestRuntime(device, "")
	assert.Same(t, Runtime(feather), got)
}

func TestSelectFallsBackToDefault(t *testing.T) {
	ctrl := gomock.NewController(t)

	rt := NewMockRuntime(ctrl)
	rt.EXPECT().Descriptor().Return(models.RuntimeDescriptor{Type: models.RuntimePython}).AnyTimes()

	reg := NewRegistry(logger.NewNop())
	require.NoError(t, reg.Register(rt))

	sel := NewSelector(reg, logger.NewNop())

	// Zero capabilities score zero, so the scoring pass finds nothing and
	// the registry default wins.
	got := sel.SelectBestRuntime(&models.Device{Path: "/dev/ttyACM0"}, "")
	assert.Same(t, Runtime(rt), got)
}

func TestSelectEmptyRegistryReturnsNil(t *testing.T) {
	sel := newSelectorFixture(t)

	assert.Nil(t, sel.SelectBestRuntime(&models.Device{Path: "/dev/ttyACM0"}, ""))
}
