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
	"strings"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

const (
	familyMatchBonus = 5
	// CircuitPython is the flagship runtime; the flat bonus biases scoring
	// ties toward it.
	flagshipBonus = 10
)

// Selector picks the best runtime for a device from a Registry.
type Selector struct {
	registry *Registry
	logger   logger.Logger
}

// NewSelector creates a Selector over registry.
func NewSelector(registry *Registry, log logger.Logger) *Selector {
	return &Selector{registry: registry, logger: log}
}

// SelectBestRuntime picks a runtime for device using a strict priority
// chain, first satisfiable wins: explicit user preference, the device's
// previously detected runtime, highest capability score, the registry
// default. Returns nil when nothing is registered at all.
func (s *Selector) SelectBestRuntime(device *models.Device, userPreference models.RuntimeType) Runtime {
	if userPreference != "" {
		if rt := s.registry.Get(userPreference); rt != nil {
			return rt
		}

		s.logger.Warn().
			Str("preference", string(userPreference)).
			Msg("Preferred runtime not registered, falling through")
	}

	if device.DetectedRuntime != "" {
		if rt := s.registry.Get(device.DetectedRuntime); rt != nil {
			return rt
		}
	}

	if rt := s.bestByScore(device); rt != nil {
		return rt
	}

	return s.registry.GetDefault()
}

func (s *Selector) bestByScore(device *models.Device) Runtime {
	var (
		best      Runtime
		bestScore int
	)

	for _, rt := range s.registry.ListAvailable() {
		score := scoreRuntime(rt.Descriptor(), device)
		if score > bestScore {
			best = rt
			bestScore = score
		}
	}

	if best != nil {
		s.logger.Debug().
			Str("path", device.Path).
			Str("runtime", string(best.Descriptor().Type)).
			Int("score", bestScore).
			Msg("Selected runtime by capability score")
	}

	return best
}

// scoreRuntime awards one point per matching capability flag, a family bonus
// when the runtime's known device families overlap the board name, and the
// flagship bonus for CircuitPython.
func scoreRuntime(desc models.RuntimeDescriptor, device *models.Device) int {
	score := 0

	caps := desc.Capabilities
	for _, enabled := range []bool{caps.GPIO, caps.I2C, caps.SPI, caps.UART, caps.WiFi, caps.Bluetooth, caps.AsyncSupport, caps.Simulation, caps.WASMExecution} {
		if enabled {
			score++
		}
	}

	boardName := strings.ToLower(device.BoardID + " " + device.DisplayName)
	for _, family := range desc.DeviceFamilies {
		if family != "" && strings.Contains(boardName, strings.ToLower(family)) {
			score += familyMatchBonus
			break
		}
	}

	if desc.Type == models.RuntimeCircuitPython {
		score += flagshipBonus
	}

	return score
}
