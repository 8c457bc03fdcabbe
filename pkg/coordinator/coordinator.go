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

// Package coordinator owns the REPL surfaces: it registers them with the
// data bus, fans bus updates out without echo loops, and implements the
// cross-surface data-import semantics.
package coordinator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mutwo-dev/mucore/pkg/databus"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// Surface is one REPL UI panel reachable over a postMessage-style channel.
type Surface interface {
	ID() string
	Send(msg *models.OutboundEnvelope) error
}

// Coordinator fans data between the bus and all registered surfaces.
type Coordinator struct {
	mu     sync.RWMutex
	main   Surface
	panels map[string]Surface
	bus    *databus.Bus
	subID  string
	logger logger.Logger
}

// New creates a Coordinator wired to bus. It subscribes to every bus update
// for fan-out.
func New(bus *databus.Bus, log logger.Logger) *Coordinator {
	c := &Coordinator{
		panels: make(map[string]Surface),
		bus:    bus,
		logger: log,
	}

	// Empty pattern substring-matches every key.
	c.subID = bus.Subscribe("", c.fanOut, "")

	return c
}

// Close detaches the coordinator from the bus.
func (c *Coordinator) Close() {
	c.bus.Unsubscribe(c.subID)
}

// RegisterMainRepl attaches the single main REPL panel.
func (c *Coordinator) RegisterMainRepl(surface Surface) {
	c.mu.Lock()
	c.main = surface
	c.mu.Unlock()

	c.logger.Info().Msg("Main REPL registered")
}

// RegisterConnectedPanel attaches an editor panel and immediately sends it a
// snapshot of current bus contents, so late joiners see prior state.
func (c *Coordinator) RegisterConnectedPanel(id string, surface Surface) {
	c.mu.Lock()
	c.panels[id] = surface
	c.mu.Unlock()

	c.sendSnapshot(surface)

	c.logger.Info().Str("panel", id).Msg("Editor panel registered")
}

// UnregisterPanel detaches an editor panel and clears its bus entries.
// Called on panel disposal.
func (c *Coordinator) UnregisterPanel(ctx context.Context, id string) {
	c.mu.Lock()
	_, registered := c.panels[id]
	delete(c.panels, id)
	c.mu.Unlock()

	if !registered {
		return
	}

	c.bus.ClearSource(ctx, models.EditorSource(id))

	c.logger.Info().Str("panel", id).Msg("Editor panel unregistered")
}

// UnregisterMainRepl detaches the main panel.
func (c *Coordinator) UnregisterMainRepl() {
	c.mu.Lock()
	c.main = nil
	c.mu.Unlock()
}

// PublishData puts a surface-published value onto the bus. Fan-out to the
// other surfaces happens through the bus subscription.
func (c *Coordinator) PublishData(ctx context.Context, source models.DataSource, payload *models.DataPublishPayload) {
	dataType := payload.DataType
	if dataType == "" {
		dataType = models.DataTypeVariable
	}

	c.bus.Publish(ctx, models.DataEntry{
		Key:      payload.Key,
		Value:    payload.Value,
		Type:     dataType,
		Source:   source,
		Metadata: payload.Metadata,
	})
}

// HandleDataImport resolves an import path against the bus on behalf of a
// surface ("import tof from mu_repl").
func (c *Coordinator) HandleDataImport(importPath string) (interface{}, bool) {
	data := c.bus.GetExportData(importPath)
	return data, data != nil
}

// BroadcastSensorData publishes a sensor reading under "sensor.<name>" and
// pushes a dedicated sensor update to the fan-out targets.
func (c *Coordinator) BroadcastSensorData(ctx context.Context, source models.DataSource, name string, value interface{}, meta *models.DataMetadata) {
	now := time.Now()

	c.bus.Publish(ctx, models.DataEntry{
		Key:       "sensor." + name,
		Value:     value,
		Type:      models.DataTypeSensorData,
		Source:    source,
		Timestamp: now,
		Metadata:  meta,
	})

	c.sendToTargets(source, models.OutboundSensorDataUpdate, &models.SensorDataUpdatePayload{
		SensorName: name,
		Value:      value,
		Source:     source,
		Timestamp:  now,
		Metadata:   meta,
	})
}

// BroadcastHardwareState publishes simulated-hardware state under
// "hardware.<deviceType>" plus a dedicated state update.
func (c *Coordinator) BroadcastHardwareState(ctx context.Context, source models.DataSource, deviceType string, state map[string]interface{}) {
	now := time.Now()

	c.bus.Publish(ctx, models.DataEntry{
		Key:       "hardware." + deviceType,
		Value:     state,
		Type:      models.DataTypeHardwareState,
		Source:    source,
		Timestamp: now,
	})

	c.sendToTargets(source, models.OutboundHardwareStateUpdate, &models.HardwareStateUpdatePayload{
		DeviceType: deviceType,
		State:      state,
		Source:     source,
		Timestamp:  now,
	})
}

// BroadcastPinState publishes one pin transition under "pin.<pin>" plus a
// dedicated pin update.
func (c *Coordinator) BroadcastPinState(ctx context.Context, source models.DataSource, pin string, value interface{}, mode string) {
	now := time.Now()

	c.bus.Publish(ctx, models.DataEntry{
		Key:       "pin." + pin,
		Value:     value,
		Type:      models.DataTypePinState,
		Source:    source,
		Timestamp: now,
	})

	c.sendToTargets(source, models.OutboundPinStateUpdate, &models.PinStateUpdatePayload{
		Pin:       pin,
		Value:     value,
		Mode:      mode,
		Source:    source,
		Timestamp: now,
	})
}

// fanOut forwards one bus update to surfaces, excluding the originator: a
// main-REPL update goes to all editor panels but never back to the main
// REPL; an editor update goes to the main REPL and every other panel; any
// other source goes to everyone.
func (c *Coordinator) fanOut(entry models.DataEntry) {
	c.sendToTargets(entry.Source, models.OutboundDataUpdate, &models.DataUpdatePayload{
		Key:       entry.Key,
		Value:     entry.Value,
		DataType:  entry.Type,
		Source:    entry.Source,
		Timestamp: entry.Timestamp,
	})
}

func (c *Coordinator) sendToTargets(source models.DataSource, msgType models.OutboundType, payload interface{}) {
	msg, err := models.NewOutbound(msgType, payload)
	if err != nil {
		c.logger.Error().Err(err).Str("type", string(msgType)).Msg("Failed to encode outbound message")
		return
	}

	c.mu.RLock()
	main := c.main
	targets := make([]Surface, 0, len(c.panels))

	originPanel := source.PanelID()

	for id, panel := range c.panels {
		if source.IsEditorSource() && id == originPanel {
			continue
		}

		targets = append(targets, panel)
	}
	c.mu.RUnlock()

	if main != nil && source != models.SourceMainREPL {
		targets = append(targets, main)
	}

	for _, target := range targets {
		if err := target.Send(msg); err != nil {
			c.logger.Warn().Err(err).Str("surface", target.ID()).Msg("Failed to deliver update to surface")
		}
	}
}

// sendSnapshot replays all current bus entries to one surface as data
// updates, oldest first.
func (c *Coordinator) sendSnapshot(surface Surface) {
	entries := c.bus.Query("")

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	for i := range entries {
		entry := &entries[i]

		msg, err := models.NewOutbound(models.OutboundDataUpdate, &models.DataUpdatePayload{
			Key:       entry.Key,
			Value:     entry.Value,
			DataType:  entry.Type,
			Source:    entry.Source,
			Timestamp: entry.Timestamp,
		})
		if err != nil {
			continue
		}

		if err := surface.Send(msg); err != nil {
			c.logger.Warn().Err(err).Str("surface", surface.ID()).Msg("Snapshot delivery failed")
			return
		}
	}
}
