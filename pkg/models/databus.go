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

package models

import (
	"strings"
	"time"
)

// DataType categorizes a bus entry.
type DataType string

const (
	DataTypeVariable      DataType = "variable"
	DataTypeModule        DataType = "module"
	DataTypeSensorData    DataType = "sensor_data"
	DataTypePinState      DataType = "pin_state"
	DataTypeHardwareState DataType = "hardware_state"
)

// DataSource identifies who published a bus entry. Editor panels carry a
// per-panel suffix, e.g. "editor_repl_main.py".
type DataSource string

const (
	SourceMainREPL      DataSource = "main_repl"
	SourceWASMRuntime   DataSource = "wasm_runtime"
	SourceHardwareSim   DataSource = "hardware_simulation"
	sourceEditorPrefix             = "editor_repl"
)

// EditorSource builds the DataSource for an editor panel with the given id.
func EditorSource(panelID string) DataSource {
	return DataSource(sourceEditorPrefix + "_" + panelID)
}

// IsEditorSource reports whether s belongs to an editor panel.
func (s DataSource) IsEditorSource() bool {
	return strings.HasPrefix(string(s), sourceEditorPrefix)
}

// PanelID extracts the panel id from an editor source, or "" for non-editor
// sources.
func (s DataSource) PanelID() string {
	if !s.IsEditorSource() {
		return ""
	}

	return strings.TrimPrefix(string(s), sourceEditorPrefix+"_")
}

// DataMetadata carries optional display hints for a bus entry.
type DataMetadata struct {
	Units  string   `json:"units,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Format string   `json:"format,omitempty"`
}

// DataEntry is one record on the REPL data bus. Keys are dot-namespaced
// (e.g. "sensor.temperature") and each key holds at most one current value.
type DataEntry struct {
	Key       string        `json:"key"`
	Value     interface{}   `json:"value"`
	Type      DataType      `json:"type"`
	Source    DataSource    `json:"source"`
	Timestamp time.Time     `json:"timestamp"`
	Metadata  *DataMetadata `json:"metadata,omitempty"`
}
