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
	"encoding/json"
	"time"
)

// Surface messages are the JSON payloads exchanged with REPL surfaces over a
// postMessage-style channel. Each direction is a closed tagged union: an
// envelope carrying a discriminant type plus a raw payload, decoded into the
// matching payload struct by the gateway.

// InboundType discriminates surface-to-core messages.
type InboundType string

const (
	InboundHello              InboundType = "hello"
	InboundDataPublish        InboundType = "dataPublish"
	InboundDataRequest        InboundType = "dataRequest"
	InboundSensorDataStream   InboundType = "sensorDataStream"
	InboundHardwareSimulation InboundType = "hardwareSimulation"
)

// InboundEnvelope frames one inbound surface message.
type InboundEnvelope struct {
	Type    InboundType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// HelloPayload is the first message on a surface connection, identifying the
// surface. Role is "main" or "editor"; PanelID is required for editors.
type HelloPayload struct {
	Role    string `json:"role"`
	PanelID string `json:"panelId,omitempty"`
}

const (
	SurfaceRoleMain   = "main"
	SurfaceRoleEditor = "editor"
)

// DataPublishPayload publishes a value to the data bus.
type DataPublishPayload struct {
	Key      string        `json:"key"`
	Value    interface{}   `json:"value"`
	DataType DataType      `json:"type"`
	Metadata *DataMetadata `json:"metadata,omitempty"`
}

// DataRequestPayload asks for data by import path ("import X from mu_repl").
type DataRequestPayload struct {
	RequestID  string `json:"requestId"`
	ImportPath string `json:"importPath"`
}

// SensorDataStreamPayload carries one simulated or live sensor reading.
type SensorDataStreamPayload struct {
	SensorName string        `json:"sensorName"`
	Value      interface{}   `json:"value"`
	Metadata   *DataMetadata `json:"metadata,omitempty"`
}

// HardwareSimulationPayload carries the state of one simulated peripheral.
type HardwareSimulationPayload struct {
	DeviceType string                 `json:"deviceType"`
	State      map[string]interface{} `json:"state"`
}

// OutboundType discriminates core-to-surface messages.
type OutboundType string

const (
	OutboundDataUpdate          OutboundType = "dataUpdate"
	OutboundDataResponse        OutboundType = "dataResponse"
	OutboundSensorDataUpdate    OutboundType = "sensorDataUpdate"
	OutboundHardwareStateUpdate OutboundType = "hardwareStateUpdate"
	OutboundPinStateUpdate      OutboundType = "pinStateUpdate"
)

// OutboundEnvelope frames one message pushed to a surface.
type OutboundEnvelope struct {
	Type    OutboundType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NewOutbound marshals payload into an OutboundEnvelope.
func NewOutbound(t OutboundType, payload interface{}) (*OutboundEnvelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &OutboundEnvelope{Type: t, Payload: raw}, nil
}

// DataUpdatePayload mirrors a bus entry out to surfaces.
type DataUpdatePayload struct {
	Key       string      `json:"key"`
	Value     interface{} `json:"value"`
	DataType  DataType    `json:"dataType"`
	Source    DataSource  `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
}

// DataResponsePayload answers a DataRequest.
type DataResponsePayload struct {
	RequestID string      `json:"requestId"`
	Data      interface{} `json:"data"`
	Success   bool        `json:"success"`
}

// SensorDataUpdatePayload fans a sensor reading out to surfaces.
type SensorDataUpdatePayload struct {
	SensorName string        `json:"sensorName"`
	Value      interface{}   `json:"value"`
	Source     DataSource    `json:"source"`
	Timestamp  time.Time     `json:"timestamp"`
	Metadata   *DataMetadata `json:"metadata,omitempty"`
}

// HardwareStateUpdatePayload fans simulated-hardware state out to surfaces.
type HardwareStateUpdatePayload struct {
	DeviceType string                 `json:"deviceType"`
	State      map[string]interface{} `json:"state"`
	Source     DataSource             `json:"source"`
	Timestamp  time.Time              `json:"timestamp"`
}

// PinStateUpdatePayload fans one pin-level change out to surfaces.
type PinStateUpdatePayload struct {
	Pin       string      `json:"pin"`
	Value     interface{} `json:"value"`
	Mode      string      `json:"mode,omitempty"`
	Source    DataSource  `json:"source"`
	Timestamp time.Time   `json:"timestamp"`
}
