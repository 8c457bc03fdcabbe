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
	"time"
)

// Confidence expresses how certain the classifier is that a port is a
// supported device.
type Confidence string

const (
	// ConfidenceHigh is an exact VID:PID board match.
	ConfidenceHigh Confidence = "high"
	// ConfidenceMedium is a known-vendor match without an exact board match.
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow is a string-pattern heuristic match.
	ConfidenceLow Confidence = "low"
)

// PortDescriptor is the raw OS-level view of a serial port, before
// classification. Hex identifiers are lowercase without a 0x prefix.
type PortDescriptor struct {
	Path         string `json:"path"`
	VendorID     string `json:"vendor_id,omitempty"`
	ProductID    string `json:"product_id,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      string `json:"product,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
}

// Device is a classified serial-capable endpoint. Devices are value objects:
// every detection pass produces a fresh Device, and identity across scans is
// determined by Path equality alone.
type Device struct {
	Path              string        `json:"path"`
	VendorID          string        `json:"vendor_id,omitempty"`
	ProductID         string        `json:"product_id,omitempty"`
	Manufacturer      string        `json:"manufacturer,omitempty"`
	Product           string        `json:"product,omitempty"`
	BoardID           string        `json:"board_id,omitempty"`
	PortType          string        `json:"port_type,omitempty"`
	DisplayName       string        `json:"display_name"`
	Confidence        Confidence    `json:"confidence"`
	HasConflict       bool          `json:"has_conflict,omitempty"`
	ConflictsWith     []string      `json:"conflicts_with,omitempty"`
	SupportedRuntimes []RuntimeType `json:"supported_runtimes,omitempty"`
	PrimaryRuntime    RuntimeType   `json:"primary_runtime,omitempty"`
	DetectedRuntime   RuntimeType   `json:"detected_runtime,omitempty"`
	DetectedAt        time.Time     `json:"detected_at"`
}

// DeviceEventKind discriminates watcher events.
type DeviceEventKind string

const (
	DeviceAdded   DeviceEventKind = "added"
	DeviceRemoved DeviceEventKind = "removed"
	DeviceChanged DeviceEventKind = "changed"
)

// DeviceEvent is emitted by the device watcher whenever the set of visible
// devices changes.
type DeviceEvent struct {
	Kind      DeviceEventKind `json:"kind"`
	Device    *Device         `json:"device"`
	Timestamp time.Time       `json:"timestamp"`
}
