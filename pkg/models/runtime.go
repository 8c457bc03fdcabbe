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

// RuntimeType identifies a pluggable execution engine.
type RuntimeType string

const (
	RuntimeCircuitPython RuntimeType = "circuitpython"
	RuntimeMicroPython   RuntimeType = "micropython"
	RuntimePython        RuntimeType = "python"
)

// RuntimeState tracks a runtime's lifecycle. Runtimes move strictly forward:
// uninitialized -> initialized -> disposed.
type RuntimeState string

const (
	RuntimeUninitialized RuntimeState = "uninitialized"
	RuntimeInitialized   RuntimeState = "initialized"
	RuntimeDisposed      RuntimeState = "disposed"
)

// RuntimeCapabilities is the fixed-shape capability record every runtime
// reports. The selector scores candidate runtimes by comparing this record
// against what a device needs.
type RuntimeCapabilities struct {
	GPIO          bool `json:"gpio"`
	I2C           bool `json:"i2c"`
	SPI           bool `json:"spi"`
	UART          bool `json:"uart"`
	WiFi          bool `json:"wifi"`
	Bluetooth     bool `json:"bluetooth"`
	AsyncSupport  bool `json:"async_support"`
	Simulation    bool `json:"simulation"`
	WASMExecution bool `json:"wasm_execution"`
}

// RuntimeDescriptor is the registry's view of one execution engine.
type RuntimeDescriptor struct {
	Type RuntimeType `json:"type"`
	// Version is the engine version string, e.g. "9.0.5".
	Version      string              `json:"version"`
	Capabilities RuntimeCapabilities `json:"capabilities"`
	// DeviceFamilies lists board-name fragments this runtime is known to
	// work well with, e.g. "feather", "pico".
	DeviceFamilies []string     `json:"device_families,omitempty"`
	State          RuntimeState `json:"state"`
}

// ExecResult is the outcome of executing a line of code on a runtime.
type ExecResult struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
	TimedOut bool   `json:"timed_out,omitempty"`
}
