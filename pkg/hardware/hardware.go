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

//go:generate mockgen -destination=mock_hardware.go -package=hardware github.com/mutwo-dev/mucore/pkg/hardware Hardware

// Package hardware mediates pin/bus I/O against either a physical serial
// device or a simulated equivalent.
package hardware

import (
	"context"
	"errors"
)

var (
	errNotConnected = errors.New("hardware is not connected")
	errUnknownPin   = errors.New("unknown pin")
)

// Hardware is the abstraction the pairing table binds to each device. The
// pairing table picks the implementation: virtual for simulation-capable
// runtimes, physical-serial otherwise.
type Hardware interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Connected() bool

	DigitalRead(ctx context.Context, pin string) (bool, error)
	DigitalWrite(ctx context.Context, pin string, value bool) error
	AnalogRead(ctx context.Context, pin string) (float64, error)
	AnalogWrite(ctx context.Context, pin string, value float64) error
	I2CTransfer(ctx context.Context, addr byte, write []byte, readLen int) ([]byte, error)
}
