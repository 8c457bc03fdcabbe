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

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mutwo-dev/mucore/pkg/hardware"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// ttyDialer opens serial device nodes directly. It serves both the
// MicroPython runtime and the physical-serial hardware layer.
type ttyDialer struct{}

func (*ttyDialer) Dial(_ context.Context, devicePath string) (io.ReadWriteCloser, error) {
	return os.OpenFile(devicePath, os.O_RDWR, 0)
}

// hwFactory builds hardware abstractions for the pairing table.
type hwFactory struct {
	dialer *ttyDialer
	logger logger.Logger
}

func (f *hwFactory) Virtual() hardware.Hardware {
	return hardware.NewVirtualHardware(f.logger.WithComponent("virtual-hw"))
}

func (f *hwFactory) Physical(devicePath string) hardware.Hardware {
	return hardware.NewPhysicalSerial(f.dialer, devicePath, 0, f.logger.WithComponent("serial-hw"))
}

func venvPython(venvPath string) string {
	if venvPath == "" {
		return ""
	}

	return filepath.Join(venvPath, "bin", "python")
}

func durationOrZero(d models.Duration) time.Duration {
	return time.Duration(d)
}
