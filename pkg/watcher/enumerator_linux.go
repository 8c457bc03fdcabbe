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

//go:build linux

package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mutwo-dev/mucore/pkg/models"
)

// SysfsEnumerator lists serial ports by walking /sys/class/tty and reading
// USB identity attributes from the owning device directory.
type SysfsEnumerator struct {
	// SysRoot and DevRoot are overridable for tests; they default to
	// "/sys" and "/dev".
	SysRoot string
	DevRoot string
}

// NewSysfsEnumerator creates an enumerator over the real sysfs.
func NewSysfsEnumerator() *SysfsEnumerator {
	return &SysfsEnumerator{SysRoot: "/sys", DevRoot: "/dev"}
}

// ListPorts implements PortEnumerator.
func (e *SysfsEnumerator) ListPorts(ctx context.Context) ([]models.PortDescriptor, error) {
	ttyDir := filepath.Join(e.SysRoot, "class", "tty")

	entries, err := os.ReadDir(ttyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", ttyDir, err)
	}

	var ports []models.PortDescriptor

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := entry.Name()

		// Only USB-backed serial ports carry device identity; the rest
		// (virtual consoles, pty masters) have no "device" link.
		deviceLink := filepath.Join(ttyDir, name, "device")
		if _, err := os.Stat(deviceLink); err != nil {
			continue
		}

		desc := models.PortDescriptor{Path: filepath.Join(e.DevRoot, name)}
		e.fillUSBIdentity(deviceLink, &desc)

		ports = append(ports, desc)
	}

	return ports, nil
}

// fillUSBIdentity walks up from the tty's device directory looking for the
// USB device node carrying idVendor/idProduct.
func (e *SysfsEnumerator) fillUSBIdentity(deviceLink string, desc *models.PortDescriptor) {
	dir, err := filepath.EvalSymlinks(deviceLink)
	if err != nil {
		return
	}

	// idVendor lives at most a few levels up (tty -> interface -> device).
	for range [4]int{} {
		if vid := readAttr(dir, "idVendor"); vid != "" {
			desc.VendorID = strings.ToLower(vid)
			desc.ProductID = strings.ToLower(readAttr(dir, "idProduct"))
			desc.Manufacturer = readAttr(dir, "manufacturer")
			desc.Product = readAttr(dir, "product")
			desc.SerialNumber = readAttr(dir, "serial")

			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}

		dir = parent
	}
}

func readAttr(dir, name string) string {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
