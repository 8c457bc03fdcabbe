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

package boarddb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()

	db, err := Load("", "")
	require.NoError(t, err)

	return NewClassifier(db, logger.NewNop())
}

func TestClassifyExactMatch(t *testing.T) {
	c := newTestClassifier(t)

	dev := c.Classify(models.PortDescriptor{
		Path:      "/dev/ttyACM0",
		VendorID:  "0x239A",
		ProductID: "0x8022",
	})

	require.NotNil(t, dev)
	assert.Equal(t, models.ConfidenceHigh, dev.Confidence)
	assert.Equal(t, "feather_m4_express", dev.BoardID)
	assert.Equal(t, "atmel-samd", dev.PortType)
	assert.Equal(t, "Feather M4 Express", dev.DisplayName)
	assert.Equal(t, "239a", dev.VendorID)
	assert.Equal(t, "8022", dev.ProductID)
	assert.Equal(t, models.RuntimeCircuitPython, dev.PrimaryRuntime)
	assert.False(t, dev.HasConflict)
}

func TestClassifyExactMatchWithConflict(t *testing.T) {
	c := newTestClassifier(t)

	dev := c.Classify(models.PortDescriptor{
		Path:      "/dev/ttyACM1",
		VendorID:  "2e8a",
		ProductID: "0005",
	})

	require.NotNil(t, dev)
	assert.Equal(t, models.ConfidenceHigh, dev.Confidence)
	assert.True(t, dev.HasConflict)
	assert.NotEmpty(t, dev.ConflictsWith)
}

func TestClassifyVendorMatch(t *testing.T) {
	c := newTestClassifier(t)

	dev := c.Classify(models.PortDescriptor{
		Path:      "/dev/ttyACM2",
		VendorID:  "239a",
		ProductID: "ffff", // unknown product under a known vendor
	})

	require.NotNil(t, dev)
	assert.Equal(t, models.ConfidenceMedium, dev.Confidence)
	assert.Equal(t, "Adafruit Device", dev.DisplayName)
	assert.Empty(t, dev.BoardID)
}

func TestClassifyVendorMatchKeepsProductName(t *testing.T) {
	c := newTestClassifier(t)

	dev := c.Classify(models.PortDescriptor{
		Path:      "/dev/ttyACM2",
		VendorID:  "239a",
		ProductID: "ffff",
		Product:   "Mystery Board",
	})

	require.NotNil(t, dev)
	assert.Equal(t, models.ConfidenceMedium, dev.Confidence)
	assert.Equal(t, "Mystery Board", dev.DisplayName)
}

func TestClassifyHeuristic(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name    string
		desc    models.PortDescriptor
		primary models.RuntimeType
	}{
		{
			name: "circuitpython in product string",
			desc: models.PortDescriptor{
				Path:    "/dev/ttyUSB0",
				Product: "CircuitPython CDC control",
			},
			primary: models.RuntimeCircuitPython,
		},
		{
			name: "micropython in serial number",
			desc: models.PortDescriptor{
				Path:         "/dev/ttyUSB1",
				SerialNumber: "micropython-e6614864",
			},
			primary: models.RuntimeMicroPython,
		},
		{
			name: "vendor name in manufacturer string",
			desc: models.PortDescriptor{
				Path:         "/dev/ttyUSB2",
				Manufacturer: "Adafruit Industries LLC",
			},
			primary: models.RuntimeCircuitPython,
		},
		{
			name: "board family token in product string",
			desc: models.PortDescriptor{
				Path:    "/dev/ttyUSB3",
				Product: "Feather-compatible serial",
			},
			primary: models.RuntimeCircuitPython,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := c.Classify(tt.desc)

			require.NotNil(t, dev)
			assert.Equal(t, models.ConfidenceLow, dev.Confidence)
			assert.Equal(t, tt.primary, dev.PrimaryRuntime)
		})
	}
}

func TestClassifyRejectsUnknownPort(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name string
		desc models.PortDescriptor
	}{
		{
			name: "no identity at all",
			desc: models.PortDescriptor{Path: "/dev/ttyS0"},
		},
		{
			name: "unknown vendor and bland strings",
			desc: models.PortDescriptor{
				Path:         "/dev/ttyUSB9",
				VendorID:     "dead",
				ProductID:    "beef",
				Manufacturer: "FTDI",
				Product:      "USB UART",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, c.Classify(tt.desc))
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	c := newTestClassifier(t)

	// A descriptor that would satisfy all three strategies must resolve via
	// the exact match.
	dev := c.Classify(models.PortDescriptor{
		Path:         "/dev/ttyACM0",
		VendorID:     "239a",
		ProductID:    "8022",
		Manufacturer: "Adafruit",
		Product:      "Feather M4 CircuitPython",
	})

	require.NotNil(t, dev)
	assert.Equal(t, models.ConfidenceHigh, dev.Confidence)
	assert.Equal(t, "feather_m4_express", dev.BoardID)
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "239a", normalizeID("0x239A"))
	assert.Equal(t, "239a", normalizeID("  239A "))
	assert.Equal(t, "239a", normalizeID("0X239a"))
}

func TestDBLookups(t *testing.T) {
	db, err := Load("", "")
	require.NoError(t, err)

	vendor, ok := db.Vendor("2e8a")
	require.True(t, ok)
	assert.Equal(t, "Raspberry Pi", vendor.Name)

	_, ok = db.Vendor("0000")
	assert.False(t, ok)

	info, ok := db.Device("0x239A", "0x8022")
	require.True(t, ok)
	require.NotEmpty(t, info.Boards)
	assert.Equal(t, "feather_m4_express", info.Boards[0].Board)

	assert.NotEmpty(t, db.VendorNames())
	assert.NotEmpty(t, db.BoardIDs())
}

func TestLoadRejectsMissingOverride(t *testing.T) {
	_, err := Load("/nonexistent/boards.json", "")
	require.Error(t, err)
}

func TestHumanizeBoardID(t *testing.T) {
	assert.Equal(t, "Feather M4 Express", humanizeBoardID("feather_m4_express"))
	assert.Equal(t, "Pico", humanizeBoardID("pico"))
}
