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
	"strings"
	"time"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// minPatternLen filters out short vendor names and board-id tokens that
// would otherwise match almost any product string.
const minPatternLen = 3

// Classifier decides whether a raw port descriptor represents a supported
// device. It is a pure function over the immutable DB; no I/O.
type Classifier struct {
	db     *DB
	logger logger.Logger
}

// NewClassifier creates a Classifier over db.
func NewClassifier(db *DB, log logger.Logger) *Classifier {
	return &Classifier{db: db, logger: log}
}

// Classify runs the detection priority chain over desc. It returns nil when
// the port is not a supported device.
//
// Priority order, first match wins: exact VID:PID board match (high
// confidence), known-vendor match (medium), string-pattern heuristic (low).
func (c *Classifier) Classify(desc models.PortDescriptor) *models.Device {
	if dev := c.classifyExact(desc); dev != nil {
		return dev
	}

	if dev := c.classifyVendor(desc); dev != nil {
		return dev
	}

	if dev := c.classifyHeuristic(desc); dev != nil {
		return dev
	}

	return nil
}

func (c *Classifier) classifyExact(desc models.PortDescriptor) *models.Device {
	if desc.VendorID == "" || desc.ProductID == "" {
		return nil
	}

	info, ok := c.db.Device(desc.VendorID, desc.ProductID)
	if !ok {
		return nil
	}

	dev := c.newDevice(desc, models.ConfidenceHigh)

	if len(info.Boards) > 0 {
		dev.BoardID = info.Boards[0].Board
		dev.PortType = info.Boards[0].Port
	}

	dev.DisplayName = displayName(dev.BoardID, info.Product, desc)

	if boards, found := c.db.Conflicts(desc.VendorID, desc.ProductID); found {
		dev.HasConflict = true
		dev.ConflictsWith = boards
	}

	c.logger.Debug().
		Str("path", desc.Path).
		Str("board_id", dev.BoardID).
		Msg("Exact board match")

	return dev
}

func (c *Classifier) classifyVendor(desc models.PortDescriptor) *models.Device {
	if desc.VendorID == "" {
		return nil
	}

	vendor, ok := c.db.Vendor(desc.VendorID)
	if !ok {
		return nil
	}

	dev := c.newDevice(desc, models.ConfidenceMedium)
	dev.DisplayName = displayName("", "", desc)

	if dev.DisplayName == genericDeviceName {
		dev.DisplayName = vendor.Name + " Device"
	}

	return dev
}

func (c *Classifier) classifyHeuristic(desc models.PortDescriptor) *models.Device {
	haystack := strings.ToLower(desc.Manufacturer + " " + desc.Product + " " + desc.SerialNumber)
	if strings.TrimSpace(haystack) == "" {
		return nil
	}

	matched := strings.Contains(haystack, "circuitpython") ||
		strings.Contains(haystack, "micropython")

	if !matched {
		for _, name := range c.db.VendorNames() {
			if len(name) > minPatternLen && strings.Contains(haystack, strings.ToLower(name)) {
				matched = true
				break
			}
		}
	}

	if !matched {
		for _, token := range c.boardTokens() {
			if strings.Contains(haystack, token) {
				matched = true
				break
			}
		}
	}

	if !matched {
		return nil
	}

	dev := c.newDevice(desc, models.ConfidenceLow)
	dev.DisplayName = displayName("", "", desc)

	if strings.Contains(haystack, "micropython") && !strings.Contains(haystack, "circuitpython") {
		dev.PrimaryRuntime = models.RuntimeMicroPython
		dev.SupportedRuntimes = []models.RuntimeType{models.RuntimeMicroPython, models.RuntimePython}
	}

	return dev
}

// boardTokens extracts family-name fragments from board identifiers by
// splitting on "_" and keeping tokens longer than minPatternLen.
func (c *Classifier) boardTokens() []string {
	seen := make(map[string]struct{})

	var tokens []string

	for _, id := range c.db.BoardIDs() {
		for _, token := range strings.Split(strings.ToLower(id), "_") {
			if len(token) <= minPatternLen {
				continue
			}

			if _, dup := seen[token]; dup {
				continue
			}

			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}

	return tokens
}

func (c *Classifier) newDevice(desc models.PortDescriptor, confidence models.Confidence) *models.Device {
	return &models.Device{
		Path:              desc.Path,
		VendorID:          normalizeID(desc.VendorID),
		ProductID:         normalizeID(desc.ProductID),
		Manufacturer:      desc.Manufacturer,
		Product:           desc.Product,
		Confidence:        confidence,
		PrimaryRuntime:    models.RuntimeCircuitPython,
		SupportedRuntimes: []models.RuntimeType{models.RuntimeCircuitPython, models.RuntimeMicroPython, models.RuntimePython},
		DetectedAt:        time.Now(),
	}
}

const genericDeviceName = "Serial Device"

// displayName picks the friendliest available name: humanized board id, then
// raw product string, then "{manufacturer} Device", then a generic fallback.
func displayName(boardID, product string, desc models.PortDescriptor) string {
	if boardID != "" {
		return humanizeBoardID(boardID)
	}

	if product != "" {
		return product
	}

	if desc.Product != "" {
		return desc.Product
	}

	if desc.Manufacturer != "" {
		return desc.Manufacturer + " Device"
	}

	return genericDeviceName
}

// humanizeBoardID turns "feather_m4_express" into "Feather M4 Express".
func humanizeBoardID(id string) string {
	words := strings.Split(id, "_")

	for i, word := range words {
		if word == "" {
			continue
		}

		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}

	return strings.Join(words, " ")
}
