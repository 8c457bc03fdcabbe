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

// Package boarddb holds the static board/vendor lookup tables and the device
// classifier built on top of them. The tables are loaded once at startup and
// treated as immutable afterwards.
package boarddb

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

//go:embed data/boards.json
var defaultBoardsJSON []byte

//go:embed data/conflicts.json
var defaultConflictsJSON []byte

// VendorInfo describes one known USB vendor.
type VendorInfo struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// BoardRef ties a product to a CircuitPython port/board identifier pair.
type BoardRef struct {
	Port  string `json:"port"`
	Board string `json:"board"`
}

// DeviceInfo describes one known VID:PID product.
type DeviceInfo struct {
	Product string     `json:"product"`
	Boards  []BoardRef `json:"boards"`
}

type lookupFile struct {
	VendorLookup map[string]VendorInfo `json:"vendor_lookup"`
	DeviceLookup map[string]DeviceInfo `json:"device_lookup"`
}

type conflictEntry struct {
	ID     string   `json:"id"`
	Boards []string `json:"boards"`
}

type conflictFile struct {
	CommonConflicts []conflictEntry `json:"common_conflicts"`
}

// DB is the loaded, immutable board database. Keys are normalized to
// lowercase "vid" and "vid:pid" forms.
type DB struct {
	vendors   map[string]VendorInfo
	devices   map[string]DeviceInfo
	conflicts map[string][]string
}

// Load builds a DB from the embedded tables, optionally overridden by files
// on disk. Empty paths keep the embedded defaults.
func Load(boardPath, conflictPath string) (*DB, error) {
	boardsRaw := defaultBoardsJSON
	conflictsRaw := defaultConflictsJSON

	if boardPath != "" {
		data, err := os.ReadFile(boardPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read board database '%s': %w", boardPath, err)
		}

		boardsRaw = data
	}

	if conflictPath != "" {
		data, err := os.ReadFile(conflictPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read conflict table '%s': %w", conflictPath, err)
		}

		conflictsRaw = data
	}

	var lookups lookupFile
	if err := json.Unmarshal(boardsRaw, &lookups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board database: %w", err)
	}

	var conflicts conflictFile
	if err := json.Unmarshal(conflictsRaw, &conflicts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conflict table: %w", err)
	}

	db := &DB{
		vendors:   make(map[string]VendorInfo, len(lookups.VendorLookup)),
		devices:   make(map[string]DeviceInfo, len(lookups.DeviceLookup)),
		conflicts: make(map[string][]string, len(conflicts.CommonConflicts)),
	}

	for vid, info := range lookups.VendorLookup {
		db.vendors[normalizeID(vid)] = info
	}

	for id, info := range lookups.DeviceLookup {
		db.devices[normalizeID(id)] = info
	}

	for _, entry := range conflicts.CommonConflicts {
		db.conflicts[normalizeID(entry.ID)] = entry.Boards
	}

	return db, nil
}

// Vendor looks up vendor metadata by VID.
func (db *DB) Vendor(vid string) (VendorInfo, bool) {
	info, ok := db.vendors[normalizeID(vid)]
	return info, ok
}

// Device looks up product metadata by "vid:pid".
func (db *DB) Device(vid, pid string) (DeviceInfo, bool) {
	info, ok := db.devices[deviceKey(vid, pid)]
	return info, ok
}

// Conflicts returns the ambiguous board names sharing a VID:PID, if any.
func (db *DB) Conflicts(vid, pid string) ([]string, bool) {
	boards, ok := db.conflicts[deviceKey(vid, pid)]
	return boards, ok
}

// VendorNames returns the display names of all known vendors.
func (db *DB) VendorNames() []string {
	names := make([]string, 0, len(db.vendors))
	for _, info := range db.vendors {
		names = append(names, info.Name)
	}

	return names
}

// BoardIDs returns every known canonical board identifier.
func (db *DB) BoardIDs() []string {
	ids := make([]string, 0, len(db.devices))

	for _, info := range db.devices {
		for _, ref := range info.Boards {
			ids = append(ids, ref.Board)
		}
	}

	return ids
}

func normalizeID(id string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x")
}

func deviceKey(vid, pid string) string {
	return normalizeID(vid) + ":" + normalizeID(pid)
}
