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

// Package databus is the shared key-value publish/subscribe store that lets
// REPL surfaces, the hardware simulation and the WASM runtime exchange
// variables and sensor readings.
package databus

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// restoreMaxAge discards persisted entries older than this on restore.
const restoreMaxAge = time.Hour

// Callback receives matching entries. Callbacks run synchronously inside
// Publish; a panicking callback is isolated and logged.
type Callback func(entry models.DataEntry)

type subscription struct {
	id       string
	pattern  string
	regex    *regexp.Regexp
	source   models.DataSource
	callback Callback
}

func (s *subscription) matches(entry *models.DataEntry) bool {
	if s.source != "" && s.source != entry.Source {
		return false
	}

	if s.regex != nil {
		return s.regex.MatchString(entry.Key)
	}

	return s.pattern == entry.Key || strings.Contains(entry.Key, s.pattern)
}

// Bus is the REPL data bus. Last-write-wins per key; subscribers are
// notified synchronously within Publish, so a publish followed by a Get
// always reflects the update.
type Bus struct {
	mu      sync.RWMutex
	entries map[string]*models.DataEntry
	subs    map[string]*subscription
	store   KVStore
	logger  logger.Logger
}

// New creates a Bus. store may be nil to disable persistence.
func New(store KVStore, log logger.Logger) *Bus {
	return &Bus{
		entries: make(map[string]*models.DataEntry),
		subs:    make(map[string]*subscription),
		store:   store,
		logger:  log,
	}
}

// Publish stores entry (overwriting any previous value for its key) and
// notifies all matching subscribers before returning. Variable and
// sensor-data entries are additionally persisted for session restore.
func (b *Bus) Publish(ctx context.Context, entry models.DataEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	b.mu.Lock()
	b.entries[entry.Key] = &entry
	matched := b.matchingSubsLocked(&entry)
	b.mu.Unlock()

	for _, sub := range matched {
		b.deliver(sub, entry)
	}

	if entry.Type == models.DataTypeVariable || entry.Type == models.DataTypeSensorData {
		b.persist(ctx, &entry)
	}
}

func (b *Bus) matchingSubsLocked(entry *models.DataEntry) []*subscription {
	var matched []*subscription

	for _, sub := range b.subs {
		if sub.matches(entry) {
			matched = append(matched, sub)
		}
	}

	return matched
}

// deliver invokes one callback, isolating panics so a broken subscriber
// cannot abort notification of the others.
func (b *Bus) deliver(sub *subscription, entry models.DataEntry) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Interface("panic", r).
				Str("subscription", sub.id).
				Str("key", entry.Key).
				Msg("Subscriber callback panicked")
		}
	}()

	sub.callback(entry)
}

// Subscribe registers callback for keys matching pattern (exact or
// substring). sourceFilter "" matches every source. The new subscriber
// immediately receives a synchronous replay of all stored entries matching
// its filters, so there is no missed-update window for pre-existing data.
func (b *Bus) Subscribe(pattern string, callback Callback, sourceFilter models.DataSource) string {
	return b.subscribe(&subscription{pattern: pattern, source: sourceFilter, callback: callback})
}

// SubscribeRegex is Subscribe with a regular-expression key filter.
func (b *Bus) SubscribeRegex(re *regexp.Regexp, callback Callback, sourceFilter models.DataSource) string {
	return b.subscribe(&subscription{regex: re, source: sourceFilter, callback: callback})
}

func (b *Bus) subscribe(sub *subscription) string {
	sub.id = uuid.New().String()

	b.mu.Lock()
	b.subs[sub.id] = sub
	replay := make([]models.DataEntry, 0)

	for _, entry := range b.entries {
		if sub.matches(entry) {
			replay = append(replay, *entry)
		}
	}
	b.mu.Unlock()

	sort.Slice(replay, func(i, j int) bool {
		return replay[i].Timestamp.Before(replay[j].Timestamp)
	})

	for _, entry := range replay {
		b.deliver(sub, entry)
	}

	return sub.id
}

// Unsubscribe removes a subscription by id.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
}

// Get returns the current entry for key, or nil.
func (b *Bus) Get(key string) *models.DataEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entry, ok := b.entries[key]
	if !ok {
		return nil
	}

	clone := *entry

	return &clone
}

// Query returns all entries whose key matches pattern (exact or substring),
// sorted newest first.
func (b *Bus) Query(pattern string) []models.DataEntry {
	b.mu.RLock()

	var out []models.DataEntry

	for key, entry := range b.entries {
		if key == pattern || strings.Contains(key, pattern) {
			out = append(out, *entry)
		}
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	return out
}

// GetExportData resolves an "import X from mu_repl" path. A bare name looks
// up that key directly. A dotted path treats the first segment as a
// namespace: "ns.*" returns a map of every key under the namespace with the
// prefix stripped, "ns.key" returns that single value. Missing data yields
// nil.
func (b *Bus) GetExportData(importPath string) interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !strings.Contains(importPath, ".") {
		if entry, ok := b.entries[importPath]; ok {
			return entry.Value
		}

		return nil
	}

	namespace, rest, _ := strings.Cut(importPath, ".")

	if rest == "*" {
		prefix := namespace + "."
		out := make(map[string]interface{})

		for key, entry := range b.entries {
			if strings.HasPrefix(key, prefix) {
				out[strings.TrimPrefix(key, prefix)] = entry.Value
			}
		}

		if len(out) == 0 {
			return nil
		}

		return out
	}

	if entry, ok := b.entries[importPath]; ok {
		return entry.Value
	}

	return nil
}

// ClearSource drops every entry published by source, including persisted
// copies. Used when a panel is disposed.
func (b *Bus) ClearSource(ctx context.Context, source models.DataSource) {
	b.mu.Lock()

	var removed []string

	for key, entry := range b.entries {
		if entry.Source == source {
			removed = append(removed, key)
			delete(b.entries, key)
		}
	}
	b.mu.Unlock()

	if b.store == nil {
		return
	}

	for _, key := range removed {
		if err := b.store.Delete(ctx, key); err != nil {
			b.logger.Debug().Err(err).Str("key", key).Msg("Failed to delete persisted entry")
		}
	}
}

// Restore loads persisted entries into the bus, discarding anything older
// than an hour. Called once at startup, before surfaces attach.
func (b *Bus) Restore(ctx context.Context) {
	if b.store == nil {
		return
	}

	stored, err := b.store.List(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("Failed to restore persisted bus entries")
		return
	}

	cutoff := time.Now().Add(-restoreMaxAge)
	restored := 0

	b.mu.Lock()
	for key, raw := range stored {
		var entry models.DataEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			b.logger.Debug().Err(err).Str("key", key).Msg("Skipping unreadable persisted entry")
			continue
		}

		if entry.Timestamp.Before(cutoff) {
			continue
		}

		b.entries[entry.Key] = &entry
		restored++
	}
	b.mu.Unlock()

	if restored > 0 {
		b.logger.Info().Int("entries", restored).Msg("Restored persisted REPL data")
	}
}

// persist writes entry to the durable store. Failures are logged only; the
// bus itself stays authoritative.
func (b *Bus) persist(ctx context.Context, entry *models.DataEntry) {
	if b.store == nil {
		return
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		b.logger.Debug().Err(err).Str("key", entry.Key).Msg("Failed to marshal entry for persistence")
		return
	}

	if err := b.store.Put(ctx, entry.Key, raw); err != nil {
		b.logger.Debug().Err(err).Str("key", entry.Key).Msg("Failed to persist entry")
	}
}
