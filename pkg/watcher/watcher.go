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

package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

const (
	// defaultAttachSettle waits for OS enumeration of a freshly attached
	// device to stabilize before re-scanning.
	defaultAttachSettle = 2500 * time.Millisecond
	defaultDetachSettle = 600 * time.Millisecond
	defaultPollInterval = 3 * time.Second

	eventBufferSize = 16
)

// Classifier turns a raw port descriptor into a Device, or nil for
// unsupported ports.
type Classifier interface {
	Classify(desc models.PortDescriptor) *models.Device
}

// Config controls watcher timing. Zero values use the defaults above.
type Config struct {
	PollInterval time.Duration
	AttachSettle time.Duration
	DetachSettle time.Duration
}

// Watcher watches for device arrival/removal. Two strategies run
// concurrently: OS hotplug events trigger a settle-delayed re-scan, and a
// polling ticker re-scans on a fixed interval as fallback. Re-scans are
// single-flight with one trailing re-scan queued for requests arriving while
// a scan is active.
type Watcher struct {
	enumerator PortEnumerator
	classifier Classifier
	source     EventSource
	clock      Clock
	cfg        Config
	logger     logger.Logger

	mu      sync.Mutex
	known   map[string]*models.Device
	scanned bool
	// scanning/pending implement the single-flight guard with a trailing
	// re-scan.
	scanning bool
	pending  bool

	subMu  sync.Mutex
	subs   map[int]chan models.DeviceEvent
	nextID int

	scanRequests chan struct{}
	wg           sync.WaitGroup
	cancel       context.CancelFunc
}

// New creates a Watcher. source may be nil to force polling-only detection.
func New(enumerator PortEnumerator, classifier Classifier, source EventSource, cfg Config, log logger.Logger) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	if cfg.AttachSettle <= 0 {
		cfg.AttachSettle = defaultAttachSettle
	}

	if cfg.DetachSettle <= 0 {
		cfg.DetachSettle = defaultDetachSettle
	}

	return &Watcher{
		enumerator:   enumerator,
		classifier:   classifier,
		source:       source,
		clock:        realClock{},
		cfg:          cfg,
		logger:       log,
		known:        make(map[string]*models.Device),
		subs:         make(map[int]chan models.DeviceEvent),
		scanRequests: make(chan struct{}, 1),
	}
}

// SetClock replaces the wall clock. Tests only.
func (w *Watcher) SetClock(clock Clock) {
	w.clock = clock
}

// Subscribe returns a channel of device events plus an unsubscribe func.
// Slow subscribers drop events rather than blocking the watcher.
func (w *Watcher) Subscribe() (<-chan models.DeviceEvent, func()) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan models.DeviceEvent, eventBufferSize)
	w.subs[id] = ch

	return ch, func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()

		if sub, ok := w.subs[id]; ok {
			delete(w.subs, id)
			close(sub)
		}
	}
}

// Devices returns a snapshot of the currently known devices.
func (w *Watcher) Devices() []*models.Device {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := make([]*models.Device, 0, len(w.known))
	for _, dev := range w.known {
		list = append(list, dev)
	}

	return list
}

// Start begins detection: an immediate baseline scan, then event-driven and
// polling loops until Stop or ctx cancellation.
func (w *Watcher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)

	go w.scanLoop(ctx)

	if w.source != nil {
		if events, err := w.source.Start(ctx); err != nil {
			w.logger.Warn().Err(err).Msg("Hotplug events unavailable, polling only")
		} else {
			w.wg.Add(1)

			go w.eventLoop(ctx, events)
		}
	}

	w.wg.Add(1)

	go w.pollLoop(ctx)

	w.requestScan()
}

// Stop halts all detection loops and waits for them.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}

	if w.source != nil {
		w.source.Stop()
	}

	w.wg.Wait()
}

// requestScan asks the scan loop for a re-scan. If a scan is already active
// the request is remembered and exactly one trailing scan runs afterwards,
// so a device change landing inside a busy scan window is not lost.
func (w *Watcher) requestScan() {
	w.mu.Lock()

	if w.scanning {
		w.pending = true
		w.mu.Unlock()

		return
	}
	w.mu.Unlock()

	select {
	case w.scanRequests <- struct{}{}:
	default:
	}
}

func (w *Watcher) scanLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.scanRequests:
			w.runScan(ctx)

			for w.takePending() {
				w.runScan(ctx)
			}
		}
	}
}

func (w *Watcher) takePending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	pending := w.pending
	w.pending = false

	return pending
}

func (w *Watcher) eventLoop(ctx context.Context, events <-chan HotplugEvent) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			settle := w.cfg.DetachSettle
			if ev.Kind == HotplugAttach {
				settle = w.cfg.AttachSettle
			}

			select {
			case <-ctx.Done():
				return
			case <-w.clock.After(settle):
				w.requestScan()
			}
		}
	}
}

func (w *Watcher) pollLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := w.clock.Ticker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			w.requestScan()
		}
	}
}

// runScan enumerates ports, classifies them and diffs against the previous
// scan. The very first scan emits added for everything visible.
func (w *Watcher) runScan(ctx context.Context) {
	w.mu.Lock()
	w.scanning = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.scanning = false
		w.mu.Unlock()
	}()

	ports, err := w.enumerator.ListPorts(ctx)
	if err != nil {
		// Detection errors skip the cycle; the next trigger retries.
		w.logger.Error().Err(err).Msg("Port enumeration failed, skipping scan")
		return
	}

	current := make(map[string]*models.Device)

	for _, port := range ports {
		if dev := w.classifier.Classify(port); dev != nil {
			current[dev.Path] = dev
		}
	}

	now := w.clock.Now()

	w.mu.Lock()
	previous := w.known
	first := !w.scanned
	w.known = current
	w.scanned = true
	w.mu.Unlock()

	for path, dev := range current {
		old, existed := previous[path]

		switch {
		case first || !existed:
			w.emit(models.DeviceEvent{Kind: models.DeviceAdded, Device: dev, Timestamp: now})
		case old.BoardID != dev.BoardID || old.Confidence != dev.Confidence:
			w.emit(models.DeviceEvent{Kind: models.DeviceChanged, Device: dev, Timestamp: now})
		}
	}

	if !first {
		for path, old := range previous {
			if _, still := current[path]; !still {
				w.emit(models.DeviceEvent{Kind: models.DeviceRemoved, Device: old, Timestamp: now})
			}
		}
	}
}

func (w *Watcher) emit(event models.DeviceEvent) {
	w.logger.Debug().
		Str("kind", string(event.Kind)).
		Str("path", event.Device.Path).
		Msg("Device event")

	w.subMu.Lock()
	defer w.subMu.Unlock()

	for _, sub := range w.subs {
		select {
		case sub <- event:
		default:
		}
	}
}
