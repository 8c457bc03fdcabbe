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

//go:generate mockgen -destination=mock_watcher.go -package=watcher github.com/mutwo-dev/mucore/pkg/watcher PortEnumerator,EventSource,Clock,Ticker

// Package watcher detects serial/USB device arrival and removal.
package watcher

import (
	"context"
	"time"

	"github.com/mutwo-dev/mucore/pkg/models"
)

// PortEnumerator lists the currently visible serial ports.
type PortEnumerator interface {
	ListPorts(ctx context.Context) ([]models.PortDescriptor, error)
}

// HotplugKind discriminates OS hotplug notifications.
type HotplugKind string

const (
	HotplugAttach HotplugKind = "attach"
	HotplugDetach HotplugKind = "detach"
)

// HotplugEvent is a low-level OS notification that a device came or went.
// It carries no port details; it only triggers a re-scan.
type HotplugEvent struct {
	Kind HotplugKind
}

// EventSource delivers OS hotplug notifications. Implementations that cannot
// start (e.g. no netlink access) return an error from Start, and the watcher
// falls back to polling.
type EventSource interface {
	Start(ctx context.Context) (<-chan HotplugEvent, error)
	Stop()
}

// Clock abstracts time-related operations.
type Clock interface {
	Now() time.Time
	Ticker(d time.Duration) Ticker
	After(d time.Duration) <-chan time.Time
}

// Ticker abstracts the ticker behavior.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Ticker(d time.Duration) Ticker { return &realTicker{t: time.NewTicker(d)} }

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) Chan() <-chan time.Time { return r.t.C }

func (r *realTicker) Stop() { r.t.Stop() }
