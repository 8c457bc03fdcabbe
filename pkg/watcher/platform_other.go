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

//go:build !linux

package watcher

import (
	"context"
	"errors"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

var errNoHotplugSupport = errors.New("hotplug events not supported on this platform")

type emptyEnumerator struct{}

func (emptyEnumerator) ListPorts(context.Context) ([]models.PortDescriptor, error) {
	return nil, nil
}

// NewPlatformEnumerator returns the best enumerator for this OS. Non-Linux
// platforms currently see no ports.
func NewPlatformEnumerator() PortEnumerator {
	return emptyEnumerator{}
}

type noEventSource struct{}

func (noEventSource) Start(context.Context) (<-chan HotplugEvent, error) {
	return nil, errNoHotplugSupport
}

func (noEventSource) Stop() {}

// NewPlatformEventSource returns the best hotplug event source for this OS.
func NewPlatformEventSource(_ logger.Logger) EventSource {
	return noEventSource{}
}
