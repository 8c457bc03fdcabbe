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

package runtime

import "errors"

var (
	// ErrNoCompatibleRuntime is returned when no registered runtime can
	// serve a device.
	ErrNoCompatibleRuntime = errors.New("no compatible runtime found")

	// ErrRuntimeNotRegistered is returned for lookups of unknown types.
	ErrRuntimeNotRegistered = errors.New("runtime not registered")

	errRuntimeDisposed   = errors.New("runtime has been disposed")
	errAlreadyRegistered = errors.New("runtime type already registered")
	errNotConnected      = errors.New("runtime is not connected to a device")
)
