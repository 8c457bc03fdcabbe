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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var errInvalidDuration = errors.New("invalid duration")

// Duration is a time.Duration that unmarshals from either a duration string
// ("2.5s") or a number of nanoseconds.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s", errInvalidDuration, value)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

// WatcherConfig controls device detection timing.
type WatcherConfig struct {
	// PollInterval is the fallback polling cadence when event-driven
	// detection is unavailable.
	PollInterval Duration `json:"poll_interval,omitempty"`
	// AttachSettle delays the re-scan after a USB attach event so OS
	// enumeration can stabilize.
	AttachSettle Duration `json:"attach_settle,omitempty"`
	// DetachSettle delays the re-scan after a detach event.
	DetachSettle Duration `json:"detach_settle,omitempty"`
}

// RouterConfig controls the unified command router.
type RouterConfig struct {
	// VenvPath points at the managed Python virtual environment used for
	// shell-routed commands.
	VenvPath string `json:"venv_path,omitempty"`
	// ShellTimeout hard-kills shell commands that run longer than this.
	ShellTimeout Duration `json:"shell_timeout,omitempty"`
	// HistorySize caps per-session command history.
	HistorySize int `json:"history_size,omitempty"`
}

// NATSConfig locates the JetStream KV used for bus persistence. Optional;
// when absent the bus falls back to an in-process store.
type NATSConfig struct {
	URL    string `json:"url"`
	Bucket string `json:"bucket,omitempty"`
}

// CoreConfig is the top-level configuration for the mucored service.
type CoreConfig struct {
	// ListenAddr is the websocket gateway bind address, e.g. ":8765".
	ListenAddr string `json:"listen_addr"`
	// Workspace names the per-workspace persistence scope.
	Workspace string `json:"workspace,omitempty"`
	// BoardDBPath and ConflictDBPath override the embedded lookup tables.
	BoardDBPath    string `json:"board_db_path,omitempty"`
	ConflictDBPath string `json:"conflict_db_path,omitempty"`
	// WASMEngineCmd launches the external CircuitPython WASM engine, e.g.
	// "node /opt/mucore/wasm/runner.js". Empty disables the runtime.
	WASMEngineCmd string `json:"wasm_engine_cmd,omitempty"`

	Watcher WatcherConfig `json:"watcher,omitempty"`
	Router  RouterConfig  `json:"router,omitempty"`
	NATS    *NATSConfig   `json:"nats,omitempty"`

	LogLevel string `json:"log_level,omitempty"`
	Debug    bool   `json:"debug,omitempty"`
}

// Validate fills defaults and rejects nonsense values.
func (c *CoreConfig) Validate() error {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8765"
	}

	if c.Workspace == "" {
		c.Workspace = "default"
	}

	if c.Router.HistorySize < 0 {
		return fmt.Errorf("router.history_size must be >= 0, got %d", c.Router.HistorySize)
	}

	if c.NATS != nil && c.NATS.URL == "" {
		return errors.New("nats.url is required when nats is configured")
	}

	return nil
}
