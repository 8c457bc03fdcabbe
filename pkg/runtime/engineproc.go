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

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// ProcessEngine bridges to an external WASM CircuitPython interpreter by
// invoking a runner command: code goes in on stdin, output comes back on
// stdout. State queries use the runner's "--query <key>" mode.
type ProcessEngine struct {
	mu   sync.Mutex
	argv []string
}

var _ Engine = (*ProcessEngine)(nil)

// NewProcessEngine creates an engine from a command line such as
// "node /opt/mucore/wasm/runner.js".
func NewProcessEngine(command string) (*ProcessEngine, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty wasm engine command")
	}

	return &ProcessEngine{argv: argv}, nil
}

func (e *ProcessEngine) Execute(ctx context.Context, code string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cmd := exec.CommandContext(ctx, e.argv[0], e.argv[1:]...)
	cmd.Stdin = strings.NewReader(code)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String() + stderr.String(), fmt.Errorf("wasm engine failed: %w", err)
	}

	return stdout.String(), nil
}

func (e *ProcessEngine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	args := append(append([]string{}, e.argv[1:]...), "--reset")

	if err := exec.CommandContext(ctx, e.argv[0], args...).Run(); err != nil {
		return fmt.Errorf("wasm engine reset failed: %w", err)
	}

	return nil
}

func (e *ProcessEngine) QueryState(ctx context.Context, key string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	args := append(append([]string{}, e.argv[1:]...), "--query", key)

	out, err := exec.CommandContext(ctx, e.argv[0], args...).Output()
	if err != nil {
		return nil, fmt.Errorf("wasm engine state query failed: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal(bytes.TrimSpace(out), &value); err != nil {
		// Non-JSON output is returned as a raw string.
		return strings.TrimSpace(string(out)), nil
	}

	return value, nil
}
