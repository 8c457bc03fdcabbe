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

package router

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// defaultShellTimeout hard-kills shell commands that outlive it.
const defaultShellTimeout = 30 * time.Second

// ShellExecutor runs allow-listed commands as subprocesses with the
// environment pointed at the managed virtual environment.
type ShellExecutor struct {
	venvPath string
	timeout  time.Duration
	logger   logger.Logger
}

// NewShellExecutor creates a shell executor. venvPath may be empty when no
// managed environment exists; timeout 0 uses the 30s default.
func NewShellExecutor(venvPath string, timeout time.Duration, log logger.Logger) *ShellExecutor {
	if timeout <= 0 {
		timeout = defaultShellTimeout
	}

	return &ShellExecutor{venvPath: venvPath, timeout: timeout, logger: log}
}

// Execute implements Executor. Failures are reported as formatted output
// text, not errors, so the terminal shows them inline.
func (e *ShellExecutor) Execute(ctx context.Context, line string) (*models.ExecResult, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return &models.ExecResult{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, fields[0], fields[1:]...)
	cmd.Env = e.buildEnv()

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Kill the whole process tree on timeout, not just the direct child;
	// pip and circup spawn workers that would otherwise linger.
	cmd.Cancel = func() error {
		e.killTree(cmd.Process.Pid)
		return cmd.Process.Kill()
	}

	err := cmd.Run()

	result := &models.ExecResult{Output: stdout.String() + stderr.String()}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = -1
		result.Output += fmt.Sprintf("error: command %q timed out after %s\r\n", line, e.timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			result.Output += fmt.Sprintf("error: command %q exited with status %d\r\n", line, result.ExitCode)
		} else {
			result.ExitCode = -1
			result.Output += fmt.Sprintf("error: failed to run %q: %v\r\n", line, err)
		}
	}

	return result, nil
}

// buildEnv overrides PATH and VIRTUAL_ENV so subprocesses resolve pip,
// python and friends inside the managed venv.
func (e *ShellExecutor) buildEnv() []string {
	env := os.Environ()

	if e.venvPath == "" {
		return env
	}

	binDir := filepath.Join(e.venvPath, "bin")

	out := make([]string, 0, len(env)+2)
	out = append(out, "VIRTUAL_ENV="+e.venvPath)

	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			out = append(out, "PATH="+binDir+string(os.PathListSeparator)+strings.TrimPrefix(kv, "PATH="))
			continue
		}

		if strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			continue
		}

		out = append(out, kv)
	}

	return out
}

// killTree kills pid's descendants depth-first.
func (e *ShellExecutor) killTree(pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}

	children, err := proc.Children()
	if err == nil {
		for _, child := range children {
			e.killTree(int(child.Pid))
		}
	}

	if err := proc.Kill(); err != nil {
		e.logger.Debug().Err(err).Int("pid", pid).Msg("Process already gone")
	}
}
