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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// recordingExecutor captures every line routed to it.
type recordingExecutor struct {
	name  string
	lines []string
	err   error
}

func (r *recordingExecutor) Execute(_ context.Context, line string) (*models.ExecResult, error) {
	r.lines = append(r.lines, line)

	if r.err != nil {
		return nil, r.err
	}

	return &models.ExecResult{Output: r.name + ": " + line + "\r\n"}, nil
}

func typeLine(s *Session, text string) *KeyResult {
	for _, r := range text {
		s.HandleKey(context.Background(), Key{Type: KeyRune, Rune: r})
	}

	return s.HandleKey(context.Background(), Key{Type: KeyEnter})
}

func newTestSession() (*Session, *recordingExecutor, *recordingExecutor, *recordingExecutor) {
	shell := &recordingExecutor{name: "shell"}
	device := &recordingExecutor{name: "device"}
	local := &recordingExecutor{name: "local"}

	s := NewSession(Config{Shell: shell, Device: device, LocalREPL: local}, logger.NewNop())

	return s, shell, device, local
}

func TestRouteShellCommands(t *testing.T) {
	tests := []string{
		"pip install circup",
		"circup update",
		"ls",
		"dir lib",
		"cd /tmp",
		"python --version",
		"mu doctor",
		"help",
		"clear",
		"PIP install shoutcase", // first token matches case-insensitively
	}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			s, shell, device, local := newTestSession()
			s.SetDeviceConnected(true)

			result := typeLine(s, line)

			require.Len(t, shell.lines, 1)
			assert.Equal(t, line, shell.lines[0])
			assert.Empty(t, device.lines)
			assert.Empty(t, local.lines)
			assert.Contains(t, result.Output, "shell: ")
		})
	}
}

func TestRouteDeviceWhenConnected(t *testing.T) {
	s, shell, device, local := newTestSession()
	s.SetDeviceConnected(true)

	typeLine(s, "print('hello')")

	assert.Empty(t, shell.lines)
	assert.Empty(t, local.lines)
	require.Len(t, device.lines, 1)
	assert.Equal(t, "print('hello')", device.lines[0])
}

func TestRouteFallsBackToLocalInterpreter(t *testing.T) {
	s, shell, device, local := newTestSession()

	typeLine(s, "print(1)")

	assert.Empty(t, shell.lines)
	assert.Empty(t, device.lines)
	require.Len(t, local.lines, 1)
	assert.Equal(t, "print(1)", local.lines[0])
}

func TestShellBeatsDeviceMode(t *testing.T) {
	// Allow-listed commands go to the shell even with a device attached.
	s, shell, device, _ := newTestSession()
	s.SetDeviceConnected(true)

	typeLine(s, "pip list")

	require.Len(t, shell.lines, 1)
	assert.Empty(t, device.lines)
}

func TestPipInsideCodeIsNotShell(t *testing.T) {
	// Only the first token counts.
	s, shell, _, local := newTestSession()

	typeLine(s, "x = 'pip'")

	assert.Empty(t, shell.lines)
	require.Len(t, local.lines, 1)
}

func TestExecutorErrorReportedAsOutput(t *testing.T) {
	s, _, _, local := newTestSession()
	local.err = errors.New("interpreter not found")

	result := typeLine(s, "print(1)")

	assert.Contains(t, result.Output, "error: interpreter not found")
	assert.Equal(t, StateIdle, s.State())
}

func TestEmptyLineDoesNothing(t *testing.T) {
	s, shell, device, local := newTestSession()

	result := typeLine(s, "   ")

	assert.Empty(t, shell.lines)
	assert.Empty(t, device.lines)
	assert.Empty(t, local.lines)
	assert.Empty(t, result.Output)
	assert.Empty(t, s.History())
}

func TestHistoryDeduplicatesConsecutiveOnly(t *testing.T) {
	s, _, _, _ := newTestSession()

	typeLine(s, "ls")
	typeLine(s, "ls")
	typeLine(s, "help")
	typeLine(s, "ls")

	assert.Equal(t, []string{"ls", "help", "ls"}, s.History())
}

func TestHistoryCapDropsOldest(t *testing.T) {
	shell := &recordingExecutor{name: "shell"}
	s := NewSession(Config{Shell: shell, LocalREPL: shell, HistorySize: 3}, logger.NewNop())

	for i := 0; i < 5; i++ {
		typeLine(s, fmt.Sprintf("print(%d)", i))
	}

	assert.Equal(t, []string{"print(2)", "print(3)", "print(4)"}, s.History())
}

func TestHistoryNavigation(t *testing.T) {
	s, _, _, _ := newTestSession()
	ctx := context.Background()

	typeLine(s, "ls")
	typeLine(s, "help")

	// Partially typed line is saved while browsing.
	s.HandleKey(ctx, Key{Type: KeyRune, Rune: 'x'})

	s.HandleKey(ctx, Key{Type: KeyUp})
	assert.Equal(t, "help", s.Line())

	s.HandleKey(ctx, Key{Type: KeyUp})
	assert.Equal(t, "ls", s.Line())

	// Up at the oldest entry stays put.
	s.HandleKey(ctx, Key{Type: KeyUp})
	assert.Equal(t, "ls", s.Line())

	s.HandleKey(ctx, Key{Type: KeyDown})
	assert.Equal(t, "help", s.Line())

	// Down past the newest restores the saved partial line.
	s.HandleKey(ctx, Key{Type: KeyDown})
	assert.Equal(t, "x", s.Line())
}

func TestLineEditing(t *testing.T) {
	s, _, _, _ := newTestSession()
	ctx := context.Background()

	for _, r := range "pint" {
		s.HandleKey(ctx, Key{Type: KeyRune, Rune: r})
	}

	// Fix "pint" -> "print" with cursor movement and a mid-line insert.
	s.HandleKey(ctx, Key{Type: KeyLeft})
	s.HandleKey(ctx, Key{Type: KeyLeft})
	result := s.HandleKey(ctx, Key{Type: KeyRune, Rune: 'r'})

	assert.True(t, result.Redraw)
	assert.Equal(t, "print", s.Line())
	assert.Equal(t, 3, s.Cursor())

	s.HandleKey(ctx, Key{Type: KeyBackspace})
	assert.Equal(t, "pint", s.Line())
}

func TestCtrlCResetsLine(t *testing.T) {
	s, _, _, _ := newTestSession()
	ctx := context.Background()

	s.HandleKey(ctx, Key{Type: KeyRune, Rune: 'x'})
	result := s.HandleKey(ctx, Key{Type: KeyCtrlC})

	assert.Equal(t, "^C\r\n", result.Echo)
	assert.Empty(t, s.Line())
	assert.Equal(t, StateIdle, s.State())
}

func TestCtrlDClosesOnlyOnEmptyLine(t *testing.T) {
	s, _, _, _ := newTestSession()
	ctx := context.Background()

	s.HandleKey(ctx, Key{Type: KeyRune, Rune: 'x'})
	assert.False(t, s.HandleKey(ctx, Key{Type: KeyCtrlD}).Closed)

	s.HandleKey(ctx, Key{Type: KeyCtrlC})
	assert.True(t, s.HandleKey(ctx, Key{Type: KeyCtrlD}).Closed)
}

func TestMissingExecutorReportsError(t *testing.T) {
	s := NewSession(Config{}, logger.NewNop())

	result := typeLine(s, "print(1)")

	assert.Contains(t, result.Output, "error: no executor available")
}
