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

// Package router implements the unified terminal command router: a
// per-session key-event state machine that classifies each submitted line as
// a shell command or a device command and dispatches it accordingly.
package router

import (
	"context"
	"strings"
	"time"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

// ReplState is the session's execution state.
type ReplState string

const (
	StateIdle       ReplState = "idle"
	StateExecuting  ReplState = "executing"
	StateDeviceMode ReplState = "device_mode"
)

const defaultHistorySize = 100

// shellCommands is the fixed allow-list of first tokens routed to the local
// shell/virtual-environment path.
var shellCommands = map[string]struct{}{
	"pip":    {},
	"circup": {},
	"ls":     {},
	"dir":    {},
	"cd":     {},
	"python": {},
	"mu":     {},
	"help":   {},
	"clear":  {},
}

// KeyType discriminates terminal key events.
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyBackspace
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyCtrlC
	KeyCtrlD
)

// Key is one terminal key event.
type Key struct {
	Type KeyType
	Rune rune
}

// KeyResult tells the terminal what happened: characters to echo, whether a
// full line redraw is needed, execution output, and session closure.
type KeyResult struct {
	Echo   string
	Redraw bool
	Output string
	Closed bool
}

// Executor runs a line of code or a shell command and returns its combined
// output.
type Executor interface {
	Execute(ctx context.Context, line string) (*models.ExecResult, error)
}

// Session is one terminal instance's router state. It must only be driven
// from a single goroutine (the terminal's input loop).
type Session struct {
	line    []rune
	cursor  int
	history []string
	// histIdx is -1 when not browsing history.
	histIdx     int
	savedLine   string
	historyMax  int
	deviceUp    bool
	state       ReplState
	shell       Executor
	device      Executor
	localREPL   Executor
	logger      logger.Logger
	execTimeout time.Duration
}

// Config wires a Session's executors.
type Config struct {
	// Shell runs allow-listed commands in the managed virtual environment.
	Shell Executor
	// Device runs code on the paired runtime.
	Device Executor
	// LocalREPL runs code on the local interpreter when no device is
	// connected.
	LocalREPL Executor
	// HistorySize caps command history; 0 uses the default of 100.
	HistorySize int
}

// NewSession creates an idle session.
func NewSession(cfg Config, log logger.Logger) *Session {
	size := cfg.HistorySize
	if size <= 0 {
		size = defaultHistorySize
	}

	return &Session{
		histIdx:    -1,
		historyMax: size,
		state:      StateIdle,
		shell:      cfg.Shell,
		device:     cfg.Device,
		localREPL:  cfg.LocalREPL,
		logger:     log,
	}
}

// Line returns the line being composed.
func (s *Session) Line() string { return string(s.line) }

// Cursor returns the cursor index into the current line.
func (s *Session) Cursor() int { return s.cursor }

// State returns the execution state.
func (s *Session) State() ReplState { return s.state }

// History returns a copy of the command history, newest last.
func (s *Session) History() []string {
	out := make([]string, len(s.history))
	copy(out, s.history)

	return out
}

// SetDeviceConnected toggles the connected sub-state; flipped by the pairing
// layer, orthogonal to execution state.
func (s *Session) SetDeviceConnected(up bool) {
	s.deviceUp = up
}

// DeviceConnected reports the connected sub-state.
func (s *Session) DeviceConnected() bool { return s.deviceUp }

// HandleKey advances the state machine by one key event. Enter submissions
// execute synchronously; the result carries their output.
func (s *Session) HandleKey(ctx context.Context, key Key) *KeyResult {
	switch key.Type {
	case KeyRune:
		return s.insertRune(key.Rune)
	case KeyBackspace:
		return s.backspace()
	case KeyLeft:
		if s.cursor > 0 {
			s.cursor--
			return &KeyResult{Echo: "\x1b[D"}
		}

		return &KeyResult{}
	case KeyRight:
		if s.cursor < len(s.line) {
			s.cursor++
			return &KeyResult{Echo: "\x1b[C"}
		}

		return &KeyResult{}
	case KeyUp:
		return s.historyPrev()
	case KeyDown:
		return s.historyNext()
	case KeyCtrlC:
		s.resetLine()
		s.state = StateIdle

		return &KeyResult{Echo: "^C\r\n", Redraw: true}
	case KeyCtrlD:
		if len(s.line) == 0 {
			return &KeyResult{Closed: true}
		}

		return &KeyResult{}
	case KeyEnter:
		return s.submit(ctx)
	default:
		return &KeyResult{}
	}
}

func (s *Session) insertRune(r rune) *KeyResult {
	if r < ' ' && r != '\t' {
		return &KeyResult{}
	}

	s.line = append(s.line[:s.cursor], append([]rune{r}, s.line[s.cursor:]...)...)
	s.cursor++

	if s.cursor == len(s.line) {
		return &KeyResult{Echo: string(r)}
	}

	// Mid-line insert needs the tail repainted.
	return &KeyResult{Redraw: true}
}

func (s *Session) backspace() *KeyResult {
	if s.cursor == 0 {
		return &KeyResult{}
	}

	s.line = append(s.line[:s.cursor-1], s.line[s.cursor:]...)
	s.cursor--

	return &KeyResult{Redraw: true}
}

func (s *Session) historyPrev() *KeyResult {
	if len(s.history) == 0 {
		return &KeyResult{}
	}

	if s.histIdx == -1 {
		s.savedLine = string(s.line)
		s.histIdx = len(s.history) - 1
	} else if s.histIdx > 0 {
		s.histIdx--
	}

	s.replaceLine(s.history[s.histIdx])

	return &KeyResult{Redraw: true}
}

func (s *Session) historyNext() *KeyResult {
	if s.histIdx == -1 {
		return &KeyResult{}
	}

	s.histIdx++

	if s.histIdx >= len(s.history) {
		s.histIdx = -1
		s.replaceLine(s.savedLine)
	} else {
		s.replaceLine(s.history[s.histIdx])
	}

	return &KeyResult{Redraw: true}
}

func (s *Session) replaceLine(text string) {
	s.line = []rune(text)
	s.cursor = len(s.line)
}

func (s *Session) resetLine() {
	s.line = nil
	s.cursor = 0
	s.histIdx = -1
	s.savedLine = ""
}

// submit trims and executes the current line, pushing it to history first.
func (s *Session) submit(ctx context.Context) *KeyResult {
	text := strings.TrimSpace(string(s.line))
	s.resetLine()

	if text == "" {
		return &KeyResult{Echo: "\r\n", Redraw: true}
	}

	s.pushHistory(text)

	output := s.route(ctx, text)
	s.state = StateIdle

	return &KeyResult{Echo: "\r\n", Output: output, Redraw: true}
}

// pushHistory appends text, deduplicating only against the immediately
// previous entry and capping the list by dropping the oldest.
func (s *Session) pushHistory(text string) {
	if n := len(s.history); n > 0 && s.history[n-1] == text {
		return
	}

	s.history = append(s.history, text)

	if len(s.history) > s.historyMax {
		s.history = s.history[len(s.history)-s.historyMax:]
	}
}

// route classifies the first whitespace-delimited token case-insensitively
// and dispatches. Unmatched lines go to the paired device, or to the local
// interpreter when no device is connected.
func (s *Session) route(ctx context.Context, text string) string {
	first := strings.ToLower(strings.Fields(text)[0])

	if _, isShell := shellCommands[first]; isShell {
		s.state = StateExecuting
		return s.runOn(ctx, s.shell, text)
	}

	if s.deviceUp && s.device != nil {
		s.state = StateDeviceMode
		return s.runOn(ctx, s.device, text)
	}

	s.state = StateExecuting

	return s.runOn(ctx, s.localREPL, text)
}

func (s *Session) runOn(ctx context.Context, exec Executor, text string) string {
	if exec == nil {
		return "error: no executor available for: " + text + "\r\n"
	}

	result, err := exec.Execute(ctx, text)
	if err != nil {
		s.logger.Error().Err(err).Str("command", text).Msg("Command execution failed")
		return "error: " + err.Error() + "\r\n"
	}

	return result.Output
}
