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

// mucli is the unified terminal: one prompt that routes shell-style
// commands to the managed virtual environment and everything else to the
// local Python interpreter (or a paired device when the daemon provides
// one).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/router"
	"github.com/mutwo-dev/mucore/pkg/runtime"
)

const (
	colorPrompt  = "#8BE9FD"
	colorOutput  = "#F8F8F2"
	colorErrText = "#FF5555"

	scrollbackLines = 500
)

func main() {
	venvPath := flag.String("venv", "", "Path to the managed Python virtual environment")
	flag.Parse()

	zlog := logger.NewNop()

	interpreter := "python3"
	if *venvPath != "" {
		interpreter = filepath.Join(*venvPath, "bin", "python")
	}

	localREPL := runtime.NewPythonRuntime(interpreter, "3", zlog)
	if err := localREPL.Initialize(context.Background()); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}

	session := router.NewSession(router.Config{
		Shell:     router.NewShellExecutor(*venvPath, 0, zlog),
		LocalREPL: localREPL,
	}, zlog)

	m := newModel(session)

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "mucli: %v\n", err)
		os.Exit(1)
	}
}

type model struct {
	session  *router.Session
	view     viewport.Model
	lines    []string
	ready    bool
	prompt   lipgloss.Style
	output   lipgloss.Style
	errStyle lipgloss.Style
}

func newModel(session *router.Session) *model {
	return &model{
		session:  session,
		lines:    []string{"Mu Two unified terminal. Ctrl+D on an empty line exits."},
		prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrompt)).Bold(true),
		output:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorOutput)),
		errStyle: lipgloss.NewStyle().Foreground(lipgloss.Color(colorErrText)),
	}
}

func (*model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.view = viewport.New(msg.Width, msg.Height-2)
			m.ready = true
		} else {
			m.view.Width = msg.Width
			m.view.Height = msg.Height - 2
		}

		m.refresh()

	case tea.KeyMsg:
		key, handled := translateKey(msg)
		if !handled {
			break
		}

		result := m.session.HandleKey(context.Background(), key)
		if result.Closed {
			return m, tea.Quit
		}

		if result.Output != "" {
			m.appendOutput(result.Output)
		}

		m.refresh()
	}

	return m, nil
}

func (m *model) View() string {
	if !m.ready {
		return "starting..."
	}

	promptLine := m.prompt.Render("mu> ") + m.output.Render(m.session.Line())

	return m.view.View() + "\n" + promptLine
}

// translateKey maps bubbletea key events onto router key events.
func translateKey(msg tea.KeyMsg) (router.Key, bool) {
	switch msg.Type {
	case tea.KeyEnter:
		return router.Key{Type: router.KeyEnter}, true
	case tea.KeyBackspace:
		return router.Key{Type: router.KeyBackspace}, true
	case tea.KeyLeft:
		return router.Key{Type: router.KeyLeft}, true
	case tea.KeyRight:
		return router.Key{Type: router.KeyRight}, true
	case tea.KeyUp:
		return router.Key{Type: router.KeyUp}, true
	case tea.KeyDown:
		return router.Key{Type: router.KeyDown}, true
	case tea.KeyCtrlC:
		return router.Key{Type: router.KeyCtrlC}, true
	case tea.KeyCtrlD:
		return router.Key{Type: router.KeyCtrlD}, true
	case tea.KeySpace:
		return router.Key{Type: router.KeyRune, Rune: ' '}, true
	case tea.KeyRunes:
		if len(msg.Runes) > 0 {
			return router.Key{Type: router.KeyRune, Rune: msg.Runes[0]}, true
		}
	}

	return router.Key{}, false
}

func (m *model) appendOutput(output string) {
	echoed := m.session.History()
	if len(echoed) > 0 {
		m.lines = append(m.lines, m.prompt.Render("mu> ")+echoed[len(echoed)-1])
	}

	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		style := m.output
		if strings.HasPrefix(line, "error:") {
			style = m.errStyle
		}

		m.lines = append(m.lines, style.Render(line))
	}

	if len(m.lines) > scrollbackLines {
		m.lines = m.lines[len(m.lines)-scrollbackLines:]
	}
}

func (m *model) refresh() {
	if !m.ready {
		return
	}

	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}
