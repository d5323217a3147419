// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

// Package ui asks the operator for the release version, either through an
// interactive text input or by reading a single line.
package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	// ErrCancelled is returned when the operator aborts the prompt.
	ErrCancelled = errors.New("prompt cancelled")
	// ErrNoInput is returned when input ends before a line is read.
	ErrNoInput = errors.New("no input received")
)

// LinePrompter reads the version as one line, for pipes and scripts.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptVersion implements release.Prompter.
func (p LinePrompter) PromptVersion(_ context.Context, current string) (string, error) {
	if p.Out != nil {
		if current != "" {
			fmt.Fprintf(p.Out, "New version (current %s): ", current)
		} else {
			fmt.Fprint(p.Out, "New version: ")
		}
	}
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrNoInput
		}
		return "", fmt.Errorf("reading version: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// TUIPrompter shows a text input on the terminal.
type TUIPrompter struct {
	// In and Out default to the terminal when nil.
	In  io.Reader
	Out io.Writer
}

// PromptVersion implements release.Prompter.
func (p TUIPrompter) PromptVersion(ctx context.Context, current string) (string, error) {
	m := newVersionModel(current)
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("running version prompt: %w", err)
	}
	vm, ok := final.(*versionModel)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}
	if vm.cancelled {
		return "", ErrCancelled
	}
	return strings.TrimSpace(vm.input.Value()), nil
}

type versionModel struct {
	input     textinput.Model
	current   string
	err       string
	done      bool
	cancelled bool
}

func newVersionModel(current string) *versionModel {
	t := textinput.New()
	t.Placeholder = "e.g. 1.2.3"
	if current != "" {
		t.Placeholder = current
	}
	t.Prompt = promptStyle.Render("> ")
	t.CharLimit = 64
	t.Width = 30
	t.Focus()
	return &versionModel{input: t, current: current}
}

func (m *versionModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *versionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			if strings.TrimSpace(m.input.Value()) == "" {
				m.err = "a version is required"
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		}
		m.err = ""
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *versionModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Release version"))
	b.WriteString("\n")
	if m.current != "" {
		b.WriteString(hintStyle.Render("Current manifest version: "))
		b.WriteString(currentStyle.Render(m.current))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(footerKeyStyle.Render("enter"))
	b.WriteString(footerDescStyle.Render(" confirm "))
	b.WriteString(footerSepStyle.Render("|"))
	b.WriteString(footerKeyStyle.Render(" esc"))
	b.WriteString(footerDescStyle.Render(" cancel"))
	b.WriteString("\n")
	return b.String()
}
