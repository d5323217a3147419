// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Mufeed Ali

package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true)

	footerKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	footerDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	footerSepStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
