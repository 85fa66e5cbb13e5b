package main

import "github.com/charmbracelet/lipgloss"

var (
	colorSuccess = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	colorError   = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#6c7086"}

	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorError)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)
