package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("255")
	ColorAccent  = lipgloss.Color("39")
	ColorSuccess = lipgloss.Color("42")
	ColorError   = lipgloss.Color("196")
	ColorDim     = lipgloss.Color("240")
)

var (
	StyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StylePrompt = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StyleLabel  = lipgloss.NewStyle().Foreground(ColorDim)
	StyleSQL    = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError  = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDim)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim)
)
