package viz

import "github.com/charmbracelet/lipgloss"

var (
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	LabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	CanvasStyle = lipgloss.NewStyle().Padding(1, 2)
	HelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	StatusOK    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	StatusWarn  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
	StatusError = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
)
