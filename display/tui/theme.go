package tui

import (
	"github.com/charmbracelet/lipgloss"

	"gitlab.com/tinyland/lab/boardtop/collectors"
)

// Color palette for the dashboard.
const (
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan
	colorSuccess   = lipgloss.Color("#22C55E") // Green
	colorWarning   = lipgloss.Color("#EAB308") // Yellow
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorText      = lipgloss.Color("#FFFFFF")
)

// Per-family chart colors.
var familyColors = map[collectors.Family]lipgloss.Color{
	collectors.FamilyCPU:     colorWarning,
	collectors.FamilyMemory:  colorPrimary,
	collectors.FamilyNetwork: colorSecondary,
	collectors.FamilyGPU:     colorSuccess,
	collectors.FamilyNPU:     lipgloss.Color("#F472B6"), // Pink
	collectors.FamilyRGA:     lipgloss.Color("#FB923C"), // Orange
}

// Styles used throughout the TUI.
var (
	styleHeader   lipgloss.Style
	styleBrand    lipgloss.Style
	styleFooter   lipgloss.Style
	styleTitle    lipgloss.Style
	styleInfo     lipgloss.Style
	styleMuted    lipgloss.Style
	styleOptions  lipgloss.Style
	styleSelected lipgloss.Style
	styleError    lipgloss.Style
)

func init() {
	styleHeader = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(colorMuted)

	styleBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorText).
		Background(colorPrimary).
		Padding(0, 1)

	styleFooter = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorText)

	styleInfo = lipgloss.NewStyle().
		Foreground(colorSecondary)

	styleMuted = lipgloss.NewStyle().
		Foreground(colorMuted)

	styleOptions = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorWarning).
		Foreground(colorWarning).
		Padding(0, 1)

	styleSelected = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorText)

	styleError = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444"))
}
