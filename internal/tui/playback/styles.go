// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     playback
// Description: Styles for the trace playback TUI
// Author:      msto63
// Created:     2026-09-27
// License:     MIT
// ============================================================================

package playback

import (
	"github.com/charmbracelet/lipgloss"
)

// Color Palette
var (
	ColorPrimary   = lipgloss.Color("#8B5CF6") // Violet
	ColorSecondary = lipgloss.Color("#06B6D4") // Cyan
	ColorAccent    = lipgloss.Color("#F59E0B") // Amber
	ColorSuccess   = lipgloss.Color("#10B981") // Emerald
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorDimmed    = lipgloss.Color("#374151") // Dark Gray
	ColorText      = lipgloss.Color("#F8FAFC") // Slate 50
	ColorTextMuted = lipgloss.Color("#94A3B8") // Slate 400
)

// Icons
const (
	IconPlay    = "▶ "
	IconPause   = "⏸ "
	IconCorrect = "✓ "
	IconWrong   = "✗ "
	IconAction  = "⚡ "
)

// Grid cells
const (
	CellEmpty   = "·"
	CellVisited = "○"
	CellStart   = "S"
	CellCursor  = "●"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Italic(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDimmed).
			Padding(0, 1)

	ActivePanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	CursorStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	VisitedStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	EmptyCellStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StepStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	CurrentStepStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true)

	PendingStepStyle = lipgloss.NewStyle().
				Foreground(ColorMuted)

	CorrectStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	WrongStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorDimmed).
			Padding(0, 1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)
)

// RenderHelpItem renders a key with its description
func RenderHelpItem(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}
