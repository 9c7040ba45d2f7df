// Package ui renders run summaries for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: Accent (soft purple) for names and counts, Muted (gray)
// for labels and secondary info. Success and failure are shown with
// symbols, not colors.
var (
	Accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA"))

	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))

	Bold = lipgloss.NewStyle().Bold(true)

	AccentBold = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
)

// Symbols used in summaries.
const (
	SymbolOK   = "✓"
	SymbolFail = "✗"
	SymbolSkip = "–"
)
