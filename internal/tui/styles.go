package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary   = lipgloss.Color("39")  // Blue
	ColorSecondary = lipgloss.Color("245") // Gray
	ColorSuccess   = lipgloss.Color("34")  // Green
	ColorWarning   = lipgloss.Color("214") // Orange
	ColorError     = lipgloss.Color("196") // Red
)

// Styles for report sections.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWarning)
)

// Symbols for visual feedback.
const (
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolWarning = "!"
)

// StatusText renders a run or load status word, styled when styled is true.
func StatusText(status string, styled bool) string {
	if !styled {
		return status
	}
	switch status {
	case "SUCCESS", "OK":
		return SuccessStyle.Render(SymbolCheck + " " + status)
	case "PARTIAL", "MISMATCH", "SKIPPED":
		return WarningStyle.Render(SymbolWarning + " " + status)
	case "FAILED":
		return ErrorStyle.Render(SymbolCross + " " + status)
	default:
		return status
	}
}

// Heading renders a section title.
func Heading(title string, styled bool) string {
	if !styled {
		return "== " + title + " =="
	}
	return TitleStyle.Render(title)
}
