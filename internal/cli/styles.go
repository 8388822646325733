// Package cli provides styled terminal output using lipgloss.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette. Green is the ledger's theme color; income and expenses reuse
// green and red so amounts read at a glance.
var (
	PrimaryColor = lipgloss.Color("#2ECC71")
	SuccessColor = lipgloss.Color("#4ECDC4")
	WarningColor = lipgloss.Color("#FFE66D")
	ErrorColor   = lipgloss.Color("#FF6B6B")
	InfoColor    = lipgloss.Color("#95E1D3")
	SubtleColor  = lipgloss.Color("#666666")

	IncomeColor  = PrimaryColor
	ExpenseColor = ErrorColor
)

var (
	// TitleStyle heads sections; PromptStyle marks questions awaiting input.
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor).MarginBottom(1)
	PromptStyle = lipgloss.NewStyle().Bold(true).Foreground(PrimaryColor)

	// SubtleStyle de-emphasizes secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(SubtleColor)

	// BoxStyle frames multi-line summaries.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(1, 2)

	successStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	warningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	errorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	infoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	incomeStyle  = lipgloss.NewStyle().Foreground(IncomeColor)
	expenseStyle = lipgloss.NewStyle().Foreground(ExpenseColor)
)

// Icons prefixing the Format helpers below.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	TallyIcon   = "🧮"
)

// FormatSuccess styles a message as a completed action.
func FormatSuccess(message string) string {
	return successStyle.Render(SuccessIcon + " " + message)
}

// FormatError styles a message as a failure.
func FormatError(message string) string {
	return errorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning styles a message as a caution.
func FormatWarning(message string) string {
	return warningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo styles an informational note.
func FormatInfo(message string) string {
	return infoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle styles a heading with the tally icon.
func FormatTitle(title string) string {
	return TitleStyle.Render(TallyIcon + " " + title)
}

// FormatPrompt styles a question awaiting user input.
func FormatPrompt(prompt string) string {
	return PromptStyle.Render(prompt + " → ")
}

// FormatAmount styles a signed amount, green for income and red for
// expenses.
func FormatAmount(formatted string, amount float64) string {
	if amount < 0 {
		return expenseStyle.Render(formatted)
	}
	return incomeStyle.Render(formatted)
}

// RenderBox renders content in a styled box with a title line.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}
