package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/dollarsandsense/tally/internal/model"
)

// renderLoading renders the initial loading screen.
func (m Model) renderLoading() string {
	content := m.theme.Normal.Render("Loading your ledger...")

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

// renderLoadError renders a full-screen error when the first load fails.
func (m Model) renderLoadError() string {
	box := m.theme.BorderedBox.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.theme.StatusError.Render("Failed to load dashboard"),
		m.theme.Normal.Render(m.lastError.Error()),
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press r to retry, q to quit"),
	))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

// renderRefreshError renders a one-line banner when a refresh fails but
// earlier data is still on screen.
func (m Model) renderRefreshError() string {
	return m.theme.StatusError.Render(fmt.Sprintf("Refresh failed: %v", m.lastError))
}

// renderHeader renders the title and the totals line.
func (m Model) renderHeader() string {
	title := m.theme.Title.Render("🧮 Tally")

	totals := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.theme.Normal.Render("Income "),
		m.theme.StatusIncome.Render(formatAmount(m.totals.Income)),
		m.theme.Normal.Render("   Expenses "),
		m.theme.StatusExpense.Render(formatAmount(m.totals.Expenses)),
		m.theme.Normal.Render("   Net "),
		m.theme.Bold.Render(formatAmount(m.totals.Net())),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, totals)
}

// renderTrend renders the six-month trend as labeled bars scaled to the
// largest absolute month value.
func (m Model) renderTrend() string {
	title := m.theme.Subtitle.Render("Six-Month Trend")

	maxAbs := 0.0
	for _, p := range m.trend.Points {
		if abs := math.Abs(p.Total); abs > maxAbs {
			maxAbs = abs
		}
	}

	lines := make([]string, 0, len(m.trend.Points))
	for _, p := range m.trend.Points {
		lines = append(lines, m.renderTrendBar(p, maxAbs))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"))
}

// renderTrendBar renders one month of the trend.
func (m Model) renderTrendBar(point model.TrendPoint, maxAbs float64) string {
	fill := m.theme.Income
	if point.Total < 0 {
		fill = m.theme.Expense
	}

	bar := progress.New(progress.WithSolidFill(string(fill)))
	bar.ShowPercentage = false
	bar.Width = min(m.width-32, 40)
	if bar.Width < 10 {
		bar.Width = 10
	}

	percent := 0.0
	if maxAbs > 0 {
		percent = math.Abs(point.Total) / maxAbs
	}

	amount := formatAmount(point.Total)
	if point.Total < 0 {
		amount = m.theme.StatusExpense.Render(amount)
	} else {
		amount = m.theme.StatusIncome.Render(amount)
	}

	return fmt.Sprintf("%s %s %s",
		m.theme.Normal.Render(point.Month),
		bar.ViewAs(percent),
		amount,
	)
}

// renderRecent renders the recent transactions table.
func (m Model) renderRecent() string {
	title := m.theme.Subtitle.Render("Recent Transactions")

	if len(m.recent) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("No transactions yet")
		return lipgloss.JoinVertical(lipgloss.Left, title, empty)
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, m.table.View())
}

// renderFooter renders the key hints.
func (m Model) renderFooter() string {
	hints := []string{
		"[↑↓] Navigate",
		"[r] Refresh",
		"[q] Quit",
	}

	return m.theme.Hint.Render(strings.Join(hints, "  "))
}

// buildTableRows builds rows for the recent transactions table.
func (m Model) buildTableRows() []table.Row {
	rows := make([]table.Row, 0, len(m.recent))

	for _, txn := range m.recent {
		category := txn.CategoryName
		if category == "" {
			category = lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Uncategorized")
		}

		amount := formatAmount(txn.Amount)
		if txn.Amount < 0 {
			amount = m.theme.StatusExpense.Render(amount)
		} else {
			amount = m.theme.StatusIncome.Render(amount)
		}

		rows = append(rows, table.Row{
			txn.Date.Format("2006-01-02"),
			truncate(txn.Description, 32),
			amount,
			category,
		})
	}

	return rows
}

// Helper functions

func formatAmount(amount float64) string {
	if amount < 0 {
		return fmt.Sprintf("-$%.2f", -amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
