package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// loadTimeout bounds one full dashboard refresh.
const loadTimeout = 30 * time.Second

// loadDashboard fetches totals, the six-month trend and recent activity
// from the report service. The first failure aborts the refresh and is
// carried back on the message.
func (m Model) loadDashboard() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		var (
			msg dashboardLoadedMsg
			err error
		)
		msg.totals, err = m.reports.Totals(ctx)
		if err == nil {
			msg.trend, err = m.reports.MonthlyTrend(ctx)
		}
		if err == nil {
			msg.recent, err = m.reports.Recent(ctx, recentLimit)
		}
		msg.err = err

		return msg
	}
}
