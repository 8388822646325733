package tui

import "github.com/dollarsandsense/tally/internal/model"

// dashboardLoadedMsg carries one full refresh of the dashboard data.
type dashboardLoadedMsg struct {
	err    error
	totals model.Totals
	trend  model.Trend
	recent []model.Transaction
}
