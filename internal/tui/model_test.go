package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/tui/themes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReporter feeds the dashboard canned aggregates.
type stubReporter struct {
	err    error
	recent []model.Transaction
	trend  model.Trend
	totals model.Totals
	calls  int
}

func (s *stubReporter) Totals(_ context.Context) (model.Totals, error) {
	s.calls++
	if s.err != nil {
		return model.Totals{}, s.err
	}
	return s.totals, nil
}

func (s *stubReporter) MonthlyTrend(_ context.Context) (model.Trend, error) {
	if s.err != nil {
		return model.Trend{}, s.err
	}
	return s.trend, nil
}

func (s *stubReporter) Recent(_ context.Context, limit int) ([]model.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.recent) {
		return s.recent[:limit], nil
	}
	return s.recent, nil
}

func sampleReporter() *stubReporter {
	catID := int64(3)
	return &stubReporter{
		totals: model.Totals{Income: 2500, Expenses: -82.50},
		trend: model.Trend{Points: []model.TrendPoint{
			{Month: "2024-01", Total: 0},
			{Month: "2024-02", Total: 1200},
			{Month: "2024-03", Total: -300.25},
			{Month: "2024-04", Total: 0},
			{Month: "2024-05", Total: 950.75},
			{Month: "2024-06", Total: 2417.50},
		}},
		recent: []model.Transaction{
			{
				ID:          "a1",
				Description: "Paycheck",
				Amount:      2500,
				Date:        time.Date(2024, time.June, 28, 0, 0, 0, 0, time.UTC),
			},
			{
				ID:           "b2",
				Description:  "Groceries",
				Amount:       -82.50,
				Date:         time.Date(2024, time.June, 27, 0, 0, 0, 0, time.UTC),
				CategoryID:   &catID,
				CategoryName: "Food",
			},
		},
	}
}

// loadedModel returns a model that has completed its first data load.
func loadedModel(t *testing.T, reports *stubReporter) Model {
	t.Helper()

	m := newModel(reports, themes.Default)
	msg := m.loadDashboard()()
	loaded, ok := msg.(dashboardLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)

	updated, _ := m.Update(loaded)
	return updated.(Model)
}

func TestNewModel(t *testing.T) {
	reports := sampleReporter()
	m := newModel(reports, themes.Default)

	assert.False(t, m.ready)
	assert.False(t, m.quitting)
	assert.Nil(t, m.lastError)
	assert.NotNil(t, m.reports)
}

func TestInitLoadsData(t *testing.T) {
	reports := sampleReporter()
	m := newModel(reports, themes.Default)

	cmd := m.Init()
	require.NotNil(t, cmd)

	msg := cmd()
	loaded, ok := msg.(dashboardLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.err)
	assert.Equal(t, reports.totals, loaded.totals)
	assert.Len(t, loaded.trend.Points, 6)
	assert.Len(t, loaded.recent, 2)
	assert.Equal(t, 1, reports.calls)
}

func TestUpdateDataLoaded(t *testing.T) {
	m := loadedModel(t, sampleReporter())

	assert.True(t, m.ready)
	assert.Nil(t, m.lastError)
	assert.Equal(t, 2500.0, m.totals.Income)
	assert.Len(t, m.trend.Points, 6)
	assert.Len(t, m.recent, 2)
	assert.Len(t, m.table.Rows(), 2)
}

func TestLoadErrorRendersInView(t *testing.T) {
	reports := &stubReporter{err: errors.New("disk exploded")}
	m := newModel(reports, themes.Default)

	msg := m.loadDashboard()()
	loaded, ok := msg.(dashboardLoadedMsg)
	require.True(t, ok)
	require.Error(t, loaded.err)

	updated, _ := m.Update(loaded)
	m = updated.(Model)

	assert.False(t, m.ready)
	view := m.View()
	assert.Contains(t, view, "Failed to load dashboard")
	assert.Contains(t, view, "disk exploded")
	assert.Contains(t, view, "Press r to retry")
}

func TestRefreshErrorKeepsData(t *testing.T) {
	m := loadedModel(t, sampleReporter())

	updated, _ := m.Update(dashboardLoadedMsg{err: errors.New("db locked")})
	m = updated.(Model)

	assert.True(t, m.ready)
	view := m.View()
	assert.Contains(t, view, "Refresh failed")
	assert.Contains(t, view, "Paycheck")
}

func TestQuitKeys(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
	}{
		{name: "q", msg: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
		{name: "esc", msg: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "ctrl+c", msg: tea.KeyMsg{Type: tea.KeyCtrlC}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadedModel(t, sampleReporter())

			updated, cmd := m.Update(tt.msg)
			m = updated.(Model)

			assert.True(t, m.quitting)
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, m.View())
		})
	}
}

func TestRefreshKeyReloads(t *testing.T) {
	reports := sampleReporter()
	m := loadedModel(t, reports)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = updated.(Model)
	require.NotNil(t, cmd)

	msg := cmd()
	_, ok := msg.(dashboardLoadedMsg)
	assert.True(t, ok)
	assert.Equal(t, 2, reports.calls)
	assert.False(t, m.quitting)
}

func TestWindowResize(t *testing.T) {
	m := loadedModel(t, sampleReporter())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(Model)

	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)

	// Small terminals still keep a usable table
	updated, _ = m.Update(tea.WindowSizeMsg{Width: 40, Height: 12})
	m = updated.(Model)

	assert.Equal(t, 12, m.height)
	for _, col := range m.columnsForWidth() {
		assert.GreaterOrEqual(t, col.Width, 10)
	}
}
