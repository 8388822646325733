package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dollarsandsense/tally/internal/model"
	"github.com/dollarsandsense/tally/internal/tui/themes"
)

// recentLimit is how many transactions the dashboard table shows.
const recentLimit = 15

// reporter is the slice of the report service the dashboard consumes.
type reporter interface {
	Totals(ctx context.Context) (model.Totals, error)
	MonthlyTrend(ctx context.Context) (model.Trend, error)
	Recent(ctx context.Context, limit int) ([]model.Transaction, error)
}

// Model holds the dashboard state.
type Model struct {
	reports   reporter
	lastError error
	recent    []model.Transaction
	theme     themes.Theme
	keymap    KeyMap
	table     table.Model
	trend     model.Trend
	totals    model.Totals
	width     int
	height    int
	ready     bool
	quitting  bool
}

// newModel creates a dashboard model reading from reports.
func newModel(reports reporter, theme themes.Theme) Model {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Description", Width: 32},
		{Title: "Amount", Width: 12},
		{Title: "Category", Width: 18},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(recentLimit),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	return Model{
		reports: reports,
		theme:   theme,
		keymap:  DefaultKeyMap(),
		table:   t,
	}
}

// Init starts the first data load.
func (m Model) Init() tea.Cmd {
	return m.loadDashboard()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit), key.Matches(msg, m.keymap.ForceQuit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keymap.Refresh):
			return m, m.loadDashboard()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()

	case dashboardLoadedMsg:
		if msg.err != nil {
			// Keep showing the last good data; the view reports the failure
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.totals = msg.totals
		m.trend = msg.trend
		m.recent = msg.recent
		m.table.SetRows(m.buildTableRows())
		m.ready = true
		return m, nil
	}

	newTable, cmd := m.table.Update(msg)
	m.table = newTable
	return m, cmd
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if !m.ready {
		if m.lastError != nil {
			return m.renderLoadError()
		}
		return m.renderLoading()
	}

	sections := []string{m.renderHeader()}
	if m.lastError != nil {
		sections = append(sections, m.renderRefreshError())
	}
	sections = append(sections,
		m.renderTrend(),
		m.renderRecent(),
		m.renderFooter(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// handleResize adjusts component sizes when the terminal resizes.
func (m *Model) handleResize() {
	// Title, totals, trend bars and footer account for the fixed chrome
	m.table.SetHeight(max(5, m.height-18))
	m.table.SetColumns(m.columnsForWidth())
}

// columnsForWidth distributes the available width across the table columns.
func (m Model) columnsForWidth() []table.Column {
	available := m.width - 6
	if available < 60 {
		available = 60
	}

	return []table.Column{
		{Title: "Date", Width: max(10, int(float64(available)*0.15))},
		{Title: "Description", Width: max(20, int(float64(available)*0.45))},
		{Title: "Amount", Width: max(10, int(float64(available)*0.18))},
		{Title: "Category", Width: max(12, int(float64(available)*0.22))},
	}
}
