package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dollarsandsense/tally/internal/report"
	"github.com/dollarsandsense/tally/internal/service"
	"github.com/dollarsandsense/tally/internal/tui/themes"
)

// Config holds the dependencies for the dashboard.
type Config struct {
	Storage service.Storage
	Theme   string
}

// Run starts the dashboard and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Storage == nil {
		return fmt.Errorf("storage is required")
	}

	m := newModel(report.New(cfg.Storage), themes.GetTheme(cfg.Theme))

	p := tea.NewProgram(
		m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		// A cancelled context is a normal shutdown path, not a failure
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return fmt.Errorf("failed to run dashboard: %w", err)
	}

	return nil
}
