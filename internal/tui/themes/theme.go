package themes

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style for the dashboard.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Hint          lipgloss.Style
	Selected      lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusIncome  lipgloss.Style
	StatusExpense lipgloss.Style
	StatusError   lipgloss.Style
	Income        lipgloss.Color
	Expense       lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
}

// palette holds the colors a theme is built from. Every theme uses the
// same style recipes over its own palette.
type palette struct {
	accent     lipgloss.Color
	income     lipgloss.Color
	expense    lipgloss.Color
	errorText  lipgloss.Color
	text       lipgloss.Color
	subtle     lipgloss.Color
	muted      lipgloss.Color
	border     lipgloss.Color
	background lipgloss.Color
}

func build(p palette) Theme {
	bold := lipgloss.NewStyle().Bold(true)
	return Theme{
		Income:  p.income,
		Expense: p.expense,
		Border:  p.border,
		Muted:   p.muted,

		Title:    bold.Foreground(p.accent).MarginBottom(1),
		Subtitle: lipgloss.NewStyle().Foreground(p.subtle).MarginTop(1),
		Normal:   lipgloss.NewStyle().Foreground(p.text),
		Bold:     bold.Foreground(p.text),
		Hint:     lipgloss.NewStyle().Foreground(p.muted).MarginTop(1),
		Selected: bold.Background(p.accent).Foreground(p.background),

		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(1, 2),

		StatusIncome:  bold.Foreground(p.income),
		StatusExpense: bold.Foreground(p.expense),
		StatusError:   bold.Foreground(p.errorText),
	}
}

// Default is the green-on-dark house theme.
var Default = build(palette{
	accent:     lipgloss.Color("#2ECC71"),
	income:     lipgloss.Color("#2ECC71"),
	expense:    lipgloss.Color("#FF6B6B"),
	errorText:  lipgloss.Color("#ef4444"),
	text:       lipgloss.Color("#fafafa"),
	subtle:     lipgloss.Color("#a3a3a3"),
	muted:      lipgloss.Color("#737373"),
	border:     lipgloss.Color("#404040"),
	background: lipgloss.Color("#1a1a1a"),
})

// CatppuccinMocha follows the Catppuccin Mocha terminal palette.
var CatppuccinMocha = build(palette{
	accent:     lipgloss.Color("#cba6f7"),
	income:     lipgloss.Color("#a6e3a1"),
	expense:    lipgloss.Color("#f38ba8"),
	errorText:  lipgloss.Color("#f38ba8"),
	text:       lipgloss.Color("#cdd6f4"),
	subtle:     lipgloss.Color("#a6adc8"),
	muted:      lipgloss.Color("#6c7086"),
	border:     lipgloss.Color("#45475a"),
	background: lipgloss.Color("#1e1e2e"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}
