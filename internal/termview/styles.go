package termview

import "github.com/charmbracelet/lipgloss"

const (
	// Layout.
	titleHeight     = 1
	selectionHeight = 1
	tooltipHeight   = 1
	statusBarHeight = 1
	minChartWidth   = 20
	minChartHeight  = 5

	// tooltipNameWidth bounds series names in the tooltip.
	tooltipNameWidth = 28

	xSteps, ySteps = 10, 2
)

const accentColor = lipgloss.Color("#FCBC32")

var (
	axisStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1A1A1A")).
			Background(accentColor).
			Padding(0, 1)

	selectionStyle = lipgloss.NewStyle().Foreground(accentColor)

	tooltipLabelStyle = lipgloss.NewStyle().Bold(true)
	errorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))

	helpSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	helpKeyStyle     = lipgloss.NewStyle().Width(28).Foreground(lipgloss.Color("#E0E0E0"))
	helpDescStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#B0B0B0"))
)
