package termview

import (
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/canvas/graph"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/traceviewer/tracechart/internal/dataset"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/interaction"
	"github.com/traceviewer/tracechart/internal/timerange"
)

const scatterRune = '•'

// View implements tea.Model.View.
func (m *Model) View() string {
	defer m.logPanic("View")

	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.help {
		return m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.chart.View(),
		m.renderSelection(),
		m.renderTooltip(),
		m.renderStatusBar(),
	)
}

// redraw paints the current data onto the chart canvas.
func (m *Model) redraw() {
	if m.width == 0 {
		return
	}

	data := m.state.Data
	maxX := float64(max(len(data.Labels)-1, 1))

	c := &m.chart
	c.Clear()
	c.SetXYRange(0, maxX, data.YMin, data.YMax)
	c.SetViewXYRange(0, maxX, data.YMin, data.YMax)
	c.XLabelFormatter = func(_ int, v float64) string {
		i := int(math.Round(v))
		if i < 0 || i >= len(data.Labels) {
			return ""
		}
		return data.Labels[i]
	}
	c.DrawXYAxisAndLabel()

	switch data.Kind {
	case dataset.KindLine:
		m.drawLines(data)
	case dataset.KindScatter:
		m.drawPoints(data)
	default:
		m.drawBars(data)
	}

	m.syncGeometry()
}

func seriesStyle(ds dataset.RenderDataset) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(ds.Color))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (m *Model) drawLines(data dataset.Assembled) {
	for _, ds := range data.Datasets {
		style := seriesStyle(ds)
		for i := 1; i < len(ds.Data); i++ {
			a, b := ds.Data[i-1], ds.Data[i]
			if !finite(a) || !finite(b) {
				continue
			}
			m.chart.DrawBrailleLineWithStyle(
				canvas.Float64Point{X: float64(i - 1), Y: a},
				canvas.Float64Point{X: float64(i), Y: b},
				style)
		}
	}
}

func (m *Model) drawPoints(data dataset.Assembled) {
	for _, ds := range data.Datasets {
		style := seriesStyle(ds)
		for i, v := range ds.Data {
			if finite(v) {
				m.chart.DrawRuneWithStyle(canvas.Float64Point{X: float64(i), Y: v}, scatterRune, style)
			}
		}
	}
}

// drawBars draws one column per plot column. Each sample owns an equal
// share of the plot, split between the datasets.
func (m *Model) drawBars(data dataset.Assembled) {
	n := len(data.Labels)
	sets := len(data.Datasets)
	width := m.chart.GraphWidth()
	height := float64(m.chart.GraphHeight())
	span := data.YMax - data.YMin
	if n == 0 || sets == 0 || width <= 0 || span <= 0 {
		return
	}

	origin := m.chart.Origin()
	binWidth := float64(width) / float64(n)
	for col := range width {
		bin := min(int(float64(col)/binWidth), n-1)
		binStart := int(math.Ceil(float64(bin) * binWidth))
		ds := data.Datasets[(col-binStart)%sets]
		if bin >= len(ds.Data) || !finite(ds.Data[bin]) {
			continue
		}

		h := (ds.Data[bin] - data.YMin) / span * height
		graph.DrawColumnBottomToTop(
			&m.chart.Canvas,
			canvas.Point{X: origin.X + 1 + col, Y: origin.Y - 1},
			min(h, height),
			seriesStyle(ds))
	}
}

func (m *Model) renderTitle() string {
	return titleStyle.Render(runewidth.Truncate(m.title, m.width, "…"))
}

// renderSelection marks the selected time range under the plot.
func (m *Model) renderSelection() string {
	vp := m.view.Viewport()
	sel, ok := vp.Selection()
	if !ok || m.geometry.Width <= 0 {
		return ""
	}

	view := vp.View()
	x0 := int(math.Round(timerange.XAt(view, m.geometry.Width, sel.Start)))
	x1 := int(math.Round(timerange.XAt(view, m.geometry.Width, sel.End)))
	x0 = max(0, min(x0, int(m.geometry.Width)-1))
	x1 = max(0, min(x1, int(m.geometry.Width)-1))

	marker := strings.Repeat("▔", x1-x0+1)
	if x0 == x1 {
		marker = "│"
	}
	return strings.Repeat(" ", int(m.geometry.Left)+x0) + selectionStyle.Render(marker)
}

// renderTooltip lists the values under the pointer on one line.
func (m *Model) renderTooltip() string {
	if !m.pointerIn {
		return ""
	}
	tip := m.view.Tooltip(float64(m.pointerX))
	if !tip.OK {
		return ""
	}

	parts := []string{tooltipLabelStyle.Render(tip.Label)}
	for _, e := range tip.Entries {
		name := runewidth.Truncate(e.Name, tooltipNameWidth, "…")
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(e.Color)).Render("●")
		parts = append(parts, dot+" "+name+" "+dataset.FormatValue(e.Value))
	}
	if summary := tip.Summary(); summary != "" {
		parts = append(parts, summary)
	}

	line := strings.Join(parts, " │ ")
	if lipgloss.Width(line) > m.width {
		line = runewidth.Truncate(line, m.width, "…")
	}
	return line
}

func (m *Model) renderStatusBar() string {
	view := m.view.Viewport().View()
	parts := []string{
		dataset.FormatNanos(view.Start) + " – " + dataset.FormatNanos(view.End),
	}

	state := m.view.State()
	switch {
	case state.Err != nil:
		parts = append(parts, errorStyle.Render(state.Err.Error()))
	case state.Status == datasource.StatusRunning:
		parts = append(parts, "analysis running…")
	case state.Status != "":
		parts = append(parts, string(state.Status))
	}
	if s := m.view.InteractionState(); s.Mode() != interaction.ModeIdle {
		parts = append(parts, s.Mode().String())
	}
	parts = append(parts, "? help")

	line := runewidth.Truncate(strings.Join(parts, " │ "), max(m.width-2, 0), "…")
	return statusBarStyle.Width(m.width).Render(line)
}

func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("tracechart") + "\n\n")

	categories := append(interaction.KeyBindings(), interaction.BindingCategory{
		Name: "General",
		Bindings: []interaction.KeyBinding{
			{Keys: []string{"r"}, Description: "Show the whole trace"},
			{Keys: []string{"esc"}, Description: "Clear the selection"},
			{Keys: []string{"?"}, Description: "Toggle this help"},
			{Keys: []string{"q", "ctrl+c"}, Description: "Quit"},
		},
	})
	for _, cat := range categories {
		b.WriteString(helpSectionStyle.Render(cat.Name) + "\n")
		for _, kb := range cat.Bindings {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
				helpKeyStyle.Render(strings.Join(kb.Keys, ", ")),
				helpDescStyle.Render(kb.Description),
			) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
