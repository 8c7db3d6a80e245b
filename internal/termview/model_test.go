package termview_test

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/chartview"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/datasourcetest"
	"github.com/traceviewer/tracechart/internal/interaction"
	"github.com/traceviewer/tracechart/internal/observabilitytest"
	"github.com/traceviewer/tracechart/internal/schedulertest"
	"github.com/traceviewer/tracechart/internal/termview"
	"github.com/traceviewer/tracechart/internal/timerange"
)

type fixture struct {
	m      *termview.Model
	source *datasourcetest.FakeDataSource
	sched  *schedulertest.FakeScheduler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	source := datasourcetest.NewFakeDataSource()
	source.RespondSeries(func(q datasource.SelectionQuery) (datasource.SeriesResult, error) {
		return datasourcetest.CompletedSeries(
			datasourcetest.TimestampSeries(7, "cpu0",
				[]int64{q.Start, q.Start + 500},
				[]float64{1, 3})), nil
	})
	sched := schedulertest.NewFakeScheduler()

	m, err := termview.NewModel(termview.Params{
		Chart: chartview.Params{
			Experiment: datasource.Experiment{UUID: "exp", Name: "kernel trace", Start: 1_000, End: 2_000},
			OutputID:   "cpu",
			Source:     source,
			Scheduler:  sched,
		},
		Logger: observabilitytest.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Chart().SetSeries([]int64{7})
	return fixture{m: m, source: source, sched: sched}
}

// plotX returns the terminal column at the given fraction of the plot.
func (f fixture) plotX(frac float64) int {
	g := f.m.Chart().Geometry()
	return int(g.Left + frac*g.Width)
}

func (f fixture) mouse(x int, button tea.MouseButton, action tea.MouseAction) {
	f.m.Update(tea.MouseMsg{X: x, Y: 3, Button: button, Action: action})
}

func TestModel_ResizeReportsPlotGeometry(t *testing.T) {
	f := newFixture(t)

	g := f.m.Chart().Geometry()

	assert.Greater(t, g.Left, 0.0)
	assert.Greater(t, g.Width, 50.0)
	assert.LessOrEqual(t, g.Left+g.Width, 100.0)
}

func TestModel_FetchesAndRendersData(t *testing.T) {
	f := newFixture(t)

	f.sched.Advance(500 * time.Millisecond)

	calls := f.source.SeriesCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, int64(1_000), calls[0].Query.Start)
	assert.Equal(t, datasource.StatusCompleted, f.m.Chart().State().Status)

	assert.Contains(t, f.m.View(), "kernel trace")
	assert.Contains(t, f.m.View(), "COMPLETED")
}

func TestModel_ArrowKeysZoomAndPan(t *testing.T) {
	f := newFixture(t)

	f.m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, timerange.New(100, 900, 0), f.m.Chart().Viewport().View())

	f.m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, timerange.New(180, 980, 0), f.m.Chart().Viewport().View())

	f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	assert.Equal(t, timerange.New(0, 1_000, 0), f.m.Chart().Viewport().View())
}

func TestModel_RightDragZooms(t *testing.T) {
	f := newFixture(t)

	f.mouse(f.plotX(0.2), tea.MouseButtonRight, tea.MouseActionPress)
	f.mouse(f.plotX(0.6), tea.MouseButtonNone, tea.MouseActionMotion)
	f.mouse(f.plotX(0.6), tea.MouseButtonNone, tea.MouseActionRelease)

	view := f.m.Chart().Viewport().View()
	assert.InDelta(t, 200, view.Start, 20)
	assert.InDelta(t, 600, view.End, 20)
	assert.Equal(t, interaction.ModeIdle, f.m.Chart().InteractionState().Mode())
}

func TestModel_ReleaseOutsidePlotEndsDrag(t *testing.T) {
	f := newFixture(t)

	f.mouse(f.plotX(0.5), tea.MouseButtonRight, tea.MouseActionPress)
	f.m.Update(tea.MouseMsg{X: 1, Y: 29, Action: tea.MouseActionMotion})
	assert.Equal(t, interaction.ModeSelecting, f.m.Chart().InteractionState().Mode())

	f.m.Update(tea.MouseMsg{X: 1, Y: 29, Action: tea.MouseActionRelease})

	assert.Equal(t, interaction.ModeIdle, f.m.Chart().InteractionState().Mode())
}

func TestModel_LeftDragSelects(t *testing.T) {
	f := newFixture(t)

	f.mouse(f.plotX(0.25), tea.MouseButtonLeft, tea.MouseActionPress)
	f.mouse(f.plotX(0.75), tea.MouseButtonLeft, tea.MouseActionMotion)
	f.mouse(f.plotX(0.75), tea.MouseButtonLeft, tea.MouseActionRelease)

	sel, ok := f.m.Chart().Viewport().Selection()
	require.True(t, ok)
	assert.InDelta(t, 250, sel.Start, 20)
	assert.InDelta(t, 750, sel.End, 20)
	assert.Contains(t, f.m.View(), "▔")

	f.m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, ok = f.m.Chart().Viewport().Selection()
	assert.False(t, ok)
}

func TestModel_TooltipFollowsPointer(t *testing.T) {
	f := newFixture(t)
	f.sched.Advance(500 * time.Millisecond)

	f.mouse(f.plotX(0.9), tea.MouseButtonNone, tea.MouseActionMotion)

	assert.Contains(t, f.m.View(), "cpu0 3")
}

func TestModel_HelpAndQuit(t *testing.T) {
	f := newFixture(t)

	f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Contains(t, f.m.View(), "Zoom in")

	f.m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, timerange.New(0, 1_000, 0), f.m.Chart().Viewport().View(),
		"keys do not reach the chart while help is shown")

	_, cmd := f.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModel_InitAppliesRequestedSeries(t *testing.T) {
	m, err := termview.NewModel(termview.Params{
		Chart: chartview.Params{
			Experiment: datasource.Experiment{UUID: "exp", Start: 0, End: 1_000},
			OutputID:   "cpu",
			Source:     datasourcetest.NewFakeDataSource(),
			Scheduler:  schedulertest.NewFakeScheduler(),
		},
		Series: []int64{4, 5},
		Logger: observabilitytest.NewTestLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(m.Close)

	m.Init()

	assert.Equal(t, []int64{4, 5}, m.Chart().SeriesIDs())
}
