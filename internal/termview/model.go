// Package termview draws a chart in the terminal and feeds terminal mouse
// and keyboard input to it.
package termview

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/NimbleMarkets/ntcharts/linechart"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/traceviewer/tracechart/internal/chartview"
	"github.com/traceviewer/tracechart/internal/dataset"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/interaction"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/pipeline"
)

// stateMsg carries a newly applied pipeline state.
type stateMsg struct {
	state pipeline.State
}

// treeMsg carries the settled series tree.
type treeMsg struct {
	result datasource.TreeResult
	err    error
}

// Params configure a Model.
type Params struct {
	// Chart configures the chart. Its Registrar and Logger are set by the
	// model.
	Chart chartview.Params

	// Series replace any restored series selection when set.
	Series []int64

	Title  string
	Logger *observability.CoreLogger
}

// Model is the terminal chart.
//
// Implements tea.Model.
type Model struct {
	view     *chartview.View
	releases *releaseRegistrar
	logger   *observability.CoreLogger
	title    string
	series   []int64

	// states delivers pipeline states to the Update loop. It holds at most
	// the newest state.
	states chan pipeline.State

	unsubscribe func()
	closeOnce   sync.Once

	// treeCtx is canceled on Close to stop the tree poll.
	treeCtx    context.Context
	treeCancel context.CancelFunc

	width, height int
	chart         linechart.Model
	geometry      interaction.Geometry

	state pipeline.State
	tree  *datasource.TreeModel

	// pointerX is the last pointer column; pointerIn tells whether it is
	// over the plot.
	pointerX  int
	pointerIn bool

	help bool
}

// NewModel creates the chart and subscribes to its data.
func NewModel(params Params) (*Model, error) {
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}

	releases := &releaseRegistrar{}
	params.Chart.Registrar = releases
	params.Chart.Logger = params.Logger

	view, err := chartview.New(params.Chart)
	if err != nil {
		return nil, err
	}

	title := params.Title
	if title == "" {
		title = params.Chart.Experiment.Name
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		view:       view,
		releases:   releases,
		logger:     params.Logger,
		title:      title,
		series:     params.Series,
		states:     make(chan pipeline.State, 1),
		treeCtx:    ctx,
		treeCancel: cancel,
		state:      view.State(),
	}
	m.unsubscribe = view.Subscribe(m.pushState)
	return m, nil
}

// Chart returns the chart behind the model.
func (m *Model) Chart() *chartview.View { return m.view }

// Close saves the chart state and stops the chart.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.treeCancel()
		m.unsubscribe()
		if err := m.view.SaveState(); err != nil {
			m.logger.CaptureError(fmt.Errorf("termview: saving state: %v", err))
		}
		m.view.Close()
	})
}

// pushState replaces any undelivered state with s.
func (m *Model) pushState(s pipeline.State) {
	for {
		select {
		case m.states <- s:
			return
		default:
		}
		select {
		case <-m.states:
		default:
		}
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg{state: <-m.states}
	}
}

func (m *Model) refreshTree() tea.Cmd {
	return func() tea.Msg {
		result, err := m.view.RefreshTree(m.treeCtx)
		return treeMsg{result: result, err: err}
	}
}

// Init implements tea.Model.Init.
func (m *Model) Init() tea.Cmd {
	m.logger.Debug("termview: Init called")

	cmds := []tea.Cmd{m.waitForState()}
	if restored, err := m.view.RestoreState(); err != nil {
		m.logger.Warn("termview: could not restore state", "error", err)
	} else if restored {
		m.logger.Debug("termview: restored saved state")
	}
	if len(m.series) > 0 {
		m.view.SetSeries(m.series)
	}
	if len(m.view.SeriesIDs()) == 0 {
		cmds = append(cmds, m.refreshTree())
	}
	if m.title != "" {
		cmds = append(cmds, tea.SetWindowTitle("tracechart: "+m.title))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer m.logPanic("Update")

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(tea.MouseEvent(msg))
		return m, nil

	case stateMsg:
		m.state = msg.state
		m.redraw()
		return m, m.waitForState()

	case treeMsg:
		m.onTree(msg)
		return m, nil
	}
	return m, nil
}

// onTree shows every series with data once the tree has settled, unless
// series were already chosen.
func (m *Model) onTree(msg treeMsg) {
	if msg.err != nil {
		m.logger.Warn("termview: tree refresh failed", "error", msg.err)
		return
	}
	m.tree = msg.result.Model
	if m.tree == nil || len(m.view.SeriesIDs()) > 0 {
		return
	}

	var ids []int64
	for _, e := range m.tree.Entries {
		if e.HasData {
			ids = append(ids, e.ID)
		}
	}
	m.view.SetSeries(ids)
}

// resize lays the chart out for a new terminal size.
func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	chartHeight := height - titleHeight - selectionHeight - tooltipHeight - statusBarHeight
	m.chart = linechart.New(
		max(width, minChartWidth),
		max(chartHeight, minChartHeight),
		0, 1, dataset.DefaultYMin, dataset.DefaultYMax,
		linechart.WithXYSteps(xSteps, ySteps),
		linechart.WithYLabelFormatter(func(_ int, v float64) string {
			return dataset.FormatValue(v)
		}),
	)
	m.chart.AxisStyle = axisStyle
	m.chart.LabelStyle = labelStyle
	m.redraw()
}

// syncGeometry reports the plot area to the chart when it moved.
//
// Plot columns are the pixel unit, at a device pixel ratio of one.
func (m *Model) syncGeometry() {
	g := interaction.Geometry{
		Left:  float64(m.chart.Origin().X + 1),
		Width: float64(m.chart.GraphWidth()),
	}
	if g == m.geometry {
		return
	}
	m.geometry = g
	m.view.SetGeometry(g, 1)
}

// logPanic logs a panic with its stack trace and re-panics.
func (m *Model) logPanic(context string) {
	if r := recover(); r != nil {
		stackTrace := string(debug.Stack())
		m.logger.CaptureError(fmt.Errorf("PANIC in %s: %v\nStack trace:\n%s", context, r, stackTrace))

		panic(r)
	}
}
