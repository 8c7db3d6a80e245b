// Package chartview wires one chart together: its viewport, interaction
// machine, fetch pipeline and the signals it shares with other charts of
// the same experiment.
package chartview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"

	"github.com/traceviewer/tracechart/internal/colors"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/interaction"
	"github.com/traceviewer/tracechart/internal/metrics"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/pipeline"
	"github.com/traceviewer/tracechart/internal/samplebudget"
	"github.com/traceviewer/tracechart/internal/scheduler"
	"github.com/traceviewer/tracechart/internal/settings"
	"github.com/traceviewer/tracechart/internal/signals"
	"github.com/traceviewer/tracechart/internal/statestore"
	"github.com/traceviewer/tracechart/internal/tooltip"
	"github.com/traceviewer/tracechart/internal/viewport"
)

// Params configure a View.
type Params struct {
	Experiment datasource.Experiment
	OutputID   string

	Source datasource.DataSource

	// Bus connects charts of the same experiment. Optional.
	Bus *signals.Bus

	// Registrar reports pointer releases outside the chart. Optional.
	Registrar interaction.PointerUpRegistrar

	// Store persists the view between sessions. Optional.
	Store *statestore.Store

	// Settings default to settings.Defaults().
	Settings settings.Config

	Scheduler scheduler.Scheduler
	OnCursor  func(interaction.Cursor)
	Logger    *observability.CoreLogger
	Metrics   *metrics.Pipeline
}

// View is one chart of one output.
//
// Input events may come from one goroutine while fetch results arrive on
// others.
type View struct {
	id           string
	experimentID string
	outputID     string

	vp       *viewport.Viewport
	pipeline *pipeline.Pipeline
	colors   *colors.Allocator
	bus      *signals.Bus
	store    *statestore.Store
	logger   *observability.CoreLogger

	// mu serializes access to the machine.
	mu      sync.Mutex
	machine *interaction.Machine

	seriesMu  sync.Mutex
	seriesIDs []int64

	// applyingRemote is positive while a signal from another chart is
	// applied, so the change is not broadcast again.
	applyingRemote atomic.Int32
	closed         atomic.Bool

	unsubscribe []func()
}

// New returns a View showing the whole experiment.
func New(params Params) (*View, error) {
	if params.Source == nil {
		return nil, errors.New("chartview: no data source")
	}
	if params.Experiment.UUID == "" || params.OutputID == "" {
		return nil, errors.New("chartview: experiment and output are required")
	}
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}
	cfg := params.Settings
	if cfg == (settings.Config{}) {
		cfg = settings.Defaults()
	}

	exp := params.Experiment
	v := &View{
		id:           uuid.NewString(),
		experimentID: exp.UUID,
		outputID:     params.OutputID,
		vp: viewport.New(
			exp.End-exp.Start,
			exp.Start,
			cfg.ViewportOptions(),
		),
		colors: colors.NewAllocator(colors.Palette(cfg.ColorScheme)),
		bus:    params.Bus,
		store:  params.Store,
	}
	v.logger = params.Logger.With("chart", v.id, "output", params.OutputID)

	v.pipeline = pipeline.New(pipeline.Params{
		TraceID:      exp.UUID,
		OutputID:     params.OutputID,
		Source:       params.Source,
		Scheduler:    params.Scheduler,
		Debounce:     cfg.Debounce(),
		PollInterval: cfg.PollInterval(),
		Budget:       samplebudget.New(cfg.BudgetParams()),
		Colors:       v.colors,
		CacheSize:    cfg.PipelineCacheSize(),
		Logger:       v.logger,
		Metrics:      params.Metrics,
	})

	var registrar interaction.PointerUpRegistrar
	if params.Registrar != nil {
		registrar = &lockedRegistrar{view: v, inner: params.Registrar}
	}
	v.machine = interaction.New(interaction.Params{
		Viewport:  v.vp,
		Registrar: registrar,
		OnCursor:  params.OnCursor,
		Logger:    v.logger,
	})

	v.unsubscribe = append(v.unsubscribe,
		v.vp.Subscribe(v.onViewportChange),
		v.pipeline.Subscribe(v.onPipelineState),
	)
	if v.bus != nil {
		for _, name := range []signals.Name{
			signals.ViewportChanged,
			signals.SelectionChanged,
			signals.SeriesToggled,
		} {
			v.unsubscribe = append(v.unsubscribe, v.bus.Subscribe(name, v.onSignal))
		}
	}

	v.pipeline.SetView(v.vp.AbsoluteView())
	return v, nil
}

// ID identifies this chart instance on the bus.
func (v *View) ID() string { return v.id }

func (v *View) ExperimentID() string { return v.experimentID }

func (v *View) OutputID() string { return v.outputID }

// Viewport gives read access to the view window and selection.
func (v *View) Viewport() *viewport.Viewport { return v.vp }

// State returns the latest assembled data.
func (v *View) State() pipeline.State { return v.pipeline.State() }

// Subscribe calls fn with every applied pipeline state.
func (v *View) Subscribe(fn func(pipeline.State)) (unsubscribe func()) {
	return v.pipeline.Subscribe(fn)
}

// Fetch runs one fetch cycle immediately.
func (v *View) Fetch(ctx context.Context) error {
	return v.pipeline.Fetch(ctx)
}

// FetchSettled runs one fetch cycle and returns the newest applied state,
// waiting for a newer fetch that superseded it.
func (v *View) FetchSettled(ctx context.Context) (pipeline.State, error) {
	return v.pipeline.FetchSettled(ctx)
}

// RefreshTree polls the series tree until the analysis settles.
func (v *View) RefreshTree(ctx context.Context) (datasource.TreeResult, error) {
	return v.pipeline.RefreshTree(ctx)
}

// SetGeometry reports the plot area in CSS pixels and the device pixel
// ratio.
func (v *View) SetGeometry(g interaction.Geometry, dpr float64) {
	if v.closed.Load() {
		return
	}
	v.mu.Lock()
	v.machine.SetGeometry(g)
	v.mu.Unlock()
	v.pipeline.Resize(g.Width, dpr)
}

// SeriesIDs returns the shown series.
func (v *View) SeriesIDs() []int64 {
	v.seriesMu.Lock()
	defer v.seriesMu.Unlock()
	return slices.Clone(v.seriesIDs)
}

// SetSeries replaces the shown series and tells other charts.
func (v *View) SetSeries(ids []int64) {
	if v.closed.Load() {
		return
	}
	ids = v.replaceSeries(ids)
	v.publish(signals.SeriesToggled, signals.Payload{SeriesIDs: ids})
}

// ToggleSeries shows or hides one series.
func (v *View) ToggleSeries(id int64) {
	ids := v.SeriesIDs()
	if i := slices.Index(ids, id); i >= 0 {
		ids = slices.Delete(ids, i, i+1)
	} else {
		ids = append(ids, id)
	}
	v.SetSeries(ids)
}

func (v *View) replaceSeries(ids []int64) []int64 {
	ids = slices.Clone(ids)
	v.seriesMu.Lock()
	v.seriesIDs = ids
	v.seriesMu.Unlock()
	v.pipeline.SetSeries(ids)
	return ids
}

// Geometry returns the plot area last reported by SetGeometry.
func (v *View) Geometry() interaction.Geometry {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Geometry()
}

// Cursor returns the cursor to display over the plot.
func (v *View) Cursor() interaction.Cursor {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.Cursor()
}

// InteractionState returns the state of the interaction machine.
func (v *View) InteractionState() interaction.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.machine.State()
}

// withMachine runs fn with the machine unless the view is closed.
func (v *View) withMachine(fn func(m *interaction.Machine)) {
	if v.closed.Load() {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(v.machine)
}

func (v *View) PointerDown(ev interaction.PointerEvent) {
	v.withMachine(func(m *interaction.Machine) { m.PointerDown(ev) })
}

func (v *View) PointerMove(ev interaction.PointerEvent) {
	v.withMachine(func(m *interaction.Machine) { m.PointerMove(ev) })
}

func (v *View) PointerUp(ev interaction.PointerEvent) {
	v.withMachine(func(m *interaction.Machine) { m.PointerUp(ev) })
}

func (v *View) PointerLeave() {
	v.withMachine(func(m *interaction.Machine) { m.PointerLeave() })
}

// Wheel reports whether the event was consumed.
func (v *View) Wheel(ev interaction.WheelEvent) bool {
	var handled bool
	v.withMachine(func(m *interaction.Machine) { handled = m.Wheel(ev) })
	return handled
}

// KeyDown reports whether the key was handled.
func (v *View) KeyDown(ev interaction.KeyEvent) bool {
	var handled bool
	v.withMachine(func(m *interaction.Machine) { handled = m.KeyDown(ev) })
	return handled
}

func (v *View) KeyUp(ev interaction.KeyEvent) {
	v.withMachine(func(m *interaction.Machine) { m.KeyUp(ev) })
}

// Tooltip resolves the values under the pointer.
func (v *View) Tooltip(pointerX float64) tooltip.Tooltip {
	v.mu.Lock()
	g := v.machine.Geometry()
	v.mu.Unlock()

	data := v.pipeline.State().Data
	return tooltip.Resolve(tooltip.Params{
		PointerX:  pointerX,
		PlotLeft:  g.Left,
		PlotWidth: g.Width,
		Labels:    data.Labels,
		Datasets:  data.Datasets,
	})
}

func (v *View) onViewportChange(change viewport.Change) {
	if v.closed.Load() {
		return
	}

	origin := v.vp.Origin()
	switch change.Kind {
	case viewport.ViewChanged:
		v.pipeline.SetView(v.vp.AbsoluteView())
		v.publish(signals.ViewportChanged, signals.Payload{
			TimeRange: &signals.Range{
				Start: origin + change.View.Start,
				End:   origin + change.View.End,
			},
		})

	case viewport.SelectionChanged:
		payload := signals.Payload{}
		if sel := change.Selection; sel != nil {
			payload.TimeRange = &signals.Range{
				Start: origin + sel.Start,
				End:   origin + sel.End,
			}
		}
		v.publish(signals.SelectionChanged, payload)
	}
}

func (v *View) onPipelineState(state pipeline.State) {
	if v.closed.Load() {
		return
	}
	v.mu.Lock()
	v.machine.SetTimeAxis(state.Data.TimeAxis)
	v.mu.Unlock()
}

func (v *View) publish(name signals.Name, payload signals.Payload) {
	if v.bus == nil || v.applyingRemote.Load() > 0 {
		return
	}
	payload.ExperimentID = v.experimentID
	v.bus.Publish(signals.Signal{Name: name, Payload: payload, Sender: v.id})
}

// onSignal applies another chart's change to this one.
func (v *View) onSignal(s signals.Signal) {
	if s.Sender == v.id ||
		s.Payload.ExperimentID != v.experimentID ||
		v.closed.Load() {
		return
	}

	v.applyingRemote.Add(1)
	defer v.applyingRemote.Add(-1)

	// Signals carry absolute time; the viewport works relative to the
	// experiment start.
	r := s.Payload.TimeRange
	origin := v.vp.Origin()
	switch s.Name {
	case signals.ViewportChanged:
		if r != nil {
			v.vp.SetViewRange(r.Start-origin, r.End-origin)
		}
	case signals.SelectionChanged:
		if r == nil {
			v.vp.ClearSelection()
		} else {
			v.vp.SetSelection(r.Start-origin, r.End-origin)
		}
	case signals.SeriesToggled:
		v.replaceSeries(s.Payload.SeriesIDs)
	}
}

// Close stops fetching and detaches the view. Later events are ignored.
func (v *View) Close() {
	if v.closed.Swap(true) {
		return
	}
	for _, unsubscribe := range v.unsubscribe {
		unsubscribe()
	}

	v.mu.Lock()
	v.machine.Reset()
	v.mu.Unlock()

	v.pipeline.Close()
	v.logger.Debug("chartview: closed")
}

// Closed reports whether Close was called.
func (v *View) Closed() bool { return v.closed.Load() }

// savedRange is relative to the experiment start.
type savedRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// savedState is the blob written to the state store.
type savedState struct {
	View      savedRange  `json:"view"`
	Selection *savedRange `json:"selection,omitempty"`
	SeriesIDs []int64     `json:"seriesIds"`
}

// SaveState stores the view window, selection and series.
func (v *View) SaveState() error {
	if v.store == nil {
		return nil
	}

	view := v.vp.View()
	state := savedState{
		View:      savedRange{Start: view.Start, End: view.End},
		SeriesIDs: v.SeriesIDs(),
	}
	if sel, ok := v.vp.Selection(); ok {
		state.Selection = &savedRange{Start: sel.Start, End: sel.End}
	}

	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("chartview: encode state: %v", err)
	}
	return v.store.Save(v.experimentID, v.outputID, blob)
}

// RestoreState applies a saved state, if there is one, and reports whether
// it did.
func (v *View) RestoreState() (bool, error) {
	if v.store == nil || v.closed.Load() {
		return false, nil
	}

	blob, ok, err := v.store.Load(v.experimentID, v.outputID)
	if err != nil || !ok {
		return false, err
	}

	var state savedState
	if err := json.Unmarshal(blob, &state); err != nil {
		return false, fmt.Errorf("chartview: decode state: %v", err)
	}

	v.vp.SetViewRange(state.View.Start, state.View.End)
	if state.Selection != nil {
		v.vp.SetSelection(state.Selection.Start, state.Selection.End)
	} else {
		v.vp.ClearSelection()
	}
	v.SetSeries(state.SeriesIDs)
	return true, nil
}

// lockedRegistrar delivers outside releases under the view's lock.
type lockedRegistrar struct {
	view  *View
	inner interaction.PointerUpRegistrar
}

func (r *lockedRegistrar) AddPointerUpListener(
	fn func(interaction.PointerEvent),
) (remove func()) {
	return r.inner.AddPointerUpListener(func(ev interaction.PointerEvent) {
		r.view.withMachine(func(*interaction.Machine) { fn(ev) })
	})
}
