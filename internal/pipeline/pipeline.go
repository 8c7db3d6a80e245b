// Package pipeline fetches series for the visible window and turns them
// into renderable datasets.
//
// Every fetch gets a generation number. Only the completion of the most
// recently issued fetch may replace the displayed state; older completions
// are dropped, as is anything arriving after Close.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/traceviewer/tracechart/internal/colors"
	"github.com/traceviewer/tracechart/internal/dataset"
	"github.com/traceviewer/tracechart/internal/datasource"
	"github.com/traceviewer/tracechart/internal/metrics"
	"github.com/traceviewer/tracechart/internal/observability"
	"github.com/traceviewer/tracechart/internal/samplebudget"
	"github.com/traceviewer/tracechart/internal/scheduler"
	"github.com/traceviewer/tracechart/internal/timerange"
)

var (
	// ErrFetchFailed wraps network errors and unusable responses.
	ErrFetchFailed = errors.New("pipeline: fetch failed")

	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("pipeline: closed")

	// ErrSuperseded is returned by Fetch when a newer fetch was issued
	// before its response arrived, so the response was dropped.
	ErrSuperseded = errors.New("pipeline: superseded by a newer fetch")
)

const (
	// MinDebounce is the shortest allowed quiet period.
	MinDebounce = 500 * time.Millisecond

	DefaultPollInterval = time.Second
	DefaultCacheSize    = 64
)

// Params configure a Pipeline.
type Params struct {
	TraceID  string
	OutputID string

	Source datasource.DataSource

	// Scheduler runs debounced fetches. Defaults to the system clock.
	Scheduler scheduler.Scheduler

	// Debounce is the quiet period before a fetch; at least MinDebounce.
	Debounce time.Duration

	// PollInterval paces requests while the analysis is running.
	PollInterval time.Duration

	Budget *samplebudget.Controller
	Colors dataset.ColorSource

	// CacheSize bounds the number of cached completed responses.
	// Negative disables the cache.
	CacheSize int

	Logger  *observability.CoreLogger
	Metrics *metrics.Pipeline
}

// State is an immutable snapshot of the pipeline output.
type State struct {
	// Generation is the fetch that produced Data.
	Generation uint64

	Data dataset.Assembled

	// Status is the status of the last applied fetch; empty before any.
	Status        datasource.Status
	StatusMessage string

	// Err is set when the last applied fetch failed.
	Err error

	Query datasource.SelectionQuery

	Tree       *datasource.TreeModel
	TreeStatus datasource.Status
}

// inputs are what the next fetch is computed from.
type inputs struct {
	view      timerange.TimeRange
	widthPx   float64
	dpr       float64
	seriesIDs []int64
}

// Pipeline issues debounced, generation-guarded fetches.
type Pipeline struct {
	traceID  string
	outputID string
	source   datasource.DataSource
	sched    scheduler.Scheduler
	budget   *samplebudget.Controller
	colors   dataset.ColorSource
	logger   *observability.CoreLogger
	metrics  *metrics.Pipeline

	debouncer    *scheduler.Debouncer
	pollInterval time.Duration
	cache        *lru.Cache
	treeGroup    singleflight.Group

	// ctx is canceled by Close.
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	in          inputs
	issued      uint64
	state       State
	closed      bool
	poll        scheduler.Handle
	nextSubID   int
	subscribers map[int]func(State)
}

// New returns a Pipeline. Nothing is fetched until inputs are set.
func New(params Params) *Pipeline {
	if params.Scheduler == nil {
		params.Scheduler = scheduler.System()
	}
	if params.Debounce < MinDebounce {
		params.Debounce = MinDebounce
	}
	if params.PollInterval <= 0 {
		params.PollInterval = DefaultPollInterval
	}
	if params.Budget == nil {
		params.Budget = samplebudget.New(samplebudget.DefaultParams())
	}
	if params.Colors == nil {
		params.Colors = colors.NewAllocator(nil)
	}
	if params.Logger == nil {
		params.Logger = observability.NewNoOpLogger()
	}
	if params.CacheSize == 0 {
		params.CacheSize = DefaultCacheSize
	}

	var cache *lru.Cache
	if params.CacheSize > 0 {
		// lru.New only fails for non-positive sizes.
		cache, _ = lru.New(params.CacheSize)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		traceID:      params.TraceID,
		outputID:     params.OutputID,
		source:       params.Source,
		sched:        params.Scheduler,
		budget:       params.Budget,
		colors:       params.Colors,
		logger:       params.Logger.With("output", params.OutputID),
		metrics:      params.Metrics,
		debouncer:    scheduler.NewDebouncer(params.Scheduler, params.Debounce),
		pollInterval: params.PollInterval,
		cache:        cache,
		ctx:          ctx,
		cancel:       cancel,
		in:           inputs{dpr: 1},
		state:        State{Data: dataset.Empty()},
		subscribers:  make(map[int]func(State)),
	}
}

// SetView sets the window to fetch, in absolute time, and requests a fetch.
//
// The view's offset is the trace origin used for timestamp labels.
func (p *Pipeline) SetView(view timerange.TimeRange) {
	p.mu.Lock()
	p.in.view = view
	p.mu.Unlock()
	p.Request()
}

// SetSeries sets the series to fetch and requests a fetch.
func (p *Pipeline) SetSeries(ids []int64) {
	p.mu.Lock()
	p.in.seriesIDs = slices.Clone(ids)
	p.mu.Unlock()
	p.Request()
}

// Resize sets the plot width in pixels and the device pixel ratio and
// requests a fetch.
func (p *Pipeline) Resize(widthPx, dpr float64) {
	p.mu.Lock()
	p.in.widthPx = widthPx
	p.in.dpr = dpr
	p.mu.Unlock()
	p.Request()
}

// Request schedules a fetch after the quiet period.
//
// It does nothing while the plot has no width or after Close.
func (p *Pipeline) Request() {
	p.mu.Lock()
	if p.closed || p.in.widthPx <= 0 {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.debouncer.Trigger(func() {
		err := p.Fetch(p.ctx)
		if err != nil && !errors.Is(err, ErrClosed) && !errors.Is(err, ErrSuperseded) {
			p.logger.Warn("pipeline: fetch failed", "error", err)
		}
	})
}

// State returns the current snapshot.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn to receive each new state and returns a function
// removing it. fn runs on the goroutine that applied the state.
func (p *Pipeline) Subscribe(fn func(State)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subscribers, id)
		p.mu.Unlock()
	}
}

// Fetch runs one fetch cycle for the current inputs and waits for it.
//
// A pending debounced request is dropped since this fetch covers the same
// inputs. A degenerate view issues no request and leaves the state
// unchanged. The returned error wraps ErrFetchFailed when the response could
// not be used; the previously displayed data is kept in that case. If a
// newer fetch was issued meanwhile, the response is dropped and Fetch
// returns ErrSuperseded.
func (p *Pipeline) Fetch(ctx context.Context) error {
	p.debouncer.Cancel()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	in := p.in
	if in.view.IsDegenerate() {
		p.mu.Unlock()
		return nil
	}
	p.issued++
	gen := p.issued
	p.mu.Unlock()

	query := datasource.SelectionQuery{
		Start:       in.view.Start,
		End:         in.view.End,
		SampleCount: p.budget.SampleCount(in.widthPx, in.dpr, len(in.seriesIDs)),
		SeriesIDs:   in.seriesIDs,
	}

	if cached, ok := p.cachedResult(query); ok {
		p.apply(gen, in.view.Offset, query, cached, nil, 0, true)
		return nil
	}

	started := p.sched.Now()
	result, err := p.source.FetchSeries(ctx, p.traceID, p.outputID, query)
	elapsed := p.sched.Now().Sub(started)

	return p.apply(gen, in.view.Offset, query, result, err, elapsed, false)
}

// apply installs a fetch result if it is still the latest one.
func (p *Pipeline) apply(
	gen uint64,
	offset int64,
	query datasource.SelectionQuery,
	result datasource.SeriesResult,
	fetchErr error,
	elapsed time.Duration,
	fromCache bool,
) error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		p.metrics.ObserveFetch(metrics.ResultDropped, elapsed)
		return ErrClosed
	}
	if gen != p.issued {
		latest := p.issued
		p.mu.Unlock()
		p.metrics.ObserveFetch(metrics.ResultStale, elapsed)
		p.logger.Debug("pipeline: dropping stale response",
			"generation", gen, "latest", latest)
		return ErrSuperseded
	}

	next := p.state
	next.Generation = gen
	next.Query = query

	var err error
	var outcome string
	switch {
	case fetchErr != nil:
		err = fmt.Errorf("%w: %w", ErrFetchFailed, fetchErr)
		next.Status = datasource.StatusFailed
		next.StatusMessage = fetchErr.Error()
		outcome = metrics.ResultFailed

	case result.Model == nil:
		err = fmt.Errorf("%w: %w", ErrFetchFailed, datasource.ErrNoModel)
		next.Status = datasource.StatusFailed
		next.StatusMessage = result.StatusMessage
		outcome = metrics.ResultFailed

	case result.Status == datasource.StatusFailed,
		result.Status == datasource.StatusCancelled:
		if result.Status == datasource.StatusFailed {
			err = fmt.Errorf("%w: %s", ErrFetchFailed, result.StatusMessage)
		}
		next.Status = result.Status
		next.StatusMessage = result.StatusMessage
		outcome = metrics.ResultFailed

	default:
		next.Data = dataset.Build(result.Model.Series, offset, p.colors)
		next.Status = result.Status
		next.StatusMessage = result.StatusMessage
		outcome = metrics.ResultCompleted
		if len(result.Model.Series) == 0 {
			outcome = metrics.ResultEmpty
		}
		if result.Status == datasource.StatusCompleted && !fromCache {
			p.storeResult(query, result)
		}
		if result.Status == datasource.StatusRunning {
			p.schedulePollLocked()
		}
	}
	next.Err = err
	if fromCache {
		outcome = metrics.ResultCached
	}

	p.state = next
	subs := p.snapshotSubscribersLocked()
	p.mu.Unlock()

	p.metrics.ObserveFetch(outcome, elapsed)
	if err != nil {
		p.logger.CaptureWarn("pipeline: fetch failed", "error", err)
	}
	for _, fn := range subs {
		fn(next)
	}
	return err
}

// FetchSettled runs Fetch and, if a newer fetch superseded it, waits until
// the newest issued fetch has been applied. It returns the state in effect
// and that fetch's error.
func (p *Pipeline) FetchSettled(ctx context.Context) (State, error) {
	applied := make(chan struct{}, 1)
	unsubscribe := p.Subscribe(func(State) {
		select {
		case applied <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	err := p.Fetch(ctx)
	if !errors.Is(err, ErrSuperseded) {
		return p.State(), err
	}

	for {
		if state, ok := p.settled(); ok {
			return state, state.Err
		}
		select {
		case <-applied:
		case <-ctx.Done():
			return p.State(), ctx.Err()
		case <-p.ctx.Done():
			return p.State(), ErrClosed
		}
	}
}

// settled returns the state if it comes from the newest issued fetch.
func (p *Pipeline) settled() (State, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.state.Generation == p.issued
}

// schedulePollLocked refetches after the poll interval while the analysis
// is still running.
func (p *Pipeline) schedulePollLocked() {
	if p.poll != nil {
		p.poll.Cancel()
	}
	p.poll = p.sched.AfterFunc(p.pollInterval, func() {
		p.mu.Lock()
		alive := !p.closed
		p.poll = nil
		p.mu.Unlock()

		if alive {
			p.Request()
		}
	})
}

func (p *Pipeline) snapshotSubscribersLocked() []func(State) {
	subs := make([]func(State), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func cacheKey(q datasource.SelectionQuery) string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(q.Start, 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatInt(q.End, 10))
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(q.SampleCount))
	for _, id := range q.SeriesIDs {
		sb.WriteByte(',')
		sb.WriteString(strconv.FormatInt(id, 10))
	}
	return sb.String()
}

func (p *Pipeline) cachedResult(q datasource.SelectionQuery) (datasource.SeriesResult, bool) {
	if p.cache == nil {
		return datasource.SeriesResult{}, false
	}
	v, ok := p.cache.Get(cacheKey(q))
	if !ok {
		return datasource.SeriesResult{}, false
	}
	return v.(datasource.SeriesResult), true
}

func (p *Pipeline) storeResult(q datasource.SelectionQuery, r datasource.SeriesResult) {
	if p.cache == nil {
		return
	}
	p.cache.Add(cacheKey(q), r)
}

// Close stops all future fetches and drops pending completions.
//
// It is safe to call more than once.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.poll != nil {
		p.poll.Cancel()
		p.poll = nil
	}
	clear(p.subscribers)
	p.mu.Unlock()

	p.debouncer.Stop()
	p.cancel()
	if p.cache != nil {
		p.cache.Purge()
	}
}

// Closed reports whether Close was called.
func (p *Pipeline) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
