package datasourcetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/traceviewer/tracechart/internal/datasource"
)

// FakeDataSource is a DataSource whose responses tests deliver by hand.
//
// Every call blocks until the test resolves it, unless a responder is
// installed, in which case the responder answers immediately.
type FakeDataSource struct {
	mu          sync.Mutex
	series      []*PendingSeries
	trees       []*PendingTree
	experiments map[string]datasource.Experiment

	seriesResponder func(datasource.SelectionQuery) (datasource.SeriesResult, error)
	treeResponder   func(datasource.RangeQuery) (datasource.TreeResult, error)
}

// Prove we implement the interfaces.
var _ datasource.DataSource = &FakeDataSource{}
var _ datasource.ExperimentSource = &FakeDataSource{}

func NewFakeDataSource() *FakeDataSource {
	return &FakeDataSource{experiments: make(map[string]datasource.Experiment)}
}

// PendingSeries is an unanswered FetchSeries call.
type PendingSeries struct {
	TraceID  string
	OutputID string
	Query    datasource.SelectionQuery

	done   chan struct{}
	once   sync.Once
	result datasource.SeriesResult
	err    error
}

// Resolve answers the call.
func (p *PendingSeries) Resolve(result datasource.SeriesResult, err error) {
	p.once.Do(func() {
		p.result, p.err = result, err
		close(p.done)
	})
}

// PendingTree is an unanswered FetchTree call.
type PendingTree struct {
	TraceID  string
	OutputID string
	Query    datasource.RangeQuery

	done   chan struct{}
	once   sync.Once
	result datasource.TreeResult
	err    error
}

// Resolve answers the call.
func (p *PendingTree) Resolve(result datasource.TreeResult, err error) {
	p.once.Do(func() {
		p.result, p.err = result, err
		close(p.done)
	})
}

// RespondSeries makes FetchSeries answer immediately using fn.
func (f *FakeDataSource) RespondSeries(
	fn func(datasource.SelectionQuery) (datasource.SeriesResult, error),
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seriesResponder = fn
}

// RespondTree makes FetchTree answer immediately using fn.
func (f *FakeDataSource) RespondTree(
	fn func(datasource.RangeQuery) (datasource.TreeResult, error),
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.treeResponder = fn
}

// AddExperiment registers an experiment for FetchExperiment.
func (f *FakeDataSource) AddExperiment(exp datasource.Experiment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.experiments[exp.UUID] = exp
}

func (f *FakeDataSource) FetchSeries(
	ctx context.Context,
	traceID, outputID string,
	query datasource.SelectionQuery,
) (datasource.SeriesResult, error) {
	p := &PendingSeries{
		TraceID:  traceID,
		OutputID: outputID,
		Query:    query,
		done:     make(chan struct{}),
	}

	f.mu.Lock()
	f.series = append(f.series, p)
	responder := f.seriesResponder
	f.mu.Unlock()

	if responder != nil {
		p.Resolve(responder(query))
	}

	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return datasource.SeriesResult{}, ctx.Err()
	}
}

func (f *FakeDataSource) FetchTree(
	ctx context.Context,
	traceID, outputID string,
	query datasource.RangeQuery,
) (datasource.TreeResult, error) {
	p := &PendingTree{
		TraceID:  traceID,
		OutputID: outputID,
		Query:    query,
		done:     make(chan struct{}),
	}

	f.mu.Lock()
	f.trees = append(f.trees, p)
	responder := f.treeResponder
	f.mu.Unlock()

	if responder != nil {
		p.Resolve(responder(query))
	}

	select {
	case <-p.done:
		return p.result, p.err
	case <-ctx.Done():
		return datasource.TreeResult{}, ctx.Err()
	}
}

func (f *FakeDataSource) FetchExperiment(
	_ context.Context,
	traceID string,
) (datasource.Experiment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	exp, ok := f.experiments[traceID]
	if !ok {
		return datasource.Experiment{}, datasource.ErrNoModel
	}
	return exp, nil
}

// SeriesCalls returns all FetchSeries calls so far.
func (f *FakeDataSource) SeriesCalls() []*PendingSeries {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*PendingSeries(nil), f.series...)
}

// TreeCalls returns all FetchTree calls so far.
func (f *FakeDataSource) TreeCalls() []*PendingTree {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*PendingTree(nil), f.trees...)
}

// WaitForSeriesCalls blocks until at least n FetchSeries calls were made.
func (f *FakeDataSource) WaitForSeriesCalls(t *testing.T, n int) []*PendingSeries {
	t.Helper()
	require.Eventually(t,
		func() bool { return len(f.SeriesCalls()) >= n },
		5*time.Second, time.Millisecond,
		"expected %d FetchSeries calls", n)
	return f.SeriesCalls()
}

// WaitForTreeCalls blocks until at least n FetchTree calls were made.
func (f *FakeDataSource) WaitForTreeCalls(t *testing.T, n int) []*PendingTree {
	t.Helper()
	require.Eventually(t,
		func() bool { return len(f.TreeCalls()) >= n },
		5*time.Second, time.Millisecond,
		"expected %d FetchTree calls", n)
	return f.TreeCalls()
}
