package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/traceviewer/tracechart/internal/datasource"
)

// RefreshTree fetches the series tree, polling until the analysis reaches
// a terminal status.
//
// Requests are paced by the poll interval. The loop stops when ctx is done
// or the pipeline is closed. Concurrent calls share one loop.
func (p *Pipeline) RefreshTree(ctx context.Context) (datasource.TreeResult, error) {
	v, err, _ := p.treeGroup.Do("tree", func() (any, error) {
		return p.pollTree(ctx)
	})
	if err != nil {
		return datasource.TreeResult{}, err
	}
	return v.(datasource.TreeResult), nil
}

func (p *Pipeline) pollTree(ctx context.Context) (datasource.TreeResult, error) {
	ctx, cancel := mergeDone(ctx, p.ctx)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(p.pollInterval), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			if p.Closed() {
				return datasource.TreeResult{}, ErrClosed
			}
			return datasource.TreeResult{}, err
		}

		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return datasource.TreeResult{}, ErrClosed
		}
		query := datasource.RangeQuery{Start: p.in.view.Start, End: p.in.view.End}
		p.mu.Unlock()

		p.metrics.IncTreePolls()
		result, err := p.source.FetchTree(ctx, p.traceID, p.outputID, query)
		if err != nil {
			if p.Closed() {
				return datasource.TreeResult{}, ErrClosed
			}
			if ctx.Err() != nil {
				return datasource.TreeResult{}, ctx.Err()
			}
			return datasource.TreeResult{}, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		if result.Model == nil && result.Status != datasource.StatusRunning {
			return result, fmt.Errorf("%w: %w", ErrFetchFailed, datasource.ErrNoModel)
		}

		if !p.applyTree(result) {
			return datasource.TreeResult{}, ErrClosed
		}
		if result.Status.IsTerminal() {
			return result, nil
		}
		p.logger.Debug("pipeline: analysis running, polling tree")
	}
}

// applyTree publishes a tree result. It returns false once closed.
func (p *Pipeline) applyTree(result datasource.TreeResult) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	next := p.state
	if result.Model != nil {
		next.Tree = result.Model
	}
	next.TreeStatus = result.Status
	p.state = next
	subs := p.snapshotSubscribersLocked()
	p.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return true
}

// mergeDone returns a context canceled when either a or b is done.
func mergeDone(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
