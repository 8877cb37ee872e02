package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/showtimes-cli/internal/browser"
)

// ErrBusy is returned by Runner.Start while a run is in flight.
var ErrBusy = eris.New("pipeline: a run is already in flight")

// Runner executes runs one at a time on a background goroutine against a
// single session. Each run is a one-shot request and reply.
type Runner struct {
	pipeline *Pipeline
	session  browser.Session
	busy     atomic.Bool
}

// NewRunner binds p to the session every run will use.
func NewRunner(p *Pipeline, session browser.Session) *Runner {
	return &Runner{pipeline: p, session: session}
}

// Busy reports whether a run is in flight.
func (r *Runner) Busy() bool { return r.busy.Load() }

// Start launches req in the background and returns a channel that yields
// its result once and is then closed. It refuses with ErrBusy while
// another run is in flight.
func (r *Runner) Start(ctx context.Context, req Request) (<-chan *Result, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	reply := make(chan *Result, 1)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := r.pipeline.Run(gctx, r.session, req)
		r.busy.Store(false)
		reply <- res
		return nil
	})
	go func() {
		_ = g.Wait()
		close(reply)
	}()
	return reply, nil
}

// Run starts req and waits for its result.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	reply, err := r.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	res, ok := <-reply
	if !ok {
		return nil, eris.New("pipeline: run ended without a result")
	}
	return res, nil
}
