// Package pool implements the bounded worker pool (C5): lazy worker
// allocation, positional partial-failure capture, and an adaptive
// concurrency controller driven by a rolling window of recent task
// outcomes (spec.md §4.5).
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"clarifyagent/internal/session"
)

// Runner is the subset of Worker.Run the pool depends on, so tests can
// substitute a fake without standing up a real agent loop.
type Runner interface {
	Run(ctx context.Context, subtask session.Subtask) session.SubtaskResult
}

// Pool dispatches subtasks to workers, bounded by an adaptive max
// parallelism. Workers are allocated lazily: the pool never creates more
// than the current ceiling even when reused across batches.
type Pool struct {
	NewWorker  func() Runner
	Controller *Controller

	mu              sync.Mutex
	workers         []Runner
	roundRobinIndex int
}

// New builds a Pool whose workers share model/registry/config, wrapping
// the concrete worker.Worker. newWorker lets callers (and tests) supply
// a different Runner implementation.
func New(newWorker func() Runner, maxParallel int) *Pool {
	return &Pool{
		NewWorker:  newWorker,
		Controller: NewController(maxParallel),
	}
}

// ExecuteParallel runs each subtask in its own goroutine; a semaphore
// sized to the current parallelism ceiling bounds how many run at once,
// and the next one starts as soon as any finishes. Result[i] is nil only if subtasks[i]
// could not be run at all (never on a normal placeholder path, since
// worker.Run always returns a well-formed SubtaskResult).
func (p *Pool) ExecuteParallel(ctx context.Context, subtasks []session.Subtask) []*session.SubtaskResult {
	results := make([]*session.SubtaskResult, len(subtasks))
	if len(subtasks) == 0 {
		return results
	}

	maxParallel := p.Controller.MaxParallel()
	sem := semaphore.NewWeighted(int64(maxParallel))

	var wg sync.WaitGroup
	var outcomes sync.Map // index -> outcome{elapsed, failed}

	for i, st := range subtasks {
		i, st := i, st
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			w := p.acquireWorker()
			start := time.Now()
			res := w.Run(ctx, st)
			elapsed := time.Since(start)

			log.Info().
				Int("subtask", st.ID).
				Dur("elapsed", elapsed).
				Float64("confidence", res.Confidence).
				Msg("pool: subtask finished")

			results[i] = &res
			outcomes.Store(i, outcome{elapsed: elapsed, failed: res.Confidence <= 0.0})
		}()
	}
	wg.Wait()

	outcomes.Range(func(_, v interface{}) bool {
		o := v.(outcome)
		p.Controller.Record(o.elapsed, o.failed)
		return true
	})

	return results
}

type outcome struct {
	elapsed time.Duration
	failed  bool
}

// acquireWorker returns a worker from the pool's lazily-grown set,
// choosing round-robin among existing workers once the ceiling is
// reached, per spec.md §4.5.
func (p *Pool) acquireWorker() Runner {
	p.mu.Lock()
	defer p.mu.Unlock()

	ceiling := p.Controller.MaxParallel()
	if len(p.workers) < ceiling {
		w := p.NewWorker()
		p.workers = append(p.workers, w)
		return w
	}
	idx := p.roundRobinIndex
	p.roundRobinIndex = (p.roundRobinIndex + 1) % len(p.workers)
	return p.workers[idx]
}
