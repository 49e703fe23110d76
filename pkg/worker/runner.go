// Package worker implements the worker runtime: the parallel fan-out of
// a leased batch across local execution units and the outer
// lease/verify/report control loop.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/luchenqun/lucky-dog/internal/logger"
)

// progressEvery controls the advisory progress log emitted by each
// execution unit.
const progressEvery = 1000

// Result is the outcome of running a batch.
type Result struct {
	Found    bool
	Password string
	Tried    int
}

// Runner fans a batch of candidates out over Workers execution units.
// Units are strictly CPU-bound: they perform no I/O and share only an
// atomic found flag, checked between trials so peers stop starting new
// trials as soon as a match is published.
type Runner struct {
	// Workers is the number of execution units. Values below 1 are
	// treated as 1.
	Workers int

	// Verify runs a single candidate trial.
	Verify func(pwd string) bool
}

// Run partitions pwds into contiguous chunks of ceil(n/W) and verifies
// them in parallel, returning early on a match. The context cancels
// between trials; an in-flight trial always finishes.
func (r *Runner) Run(ctx context.Context, pwds []string) Result {
	if len(pwds) == 0 {
		return Result{}
	}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(pwds) {
		workers = len(pwds)
	}
	chunk := (len(pwds) + workers - 1) / workers

	var (
		found    atomic.Bool
		foundPwd atomic.Value
		tried    atomic.Int64
		wg       sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		start := i * chunk
		end := start + chunk
		if end > len(pwds) {
			end = len(pwds)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(unit int, chunk []string) {
			defer wg.Done()
			for n, pwd := range chunk {
				if found.Load() || ctx.Err() != nil {
					return
				}
				if r.Verify(pwd) {
					// Publish once; peers observe the flag between trials.
					if found.CompareAndSwap(false, true) {
						foundPwd.Store(pwd)
					}
					tried.Add(int64(n + 1))
					return
				}
				if (n+1)%progressEvery == 0 {
					logger.Debug("Trial progress", "unit", unit, "tried", n+1, "of", len(chunk))
				}
			}
			tried.Add(int64(len(chunk)))
		}(i, pwds[start:end])
	}

	wg.Wait()

	result := Result{Tried: int(tried.Load())}
	if found.Load() {
		result.Found = true
		result.Password, _ = foundPwd.Load().(string)
	}
	return result
}
