package coordinator

import (
	"context"
	"time"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/store"
)

// DefaultSweepInterval is how often the background sweeper runs.
const DefaultSweepInterval = time.Hour

// Sweeper periodically returns over-age CHECKING rows to UNCHECKED so
// batches leased to crashed or partitioned workers re-enter the pool.
// Failures are logged and swallowed; the next tick retries.
type Sweeper struct {
	coord    *Coordinator
	interval time.Duration
}

// NewSweeper creates a sweeper over the coordinator's store. A
// non-positive interval falls back to DefaultSweepInterval.
func NewSweeper(coord *Coordinator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{coord: coord, interval: interval}
}

// Run blocks until the context is cancelled, sweeping once per tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logger.Info("Sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// Sweep reclaims stale leases once. Also invoked directly by the
// reset-timeout endpoint so operators can force a pass.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	reclaimed, err := s.coord.Store.ReclaimStale(ctx, store.StaleAge)
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		s.coord.Metrics.ReclaimedTotal.Add(float64(reclaimed))
		s.coord.Stats.Invalidate()
	}
	return reclaimed, nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	reclaimed, err := s.Sweep(ctx)
	if err != nil {
		logger.Error("Sweeper pass failed", "error", err)
		return
	}
	if reclaimed > 0 {
		logger.Info("Sweeper reclaimed stale leases", "count", reclaimed)
	} else {
		logger.Debug("Sweeper pass found no stale leases")
	}
}
