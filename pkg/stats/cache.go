// Package stats maintains the aggregate progress snapshot, the worker
// liveness registry and the persisted startup time.
//
// Counting a hundred-million-row table on every dashboard poll would
// starve the store, so the snapshot is memoized with a TTL that scales
// with the table's cardinality.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/luchenqun/lucky-dog/pkg/models"
	"github.com/luchenqun/lucky-dog/pkg/store"
)

// Counter is the slice of the store the cache needs.
type Counter interface {
	CountByStatus(ctx context.Context) (*store.StatusCounts, error)
}

// Snapshot is a memoized aggregate over the candidate store.
type Snapshot struct {
	store.StatusCounts
	Progress  string `json:"progress"`
	UpdatedAt int64  `json:"updated_at"`
}

// Cache memoizes CountByStatus results. At most one recomputation is in
// flight at a time; a concurrent reader gets the previous snapshot if
// one exists, otherwise models.ErrStatsUpdating. It never queues.
type Cache struct {
	counter Counter

	mu        sync.Mutex
	snapshot  *Snapshot
	fetchedAt time.Time
	updating  bool

	now func() time.Time
}

// NewCache creates a cache over the given counter.
func NewCache(counter Counter) *Cache {
	return &Cache{
		counter: counter,
		now:     time.Now,
	}
}

// ttlFor returns the snapshot TTL for a store holding total rows:
// small stores are always recomputed, large stores are cached for one
// minute per million rows, capped at an hour.
func ttlFor(total int64) time.Duration {
	if total <= 10_000 {
		return 0
	}
	minutes := total / 1_000_000
	if minutes > 60 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// Get returns the current snapshot, recomputing it when the TTL has
// expired. The returned snapshot must not be mutated by the caller.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.snapshot != nil && c.now().Sub(c.fetchedAt) < ttlFor(c.snapshot.Total) {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	if c.updating {
		// Another reader is recomputing; serve stale rather than pile up.
		snap := c.snapshot
		c.mu.Unlock()
		if snap != nil {
			return snap, nil
		}
		return nil, models.ErrStatsUpdating
	}
	c.updating = true
	c.mu.Unlock()

	counts, err := c.counter.CountByStatus(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.updating = false
	if err != nil {
		return nil, err
	}

	c.snapshot = &Snapshot{
		StatusCounts: *counts,
		Progress:     progress(counts),
		UpdatedAt:    c.now().Unix(),
	}
	c.fetchedAt = c.now()
	return c.snapshot, nil
}

// Invalidate drops the memoized snapshot so the next read recomputes.
// Called after destructive operations like a sample-store reset.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

// progress formats checked/total as a percentage with two decimals.
func progress(counts *store.StatusCounts) string {
	if counts.Total == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", float64(counts.Checked)/float64(counts.Total)*100)
}
