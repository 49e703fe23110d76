// Package coordinator wires the candidate store, terminal latch, stats
// cache, liveness registry and sweeper into the single shared state the
// API handlers operate on.
package coordinator

import (
	"time"

	"github.com/luchenqun/lucky-dog/pkg/found"
	"github.com/luchenqun/lucky-dog/pkg/metrics"
	"github.com/luchenqun/lucky-dog/pkg/stats"
	"github.com/luchenqun/lucky-dog/pkg/store"
	"github.com/luchenqun/lucky-dog/pkg/wallet"
)

// DefaultSampleName is the database file name on which destructive
// resets are permitted.
const DefaultSampleName = "lucky-sample.db"

// Coordinator bundles the coordinator-side shared state. Each field has
// its own internal synchronization; the bundle itself is immutable
// after construction.
type Coordinator struct {
	Store    *store.Store
	Latch    *found.Latch
	Stats    *stats.Cache
	Liveness *stats.Liveness
	Metrics  *metrics.Metrics
	Wallet   *wallet.Descriptor

	// Token is the shared API secret. Empty means mutating endpoints
	// are rejected outright (fail-closed).
	Token string

	// SampleName guards ResetAllowed.
	SampleName string

	// StartupTime is the persisted first-startup time used for uptime
	// reporting.
	StartupTime time.Time
}

// New assembles a coordinator over an opened store and latch.
func New(st *store.Store, latch *found.Latch, wd *wallet.Descriptor, token, sampleName string, startup time.Time) *Coordinator {
	if sampleName == "" {
		sampleName = DefaultSampleName
	}
	return &Coordinator{
		Store:       st,
		Latch:       latch,
		Stats:       stats.NewCache(st),
		Liveness:    stats.NewLiveness(),
		Metrics:     metrics.New(),
		Wallet:      wd,
		Token:       token,
		SampleName:  sampleName,
		StartupTime: startup,
	}
}

// ResetAllowed reports whether destructive resets are permitted: only
// when the active database file name equals the designated sample name.
func (c *Coordinator) ResetAllowed() bool {
	return c.Store.Name() == c.SampleName
}

// Uptime returns the duration since the persisted startup time.
func (c *Coordinator) Uptime() time.Duration {
	return time.Since(c.StartupTime)
}
