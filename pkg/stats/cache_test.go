package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/luchenqun/lucky-dog/pkg/models"
	"github.com/luchenqun/lucky-dog/pkg/store"
)

// fakeCounter returns a canned count and tracks how often it was asked.
type fakeCounter struct {
	counts store.StatusCounts
	err    error
	calls  int
}

func (f *fakeCounter) CountByStatus(ctx context.Context) (*store.StatusCounts, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	counts := f.counts
	return &counts, nil
}

func TestTTLFor(t *testing.T) {
	tests := []struct {
		total int64
		want  time.Duration
	}{
		{total: 0, want: 0},
		{total: 10_000, want: 0},
		{total: 10_001, want: 0}, // under a million rows still rounds to zero
		{total: 2_500_000, want: 2 * time.Minute},
		{total: 60_000_000, want: 60 * time.Minute},
		{total: 120_000_000, want: 60 * time.Minute},
	}
	for _, tt := range tests {
		if got := ttlFor(tt.total); got != tt.want {
			t.Errorf("ttlFor(%d) = %v, want %v", tt.total, got, tt.want)
		}
	}
}

func TestCacheGet(t *testing.T) {
	ctx := context.Background()

	t.Run("computes snapshot with progress", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{
			Total: 200, Uncheck: 100, Checking: 50, Checked: 50,
		}}
		cache := NewCache(counter)

		snap, err := cache.Get(ctx)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if snap.Total != 200 {
			t.Errorf("expected total 200, got %d", snap.Total)
		}
		if snap.Progress != "25.00" {
			t.Errorf("expected progress 25.00, got %q", snap.Progress)
		}
	})

	t.Run("small stores are recomputed every read", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{Total: 500}}
		cache := NewCache(counter)

		for i := 0; i < 3; i++ {
			if _, err := cache.Get(ctx); err != nil {
				t.Fatalf("get failed: %v", err)
			}
		}
		if counter.calls != 3 {
			t.Errorf("expected 3 recomputations, got %d", counter.calls)
		}
	})

	t.Run("large stores serve the memoized snapshot", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{Total: 5_000_000}}
		cache := NewCache(counter)
		base := time.Now()
		cache.now = func() time.Time { return base }

		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if counter.calls != 1 {
			t.Errorf("expected 1 recomputation within TTL, got %d", counter.calls)
		}

		// 5M rows memoize for 5 minutes; step past it.
		cache.now = func() time.Time { return base.Add(6 * time.Minute) }
		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if counter.calls != 2 {
			t.Errorf("expected recomputation after TTL, got %d calls", counter.calls)
		}
	})

	t.Run("update in flight without snapshot reports updating", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{Total: 1}}
		cache := NewCache(counter)
		cache.updating = true

		_, err := cache.Get(ctx)
		if !errors.Is(err, models.ErrStatsUpdating) {
			t.Errorf("expected ErrStatsUpdating, got %v", err)
		}
	})

	t.Run("update in flight serves the stale snapshot", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{Total: 5_000_000}}
		cache := NewCache(counter)
		base := time.Now()
		cache.now = func() time.Time { return base }

		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}

		cache.now = func() time.Time { return base.Add(time.Hour) }
		cache.updating = true
		snap, err := cache.Get(ctx)
		if err != nil {
			t.Fatalf("expected stale snapshot, got error: %v", err)
		}
		if snap.Total != 5_000_000 {
			t.Errorf("expected stale snapshot total, got %d", snap.Total)
		}
		if counter.calls != 1 {
			t.Errorf("expected no recomputation while updating, got %d calls", counter.calls)
		}
	})

	t.Run("counter errors propagate and clear the flag", func(t *testing.T) {
		counter := &fakeCounter{err: errors.New("disk gone")}
		cache := NewCache(counter)

		if _, err := cache.Get(ctx); err == nil {
			t.Fatal("expected error")
		}
		if cache.updating {
			t.Error("expected updating flag to be cleared after failure")
		}
	})

	t.Run("invalidate forces recomputation", func(t *testing.T) {
		counter := &fakeCounter{counts: store.StatusCounts{Total: 5_000_000}}
		cache := NewCache(counter)

		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		cache.Invalidate()
		if _, err := cache.Get(ctx); err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if counter.calls != 2 {
			t.Errorf("expected recomputation after invalidate, got %d calls", counter.calls)
		}
	})
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name   string
		counts store.StatusCounts
		want   string
	}{
		{"empty store", store.StatusCounts{}, "0.00"},
		{"nothing checked", store.StatusCounts{Total: 100}, "0.00"},
		{"third checked", store.StatusCounts{Total: 3, Checked: 1}, "33.33"},
		{"all checked", store.StatusCounts{Total: 42, Checked: 42}, "100.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := progress(&tt.counts); got != tt.want {
				t.Errorf("progress = %q, want %q", got, tt.want)
			}
		})
	}
}
