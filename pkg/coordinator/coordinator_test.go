package coordinator

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/luchenqun/lucky-dog/pkg/found"
	"github.com/luchenqun/lucky-dog/pkg/models"
	"github.com/luchenqun/lucky-dog/pkg/store"
)

func createCoordinator(t *testing.T, dbName string, seed int) *Coordinator {
	t.Helper()

	dir := t.TempDir()
	st, err := store.New(&store.Config{Path: filepath.Join(dir, dbName)})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if seed > 0 {
		pwds := make([]string, seed)
		for i := range pwds {
			pwds[i] = fmt.Sprintf("seed-%04d", i)
		}
		if _, err := st.Insert(context.Background(), pwds); err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}

	latch, err := found.Open(filepath.Join(dir, "password-found.txt"))
	if err != nil {
		t.Fatalf("failed to open latch: %v", err)
	}

	return New(st, latch, nil, "tok", DefaultSampleName, time.Now())
}

func TestResetAllowed(t *testing.T) {
	t.Run("production store refuses resets", func(t *testing.T) {
		coord := createCoordinator(t, "lucky.db", 0)
		if coord.ResetAllowed() {
			t.Error("expected resets to be refused for lucky.db")
		}
	})

	t.Run("sample store permits resets", func(t *testing.T) {
		coord := createCoordinator(t, DefaultSampleName, 0)
		if !coord.ResetAllowed() {
			t.Error("expected resets to be permitted for the sample store")
		}
	})
}

func TestUptime(t *testing.T) {
	coord := createCoordinator(t, "lucky.db", 0)
	coord.StartupTime = time.Now().Add(-time.Minute)

	if up := coord.Uptime(); up < time.Minute || up > 2*time.Minute {
		t.Errorf("expected roughly one minute of uptime, got %v", up)
	}
}

func TestSweep(t *testing.T) {
	coord := createCoordinator(t, "lucky.db", 10)
	sweeper := NewSweeper(coord, time.Hour)
	ctx := context.Background()

	batch, err := coord.Store.ReserveBatch(ctx, 4)
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}
	if len(batch) != 4 {
		t.Fatalf("expected 4 leased rows, got %d", len(batch))
	}

	t.Run("fresh leases are untouched", func(t *testing.T) {
		reclaimed, err := sweeper.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if reclaimed != 0 {
			t.Errorf("expected 0 reclaimed, got %d", reclaimed)
		}
	})

	t.Run("stale leases are reclaimed", func(t *testing.T) {
		// Backdate the leases past the reclamation cutoff.
		stale := time.Now().Add(-2 * store.StaleAge).Unix()
		if err := coord.Store.DB().Model(&models.Record{}).
			Where("status = ?", models.StatusChecking).
			Update("updated_at", stale).Error; err != nil {
			t.Fatalf("failed to backdate leases: %v", err)
		}

		reclaimed, err := sweeper.Sweep(ctx)
		if err != nil {
			t.Fatalf("sweep failed: %v", err)
		}
		if reclaimed != 4 {
			t.Errorf("expected 4 reclaimed, got %d", reclaimed)
		}

		counts, err := coord.Store.CountByStatus(ctx)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if counts.Uncheck != 10 {
			t.Errorf("expected 10 unchecked after sweep, got %d", counts.Uncheck)
		}
	})
}

func TestNewSweeperDefaults(t *testing.T) {
	coord := createCoordinator(t, "lucky.db", 0)
	s := NewSweeper(coord, 0)
	if s.interval != DefaultSweepInterval {
		t.Errorf("expected default interval, got %v", s.interval)
	}
}
