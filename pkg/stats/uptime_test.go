package stats

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestLoadStartupTime(t *testing.T) {
	t.Run("missing file records the current time", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "startup-time.txt")

		before := time.Now()
		got, err := LoadStartupTime(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if got.Before(before.Add(-time.Second)) || got.After(time.Now().Add(time.Second)) {
			t.Errorf("expected startup time near now, got %v", got)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read artifact: %v", err)
		}
		millis, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
		if err != nil {
			t.Fatalf("artifact is not a millisecond timestamp: %q", data)
		}
		if millis != got.UnixMilli() {
			t.Errorf("artifact %d does not match returned time %d", millis, got.UnixMilli())
		}
	})

	t.Run("existing file wins over current time", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "startup-time.txt")
		persisted := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		line := strconv.FormatInt(persisted.UnixMilli(), 10) + "\n"
		if err := os.WriteFile(path, []byte(line), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}

		got, err := LoadStartupTime(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if !got.Equal(persisted) {
			t.Errorf("expected %v, got %v", persisted, got)
		}
	})

	t.Run("garbage content is rewritten", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "startup-time.txt")
		if err := os.WriteFile(path, []byte("not-a-number\n"), 0644); err != nil {
			t.Fatalf("failed to write artifact: %v", err)
		}

		got, err := LoadStartupTime(path)
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if time.Since(got) > time.Minute {
			t.Errorf("expected a fresh startup time, got %v", got)
		}

		reread, err := LoadStartupTime(path)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if !reread.Equal(got) {
			t.Errorf("expected rewritten artifact to persist, got %v vs %v", reread, got)
		}
	})
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0d 0h 0m 0s"},
		{-5 * time.Second, "0d 0h 0m 0s"},
		{42 * time.Second, "0d 0h 0m 42s"},
		{3*time.Minute + 4*time.Second, "0d 0h 3m 4s"},
		{26*time.Hour + 3*time.Minute + 4*time.Second, "1d 2h 3m 4s"},
		{73 * time.Hour, "3d 1h 0m 0s"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.d); got != tt.want {
			t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
