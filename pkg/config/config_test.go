package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("expected 0.0.0.0:8080, got %q", cfg.Server.Addr())
	}
	if cfg.Database.Name != "lucky.db" {
		t.Errorf("expected lucky.db, got %q", cfg.Database.Name)
	}
	if cfg.Database.SampleName != "lucky-sample.db" {
		t.Errorf("expected lucky-sample.db, got %q", cfg.Database.SampleName)
	}
	if cfg.Auth.Token != "" {
		t.Errorf("expected empty token, got %q", cfg.Auth.Token)
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("expected INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Worker.ServerURL != "http://127.0.0.1:8080" {
		t.Errorf("expected default server url, got %q", cfg.Worker.ServerURL)
	}
	if cfg.Worker.CPUUsageRatio != 1.0 {
		t.Errorf("expected ratio 1.0, got %v", cfg.Worker.CPUUsageRatio)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9090
database:
  dir: /var/lib/lucky
  name: big.db
auth:
  token: file-secret
worker:
  server_url: http://coordinator:9090
  max_workers: 4
  cpu_usage_ratio: 0.5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("expected 127.0.0.1:9090, got %q", cfg.Server.Addr())
	}
	if cfg.Database.Path() != "/var/lib/lucky/big.db" {
		t.Errorf("expected /var/lib/lucky/big.db, got %q", cfg.Database.Path())
	}
	if cfg.Database.MarkerPath() != "/var/lib/lucky/password-found.txt" {
		t.Errorf("unexpected marker path %q", cfg.Database.MarkerPath())
	}
	if cfg.Auth.Token != "file-secret" {
		t.Errorf("expected file-secret, got %q", cfg.Auth.Token)
	}
	if cfg.Worker.MaxWorkers != 4 {
		t.Errorf("expected 4 max workers, got %d", cfg.Worker.MaxWorkers)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_NAME", "env.db")
	t.Setenv("API_TOKEN", "env-secret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SERVER_URL", "http://env-host:9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
	if cfg.Database.Name != "env.db" {
		t.Errorf("expected env.db, got %q", cfg.Database.Name)
	}
	if cfg.Auth.Token != "env-secret" {
		t.Errorf("expected env-secret, got %q", cfg.Auth.Token)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("expected DEBUG, got %q", cfg.Logging.Level)
	}
	if cfg.Worker.ServerURL != "http://env-host:9999" {
		t.Errorf("expected env server url, got %q", cfg.Worker.ServerURL)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  token: file-secret\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("API_TOKEN", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Auth.Token != "env-secret" {
		t.Errorf("expected env to win, got %q", cfg.Auth.Token)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"port out of range", "server:\n  port: 70000\n"},
		{"bad log level", "logging:\n  level: LOUD\n"},
		{"bad worker url", "worker:\n  server_url: not-a-url\n"},
		{"ratio above one", "worker:\n  cpu_usage_ratio: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	t.Run("missing file fails", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestWorkerParallelism(t *testing.T) {
	t.Run("cap applies", func(t *testing.T) {
		c := WorkerConfig{MaxWorkers: 1, CPUUsageRatio: 1.0}
		if got := c.Parallelism(); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})

	t.Run("at least one unit", func(t *testing.T) {
		c := WorkerConfig{MaxWorkers: 0, CPUUsageRatio: 0.000001}
		if got := c.Parallelism(); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})

	t.Run("uncapped follows the ratio", func(t *testing.T) {
		c := WorkerConfig{MaxWorkers: 0, CPUUsageRatio: 1.0}
		if got := c.Parallelism(); got < 1 {
			t.Errorf("expected at least 1, got %d", got)
		}
	})
}

func TestSample(t *testing.T) {
	data, err := Sample()
	if err != nil {
		t.Fatalf("sample failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write sample: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Errorf("sample config must load cleanly: %v", err)
	}
}
