// Package config loads coordinator and worker configuration from a
// YAML file plus environment variables: viper for sourcing,
// mapstructure for decoding, validator for checking.
//
// Sources in order of precedence:
//  1. Environment variables (PORT, HOST, DB_NAME, API_TOKEN, LOG_LEVEL,
//     SERVER_URL, MAX_WORKERS, CPU_USAGE_RATIO)
//  2. Configuration file (YAML)
//  3. Default values
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config is the combined coordinator and worker configuration. The two
// binaries read disjoint sections plus the shared Logging block.
type Config struct {
	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server is the coordinator bind configuration.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Database selects the candidate store file. The file name also
	// decides whether destructive resets are allowed (sample store).
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Auth holds the shared API secret. An empty token disables all
	// mutating endpoints (fail-closed).
	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`

	// Wallet points at the encrypted wallet descriptor file.
	Wallet WalletConfig `mapstructure:"wallet" yaml:"wallet"`

	// Worker configures the luckyworker binary.
	Worker WorkerConfig `mapstructure:"worker" yaml:"worker"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  validate:"omitempty,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=text json"                                   yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// ServerConfig is the coordinator HTTP bind configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" validate:"gte=1,lte=65535" yaml:"port"`
}

// Addr returns the host:port bind address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig selects the candidate store file and the companion
// artifacts that live beside it.
type DatabaseConfig struct {
	// Dir is the data directory holding the store file, the found
	// marker and the startup-time artifact.
	Dir string `mapstructure:"dir" yaml:"dir"`

	// Name is the store file name. Resets are permitted only when it
	// equals SampleName.
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// SampleName designates the store on which destructive resets are
	// allowed.
	SampleName string `mapstructure:"sample_name" validate:"required" yaml:"sample_name"`
}

// Path returns the full path of the store file.
func (c DatabaseConfig) Path() string {
	return filepath.Join(c.Dir, c.Name)
}

// MarkerPath returns the full path of the found marker artifact.
func (c DatabaseConfig) MarkerPath() string {
	return filepath.Join(c.Dir, "password-found.txt")
}

// StartupTimePath returns the full path of the startup-time artifact.
func (c DatabaseConfig) StartupTimePath() string {
	return filepath.Join(c.Dir, "startup-time.txt")
}

// AuthConfig holds the shared API secret.
type AuthConfig struct {
	Token string `mapstructure:"token" yaml:"token"`
}

// WalletConfig points at the wallet descriptor file.
type WalletConfig struct {
	Path string `mapstructure:"path" validate:"required" yaml:"path"`
}

// WorkerConfig configures the worker binary.
type WorkerConfig struct {
	// ServerURL is the coordinator base URL.
	ServerURL string `mapstructure:"server_url" validate:"required,url" yaml:"server_url"`

	// MaxWorkers caps local parallelism. Zero means no cap.
	MaxWorkers int `mapstructure:"max_workers" validate:"gte=0" yaml:"max_workers"`

	// CPUUsageRatio scales runtime.NumCPU before the MaxWorkers cap.
	CPUUsageRatio float64 `mapstructure:"cpu_usage_ratio" validate:"gt=0,lte=1" yaml:"cpu_usage_ratio"`

	// ClientID is the stable self-assigned worker identity. Empty
	// means derive one from the hostname at startup.
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
}

// Parallelism returns the number of local execution units:
// min(ceil(NumCPU*ratio), MaxWorkers), at least 1.
func (c WorkerConfig) Parallelism() int {
	n := int(float64(runtime.NumCPU()) * c.CPUUsageRatio)
	if n < 1 {
		n = 1
	}
	if c.MaxWorkers > 0 && n > c.MaxWorkers {
		n = c.MaxWorkers
	}
	return n
}

// setDefaults registers the default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "INFO")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.dir", ".")
	v.SetDefault("database.name", "lucky.db")
	v.SetDefault("database.sample_name", "lucky-sample.db")

	v.SetDefault("auth.token", "")

	v.SetDefault("wallet.path", "wallet.json")

	v.SetDefault("worker.server_url", "http://127.0.0.1:8080")
	v.SetDefault("worker.max_workers", 0)
	v.SetDefault("worker.cpu_usage_ratio", 1.0)
	v.SetDefault("worker.client_id", "")
}

// bindEnv binds the enumerated environment variables. These are flat
// names, not prefixed, so existing deployments keep working.
func bindEnv(v *viper.Viper) {
	envs := map[string]string{
		"server.port":            "PORT",
		"server.host":            "HOST",
		"database.name":          "DB_NAME",
		"auth.token":             "API_TOKEN",
		"logging.level":          "LOG_LEVEL",
		"worker.server_url":      "SERVER_URL",
		"worker.max_workers":     "MAX_WORKERS",
		"worker.cpu_usage_ratio": "CPU_USAGE_RATIO",
	}
	for key, env := range envs {
		_ = v.BindEnv(key, env)
	}
}

// Load reads configuration from the optional file at path (empty means
// no file; env vars and defaults only), applies environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
		}
	}

	var cfg Config
	decoderOpt := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, decoderOpt); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
