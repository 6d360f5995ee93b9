// Package config loads worker pool definitions from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/common/validation"
	"github.com/vnykmshr/taskpool/pkg/logging"
	"github.com/vnykmshr/taskpool/pkg/metrics"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

const moduleName = "config"

// FileConfig is the structure of a configuration file.
type FileConfig struct {
	Pool PoolConfig `yaml:"pool" json:"pool"`
}

// PoolConfig describes one worker pool.
type PoolConfig struct {
	Name        string `yaml:"name" json:"name"`
	Workers     int    `yaml:"workers" json:"workers"`
	TaskTimeout string `yaml:"task_timeout" json:"task_timeout"`
	LogLevel    string `yaml:"log_level" json:"log_level"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
}

// RateLimitConfig throttles task starts. A zero PerSecond disables it.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second" json:"per_second"`
	Burst     int     `yaml:"burst" json:"burst"`
}

// MetricsConfig enables Prometheus instrumentation on the default registerer.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// LoadFile reads a configuration file. The format is chosen by extension:
// .yaml, .yml or .json.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	case ".json":
		return Parse(data, FormatJSON)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

// Format is a configuration file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

// Parse decodes configuration data in the given format.
func Parse(data []byte, format Format) (*FileConfig, error) {
	var config FileConfig
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %d", format)
	}
	return &config, nil
}

// Validate checks the values that cannot be defaulted.
func (f *FileConfig) Validate() error {
	p := f.Pool

	if p.Workers < 0 {
		return tperrors.NewValidationError(moduleName, "pool.workers", p.Workers, "must be non-negative").
			WithHint("omit it or use 0 for the default")
	}
	if err := validation.ValidateNonNegative(moduleName, "pool.rate_limit.per_second", p.RateLimit.PerSecond); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(moduleName, "pool.rate_limit.burst", float64(p.RateLimit.Burst)); err != nil {
		return err
	}
	if p.TaskTimeout != "" {
		d, err := time.ParseDuration(p.TaskTimeout)
		if err != nil {
			return tperrors.NewValidationError(moduleName, "pool.task_timeout", p.TaskTimeout, err.Error())
		}
		if err := validation.ValidateNonNegativeDuration(moduleName, "pool.task_timeout", d); err != nil {
			return err
		}
	}
	if _, err := parseLevel(p.LogLevel); err != nil {
		return err
	}
	return nil
}

// DefaultWorkers is used when the file does not set pool.workers.
const DefaultWorkers = 4

// ToPoolConfig converts the file into a workerpool.Config. Log output, when
// log_level is set, is written to logOut.
func (f *FileConfig) ToPoolConfig(logOut io.Writer) (workerpool.Config, error) {
	if err := f.Validate(); err != nil {
		return workerpool.Config{}, err
	}
	p := f.Pool

	config := workerpool.Config{
		WorkerCount: DefaultWorkers,
		Name:        p.Name,
	}
	if p.Workers > 0 {
		config.WorkerCount = p.Workers
	}
	if p.TaskTimeout != "" {
		config.TaskTimeout, _ = time.ParseDuration(p.TaskTimeout)
	}
	if p.RateLimit.PerSecond > 0 {
		config.RateLimiter = workerpool.NewRateLimiter(p.RateLimit.PerSecond, p.RateLimit.Burst)
	}
	if p.Metrics.Enabled {
		config.Metrics = metrics.Config{Enabled: true, Namespace: p.Metrics.Namespace}
	}
	if p.LogLevel != "" && logOut != nil {
		level, _ := parseLevel(p.LogLevel)
		config.Logger = logging.NewTextLogger(logOut, level)
	}
	return config, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, tperrors.NewValidationError(moduleName, "pool.log_level", s, "unknown level").
			WithHint("use debug, info, warn or error")
	}
}
