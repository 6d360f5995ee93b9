package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnykmshr/taskpool/internal/testutil"
	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
	"github.com/vnykmshr/taskpool/pkg/scheduling/workerpool"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	return path
}

func TestLoadFileYAML(t *testing.T) {
	path := writeFile(t, "pool.yaml", `
pool:
  name: ingest
  workers: 8
  task_timeout: 30s
  log_level: debug
  rate_limit:
    per_second: 100
    burst: 10
  metrics:
    enabled: true
    namespace: ingest
`)

	cfg, err := LoadFile(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Pool.Name, "ingest")
	testutil.AssertEqual(t, cfg.Pool.Workers, 8)
	testutil.AssertEqual(t, cfg.Pool.RateLimit.PerSecond, 100.0)
	testutil.AssertEqual(t, cfg.Pool.RateLimit.Burst, 10)
	testutil.AssertEqual(t, cfg.Pool.Metrics.Enabled, true)

	logs := testutil.NewMockWriter()
	pc, err := cfg.ToPoolConfig(logs)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pc.WorkerCount, 8)
	testutil.AssertEqual(t, pc.Name, "ingest")
	testutil.AssertEqual(t, pc.TaskTimeout, 30*time.Second)
	testutil.AssertEqual(t, pc.Metrics.Enabled, true)
	testutil.AssertEqual(t, pc.Metrics.Namespace, "ingest")
	if pc.RateLimiter == nil {
		t.Error("expected a rate limiter")
	}
	if pc.Logger == nil {
		t.Error("expected a logger")
	}
}

func TestLoadFileJSON(t *testing.T) {
	path := writeFile(t, "pool.json", `{
  "pool": {
    "name": "json-pool",
    "workers": 2
  }
}`)

	cfg, err := LoadFile(path)
	testutil.AssertNoError(t, err)

	pc, err := cfg.ToPoolConfig(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pc.WorkerCount, 2)
	testutil.AssertEqual(t, pc.Name, "json-pool")
	testutil.AssertEqual(t, pc.TaskTimeout, time.Duration(0))
	testutil.AssertEqual(t, pc.Metrics.Enabled, false)
	if pc.RateLimiter != nil || pc.Logger != nil {
		t.Error("unset sections must stay unset")
	}

	pool, err := workerpool.NewWithConfig(pc)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pool.Size(), 2)
	testutil.AssertNoError(t, pool.Shutdown(workerpool.Graceful))
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte("pool: {}\n"), FormatYAML)
	testutil.AssertNoError(t, err)

	pc, err := cfg.ToPoolConfig(nil)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, pc.WorkerCount, DefaultWorkers)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	testutil.AssertError(t, err)

	_, err = LoadFile(writeFile(t, "pool.toml", "workers = 1"))
	testutil.AssertError(t, err)

	_, err = LoadFile(writeFile(t, "bad.yaml", "pool: [unclosed"))
	testutil.AssertError(t, err)

	_, err = LoadFile(writeFile(t, "bad.json", "{"))
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		pool PoolConfig
	}{
		{"negative workers", PoolConfig{Workers: -1}},
		{"negative rate", PoolConfig{RateLimit: RateLimitConfig{PerSecond: -1}}},
		{"negative burst", PoolConfig{RateLimit: RateLimitConfig{Burst: -1}}},
		{"bad timeout", PoolConfig{TaskTimeout: "soon"}},
		{"negative timeout", PoolConfig{TaskTimeout: "-1s"}},
		{"bad level", PoolConfig{LogLevel: "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &FileConfig{Pool: tt.pool}
			testutil.AssertErrorIs(t, cfg.Validate(), tperrors.ErrInvalidConfiguration)
			_, err := cfg.ToPoolConfig(nil)
			testutil.AssertErrorIs(t, err, tperrors.ErrInvalidConfiguration)
		})
	}
}
