package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palbp/internal/ga"
	"palbp/internal/sa"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "balance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ga.DefaultConfig(), cfg.GAConfig())
	assert.Equal(t, sa.DefaultConfig(), cfg.SAConfig())
	assert.Equal(t, []bool{false, true, true}, cfg.Robots)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeYAML(t, `
robots: [true, false]
log_level: debug
data:
  dir: ./data
  out: results
bench:
  runs: 5
  per_run_timeout: 2s
  algos: [GA, SA]
ga:
  population: 20
  generations: 80
`)
	t.Setenv("PALBP_GA_GENERATIONS", "120")
	t.Setenv("PALBP_BENCH_PARALLEL", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false}, cfg.Robots)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "./data", cfg.Data.Dir)
	assert.Equal(t, "results", cfg.Data.Out)
	assert.Equal(t, 5, cfg.Bench.Runs)
	assert.Equal(t, 2*time.Second, cfg.Bench.PerRunTimeout)
	assert.Equal(t, []string{"GA", "SA"}, cfg.Bench.Algos)
	assert.Equal(t, 4, cfg.Bench.Parallel)
	assert.Equal(t, 20, cfg.GA.Population)
	assert.Equal(t, 120, cfg.GA.Generations)
	// Untouched fields keep their defaults.
	assert.Equal(t, ga.DefaultConfig().Elite, cfg.GA.Elite)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown algo":  "bench:\n  algos: [TS]\n",
		"no robots":     "robots: []\n",
		"bad level":     "log_level: loud\n",
		"elite too big": "ga:\n  population: 4\n  elite: 4\n",
		"bad sa":        "sa:\n  alpha: 1.5\n",
		"zero runs":     "bench:\n  runs: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeYAML(t, "robots: {"))
	assert.Error(t, err)
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("PALBP_BENCH_RUNS", "many")
	_, err := Load("")
	assert.Error(t, err)
}
