package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	Register()
	Register()

	SolverRuns.WithLabelValues("GA", "ok").Inc()
	BestCycleTime.WithLabelValues("set1", "GA").Set(42)

	path := filepath.Join(t.TempDir(), "palbp.prom")
	require.NoError(t, WriteTextfile(path))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "palbp_solver_runs_total")
	assert.Contains(t, string(body), `palbp_best_cycle_time{algo="GA",dataset="set1"} 42`)
}
