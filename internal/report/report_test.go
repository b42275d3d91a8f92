package report

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palbp/internal/line"
	"palbp/internal/opt"
)

// Line 1: tasks 0,1 with 0->1. Line 2: tasks 2,3 with 2->3.
func sampleInstance(t *testing.T) *line.Instance {
	t.Helper()
	inst, err := line.NewInstance([]int{3, 5, 4, 2}, 2, 2, []bool{false, true},
		[]line.Precedence{{Before: 0, After: 1}},
		[]line.Precedence{{Before: 2, After: 3}})
	require.NoError(t, err)
	return inst
}

func TestZoning(t *testing.T) {
	inst := sampleInstance(t)
	ind := line.Individual{Tasks: []int{0, 1, 2, 3}, Stations: []int{0, 0, 1, 1}}

	z := Zoning(inst, ind)
	assert.Equal(t, 6, z.Pairs)
	assert.Equal(t, 2, z.Positive)
	assert.Equal(t, 4, z.Negative)
	assert.InDelta(t, 100.0/3, z.PositivePct, 1e-9)
	assert.InDelta(t, 200.0/3, z.NegativePct, 1e-9)
}

func TestTimeline(t *testing.T) {
	inst := sampleInstance(t)
	ind := line.Individual{Tasks: []int{0, 1, 2, 3}, Stations: []int{0, 1, 1, 0}}

	assert.Equal(t, []Step{
		{Task: 1, Line: 1, Start: 0, Duration: 3, Station: 0},
		{Task: 2, Line: 1, Start: 3, Duration: 5, Station: 1},
		{Task: 3, Line: 2, Start: 0, Duration: 4, Station: 1},
		{Task: 4, Line: 2, Start: 4, Duration: 2, Station: 0},
	}, Timeline(inst, ind))
}

func TestValidate(t *testing.T) {
	inst := sampleInstance(t)

	ok := Validate(inst, line.Individual{Tasks: []int{0, 1, 2, 3}, Stations: []int{0, 0, 0, 0}})
	require.Len(t, ok, 2)
	assert.True(t, ok[0].Valid)
	assert.True(t, ok[1].Valid)

	bad := Validate(inst, line.Individual{Tasks: []int{0, 1, 3, 2}, Stations: []int{0, 0, 0, 0}})
	assert.True(t, bad[0].Valid)
	assert.False(t, bad[1].Valid)
	assert.Equal(t, &line.Precedence{Before: 3, After: 4}, bad[1].Violation)
}

func TestSummarize(t *testing.T) {
	inst := sampleInstance(t)
	ind := line.Individual{Tasks: []int{0, 1, 2, 3}, Stations: []int{0, 1, 0, 1}}
	res := opt.Result{Best: ind, CycleTime: 7}

	s, err := Summarize("set1", "GA", inst, res)
	require.NoError(t, err)
	assert.Equal(t, "set1", s.Dataset)
	assert.Equal(t, 7.0, s.CycleTime)
	assert.True(t, s.Valid)
	require.Len(t, s.Loads, 2)
	assert.Equal(t, Timeline(inst, ind), s.Steps)
	assert.InDelta(t, 7.0, s.Loads[0], 1e-9)
	assert.InDelta(t, 0.7*7, s.Loads[1], 1e-9)

	_, err = Summarize("set1", "GA", inst, opt.Result{Best: line.NewIndividual(1)})
	assert.Error(t, err)
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	inst := line.RandomInstance(4, 3, 3, 0.3, rng)
	ind := line.NewIndividual(inst.Total())
	for p := range ind.Tasks {
		ind.Tasks[p] = p
		ind.Stations[p] = p % inst.Stations
	}

	var sums []Summary
	for _, name := range []string{"a", "nested/b"} {
		s, err := Summarize(name, "GA", inst, opt.Result{Best: ind, CycleTime: 1})
		require.NoError(t, err)
		sums = append(sums, s)
	}

	require.NoError(t, WriteCharts(dir, sums))
	assert.Equal(t, "gantt_nested_b_GA.png", GanttChart(sums[1]))
	for _, f := range []string{CycleTimeChart, ZoningChart, LoadsChart, GanttChart(sums[0]), GanttChart(sums[1])} {
		st, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, f)
		assert.Greater(t, st.Size(), int64(0))
	}

	require.NoError(t, WriteSummaryCSV(filepath.Join(dir, "out", "summary.csv"), sums))
	require.NoError(t, WriteTimelineCSV(filepath.Join(dir, "timeline.csv"), Timeline(inst, ind)))

	assert.NoError(t, WriteCharts(filepath.Join(dir, "none"), nil))
}

func TestWriteCSV_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	// The target is an existing directory, so it cannot be created as a file.
	assert.Error(t, WriteSummaryCSV(dir, nil))

	path := filepath.Join(dir, "summary.csv")
	require.NoError(t, WriteSummaryCSV(path, []Summary{{Dataset: "a", Algorithm: "GA", CycleTime: 2}}))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dataset,algo,cycle_time,positive_pct,negative_pct,valid\na,GA,2.000,0.00,0.00,false\n", string(body))
}
