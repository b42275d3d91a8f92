package ga

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palbp/internal/line"
)

func testInstance(seed int64) *line.Instance {
	return line.RandomInstance(9, 8, 3, 0.15, rand.New(rand.NewSource(seed)))
}

func solve(t *testing.T, cfg Config, inst *line.Instance, seed int64) (float64, line.Individual) {
	t.Helper()
	s, err := New(cfg, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	return res.CycleTime, res.Best
}

func TestNew_RejectsBadInput(t *testing.T) {
	_, err := New(DefaultConfig(), nil)
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Elite = cfg.Population
	_, err = New(cfg, rand.New(rand.NewSource(1)))
	assert.Error(t, err)

	s, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, err = s.Solve(context.Background(), &line.Instance{})
	assert.ErrorIs(t, err, line.ErrDegenerate)
}

func TestSolve_ResultIsFeasible(t *testing.T) {
	inst := testInstance(42)
	s, err := New(DefaultConfig(), rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)

	assert.True(t, inst.Feasible(res.Best))
	require.Len(t, res.Assignment, inst.Total())
	eval, err := line.NewEvaluator(inst)
	require.NoError(t, err)
	assert.Equal(t, eval.MustCycleTime(res.Best), res.CycleTime)
	assert.Equal(t, 50, res.Iterations)
	assert.Equal(t, 51*DefaultConfig().Population, res.Evaluations)
}

func TestSolve_ZeroGenerationsReturnsBestInitial(t *testing.T) {
	inst := testInstance(5)
	cfg := DefaultConfig()
	cfg.Generations = 0

	ct, best := solve(t, cfg, inst, 99)

	rng := rand.New(rand.NewSource(99))
	_, boot := SeedAssignment(inst, rng)
	pop, _ := InitPopulation(inst, boot, cfg.Population, cfg.InitRetries, rng)
	eval, err := line.NewEvaluator(inst)
	require.NoError(t, err)
	scores := make([]float64, len(pop))
	for i := range pop {
		scores[i] = eval.MustCycleTime(pop[i])
	}
	bi := argmin(scores)

	assert.Equal(t, scores[bi], ct)
	assert.Equal(t, pop[bi], best)
}

// The first g generations draw the same random numbers regardless of the
// generation budget, so growing the budget by one exposes the next
// generation's best.
func TestSolve_ElitismIsMonotonic(t *testing.T) {
	inst := testInstance(17)
	cfg := DefaultConfig()

	prev := -1.0
	for g := 0; g <= 20; g++ {
		cfg.Generations = g
		ct, best := solve(t, cfg, inst, 123)
		require.True(t, inst.Feasible(best))
		if prev >= 0 {
			assert.LessOrEqual(t, ct, prev, "generation %d", g)
		}
		prev = ct
	}
}

func TestSolve_Reproducible(t *testing.T) {
	inst := testInstance(3)
	a, bestA := solve(t, DefaultConfig(), inst, 7)
	b, bestB := solve(t, DefaultConfig(), inst, 7)
	assert.Equal(t, a, b)
	assert.Equal(t, bestA, bestB)
}

func TestSolve_ParallelScoringMatchesSequential(t *testing.T) {
	inst := testInstance(8)
	cfg := DefaultConfig()
	seq, bestSeq := solve(t, cfg, inst, 11)

	cfg.Workers = 4
	par, bestPar := solve(t, cfg, inst, 11)

	assert.Equal(t, seq, par)
	assert.Equal(t, bestSeq, bestPar)
}

func TestSolve_OddPopulation(t *testing.T) {
	inst := testInstance(4)
	cfg := DefaultConfig()
	cfg.Population = 7
	cfg.Generations = 10

	s, err := New(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, inst.Feasible(res.Best))
	assert.Equal(t, 11*7, res.Evaluations)
}

func TestSolve_Plateau(t *testing.T) {
	inst := testInstance(6)
	cfg := DefaultConfig()
	cfg.Generations = 10_000
	cfg.PlateauGenerations = 5

	s, err := New(cfg, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, "plateau", res.Meta["stopped"])
	assert.Less(t, res.Iterations, cfg.Generations)
}

func TestSolve_Cancelled(t *testing.T) {
	inst := testInstance(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(DefaultConfig(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	res, err := s.Solve(ctx, inst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "context", res.Meta["stopped"])
	assert.True(t, inst.Feasible(res.Best))
}

func TestRun(t *testing.T) {
	inst := testInstance(10)
	best, err := Run(context.Background(), inst, 6, 15, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.True(t, inst.Feasible(best))

	best, err = Run(context.Background(), inst, 2, 3, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	assert.True(t, inst.Feasible(best))
}
