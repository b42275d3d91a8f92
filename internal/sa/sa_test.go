package sa

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"palbp/internal/ga"
	"palbp/internal/line"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Neighborhood = "insert"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.FinalTemp = cfg.InitialTemp
	assert.Error(t, cfg.Validate())
}

func TestSolve_FeasibleAndNoWorseThanStart(t *testing.T) {
	inst := line.RandomInstance(9, 8, 3, 0.2, rand.New(rand.NewSource(1)))

	for _, nb := range []Neighborhood{NeighborhoodSwap, NeighborhoodStation, NeighborhoodMixed} {
		t.Run(string(nb), func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Neighborhood = nb
			cfg.Iterations = 2000

			s, err := New(cfg, rand.New(rand.NewSource(5)))
			require.NoError(t, err)
			res, err := s.Solve(context.Background(), inst)
			require.NoError(t, err)
			assert.True(t, inst.Feasible(res.Best))

			// Same seed, same starting point as the solver.
			rng := rand.New(rand.NewSource(5))
			_, boot := ga.SeedAssignment(inst, rng)
			pop, _ := ga.InitPopulation(inst, boot, 1, ga.DefaultConfig().InitRetries, rng)
			eval, err := line.NewEvaluator(inst)
			require.NoError(t, err)
			assert.LessOrEqual(t, res.CycleTime, eval.MustCycleTime(pop[0]))
			assert.Equal(t, eval.MustCycleTime(res.Best), res.CycleTime)
		})
	}
}

func TestNeighborStation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	ind := line.Individual{Tasks: []int{0, 1, 2}, Stations: []int{0, 1, 2}}
	before := ind.Clone()

	require.True(t, neighborStation(ind, 3, rng))
	diff := 0
	for p := range ind.Stations {
		if ind.Stations[p] != before.Stations[p] {
			diff++
		}
		assert.True(t, ind.Stations[p] >= 0 && ind.Stations[p] < 3)
	}
	assert.Equal(t, 1, diff)
	assert.Equal(t, before.Tasks, ind.Tasks)

	assert.False(t, neighborStation(ind, 1, rng))
}
