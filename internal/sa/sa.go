package sa

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"palbp/internal/ga"
	"palbp/internal/line"
	"palbp/internal/metrics"
	"palbp/internal/opt"
)

const algoName = "SA"

// Solver - структура реализации алгоритма имитации отжига
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый SA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *line.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	eval, err := line.NewEvaluator(inst)
	if err != nil {
		return opt.Result{}, err
	}

	maxIter := s.Cfg.Iterations
	if maxIter <= 0 {
		maxIter = s.Cfg.IterationsPerTask * inst.Total()
	}

	// Начальное решение строится тем же способом, что и популяция GA
	_, boot := ga.SeedAssignment(inst, s.Rng)
	seeded, _ := ga.InitPopulation(inst, boot, 1, ga.DefaultConfig().InitRetries, s.Rng)
	curr := seeded[0]
	cand := curr.Clone()

	currCost := eval.MustCycleTime(curr)
	bestCost := currCost
	best := curr.Clone()

	evals := 1
	T := s.Cfg.InitialTemp

	iter := 0
	for ; iter < maxIter && T > s.Cfg.FinalTemp; iter++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			res := ga.ToOptResult(best, bestCost, evals, iter, map[string]any{
				"stopped": "context",
				"T":       T,
			})
			res.Duration = time.Since(start)
			metrics.SolverRuns.WithLabelValues(algoName, "cancelled").Inc()
			return res, err
		}

		cand.CopyFrom(curr)
		if !s.neighbor(inst, cand) {
			T *= s.Cfg.Alpha
			continue
		}

		candCost := eval.MustCycleTime(cand)
		evals++

		delta := candCost - currCost
		accept := false
		if delta <= 0 {
			// Улучшающее решение принимаем всегда
			accept = true
		} else {
			// Критерий Метрополиса:
			// допускает принятие ухудшающих решений
			p := math.Exp(-delta / T)
			if s.Rng.Float64() < p {
				accept = true
			}
		}

		if accept {
			// Обмен ролей текущего и кандидатного решений
			curr, cand = cand, curr
			currCost = candCost

			// Обновление глобально лучшего решения
			if currCost < bestCost {
				bestCost = currCost
				best.CopyFrom(curr)
			}
		}

		// Охлаждение температуры
		T *= s.Cfg.Alpha
	}
	metrics.SolverIterations.WithLabelValues(algoName).Add(float64(iter))

	res := ga.ToOptResult(best, bestCost, evals, iter, map[string]any{
		"initial_temp": s.Cfg.InitialTemp,
		"final_temp":   s.Cfg.FinalTemp,
		"alpha":        s.Cfg.Alpha,
		"neighborhood": string(s.Cfg.Neighborhood),
	})
	res.Duration = time.Since(start)
	metrics.SolverRuns.WithLabelValues(algoName, "ok").Inc()
	metrics.SolveDuration.WithLabelValues(algoName).Observe(res.Duration.Seconds())
	return res, nil
}

// neighbor изменяет ind на месте; false означает, что соседа не нашлось.
func (s *Solver) neighbor(inst *line.Instance, ind line.Individual) bool {
	nb := s.Cfg.Neighborhood
	if nb == NeighborhoodMixed {
		nb = NeighborhoodSwap
		if s.Rng.Intn(2) == 1 {
			nb = NeighborhoodStation
		}
	}
	switch nb {
	case NeighborhoodStation:
		return neighborStation(ind, inst.Stations, s.Rng)
	default:
		return ga.Mutate(inst, ind, s.Cfg.SwapRetries, s.Rng)
	}
}

// Переносит случайную позицию на другую станцию. Дорожка задач не
// меняется, поэтому предшествование сохраняется.
func neighborStation(ind line.Individual, stations int, rng *rand.Rand) bool {
	if stations < 2 || ind.Len() == 0 {
		return false
	}
	p := rng.Intn(ind.Len())
	st := rng.Intn(stations - 1)
	if st >= ind.Stations[p] {
		st++
	}
	ind.Stations[p] = st
	return true
}
