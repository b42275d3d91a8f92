package ga

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"palbp/internal/line"
	"palbp/internal/metrics"
	"palbp/internal/opt"
)

const algoName = "GA"

// Solver - генетический алгоритм балансировки двух параллельных линий
// с ограничениями предшествования и зонирования.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый GA-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
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

// Run запускает GA с параметрами по умолчанию, заменив размер популяции и
// число поколений, и возвращает лучшую найденную особь.
func Run(ctx context.Context, inst *line.Instance, population, generations int, rng *rand.Rand) (line.Individual, error) {
	cfg := DefaultConfig()
	cfg.Population = population
	cfg.Generations = generations
	if cfg.Elite >= population {
		cfg.Elite = population - 1
	}
	s, err := New(cfg, rng)
	if err != nil {
		return line.Individual{}, err
	}
	res, err := s.Solve(ctx, inst)
	if err != nil {
		return line.Individual{}, err
	}
	return res.Best, nil
}

// Solve - реализация эвристики.
func (s *Solver) Solve(ctx context.Context, inst *line.Instance) (opt.Result, error) {
	start := time.Now()

	// Проверка корректности входных данных и конфигурации
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
	zi := line.NewZoningIndex(inst.AllConstraints())
	popSize := s.Cfg.Population
	stats := runStats{}

	// Начальная популяция из bootstrap-особи
	_, boot := SeedAssignment(inst, s.Rng)
	popA, fallbacks := InitPopulation(inst, boot, popSize, s.Cfg.InitRetries, s.Rng)
	stats.initFallbacks = fallbacks
	metrics.InitFallbacks.Add(float64(fallbacks))

	// Буфер следующего поколения
	popB := make([]line.Individual, popSize)
	for i := range popB {
		popB[i] = line.NewIndividual(inst.Total())
	}
	scratchChild := line.NewIndividual(inst.Total())
	scores := make([]float64, popSize)

	bestScore := 0.0
	best := line.NewIndividual(inst.Total())
	stale := 0
	progress := rate.Sometimes{Interval: time.Second}
	stopped := ""

	gen := 0
	for ; gen < s.Cfg.Generations; gen++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			if gen == 0 {
				s.score(eval, popA, scores)
				stats.evaluations += popSize
				bi := argmin(scores)
				bestScore = scores[bi]
				best.CopyFrom(popA[bi])
			}
			res := s.result(best, bestScore, stats, gen, map[string]any{"stopped": "context"})
			res.Duration = time.Since(start)
			metrics.SolverRuns.WithLabelValues(algoName, "cancelled").Inc()
			return res, err
		}

		// Оценка текущего поколения
		s.score(eval, popA, scores)
		stats.evaluations += popSize
		bi := argmin(scores)
		if gen == 0 || scores[bi] < bestScore {
			bestScore = scores[bi]
			best.CopyFrom(popA[bi])
			stale = 0
		} else {
			stale++
		}
		if s.Cfg.PlateauGenerations > 0 && stale >= s.Cfg.PlateauGenerations {
			stopped = "plateau"
			break
		}
		progress.Do(func() {
			slog.Debug("ga generation", slog.Int("gen", gen), slog.Float64("best", bestScore))
		})

		// Турнирный отбор
		selected := TournamentSelection(scores, s.Cfg.TournamentSize, s.Rng)

		// Кроссовер по парам (i, i+1); непарный последний родитель
		// скрещивается с первым отобранным
		for i := 0; i < popSize; i += 2 {
			p1 := popA[selected[i]]
			p2 := popA[selected[0]]
			child2 := scratchChild
			if i+1 < popSize {
				p2 = popA[selected[i+1]]
				child2 = popB[i+1]
			}
			child1 := popB[i]

			if s.Rng.Float64() < s.Cfg.CrossoverRate {
				fb1, fb2 := Crossover(inst, p1, p2, child1, child2, s.Rng)
				stats.crossoverChildren += 2
				stats.crossoverFallbacks += btoi(fb1) + btoi(fb2)
			} else {
				child1.CopyFrom(p1)
				child2.CopyFrom(p2)
			}
		}

		// Мутация
		for i := range popB {
			if s.Rng.Float64() < s.Cfg.MutationRate {
				if !Mutate(inst, popB[i], s.Cfg.MutationRetries, s.Rng) {
					stats.mutationNoops++
				}
			}
		}

		// Восстановление зонирования
		stats.zoningSwaps += RepairZoning(inst, zi, popB, s.Cfg.ZoningPasses)

		// Элитизм: лучшие особи предыдущего поколения занимают первые места
		for e, src := range SelectElite(scores, s.Cfg.Elite) {
			popB[e].CopyFrom(popA[src])
		}

		// Смена поколений
		popA, popB = popB, popA
		metrics.SolverIterations.WithLabelValues(algoName).Inc()
	}

	// Финальная оценка: лучшая особь последней популяции
	s.score(eval, popA, scores)
	stats.evaluations += popSize
	bi := argmin(scores)
	best.CopyFrom(popA[bi])
	bestScore = scores[bi]

	meta := map[string]any{
		"population":  s.Cfg.Population,
		"generations": s.Cfg.Generations,
		"elite":       s.Cfg.Elite,
	}
	if stopped != "" {
		meta["stopped"] = stopped
	}
	res := s.result(best, bestScore, stats, gen, meta)
	res.Duration = time.Since(start)

	metrics.CrossoverFallbacks.Add(float64(stats.crossoverFallbacks))
	metrics.MutationNoops.Add(float64(stats.mutationNoops))
	metrics.ZoningSwaps.Add(float64(stats.zoningSwaps))
	metrics.SolverRuns.WithLabelValues(algoName, "ok").Inc()
	metrics.SolveDuration.WithLabelValues(algoName).Observe(res.Duration.Seconds())
	return res, nil
}

// score заполняет scores значениями времени цикла. При Workers > 1
// популяция делится на куски, каждый кусок оценивается в своей горутине
// со своим буфером нагрузок.
func (s *Solver) score(eval *line.Evaluator, pop []line.Individual, scores []float64) {
	workers := s.Cfg.Workers
	if workers <= 1 {
		for i := range pop {
			scores[i] = eval.MustCycleTime(pop[i])
		}
		return
	}

	stations := eval.Stations()
	chunk := (len(pop) + workers - 1) / workers
	p := pool.New().WithMaxGoroutines(workers)
	for lo := 0; lo < len(pop); lo += chunk {
		lo := lo
		hi := min(lo+chunk, len(pop))
		p.Go(func() {
			buf := make([]float64, stations)
			for i := lo; i < hi; i++ {
				ct, err := eval.CycleTimeWith(pop[i], buf)
				if err != nil {
					panic(err)
				}
				scores[i] = ct
			}
		})
	}
	p.Wait()
}

func (s *Solver) result(best line.Individual, bestScore float64, st runStats, gens int, meta map[string]any) opt.Result {
	meta["init_fallbacks"] = st.initFallbacks
	meta["crossover_children"] = st.crossoverChildren
	meta["crossover_fallbacks"] = st.crossoverFallbacks
	meta["mutation_noops"] = st.mutationNoops
	meta["zoning_swaps"] = st.zoningSwaps
	return ToOptResult(best, bestScore, st.evaluations, gens, meta)
}

type runStats struct {
	evaluations        int
	initFallbacks      int
	crossoverChildren  int
	crossoverFallbacks int
	mutationNoops      int
	zoningSwaps        int
}

// argmin возвращает индекс первого минимума.
func argmin(v []float64) int {
	bi := 0
	for i := 1; i < len(v); i++ {
		if v[i] < v[bi] {
			bi = i
		}
	}
	return bi
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
