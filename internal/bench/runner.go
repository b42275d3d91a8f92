package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"palbp/internal/line"
	"palbp/internal/metrics"
	"palbp/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) (opt.Optimizer, error)
}

// Case is one instance to benchmark, loaded from disk or generated.
type Case struct {
	Name string
	Inst *line.Instance
}

// SyntheticCase generates a reproducible random instance. Sizes that
// cannot form an instance are rejected with line.ErrDegenerate.
func SyntheticCase(line1, line2, stations int, density float64, seed int64) (Case, error) {
	if line1 <= 0 || line2 < 0 || stations <= 0 {
		return Case{}, fmt.Errorf("%w: synthetic sizes must be line1 > 0, line2 >= 0, stations > 0 (got %d, %d, %d)",
			line.ErrDegenerate, line1, line2, stations)
	}
	if density < 0 || density > 1 {
		return Case{}, fmt.Errorf("synthetic density must lie in [0,1] (got %f)", density)
	}
	inst := line.RandomInstance(line1, line2, stations, density, rand.New(rand.NewSource(seed)))
	return Case{Name: fmt.Sprintf("%dx%dx%d", line1, line2, stations), Inst: inst}, nil
}

type Record struct {
	RunID    string
	Dataset  string
	Algo     string
	Tasks    int
	Stations int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	CycleBest float64
	CycleMean float64
	CycleStd  float64

	// CrossoverFallbackRate is the share of crossover children replaced
	// by a parent copy over all runs; 0 for solvers without crossover.
	CrossoverFallbackRate float64

	// Best is the result of the run with the lowest cycle time.
	Best opt.Result
}

type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
	// Parallel bounds how many (case, algorithm) pairs RunAll runs at once.
	Parallel int
}

func (r Runner) RunDataset(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	if r.Runs <= 0 {
		return Record{}, fmt.Errorf("runs must be > 0 (got %d)", r.Runs)
	}
	if err := c.Inst.Validate(); err != nil {
		return Record{}, fmt.Errorf("%s: %w", c.Name, err)
	}

	cycles := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	var best opt.Result
	var children, fallbacks int

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op, err := algo.Factory(runSeed)
		if err != nil {
			return Record{}, fmt.Errorf("%s/%s: build solver: %w", c.Name, algo.Name, err)
		}

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, c.Inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("%s/%s run %d: cancelled/timeout: %w", c.Name, algo.Name, i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("%s/%s run %d: solve error: %w", c.Name, algo.Name, i, err)
		}
		if res.Best.Len() != c.Inst.Total() {
			return Record{}, fmt.Errorf("%s/%s run %d: invalid individual length %d (want %d)",
				c.Name, algo.Name, i, res.Best.Len(), c.Inst.Total())
		}
		if !c.Inst.Feasible(res.Best) {
			return Record{}, fmt.Errorf("%s/%s run %d: result violates precedence", c.Name, algo.Name, i)
		}

		if i == 0 || res.CycleTime < best.CycleTime {
			best = res
		}
		children += metaInt(res.Meta, "crossover_children")
		fallbacks += metaInt(res.Meta, "crossover_fallbacks")
		cycles = append(cycles, res.CycleTime)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
	}

	cStats := CalcStats(cycles)
	tStats := CalcStats(timesMs)
	metrics.BestCycleTime.WithLabelValues(c.Name, algo.Name).Set(cStats.Best)
	rate := 0.0
	if children > 0 {
		rate = float64(fallbacks) / float64(children)
	}

	return Record{
		RunID:    uuid.NewString(),
		Dataset:  c.Name,
		Algo:     algo.Name,
		Tasks:    c.Inst.Total(),
		Stations: c.Inst.Stations,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		CycleBest: cStats.Best,
		CycleMean: cStats.Mean,
		CycleStd:  cStats.Std,

		CrossoverFallbackRate: rate,

		Best: best,
	}, nil
}

// RunAll benchmarks every algorithm on every case. Records keep the
// case-major, algorithm-minor order regardless of scheduling.
func (r Runner) RunAll(ctx context.Context, cases []Case, algos []Algorithm) ([]Record, error) {
	records := make([]Record, len(cases)*len(algos))

	g, gctx := errgroup.WithContext(ctx)
	if r.Parallel > 0 {
		g.SetLimit(r.Parallel)
	} else {
		g.SetLimit(1)
	}
	for ci, c := range cases {
		for ai, a := range algos {
			c, a := c, a
			idx := ci*len(algos) + ai
			g.Go(func() error {
				slog.Info("benchmark started",
					slog.String("dataset", c.Name), slog.String("algo", a.Name),
					slog.Int("tasks", c.Inst.Total()), slog.Int("runs", r.Runs))
				rec, err := r.RunDataset(gctx, c, a)
				if err != nil {
					return err
				}
				slog.Info("benchmark finished",
					slog.String("dataset", c.Name), slog.String("algo", a.Name),
					slog.Float64("cycle_best", rec.CycleBest),
					slog.Float64("cycle_mean", rec.CycleMean),
					slog.Float64("cycle_std", rec.CycleStd),
					slog.Float64("time_mean_ms", rec.TimeMeanMs),
					slog.Float64("crossover_fallback_rate", rec.CrossoverFallbackRate))
				records[idx] = rec
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func WriteCSV(path string, records []Record) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeRecords(out io.Writer, records []Record) error {
	w := csv.NewWriter(out)

	header := []string{
		"run_id", "dataset", "algo", "tasks", "stations", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"cycle_best", "cycle_mean", "cycle_std",
		"crossover_fallback_rate",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.RunID,
			r.Dataset,
			r.Algo,
			strconv.Itoa(r.Tasks),
			strconv.Itoa(r.Stations),
			strconv.Itoa(r.Runs),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.CycleBest),
			ftoa(r.CycleMean),
			ftoa(r.CycleStd),

			ftoa(r.CrossoverFallbackRate),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func metaInt(meta map[string]any, key string) int {
	v, _ := meta[key].(int)
	return v
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
