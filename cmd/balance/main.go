package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"palbp/internal/bench"
	"palbp/internal/config"
	"palbp/internal/dataset"
	"palbp/internal/ga"
	"palbp/internal/line"
	"palbp/internal/metrics"
	"palbp/internal/opt"
	"palbp/internal/report"
	"palbp/internal/sa"
)

// Фабрики

func newGAFactory(cfg ga.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return ga.New(cfg, rand.New(rand.NewSource(seed)))
	}
}

func newSAFactory(cfg sa.Config) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		return sa.New(cfg, rand.New(rand.NewSource(seed)))
	}
}

// errConfig marks failures that exit with code 2.
var errConfig = errors.New("configuration error")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		if errors.Is(err, errConfig) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run() error {
	// CLI флаги поверх YAML-конфигурации и переменных окружения PALBP_*
	var (
		cfgPath  = flag.String("config", "", "путь к YAML-конфигурации (необязательно)")
		archive  = flag.String("archive", "", "zip-архив с наборами данных")
		dataDir  = flag.String("data", "", "каталог с наборами данных (папки с z1.txt, z2.txt)")
		out      = flag.String("out", "", "каталог для результатов")
		algos    = flag.String("algos", "", "список алгоритмов: GA, SA (через запятую)")
		runs     = flag.Int("runs", 0, "количество запусков каждого алгоритма (с разными сидами)")
		baseSeed = flag.Int64("seed", 0, "базовый сид для запусков алгоритмов")
		perRunTO = flag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 - без ограничения")
		parallel = flag.Int("parallel", 0, "количество одновременно обрабатываемых пар набор/алгоритм")
		robots   = flag.String("robots", "", "флаги роботов по станциям, например 0,1,1")
		synth    = flag.String("synthetic", "", "синтетические экземпляры line1xline2 (через запятую), если нет данных")
		charts   = flag.Bool("charts", true, "строить PNG-графики")
		metricsF = flag.String("metrics", "", "путь к textfile с метриками Prometheus")
		logLevel = flag.String("log_level", "", "уровень логирования: debug | info | warn | error")

		// --- Генетический алгоритм ---
		gaPop     = flag.Int("ga_pop", 0, "размер популяции")
		gaGen     = flag.Int("ga_gen", 0, "количество поколений")
		gaElite   = flag.Int("ga_elite", 0, "размер элиты (количество лучших особей)")
		gaTour    = flag.Int("ga_tour", 0, "размер турнирной выборки")
		gaCx      = flag.Float64("ga_cx", 0, "вероятность применения кроссовера")
		gaMut     = flag.Float64("ga_mut", 0, "вероятность мутации")
		gaZone    = flag.Int("ga_zoning_passes", 0, "максимум проходов зонирования (0 - отключено)")
		gaPlateau = flag.Int("ga_plateau", 0, "остановка после N поколений без улучшения (0 - отключено)")
		gaWorkers = flag.Int("ga_workers", 0, "количество горутин для оценки популяции")

		// --- Алгоритм имитации отжига ---
		saIterPerTask = flag.Int("sa_iter_per_task", 0, "количество итераций на одну задачу (используется, если sa_iter == 0)")
		saIter        = flag.Int("sa_iter", 0, "общее количество итераций")
		saT0          = flag.Float64("sa_t0", 0, "начальная температура")
		saTmin        = flag.Float64("sa_tmin", 0, "конечная температура")
		saAlpha       = flag.Float64("sa_alpha", 0, "коэффициент охлаждения (alpha)")
		saNeigh       = flag.String("sa_neigh", "", "тип окрестности: swap | station | mixed")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	// Явно заданные флаги имеют приоритет
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "archive":
			cfg.Data.Archive = *archive
		case "data":
			cfg.Data.Dir = *dataDir
		case "out":
			cfg.Data.Out = *out
		case "algos":
			cfg.Bench.Algos = splitCSV(*algos)
		case "runs":
			cfg.Bench.Runs = *runs
		case "seed":
			cfg.Bench.Seed = *baseSeed
		case "per_run_timeout":
			cfg.Bench.PerRunTimeout = *perRunTO
		case "parallel":
			cfg.Bench.Parallel = *parallel
		case "robots":
			r, err := parseRobots(*robots)
			if err != nil {
				flagErr = err
			}
			cfg.Robots = r
		case "synthetic":
			cfg.Bench.Synthetic = splitCSV(*synth)
		case "charts":
			cfg.Data.Charts = *charts
		case "metrics":
			cfg.Data.Metrics = *metricsF
		case "log_level":
			cfg.LogLevel = *logLevel
		case "ga_pop":
			cfg.GA.Population = *gaPop
		case "ga_gen":
			cfg.GA.Generations = *gaGen
		case "ga_elite":
			cfg.GA.Elite = *gaElite
		case "ga_tour":
			cfg.GA.TournamentSize = *gaTour
		case "ga_cx":
			cfg.GA.CrossoverRate = *gaCx
		case "ga_mut":
			cfg.GA.MutationRate = *gaMut
		case "ga_zoning_passes":
			cfg.GA.ZoningPasses = *gaZone
		case "ga_plateau":
			cfg.GA.PlateauGenerations = *gaPlateau
		case "ga_workers":
			cfg.GA.Workers = *gaWorkers
		case "sa_iter_per_task":
			cfg.SA.IterationsPerTask = *saIterPerTask
		case "sa_iter":
			cfg.SA.Iterations = *saIter
		case "sa_t0":
			cfg.SA.InitialTemp = *saT0
		case "sa_tmin":
			cfg.SA.FinalTemp = *saTmin
		case "sa_alpha":
			cfg.SA.Alpha = *saAlpha
		case "sa_neigh":
			cfg.SA.Neighborhood = *saNeigh
		}
	})
	if flagErr != nil {
		return fmt.Errorf("%w: %w", errConfig, flagErr)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errConfig, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))
	metrics.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cases, err := loadCases(ctx, cfg)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return fmt.Errorf("%w: no datasets found", errConfig)
	}

	available := map[string]bench.Algorithm{
		"GA": {Name: "GA", Factory: newGAFactory(cfg.GAConfig())},
		"SA": {Name: "SA", Factory: newSAFactory(cfg.SAConfig())},
	}
	var selected []bench.Algorithm
	for _, a := range cfg.Bench.Algos {
		al, ok := available[a]
		if !ok {
			return fmt.Errorf("%w: unknown algorithm %q; available: %v", errConfig, a, keys(available))
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{
		Runs:          cfg.Bench.Runs,
		BaseSeed:      cfg.Bench.Seed,
		PerRunTimeout: cfg.Bench.PerRunTimeout,
		Parallel:      cfg.Bench.Parallel,
	}

	start := time.Now()
	records, err := runner.RunAll(ctx, cases, selected)
	if err != nil {
		return err
	}

	byName := make(map[string]*line.Instance, len(cases))
	for _, c := range cases {
		byName[c.Name] = c.Inst
	}

	summaries := make([]report.Summary, 0, len(records))
	for _, rec := range records {
		inst := byName[rec.Dataset]
		s, err := report.Summarize(rec.Dataset, rec.Algo, inst, rec.Best)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)

		for _, v := range report.Validate(inst, rec.Best.Best) {
			if !v.Valid {
				slog.Warn("precedence violated",
					slog.String("dataset", rec.Dataset), slog.String("algo", rec.Algo),
					slog.Int("line", v.Line), slog.Any("pair", *v.Violation))
			}
		}
		slog.Info("best solution",
			slog.String("dataset", rec.Dataset),
			slog.String("algo", rec.Algo),
			slog.Float64("cycle_time", s.CycleTime),
			slog.Float64("positive_zoning_pct", s.Zoning.PositivePct),
			slog.Float64("negative_zoning_pct", s.Zoning.NegativePct),
			slog.Any("assignment", rec.Best.Assignment))

		tl := filepath.Join(cfg.Data.Out, rec.Dataset, rec.Algo+"_timeline.csv")
		if err := report.WriteTimelineCSV(tl, report.Timeline(inst, rec.Best.Best)); err != nil {
			return fmt.Errorf("write timeline: %w", err)
		}
	}

	resultsPath := filepath.Join(cfg.Data.Out, "results.csv")
	if err := bench.WriteCSV(resultsPath, records); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	summaryPath := filepath.Join(cfg.Data.Out, "summary.csv")
	if err := report.WriteSummaryCSV(summaryPath, summaries); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	if cfg.Data.Charts {
		if err := report.WriteCharts(filepath.Join(cfg.Data.Out, "charts"), summaries); err != nil {
			return fmt.Errorf("write charts: %w", err)
		}
	}
	if cfg.Data.Metrics != "" {
		if err := metrics.WriteTextfile(cfg.Data.Metrics); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	slog.Info("done",
		slog.Int("datasets", len(cases)),
		slog.Int("records", len(records)),
		slog.String("out", cfg.Data.Out),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func loadCases(ctx context.Context, cfg *config.Config) ([]bench.Case, error) {
	dir := cfg.Data.Dir
	if cfg.Data.Archive != "" {
		if dir == "" {
			dir = filepath.Join(cfg.Data.Out, "data")
		}
		if err := dataset.ExtractZip(ctx, cfg.Data.Archive, dir); err != nil {
			return nil, err
		}
	}

	if dir == "" {
		return syntheticCases(cfg)
	}

	found, err := dataset.Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", dir, err)
	}
	cases := make([]bench.Case, 0, len(found))
	for _, ds := range found {
		inst, err := dataset.Load(ds.Dir, cfg.Robots)
		if err != nil {
			slog.Warn("skipping dataset", slog.String("dir", ds.Dir), slog.Any("error", err))
			continue
		}
		cases = append(cases, bench.Case{Name: ds.Name, Inst: inst})
	}
	return cases, nil
}

func syntheticCases(cfg *config.Config) ([]bench.Case, error) {
	specs := cfg.Bench.Synthetic
	if len(specs) == 0 {
		specs = []string{"9x8"}
	}
	cases := make([]bench.Case, 0, len(specs))
	for i, s := range specs {
		line1, line2, err := parsePair(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		seed := cfg.Bench.Seed + int64(i)*10_000 + int64(line1)*100 + int64(line2)
		c, err := bench.SyntheticCase(line1, line2, len(cfg.Robots), cfg.Bench.Density, seed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errConfig, err)
		}
		c.Inst.Robots = cfg.Robots
		cases = append(cases, c)
	}
	return cases, nil
}

// helpers

func parsePair(s string) (int, int, error) {
	ab := strings.Split(s, "x")
	if len(ab) != 2 {
		return 0, 0, fmt.Errorf("пара %q невалидной схемы, пример: 9x8", s)
	}
	a, err := strconv.Atoi(strings.TrimSpace(ab[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("пара %q: ошибка парсинга размера первой линии: %w", s, err)
	}
	b, err := strconv.Atoi(strings.TrimSpace(ab[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("пара %q: ошибка парсинга размера второй линии: %w", s, err)
	}
	if a <= 0 || b < 0 {
		return 0, 0, fmt.Errorf("пара %q: первая линия должна быть > 0, вторая >= 0", s)
	}
	return a, b, nil
}

func parseRobots(s string) ([]bool, error) {
	parts := splitCSV(s)
	out := make([]bool, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseBool(p)
		if err != nil {
			return nil, fmt.Errorf("robots: %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
