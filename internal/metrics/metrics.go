package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for solver runs.
	Registry = prometheus.NewRegistry()

	// SolverRuns counts finished solves by algorithm and outcome.
	SolverRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "palbp_solver_runs_total", Help: "Solver runs by algorithm and status."},
		[]string{"algo", "status"},
	)
	// SolverIterations counts generations (GA) or iterations (SA).
	SolverIterations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "palbp_solver_iterations_total", Help: "Solver generations or iterations."},
		[]string{"algo"},
	)
	// BestCycleTime is the best cycle time reported per dataset and algorithm.
	BestCycleTime = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "palbp_best_cycle_time", Help: "Best cycle time found."},
		[]string{"dataset", "algo"},
	)
	// SolveDuration records solve wall time in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "palbp_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"algo"},
	)

	InitFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "palbp_init_fallbacks_total", Help: "Line segments seeded by topological order after exhausting shuffles."},
	)
	CrossoverFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "palbp_crossover_fallbacks_total", Help: "Offspring replaced by a parent copy."},
	)
	MutationNoops = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "palbp_mutation_noops_total", Help: "Mutations that found no feasible swap."},
	)
	ZoningSwaps = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "palbp_zoning_swaps_total", Help: "Station swaps made by zoning repair."},
	)
)

var regOnce sync.Once

// Register adds all collectors to Registry.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(SolverRuns)
		Registry.MustRegister(SolverIterations)
		Registry.MustRegister(BestCycleTime)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(InitFallbacks)
		Registry.MustRegister(CrossoverFallbacks)
		Registry.MustRegister(MutationNoops)
		Registry.MustRegister(ZoningSwaps)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// WriteTextfile dumps Registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	Register()
	return prometheus.WriteToTextfile(path, Registry)
}
