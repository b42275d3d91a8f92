package opt

import (
	"context"
	"time"

	"palbp/internal/line"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *line.Instance) (Result, error)
}

type Result struct {
	Best line.Individual
	// Assignment is the station of every task, indexed by task.
	Assignment  []int
	CycleTime   float64
	Evaluations int
	Iterations  int
	Duration    time.Duration
	Meta        map[string]any
}
