package ga

import (
	"palbp/internal/line"
	"palbp/internal/opt"
)

func ToOptResult(best line.Individual, cycleTime float64, evals, gens int, meta map[string]any) opt.Result {
	c := best.Clone()
	return opt.Result{
		Best:        c,
		Assignment:  c.Assignment(),
		CycleTime:   cycleTime,
		Evaluations: evals,
		Iterations:  gens,
		Meta:        meta,
	}
}
