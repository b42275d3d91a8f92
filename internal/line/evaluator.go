package line

import "fmt"

// Evaluator computes station loads and the cycle time of an individual.
// CycleTime reuses an internal buffer and is not safe for concurrent use;
// concurrent callers go through CycleTimeWith with their own buffer.
type Evaluator struct {
	inst  *Instance
	loads []float64
}

func NewEvaluator(inst *Instance) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{inst: inst, loads: make([]float64, inst.Stations)}, nil
}

// StationLoads returns the raw summed processing time per station.
func (e *Evaluator) StationLoads(ind Individual) ([]float64, error) {
	if err := e.check(ind); err != nil {
		return nil, err
	}
	out := make([]float64, e.inst.Stations)
	for p, task := range ind.Tasks {
		out[ind.Stations[p]] += float64(e.inst.ProcTimes[task])
	}
	return out, nil
}

// AdjustedLoads applies the robot multiplier to StationLoads.
func (e *Evaluator) AdjustedLoads(ind Individual) ([]float64, error) {
	loads, err := e.StationLoads(ind)
	if err != nil {
		return nil, err
	}
	for s := range loads {
		loads[s] *= e.inst.Multiplier(s)
	}
	return loads, nil
}

// CycleTime is the largest adjusted station load.
func (e *Evaluator) CycleTime(ind Individual) (float64, error) {
	return e.CycleTimeWith(ind, e.loads)
}

// CycleTimeWith is CycleTime over a caller-owned buffer of Stations entries.
func (e *Evaluator) CycleTimeWith(ind Individual, loads []float64) (float64, error) {
	if err := e.check(ind); err != nil {
		return 0, err
	}
	if len(loads) != e.inst.Stations {
		return 0, fmt.Errorf("load buffer length must be %d (got %d)", e.inst.Stations, len(loads))
	}
	for s := range loads {
		loads[s] = 0
	}
	for p, task := range ind.Tasks {
		loads[ind.Stations[p]] += float64(e.inst.ProcTimes[task])
	}
	best := 0.0
	for s, load := range loads {
		if v := load * e.inst.Multiplier(s); v > best {
			best = v
		}
	}
	return best, nil
}

func (e *Evaluator) Stations() int { return e.inst.Stations }

func (e *Evaluator) MustCycleTime(ind Individual) float64 {
	ct, err := e.CycleTime(ind)
	if err != nil {
		panic(err)
	}
	return ct
}

func (e *Evaluator) check(ind Individual) error {
	if e == nil || e.inst == nil {
		return fmt.Errorf("nil evaluator")
	}
	n := e.inst.Total()
	if len(ind.Tasks) != n || len(ind.Stations) != n {
		return fmt.Errorf("individual length must be %d (got %d/%d)", n, len(ind.Tasks), len(ind.Stations))
	}
	for p, s := range ind.Stations {
		if s < 0 || s >= e.inst.Stations {
			return fmt.Errorf("stations[%d]=%d out of range [0,%d)", p, s, e.inst.Stations)
		}
		if t := ind.Tasks[p]; t < 0 || t >= n {
			return fmt.Errorf("tasks[%d]=%d out of range [0,%d)", p, t, n)
		}
	}
	return nil
}
