package line

import (
	"errors"
	"fmt"
	"math/rand"
)

// RobotFactor scales the load of a robot-assisted station.
const RobotFactor = 0.7

// ErrDegenerate marks an instance the optimizer cannot run on.
var ErrDegenerate = errors.New("degenerate instance")

// Precedence requires Before to occupy an earlier position than After
// within their shared line. Both are 0-based global task indexes.
type Precedence struct {
	Before int
	After  int
}

type Instance struct {
	// ProcTimes is indexed by task; tasks [0, Line1) belong to line 1,
	// the rest to line 2.
	ProcTimes []int
	Line1     int
	Line2     int
	Stations  int
	// Robots length must be Stations.
	Robots []bool

	Prec1 []Precedence
	Prec2 []Precedence
}

func NewInstance(procTimes []int, line1, line2 int, robots []bool, prec1, prec2 []Precedence) (*Instance, error) {
	inst := &Instance{
		ProcTimes: procTimes,
		Line1:     line1,
		Line2:     line2,
		Stations:  len(robots),
		Robots:    robots,
		Prec1:     prec1,
		Prec2:     prec2,
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

func (inst *Instance) Validate() error {
	if inst == nil {
		return fmt.Errorf("%w: instance is nil", ErrDegenerate)
	}
	if len(inst.ProcTimes) == 0 {
		return fmt.Errorf("%w: no tasks", ErrDegenerate)
	}
	if inst.Stations <= 0 {
		return fmt.Errorf("%w: stations must be > 0 (got %d)", ErrDegenerate, inst.Stations)
	}
	if inst.Line1 <= 0 || inst.Line2 < 0 {
		return fmt.Errorf("%w: line sizes must be line1 > 0, line2 >= 0 (got %d, %d)", ErrDegenerate, inst.Line1, inst.Line2)
	}
	if inst.Line1+inst.Line2 != len(inst.ProcTimes) {
		return fmt.Errorf("%w: line1+line2=%d does not match %d processing times",
			ErrDegenerate, inst.Line1+inst.Line2, len(inst.ProcTimes))
	}
	if len(inst.Robots) != inst.Stations {
		return fmt.Errorf("%w: robots length must be %d (got %d)", ErrDegenerate, inst.Stations, len(inst.Robots))
	}
	for i, v := range inst.ProcTimes {
		if v <= 0 {
			return fmt.Errorf("%w: procTimes[%d] must be > 0 (got %d)", ErrDegenerate, i, v)
		}
	}
	return nil
}

// Total is the number of tasks over both lines.
func (inst *Instance) Total() int { return inst.Line1 + inst.Line2 }

// Segment returns the half-open position range of line l (1 or 2).
func (inst *Instance) Segment(l int) (start, end int) {
	if l == 1 {
		return 0, inst.Line1
	}
	return inst.Line1, inst.Total()
}

func (inst *Instance) LineOf(task int) int {
	if task < inst.Line1 {
		return 1
	}
	return 2
}

func (inst *Instance) Constraints(l int) []Precedence {
	if l == 1 {
		return inst.Prec1
	}
	return inst.Prec2
}

// AllConstraints is the union used by the zoning relation.
func (inst *Instance) AllConstraints() []Precedence {
	out := make([]Precedence, 0, len(inst.Prec1)+len(inst.Prec2))
	out = append(out, inst.Prec1...)
	return append(out, inst.Prec2...)
}

func (inst *Instance) Multiplier(station int) float64 {
	if inst.Robots[station] {
		return RobotFactor
	}
	return 1.0
}

// RandomInstance builds a synthetic two-line instance: times in [1,99],
// each line gets a random precedence DAG where every edge goes from a lower
// to a higher task index with probability density, robots are drawn 50/50.
func RandomInstance(line1, line2, stations int, density float64, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("random source is nil")
	}
	total := line1 + line2
	pt := make([]int, total)
	for i := range pt {
		pt[i] = 1 + rng.Intn(99)
	}
	robots := make([]bool, stations)
	for i := range robots {
		robots[i] = rng.Intn(2) == 1
	}
	randomDAG := func(start, end int) []Precedence {
		var out []Precedence
		for a := start; a < end; a++ {
			for b := a + 1; b < end; b++ {
				if rng.Float64() < density {
					out = append(out, Precedence{Before: a, After: b})
				}
			}
		}
		return out
	}
	inst, err := NewInstance(pt, line1, line2, robots, randomDAG(0, line1), randomDAG(line1, total))
	if err != nil {
		panic(err)
	}
	return inst
}
