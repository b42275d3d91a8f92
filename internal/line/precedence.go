package line

import (
	"math/rand"
	"sort"
)

// RespectsPrecedence reports whether every constraint whose tasks both
// appear in segment is ordered Before-then-After. Constraints naming a task
// absent from the segment are ignored.
func RespectsPrecedence(segment []int, cons []Precedence) bool {
	if len(cons) == 0 {
		return true
	}
	pos := make(map[int]int, len(segment))
	for i, task := range segment {
		pos[task] = i
	}
	for _, c := range cons {
		a, okA := pos[c.Before]
		b, okB := pos[c.After]
		if okA && okB && a > b {
			return false
		}
	}
	return true
}

// ValidSegment also requires segment to be a permutation of [start, end).
// Tail swaps in crossover can duplicate tasks across the cut, which plain
// RespectsPrecedence would not notice.
func ValidSegment(segment []int, start, end int, cons []Precedence) bool {
	if len(segment) != end-start {
		return false
	}
	seen := make([]bool, end-start)
	for _, task := range segment {
		if task < start || task >= end || seen[task-start] {
			return false
		}
		seen[task-start] = true
	}
	return RespectsPrecedence(segment, cons)
}

// Feasible checks both line segments of ind.
func (inst *Instance) Feasible(ind Individual) bool {
	if ind.Len() != inst.Total() || len(ind.Stations) != inst.Total() {
		return false
	}
	for l := 1; l <= 2; l++ {
		start, end := inst.Segment(l)
		if !ValidSegment(ind.Tasks[start:end], start, end, inst.Constraints(l)) {
			return false
		}
	}
	return true
}

// IsPositivelyZoned reports whether the pair, in either order, is a
// precedence constraint in cons.
func IsPositivelyZoned(a, b int, cons []Precedence) bool {
	for _, c := range cons {
		if (c.Before == a && c.After == b) || (c.Before == b && c.After == a) {
			return true
		}
	}
	return false
}

// ZoningIndex answers IsPositivelyZoned in O(1) for a fixed constraint set.
type ZoningIndex map[[2]int]struct{}

func NewZoningIndex(cons []Precedence) ZoningIndex {
	zi := make(ZoningIndex, len(cons))
	for _, c := range cons {
		zi[zoneKey(c.Before, c.After)] = struct{}{}
	}
	return zi
}

func (zi ZoningIndex) Positive(a, b int) bool {
	_, ok := zi[zoneKey(a, b)]
	return ok
}

func zoneKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// TopologicalOrder returns tasks ordered so that every constraint among them
// holds (Kahn's algorithm). With a nil rng the ready task with the smallest
// index goes first; otherwise a random ready task is taken. Tasks caught in a
// cycle are appended in index order.
func TopologicalOrder(tasks []int, cons []Precedence, rng *rand.Rand) []int {
	in := make(map[int]bool, len(tasks))
	for _, t := range tasks {
		in[t] = true
	}
	indeg := make(map[int]int, len(tasks))
	succ := make(map[int][]int, len(tasks))
	dup := make(map[Precedence]bool, len(cons))
	for _, c := range cons {
		if !in[c.Before] || !in[c.After] || c.Before == c.After || dup[c] {
			continue
		}
		dup[c] = true
		succ[c.Before] = append(succ[c.Before], c.After)
		indeg[c.After]++
	}

	var ready []int
	for _, t := range tasks {
		if indeg[t] == 0 {
			ready = append(ready, t)
		}
	}
	out := make([]int, 0, len(tasks))
	placed := make(map[int]bool, len(tasks))
	for len(ready) > 0 {
		sort.Ints(ready)
		k := 0
		if rng != nil {
			k = rng.Intn(len(ready))
		}
		t := ready[k]
		ready = append(ready[:k], ready[k+1:]...)
		out = append(out, t)
		placed[t] = true
		for _, s := range succ[t] {
			indeg[s]--
			if indeg[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	if len(out) < len(tasks) {
		rest := make([]int, 0, len(tasks)-len(out))
		for _, t := range tasks {
			if !placed[t] {
				rest = append(rest, t)
			}
		}
		sort.Ints(rest)
		out = append(out, rest...)
	}
	return out
}
