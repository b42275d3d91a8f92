package line

// Individual is one candidate assignment. Position p holds task Tasks[p]
// assigned to station Stations[p]. Positions [0, Line1) form the line 1
// segment, [Line1, Total) the line 2 segment.
//
// Precedence and zoning are judged on Tasks, the explicit identity track;
// station values never stand in for task identities.
type Individual struct {
	Tasks    []int
	Stations []int
}

func NewIndividual(n int) Individual {
	return Individual{Tasks: make([]int, n), Stations: make([]int, n)}
}

func (ind Individual) Len() int { return len(ind.Tasks) }

func (ind Individual) Clone() Individual {
	out := NewIndividual(len(ind.Tasks))
	copy(out.Tasks, ind.Tasks)
	copy(out.Stations, ind.Stations)
	return out
}

// CopyFrom overwrites ind in place; lengths must match.
func (ind Individual) CopyFrom(src Individual) {
	copy(ind.Tasks, src.Tasks)
	copy(ind.Stations, src.Stations)
}

// Assignment returns the station of every task, indexed by task.
func (ind Individual) Assignment() []int {
	out := make([]int, len(ind.Tasks))
	for p, task := range ind.Tasks {
		out[task] = ind.Stations[p]
	}
	return out
}
