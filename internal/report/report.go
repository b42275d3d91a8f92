// Package report turns a solved assignment into the per-dataset numbers
// written after a run: zoning shares, a task timeline, a precedence verdict
// and station loads.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"palbp/internal/line"
	"palbp/internal/opt"
)

// ZoningStats counts position pairs i<j whose tasks are (or are not)
// linked by a precedence constraint.
type ZoningStats struct {
	Pairs       int
	Positive    int
	Negative    int
	PositivePct float64
	NegativePct float64
}

func Zoning(inst *line.Instance, ind line.Individual) ZoningStats {
	zi := line.NewZoningIndex(inst.AllConstraints())
	var s ZoningStats
	n := ind.Len()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s.Pairs++
			if zi.Positive(ind.Tasks[i], ind.Tasks[j]) {
				s.Positive++
			} else {
				s.Negative++
			}
		}
	}
	if s.Pairs > 0 {
		s.PositivePct = 100 * float64(s.Positive) / float64(s.Pairs)
		s.NegativePct = 100 * float64(s.Negative) / float64(s.Pairs)
	}
	return s
}

// Step is one task in execution order. Task is 1-based; Start is the
// running sum of durations within the task's line.
type Step struct {
	Task     int
	Line     int
	Start    int
	Duration int
	Station  int
}

func Timeline(inst *line.Instance, ind line.Individual) []Step {
	out := make([]Step, 0, ind.Len())
	for l := 1; l <= 2; l++ {
		start, end := inst.Segment(l)
		t := 0
		for p := start; p < end; p++ {
			task := ind.Tasks[p]
			d := inst.ProcTimes[task]
			out = append(out, Step{
				Task:     task + 1,
				Line:     l,
				Start:    t,
				Duration: d,
				Station:  ind.Stations[p],
			})
			t += d
		}
	}
	return out
}

// LineVerdict reports whether a line's order respects its constraints.
// Violation holds the first broken pair in file order, 1-based.
type LineVerdict struct {
	Line      int
	Valid     bool
	Violation *line.Precedence
}

func Validate(inst *line.Instance, ind line.Individual) []LineVerdict {
	pos := make(map[int]int, ind.Len())
	for p, task := range ind.Tasks {
		pos[task] = p
	}
	out := make([]LineVerdict, 0, 2)
	for l := 1; l <= 2; l++ {
		v := LineVerdict{Line: l, Valid: true}
		for _, c := range inst.Constraints(l) {
			pb, okB := pos[c.Before]
			pa, okA := pos[c.After]
			if okB && okA && pb > pa {
				v.Valid = false
				v.Violation = &line.Precedence{Before: c.Before + 1, After: c.After + 1}
				break
			}
		}
		out = append(out, v)
	}
	return out
}

// Summary is one row of the run summary.
type Summary struct {
	Dataset   string
	Algorithm string
	CycleTime float64
	Zoning    ZoningStats
	Loads     []float64
	Valid     bool
	Steps     []Step
}

func Summarize(dataset, algo string, inst *line.Instance, res opt.Result) (Summary, error) {
	eval, err := line.NewEvaluator(inst)
	if err != nil {
		return Summary{}, err
	}
	loads, err := eval.AdjustedLoads(res.Best)
	if err != nil {
		return Summary{}, fmt.Errorf("%s/%s: %w", dataset, algo, err)
	}
	valid := true
	for _, v := range Validate(inst, res.Best) {
		valid = valid && v.Valid
	}
	return Summary{
		Dataset:   dataset,
		Algorithm: algo,
		CycleTime: res.CycleTime,
		Zoning:    Zoning(inst, res.Best),
		Loads:     loads,
		Valid:     valid,
		Steps:     Timeline(inst, res.Best),
	}, nil
}

// WriteTimelineCSV writes one row per step.
func WriteTimelineCSV(path string, steps []Step) error {
	rows := [][]string{{"task", "line", "start", "duration", "station"}}
	for _, s := range steps {
		rows = append(rows, []string{
			strconv.Itoa(s.Task),
			strconv.Itoa(s.Line),
			strconv.Itoa(s.Start),
			strconv.Itoa(s.Duration),
			strconv.Itoa(s.Station + 1),
		})
	}
	return writeCSV(path, rows)
}

// WriteSummaryCSV writes one row per summary.
func WriteSummaryCSV(path string, summaries []Summary) error {
	rows := [][]string{{"dataset", "algo", "cycle_time", "positive_pct", "negative_pct", "valid"}}
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Dataset,
			s.Algorithm,
			strconv.FormatFloat(s.CycleTime, 'f', 3, 64),
			strconv.FormatFloat(s.Zoning.PositivePct, 'f', 2, 64),
			strconv.FormatFloat(s.Zoning.NegativePct, 'f', 2, 64),
			strconv.FormatBool(s.Valid),
		})
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if d := filepath.Dir(path); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := csv.NewWriter(f).WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
