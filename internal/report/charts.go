package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	CycleTimeChart = "cycle_time.png"
	ZoningChart    = "zoning.png"
	LoadsChart     = "station_loads.png"
)

// GanttChart names the per-summary task schedule chart.
func GanttChart(s Summary) string {
	name := strings.NewReplacer("/", "_", string(os.PathSeparator), "_").Replace(s.Dataset)
	return "gantt_" + name + "_" + s.Algorithm + ".png"
}

var barWidth = vg.Points(14)

// WriteCharts renders the cycle time, zoning and station load bar charts
// for the given summaries into dir, plus one Gantt chart per summary.
func WriteCharts(dir string, summaries []Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	labels := make([]string, len(summaries))
	for i, s := range summaries {
		labels[i] = s.Dataset + "/" + s.Algorithm
	}
	width := vg.Length(len(summaries))*0.6*vg.Inch + 3*vg.Inch

	cycle := make(plotter.Values, len(summaries))
	pos := make(plotter.Values, len(summaries))
	neg := make(plotter.Values, len(summaries))
	for i, s := range summaries {
		cycle[i] = s.CycleTime
		pos[i] = s.Zoning.PositivePct
		neg[i] = s.Zoning.NegativePct
	}

	if err := saveBars(filepath.Join(dir, CycleTimeChart), "Cycle time", "cycle time", labels, width,
		series{"cycle time", cycle}); err != nil {
		return err
	}
	if err := saveBars(filepath.Join(dir, ZoningChart), "Zoning", "% of pairs", labels, width,
		series{"positive", pos}, series{"negative", neg}); err != nil {
		return err
	}

	stations := 0
	for _, s := range summaries {
		stations = max(stations, len(s.Loads))
	}
	loads := make([]series, stations)
	for k := range loads {
		vals := make(plotter.Values, len(summaries))
		for i, s := range summaries {
			if k < len(s.Loads) {
				vals[i] = s.Loads[k]
			}
		}
		loads[k] = series{"station " + strconv.Itoa(k+1), vals}
	}
	if err := saveBars(filepath.Join(dir, LoadsChart), "Station loads", "adjusted load", labels, width, loads...); err != nil {
		return err
	}

	for _, s := range summaries {
		if len(s.Steps) == 0 {
			continue
		}
		if err := saveGantt(filepath.Join(dir, GanttChart(s)), s); err != nil {
			return err
		}
	}
	return nil
}

// saveGantt draws every step as a horizontal bar on its station row, from
// its start to start+duration.
func saveGantt(path string, s Summary) error {
	p := plot.New()
	p.Title.Text = "Task assignments: " + s.Dataset + "/" + s.Algorithm
	p.X.Label.Text = "time"
	p.Y.Label.Text = "station"

	stations := 0
	for _, st := range s.Steps {
		stations = max(stations, st.Station+1)
	}
	const half = 0.35
	for _, st := range s.Steps {
		x0, x1 := float64(st.Start), float64(st.Start+st.Duration)
		y := float64(st.Station)
		box, err := plotter.NewPolygon(plotter.XYs{
			{X: x0, Y: y - half}, {X: x1, Y: y - half},
			{X: x1, Y: y + half}, {X: x0, Y: y + half},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		box.Color = plotutil.Color(st.Line - 1)
		box.LineStyle.Width = vg.Points(0.5)
		p.Add(box)

		lbl, err := plotter.NewLabels(plotter.XYLabels{
			XYs:    []plotter.XY{{X: (x0 + x1) / 2, Y: y}},
			Labels: []string{strconv.Itoa(st.Task)},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		p.Add(lbl)
	}

	names := make([]string, stations)
	for k := range names {
		names[k] = "station " + strconv.Itoa(k+1)
	}
	p.NominalY(names...)

	if err := p.Save(8*vg.Inch, vg.Length(stations)*0.8*vg.Inch+1.5*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

type series struct {
	name   string
	values plotter.Values
}

func saveBars(path, title, ylabel string, labels []string, width vg.Length, ss ...series) error {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	w := barWidth
	if len(ss) > 3 {
		w = barWidth * 3 / vg.Length(len(ss))
	}
	for i, s := range ss {
		bars, err := plotter.NewBarChart(s.values, w)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = w * vg.Length(2*i-len(ss)+1) / 2
		p.Add(bars)
		if len(ss) > 1 {
			p.Legend.Add(s.name, bars)
		}
	}
	p.Legend.Top = true
	p.NominalX(labels...)

	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
