package results

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/sarchlab/l1sweep/sweep"
)

// ChartFormats lists the file extensions RenderCharts accepts.
var ChartFormats = []string{"png", "svg", "pdf"}

const (
	chartWidth  = 16 * vg.Centimeter
	chartHeight = 10 * vg.Centimeter
)

// valueTicks puts one labeled tick on every swept value.
type valueTicks struct {
	values []float64
}

func (t valueTicks) Ticks(min, max float64) []plot.Tick {
	ticks := make([]plot.Tick, 0, len(t.values))
	for _, v := range t.values {
		ticks = append(ticks, plot.Tick{Value: v, Label: formatFloat(v)})
	}
	return ticks
}

// ChartPath returns the file RenderCharts writes for an axis.
func ChartPath(dir string, axis sweep.Axis, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_variation.%s", axis, ext))
}

// RenderCharts draws max execution time against the swept value, one chart
// per axis that has records. Axes without records are skipped. It returns
// the paths written, in axis order.
func RenderCharts(dir string, records []sweep.Record, ext string) ([]string, error) {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if !validFormat(ext) {
		return nil, fmt.Errorf("unsupported chart format %q (want one of %s)",
			ext, strings.Join(ChartFormats, ", "))
	}

	byAxis := make(map[sweep.Axis][]sweep.Record)
	for _, r := range records {
		byAxis[r.Axis] = append(byAxis[r.Axis], r)
	}

	var paths []string
	for _, axis := range sweep.Axes() {
		axisRecords := byAxis[axis]
		if len(axisRecords) == 0 {
			continue
		}

		p, err := chart(axis, axisRecords)
		if err != nil {
			return paths, err
		}

		path := ChartPath(dir, axis, ext)
		if err := p.Save(chartWidth, chartHeight, path); err != nil {
			return paths, fmt.Errorf("saving %s: %w", path, err)
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func chart(axis sweep.Axis, records []sweep.Record) (*plot.Plot, error) {
	xys := make(plotter.XYs, len(records))
	values := make([]float64, len(records))
	for i, r := range records {
		xys[i] = plotter.XY{X: r.Value, Y: float64(r.MaxExecTime)}
		values[i] = r.Value
	}
	sort.Sort(byX(xys))

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Effect of %s on Max Execution Time", axis.Label())
	p.X.Label.Text = axis.Label()
	p.Y.Label.Text = "Max Execution Time (cycles)"
	p.X.Tick.Marker = valueTicks{values: values}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(xys)
	if err != nil {
		return nil, err
	}
	points.Shape = draw.CircleGlyph{}
	points.Radius = vg.Points(3)

	p.Add(line, points)

	return p, nil
}

func validFormat(ext string) bool {
	for _, f := range ChartFormats {
		if f == ext {
			return true
		}
	}
	return false
}

type byX plotter.XYs

func (s byX) Len() int           { return len(s) }
func (s byX) Less(i, j int) bool { return s[i].X < s[j].X }
func (s byX) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
