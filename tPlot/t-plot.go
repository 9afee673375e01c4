//Package tPlot draws solver result columns over their time steps
package tPlot

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"golang.org/x/image/colornames"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

var palette = []color.RGBA{
	colornames.Steelblue,
	colornames.Darkorange,
	colornames.Forestgreen,
	colornames.Purple,
	colornames.Saddlebrown,
}

//Series is one named result column
type Series struct {
	Name   string
	Values []float64
}

//Options configures the plot. Threshold draws a horizontal reference line, e.g. a storage capacity
type Options struct {
	Title     string
	YLabel    string
	Threshold *float64
}

//sliceXY skips NaN values, they mark padded cells of shorter columns
type sliceXY struct {
	xValues []float64
	yValues []float64
}

func newSliceXY(values []float64) *sliceXY {
	s := &sliceXY{
		xValues: make([]float64, 0, len(values)),
		yValues: make([]float64, 0, len(values)),
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		s.xValues = append(s.xValues, float64(i))
		s.yValues = append(s.yValues, v)
	}
	return s
}

func (s *sliceXY) Len() int {
	return len(s.yValues)
}

func (s *sliceXY) XY(index int) (x, y float64) {
	return s.xValues[index], s.yValues[index]
}

//Plot creates a step line per series
func Plot(series []Series, opts Options) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time step"
	p.Y.Label.Text = opts.YLabel

	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, s := range series {
		xy := newSliceXY(s.Values)
		if xy.Len() == 0 {
			return nil, fmt.Errorf("column %q has no numeric values", s.Name)
		}
		for _, y := range xy.yValues {
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return nil, fmt.Errorf("failed creating line for %v : %w", s.Name, err)
		}
		line.StepStyle = plotter.PreStep
		line.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	if opts.Threshold != nil {
		threshold := *opts.Threshold
		thresholdLine := plotter.NewFunction(func(x float64) float64 {
			return threshold
		})
		thresholdLine.Color = colornames.Red
		p.Add(thresholdLine)
		p.Legend.Add("Threshold", thresholdLine)
		minY = math.Min(minY, threshold)
		maxY = math.Max(maxY, threshold)
	}

	margin := 0.05 * (maxY - minY)
	if margin == 0 {
		margin = 1
	}
	p.Legend.Top = true
	p.Y.Min = minY - margin
	p.Y.Max = maxY + margin
	return p, nil
}

//PlotAndStore wraps Plot and writes the result as png to out
func PlotAndStore(series []Series, opts Options, out io.Writer) error {
	p, err := Plot(series, opts)
	if err != nil {
		return fmt.Errorf("failed to create plot : %w", err)
	}
	writerTo, err := p.WriterTo(800, 600, "png")
	if err != nil {
		return fmt.Errorf("failed to prepare plot for writing : %w", err)
	}
	if _, err := writerTo.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write plot : %w", err)
	}
	return nil
}
