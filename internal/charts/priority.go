package charts

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pxToPoints converts pixels at the 96 DPI used by gonum's raster canvas.
func pxToPoints(px int) vg.Length {
	return vg.Points(float64(px) * 72 / 96)
}

// RenderStacked draws one bar per category with each series stacked on
// the previous one, so a bar's height is the category total.
func RenderStacked(w io.Writer, data StackedBars, format Format, size Size) error {
	size = size.orDefault()

	if len(data.Counts) != len(data.Series) {
		return fmt.Errorf("stacked chart has %d series names but %d count rows", len(data.Series), len(data.Counts))
	}
	for i, row := range data.Counts {
		if len(row) != len(data.Categories) {
			return fmt.Errorf("series %q has %d counts for %d categories", data.Series[i], len(row), len(data.Categories))
		}
	}

	p := plot.New()
	p.Title.Text = data.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = data.XLabel
	p.Y.Label.Text = data.YLabel
	p.Legend.Top = true
	p.Y.Min = 0

	barWidth := vg.Points(20)
	if n := len(data.Categories); n > 0 {
		// Leave roughly a third of each slot as gap
		slot := pxToPoints(size.Width) * 0.8 / vg.Length(n)
		barWidth = vg.Length(math.Min(float64(slot*2/3), float64(vg.Points(48))))
		if barWidth < vg.Points(2) {
			barWidth = vg.Points(2)
		}
	}

	var below *plotter.BarChart
	maxTotal := 0.0
	totals := make([]float64, len(data.Categories))
	for i, name := range data.Series {
		values := make(plotter.Values, len(data.Categories))
		copy(values, data.Counts[i])
		for j, v := range values {
			totals[j] += v
			maxTotal = math.Max(maxTotal, totals[j])
		}

		bars, err := plotter.NewBarChart(values, barWidth)
		if err != nil {
			return fmt.Errorf("failed to build series %q: %w", name, err)
		}
		bars.Color = plotutil.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		if below != nil {
			bars.StackOn(below)
		}
		below = bars

		p.Add(bars)
		p.Legend.Add(name, bars)
	}

	if len(data.Categories) > 0 {
		p.NominalX(data.Categories...)
		if len(data.Categories) > 6 {
			p.X.Tick.Label.Rotation = math.Pi / 4
			p.X.Tick.Label.XAlign = draw.XRight
			p.X.Tick.Label.YAlign = draw.YCenter
		}
	} else {
		p.X.Min, p.X.Max = 0, 1
		p.X.Tick.Marker = plot.ConstantTicks(nil)
	}

	// Headroom for the legend drawn inside the plot area
	p.Y.Max = math.Max(1, maxTotal*1.15)
	p.Y.Tick.Marker = integerTicks{}
	p.Add(plotter.NewGrid())
	p.BackgroundColor = color.White

	wt, err := p.WriterTo(pxToPoints(size.Width), pxToPoints(size.Height), string(format))
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return nil
}

// integerTicks labels whole counts only.
type integerTicks struct{}

func (integerTicks) Ticks(min, max float64) []plot.Tick {
	step := math.Max(1, math.Ceil((max-min)/6))
	var ticks []plot.Tick
	for v := math.Ceil(min); v <= max; v += step {
		ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}
	return ticks
}
