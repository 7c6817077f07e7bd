package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
)

// RenderBars draws a simple bar chart with go-chart. The Y range always
// starts at zero and is at least one unit high so all-zero data renders.
func RenderBars(w io.Writer, data Bars, format Format, size Size) error {
	size = size.orDefault()

	if len(data.Labels) != len(data.Values) {
		return fmt.Errorf("bar chart has %d labels but %d values", len(data.Labels), len(data.Values))
	}

	bars := make([]chart.Value, 0, len(data.Values))
	maxValue := 0.0
	for i, v := range data.Values {
		bars = append(bars, chart.Value{Label: data.Labels[i], Value: v})
		maxValue = math.Max(maxValue, v)
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Label: " ", Value: 0})
	}

	yMax := math.Max(1, math.Ceil(maxValue*1.1))
	step := math.Max(1, math.Ceil(yMax/5))
	var ticks []chart.Tick
	for v := 0.0; v <= yMax; v += step {
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.0f", v)})
	}

	barWidth := size.Width / (2*len(bars) + 1)
	if barWidth > 120 {
		barWidth = 120
	}

	ch := chart.BarChart{
		Title:      data.Title,
		Width:      size.Width,
		Height:     size.Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16}},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax},
			Ticks: ticks,
		},
		Bars: bars,
	}

	provider := chart.PNG
	if format == FormatSVG {
		provider = chart.SVG
	}
	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("failed to render bar chart: %w", err)
	}
	return nil
}
