// Package charts renders the dashboard bar charts as PNG or SVG images.
//
// The priority chart is a stacked bar per kelurahan drawn with gonum/plot;
// the sensitivity chart is a simple bar per scenario drawn with go-chart.
// Both render a valid, empty chart when given no data.
package charts

import (
	"fmt"
	"strings"
)

// Kind names a dashboard chart.
type Kind string

const (
	KindPriority    Kind = "priority"
	KindSensitivity Kind = "sensitivity"
)

// ParseKind resolves a chart name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindPriority, KindSensitivity:
		return k, nil
	}
	return "", fmt.Errorf("unknown chart %q", s)
}

// Format is an image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat resolves an image format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPNG, FormatSVG:
		return f, nil
	}
	return "", fmt.Errorf("unsupported chart format %q", s)
}

// ContentType returns the MIME type of the encoded image.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Size is the output size in pixels.
type Size struct {
	Width  int
	Height int
}

// DefaultSize matches the width of the dashboard content column.
var DefaultSize = Size{Width: 960, Height: 480}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// StackedBars holds counts per category, split into stacked series. Counts
// is indexed [series][category].
type StackedBars struct {
	Title      string
	XLabel     string
	YLabel     string
	Categories []string
	Series     []string
	Counts     [][]float64
}

// Bars holds one value per label.
type Bars struct {
	Title  string
	Labels []string
	Values []float64
}
