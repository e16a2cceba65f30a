// Package chart renders the round-trip time series of a capture.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ccollicutt/pinglag/pkg/pinglog"
)

// Format is an output image format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ParseFormat accepts "png" or "svg".
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatSVG:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown chart format %q (use png or svg)", s)
	}
}

// ErrNotEnoughSamples is returned when there are fewer than two samples.
var ErrNotEnoughSamples = errors.New("at least two samples are needed to draw a chart")

// Options controls rendering.
type Options struct {
	Title  string
	Format Format
	Width  int
	Height int
}

var guideColor = drawing.Color{R: 200, G: 60, B: 60, A: 255}

// Render draws the samples of m as a line over attempt number, with dashed
// guide lines at the 200 ms and 500 ms thresholds.
func Render(w io.Writer, m pinglog.Metrics, opts Options) error {
	if m.Len() < 2 {
		return ErrNotEnoughSamples
	}

	xs := make([]float64, m.Len())
	ys := make([]float64, m.Len())
	for i, s := range m.Samples {
		xs[i] = float64(i + 1)
		ys[i] = float64(s)
	}
	first, last := xs[0], xs[len(xs)-1]

	graph := chart.Chart{
		Title: opts.Title,
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{Top: 20, Left: 20, Right: 20, Bottom: 20},
		},
		Width:  opts.Width,
		Height: opts.Height,
		XAxis: chart.XAxis{
			Name: "Attempt",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
		},
		YAxis: chart.YAxis{
			Name: "Time (ms)",
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			GridMajorStyle: chart.Style{
				StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255},
				StrokeWidth: 1.0,
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: "Pings",
				Style: chart.Style{
					StrokeColor: chart.GetDefaultColor(0),
					FillColor:   chart.GetDefaultColor(0).WithAlpha(64),
					StrokeWidth: 2,
				},
				XValues: xs,
				YValues: ys,
			},
			guide("200 ms", first, last, pinglog.Threshold200ms),
			guide("500 ms", first, last, pinglog.Threshold500ms),
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	renderer := chart.PNG
	if opts.Format == FormatSVG {
		renderer = chart.SVG
	}
	if err := graph.Render(renderer, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func guide(name string, first, last float64, ms int) chart.ContinuousSeries {
	return chart.ContinuousSeries{
		Name: name,
		Style: chart.Style{
			StrokeColor:     guideColor,
			StrokeWidth:     1,
			StrokeDashArray: []float64{5, 5},
		},
		XValues: []float64{first, last},
		YValues: []float64{float64(ms), float64(ms)},
	}
}
