// Package render rasterizes chart definitions to PNG.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
)

// NoDataMessage is drawn in place of a chart that has nothing to plot.
const NoDataMessage = "No data available for visualization"

// Options controls the output size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions matches the on-screen chart area.
var DefaultOptions = Options{Width: 800, Height: 400}

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = DefaultOptions.Width
	}
	if o.Height <= 0 {
		o.Height = DefaultOptions.Height
	}
	return o
}

// Image is an encoded PNG plus its pixel dimensions.
type Image struct {
	PNG    []byte
	Width  int
	Height int
	// Placeholder is set when the no-data image was drawn instead of a chart.
	Placeholder bool
}

// Bounds returns the image rectangle.
func (i Image) Bounds() image.Rectangle { return image.Rect(0, 0, i.Width, i.Height) }

// Render draws def as a PNG. Empty data produces the placeholder, never an
// error.
func Render(ctx context.Context, def chart.Definition, opts Options) (Image, error) {
	if err := ctx.Err(); err != nil {
		return Image{}, err
	}
	opts = opts.normalized()
	if len(def.Data) == 0 {
		return placeholder(opts)
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch def.Type {
	case chart.Bar:
		err = barChart(def, opts).Render(gochart.PNG, &buf)
	case chart.Line:
		err = lineChart(def, opts).Render(gochart.PNG, &buf)
	case chart.Pie:
		slices := PieSlices(def)
		if slices == nil {
			return placeholder(opts)
		}
		err = pieChart(def, slices, opts).Render(gochart.PNG, &buf)
	default:
		return Image{}, fmt.Errorf("render %s: unsupported chart kind %q", def.ID, def.Type)
	}
	if err != nil {
		return Image{}, fmt.Errorf("render %s chart %s: %w", def.Type, def.ID, err)
	}
	return Image{PNG: buf.Bytes(), Width: opts.Width, Height: opts.Height}, nil
}

// points extracts category labels and numeric magnitudes. Non-numeric y
// values count as zero.
func points(def chart.Definition) (labels []string, values []float64) {
	labels = make([]string, len(def.Data))
	values = make([]float64, len(def.Data))
	for i, row := range def.Data {
		if v, ok := row.Get(def.XAxisKey); ok {
			labels[i] = v.Text()
		}
		values[i] = number(row, def.YAxisKey)
	}
	return labels, values
}

func number(row dataset.Record, key string) float64 {
	v, ok := row.Get(key)
	if !ok {
		return 0
	}
	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// valueRange always includes zero and never has a zero span.
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

var seriesColor = mustHex(Palette[0])

func barChart(def chart.Definition, opts Options) gochart.BarChart {
	labels, values := points(def)
	bars := make([]gochart.Value, len(values))
	for i := range values {
		bars[i] = gochart.Value{
			Label: labels[i],
			Value: values[i],
			Style: gochart.Style{FillColor: seriesColor, StrokeColor: seriesColor},
		}
	}
	barWidth := (opts.Width - 120) / (2 * len(bars))
	if barWidth < 4 {
		barWidth = 4
	}
	if barWidth > 60 {
		barWidth = 60
	}
	return gochart.BarChart{
		Title:      def.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis:      gochart.YAxis{Name: def.YAxisKey, Range: valueRange(values)},
		Bars:       bars,
	}
}

func lineChart(def chart.Definition, opts Options) gochart.Chart {
	labels, values := points(def)
	xs := make([]float64, len(values))
	// Unlabelled ticks half a step outside the points give the x axis a
	// non-zero span even for a single point; go-chart sizes the range from
	// the tick extremes.
	ticks := make([]gochart.Tick, 0, len(values)+2)
	ticks = append(ticks, gochart.Tick{Value: -0.5})
	for i := range values {
		xs[i] = float64(i)
		ticks = append(ticks, gochart.Tick{Value: float64(i), Label: labels[i]})
	}
	ticks = append(ticks, gochart.Tick{Value: float64(len(values)) - 0.5})
	return gochart.Chart{
		Title:      def.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:  def.XAxisKey,
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{Name: def.YAxisKey, Range: valueRange(values)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    def.YAxisKey,
				XValues: xs,
				YValues: values,
				Style: gochart.Style{
					StrokeColor: seriesColor,
					StrokeWidth: 2,
					DotColor:    seriesColor,
					DotWidth:    3,
				},
			},
		},
	}
}

func pieChart(def chart.Definition, slices []Slice, opts Options) gochart.PieChart {
	values := make([]gochart.Value, 0, len(slices))
	for _, s := range slices {
		if s.Value <= 0 {
			continue
		}
		c := mustHex(s.Color)
		values = append(values, gochart.Value{
			Label: s.Label,
			Value: s.Value,
			Style: gochart.Style{FillColor: c, StrokeColor: drawing.ColorWhite, FontColor: drawing.ColorBlack},
		})
	}
	return gochart.PieChart{
		Title:  def.Title,
		Width:  opts.Width,
		Height: opts.Height,
		Values: values,
	}
}

func mustHex(hex string) drawing.Color {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	return drawing.ColorFromHex(hex)
}
