package render

import (
	"fmt"
	"math"

	"github.com/kalambet/chartdeck/internal/chart"
)

// Palette is cycled over pie slices in row order.
var Palette = []string{
	"#0088FE", "#00C49F", "#FFBB28", "#FF8042",
	"#8884D8", "#82CA9D", "#A4DE6C", "#D0ED57",
}

// Slice is one computed pie segment.
type Slice struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Percent float64 `json:"percent"`
	Label   string  `json:"label"`
	Color   string  `json:"color"`
}

// PieSlices computes the segments for def: x is the category, y the
// magnitude, colour palette[i mod len(palette)] and label "<name>: <pct>%".
// Negative magnitudes are treated as zero. It returns nil when the total is
// not positive.
func PieSlices(def chart.Definition) []Slice {
	names, values := points(def)
	total := 0.0
	for i, v := range values {
		if v < 0 {
			values[i] = 0
			continue
		}
		total += v
	}
	if total <= 0 {
		return nil
	}
	out := make([]Slice, len(values))
	for i, v := range values {
		pct := v / total * 100
		out[i] = Slice{
			Name:    names[i],
			Value:   v,
			Percent: pct,
			Label:   fmt.Sprintf("%s: %d%%", names[i], int(math.Round(pct))),
			Color:   Palette[i%len(Palette)],
		}
	}
	return out
}
