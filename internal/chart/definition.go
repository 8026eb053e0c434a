// Package chart turns a dataset column selection into chart definitions:
// immutable snapshots of the projected rows plus the axis bindings the
// renderers and exporters need.
package chart

import (
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/chartdeck/internal/dataset"
)

// Kind is the visual form of a chart.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Pie  Kind = "pie"
)

// Kinds lists every supported chart kind in tab order.
var Kinds = []Kind{Bar, Line, Pie}

func (k Kind) Valid() bool {
	switch k {
	case Bar, Line, Pie:
		return true
	}
	return false
}

// Label is the kind name with an upper-case first letter ("Bar").
func (k Kind) Label() string {
	s := string(k)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseKind validates a chart kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unsupported chart kind %q", s)
	}
	return k, nil
}

// Definition describes one chart. Data is a snapshot taken at creation time;
// later uploads into the source slot do not change it.
type Definition struct {
	ID          string           `json:"id"`
	Type        Kind             `json:"type"`
	DatasetName dataset.Slot     `json:"datasetName"`
	XAxisKey    string           `json:"xAxisKey"`
	YAxisKey    string           `json:"yAxisKey"`
	Title       string           `json:"title"`
	Filter      string           `json:"filter,omitempty"`
	Data        []dataset.Record `json:"data"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Title builds the generated chart caption, e.g. "Bar Chart - Sales by Month".
func Title(kind Kind, xKey, yKey string) string {
	return fmt.Sprintf("%s Chart - %s by %s", kind.Label(), yKey, xKey)
}

// Project maps every row onto a record holding only the x and y columns,
// preserving row order and copying values verbatim. A row missing one of the
// columns carries an empty string for it.
func Project(rows []dataset.Record, xKey, yKey string) []dataset.Record {
	out := make([]dataset.Record, 0, len(rows))
	for _, row := range rows {
		rec := dataset.NewRecord()
		rec.Set(xKey, cell(row, xKey))
		rec.Set(yKey, cell(row, yKey))
		out = append(out, rec)
	}
	return out
}

func cell(row dataset.Record, key string) dataset.Value {
	if v, ok := row.Get(key); ok {
		return v
	}
	return dataset.String("")
}
