package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/chartdeck/internal/dataset"
)

// ErrIncompleteSelection is returned when the dataset, either axis or the
// chart kind is missing. Creating a chart from it is a no-op.
var ErrIncompleteSelection = errors.New("dataset, x axis, y axis and chart kind must all be selected")

// NoColumn marks an unset axis selection.
const NoColumn = -1

// Selection is the user's choice on the chart builder screen. X and Y index
// into the dataset's available columns.
type Selection struct {
	Slot   dataset.Slot
	X      int
	Y      int
	Kind   Kind
	Filter string
}

// DefaultSelection picks x = first column and y = second column (or the first
// when there is only one). With no columns both axes stay unset.
func DefaultSelection(slot dataset.Slot, columns []string) Selection {
	sel := Selection{Slot: slot, X: NoColumn, Y: NoColumn, Kind: Bar}
	if len(columns) == 0 {
		return sel
	}
	sel.X = 0
	sel.Y = 0
	if len(columns) > 1 {
		sel.Y = 1
	}
	return sel
}

// AvailableColumns returns the selectable columns of a dataset: the keys of
// its first row. Empty datasets have none.
func AvailableColumns(rows []dataset.Record) []string {
	return dataset.Columns(rows)
}

// Source is the dataset store as seen by the builder. AppendChartDefinitions
// must read and replace the chart list as one step so concurrent creates
// never drop a definition.
type Source interface {
	Dataset(slot dataset.Slot) ([]dataset.Record, bool)
	AppendChartDefinitions(defs ...Definition)
}

// Builder creates chart definitions and appends them to the report.
type Builder struct {
	src    Source
	filter rowFilter
	now    func() time.Time
	newID  func() string
}

// NewBuilder returns a Builder reading from and writing to src.
func NewBuilder(src Source) *Builder {
	return &Builder{
		src:   src,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// Preview builds the definition for sel without storing it.
func (b *Builder) Preview(sel Selection) (Definition, error) {
	if sel.Slot == "" || !sel.Kind.Valid() || sel.X < 0 || sel.Y < 0 {
		return Definition{}, ErrIncompleteSelection
	}
	if !sel.Slot.Valid() {
		return Definition{}, fmt.Errorf("%w: %q", dataset.ErrUnknownSlot, sel.Slot)
	}

	rows, _ := b.src.Dataset(sel.Slot)
	columns := AvailableColumns(rows)
	if sel.X >= len(columns) || sel.Y >= len(columns) {
		return Definition{}, fmt.Errorf("%w: column index out of range (%d columns)", ErrIncompleteSelection, len(columns))
	}
	xKey, yKey := columns[sel.X], columns[sel.Y]

	filtered, err := b.filter.Apply(sel.Filter, rows)
	if err != nil {
		return Definition{}, err
	}

	return Definition{
		ID:          b.newID(),
		Type:        sel.Kind,
		DatasetName: sel.Slot,
		XAxisKey:    xKey,
		YAxisKey:    yKey,
		Title:       Title(sel.Kind, xKey, yKey),
		Filter:      sel.Filter,
		Data:        Project(filtered, xKey, yKey),
		CreatedAt:   b.now().UTC(),
	}, nil
}

// Create builds the definition for sel and adds it to the end of the
// report's chart list.
func (b *Builder) Create(sel Selection) (Definition, error) {
	def, err := b.Preview(sel)
	if err != nil {
		return Definition{}, err
	}
	b.src.AppendChartDefinitions(def)
	return def, nil
}

// ColumnIndex resolves a column name to its index in columns, or NoColumn.
func ColumnIndex(columns []string, name string) int {
	for i, c := range columns {
		if c == name {
			return i
		}
	}
	return NoColumn
}
