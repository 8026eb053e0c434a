package api

import (
	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/store"
)

// DatasetInfo summarises one slot.
type DatasetInfo struct {
	Slot     dataset.Slot `json:"slot"`
	Label    string       `json:"label"`
	Uploaded bool         `json:"uploaded"`
	FileName string       `json:"fileName,omitempty"`
	Status   store.Status `json:"status"`
	Rows     int          `json:"rows"`
	Columns  []string     `json:"columns"`
}

// DatasetDetail is a slot with (a prefix of) its rows.
type DatasetDetail struct {
	DatasetInfo
	Data []dataset.Record `json:"data"`
}

// ChartInfo is a chart definition without its data snapshot.
type ChartInfo struct {
	ID          string       `json:"id"`
	Type        chart.Kind   `json:"type"`
	DatasetName dataset.Slot `json:"datasetName"`
	XAxisKey    string       `json:"xAxisKey"`
	YAxisKey    string       `json:"yAxisKey"`
	Title       string       `json:"title"`
	Filter      string       `json:"filter,omitempty"`
	Points      int          `json:"points"`
}

// Dashboard is the landing view of a session.
type Dashboard struct {
	Session  string        `json:"session"`
	Datasets []DatasetInfo `json:"datasets"`
	Charts   int           `json:"charts"`
	Title    string        `json:"title"`
	Date     string        `json:"date"`
	// Ready reports whether every slot holds a dataset.
	Ready bool `json:"ready"`
}

func datasetInfo(st *store.Store, slot dataset.Slot) DatasetInfo {
	rows, ok := st.Dataset(slot)
	status := st.UploadStatus(slot)
	columns := dataset.Columns(rows)
	if columns == nil {
		columns = []string{}
	}
	return DatasetInfo{
		Slot:     slot,
		Label:    slot.Label(),
		Uploaded: ok,
		FileName: status.FileName,
		Status:   status.Status,
		Rows:     len(rows),
		Columns:  columns,
	}
}

func listDatasets(st *store.Store) []DatasetInfo {
	out := make([]DatasetInfo, 0, len(dataset.Slots))
	for _, slot := range dataset.Slots {
		out = append(out, datasetInfo(st, slot))
	}
	return out
}

func datasetDetail(st *store.Store, slot dataset.Slot, limit int) DatasetDetail {
	rows, _ := st.Dataset(slot)
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	if rows == nil {
		rows = []dataset.Record{}
	}
	return DatasetDetail{DatasetInfo: datasetInfo(st, slot), Data: rows}
}

func chartInfos(defs []chart.Definition) []ChartInfo {
	out := make([]ChartInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, ChartInfo{
			ID:          d.ID,
			Type:        d.Type,
			DatasetName: d.DatasetName,
			XAxisKey:    d.XAxisKey,
			YAxisKey:    d.YAxisKey,
			Title:       d.Title,
			Filter:      d.Filter,
			Points:      len(d.Data),
		})
	}
	return out
}

func dashboard(id string, st *store.Store) Dashboard {
	rep := st.Report()
	return Dashboard{
		Session:  id,
		Datasets: listDatasets(st),
		Charts:   len(rep.Charts),
		Title:    rep.Title,
		Date:     rep.Date,
		Ready:    st.ReadyForCharts(),
	}
}

// selectionFor resolves axis references (column name or index) against the
// slot's columns. Unset axes fall back to the default selection.
func selectionFor(st *store.Store, slot dataset.Slot, x, y *axisRef, kind, filter string) (chart.Selection, error) {
	rows, _ := st.Dataset(slot)
	columns := chart.AvailableColumns(rows)
	sel := chart.DefaultSelection(slot, columns)
	if x != nil {
		sel.X = x.index(columns)
	}
	if y != nil {
		sel.Y = y.index(columns)
	}
	if kind != "" {
		k, err := chart.ParseKind(kind)
		if err != nil {
			return chart.Selection{}, err
		}
		sel.Kind = k
	}
	sel.Filter = filter
	return sel, nil
}
