package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/render"
	"github.com/kalambet/chartdeck/internal/store"
)

// axisRef is a column given either by zero-based index or by name.
type axisRef struct {
	idx  int
	name string
	byID bool
}

func (a *axisRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.name = s
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return fmt.Errorf("axis must be a column index or name: %w", err)
	}
	a.idx, a.byID = i, true
	return nil
}

// parseAxisRef reads a CLI/MCP style axis argument: digits are an index,
// anything else a column name.
func parseAxisRef(s string) *axisRef {
	if s == "" {
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return &axisRef{idx: i, byID: true}
	}
	return &axisRef{name: s}
}

func (a *axisRef) index(columns []string) int {
	if a.byID {
		return a.idx
	}
	return chart.ColumnIndex(columns, a.name)
}

// ChartRequest selects the dataset, axes and kind of a new chart.
type ChartRequest struct {
	Slot   string   `json:"slot"`
	X      *axisRef `json:"x"`
	Y      *axisRef `json:"y"`
	Kind   string   `json:"kind"`
	Filter string   `json:"filter"`
}

func decodeChartRequest(w http.ResponseWriter, r *http.Request) (ChartRequest, dataset.Slot, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()

	var req ChartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return req, "", false
	}
	slot, err := dataset.ParseSlot(req.Slot)
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return req, "", false
	}
	return req, slot, true
}

func handleListCharts(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		if r.URL.Query().Get("data") == "true" {
			writeJSON(w, http.StatusOK, sess.Store.Charts())
			return
		}
		writeJSON(w, http.StatusOK, chartInfos(sess.Store.Charts()))
	}
}

func handleCreateChart(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		req, slot, ok := decodeChartRequest(w, r)
		if !ok {
			return
		}
		sel, err := selectionFor(sess.Store, slot, req.X, req.Y, req.Kind, req.Filter)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		def, err := sess.Builder.Create(sel)
		if err != nil {
			chartError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, def)
	}
}

func handlePreviewChart(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		req, slot, ok := decodeChartRequest(w, r)
		if !ok {
			return
		}
		sel, err := selectionFor(sess.Store, slot, req.X, req.Y, req.Kind, req.Filter)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		def, err := sess.Builder.Preview(sel)
		if err != nil {
			chartError(w, err)
			return
		}
		img, err := render.Render(r.Context(), def, deps.Render)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "rendering preview: %v", err)
			return
		}
		writePNG(w, img)
	}
}

func handleChartImage(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		h, err := sess.Registry.Lookup(render.NodeID(chi.URLParam(r, "id")))
		if errors.Is(err, render.ErrNodeNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "chart not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
			return
		}
		img, err := h.Rasterize(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "rendering chart: %v", err)
			return
		}
		writePNG(w, img)
	}
}

func chartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chart.ErrIncompleteSelection), errors.Is(err, dataset.ErrUnknownSlot), errors.Is(err, chart.ErrInvalidFilter):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writePNG(w http.ResponseWriter, img render.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img.PNG)))
	if img.Placeholder {
		w.Header().Set("X-Chartdeck-Placeholder", "true")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(img.PNG)
}

func handleGetReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sess.Store.Report())
	}
}

func handlePatchReport(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var patch store.ReportPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		sess.Store.UpdateReportMetadata(patch)
		writeJSON(w, http.StatusOK, sess.Store.Report())
	}
}
