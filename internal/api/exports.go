package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/export"
	"github.com/kalambet/chartdeck/internal/session"
	"github.com/kalambet/chartdeck/internal/storage"
)

// PDFRequest holds the optional PDF layout settings.
type PDFRequest struct {
	Title          string `json:"title"`
	PageSize       string `json:"page_size"`
	Orientation    string `json:"orientation"`
	GroupByDataset bool   `json:"group_by_dataset"`
}

// SlidesRequest holds the optional deck settings.
type SlidesRequest struct {
	FileName  string `json:"file_name"`
	TableSlot string `json:"table_slot"`
}

// decodeOptional decodes a JSON body into v; an empty body leaves v unchanged.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// pdfOptions merges a request with the configured defaults.
func pdfOptions(def ExportDefaults, req PDFRequest) (export.PDFOptions, error) {
	opts := export.PDFOptions{
		Title:          req.Title,
		PageSize:       def.PageSize,
		Orientation:    def.Orientation,
		GroupByDataset: req.GroupByDataset,
	}
	if req.PageSize != "" {
		p, err := export.ParsePageSize(req.PageSize)
		if err != nil {
			return opts, err
		}
		opts.PageSize = p
	}
	if req.Orientation != "" {
		o, err := export.ParseOrientation(req.Orientation)
		if err != nil {
			return opts, err
		}
		opts.Orientation = o
	}
	return opts, nil
}

// slideOptions merges a request with the configured defaults and returns the
// rows of the table slot.
func slideOptions(def ExportDefaults, req SlidesRequest) (export.SlideOptions, error) {
	opts := export.SlideOptions{
		FileName:    req.FileName,
		TableSlot:   def.TableSlot,
		LinkColumn:  def.LinkColumn,
		SettleDelay: def.SettleDelay,
	}
	if req.TableSlot != "" {
		slot, err := dataset.ParseSlot(req.TableSlot)
		if err != nil {
			return opts, err
		}
		opts.TableSlot = slot
	}
	return opts, nil
}

func handleExportPDF(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		var req PDFRequest
		if !decodeOptional(w, r, &req) {
			return
		}
		opts, err := pdfOptions(deps.Export, req)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		rep := sess.Store.Report()
		doc, err := sess.Exporter.ExportPDF(r.Context(), rep, opts)
		recordExport(deps.History, sess, export.FormatPDF, titleOr(opts.Title, rep.Title), len(rep.Charts), doc, err)
		if err != nil {
			exportError(w, err)
			return
		}
		writeDocument(w, doc)
	}
}

func handleExportSlides(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		var req SlidesRequest
		if !decodeOptional(w, r, &req) {
			return
		}
		opts, err := slideOptions(deps.Export, req)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		rep := sess.Store.Report()
		table, _ := sess.Store.Dataset(opts.TableSlot)
		doc, err := sess.Exporter.ExportSlides(r.Context(), rep, table, opts)
		recordExport(deps.History, sess, export.FormatSlides, rep.Title, len(rep.Charts), doc, err)
		if err != nil {
			exportError(w, err)
			return
		}
		writeDocument(w, doc)
	}
}

func handleExportStatus(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, sess.Exporter.Tracker().Status())
	}
}

func handleListExports(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.History == nil {
			writeJSON(w, http.StatusOK, []storage.ExportRecord{})
			return
		}
		limit := parseIntParam(r, "limit", 20, 100)
		offset := parseIntParam(r, "offset", 0, 0)
		records, err := deps.History.ListExports(limit, offset)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list exports: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func exportError(w http.ResponseWriter, err error) {
	var ee *export.Error
	switch {
	case errors.Is(err, export.ErrNoCharts):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", export.NoChartsMessage)
	case errors.Is(err, export.ErrExportInProgress):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	case errors.As(err, &ee):
		httpError(w, http.StatusInternalServerError, "api_error", "%s", ee.Message)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func writeDocument(w http.ResponseWriter, doc export.Document) {
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("X-Chartdeck-Pages", strconv.Itoa(doc.Pages))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}

func titleOr(override, title string) string {
	if override != "" {
		return override
	}
	return title
}

// recordExport appends an export attempt to the history. Requests rejected
// before any work (no charts, export already running) are not recorded.
func recordExport(history *storage.Store, sess *session.Session, format export.Format, title string, charts int, doc export.Document, err error) {
	if history == nil || errors.Is(err, export.ErrNoCharts) || errors.Is(err, export.ErrExportInProgress) {
		return
	}
	rec := storage.ExportRecord{
		SessionID:  sess.ID,
		Kind:       string(format),
		FileName:   doc.FileName,
		Title:      title,
		ChartCount: charts,
		SizeBytes:  len(doc.Data),
		Status:     storage.StatusSuccess,
	}
	if err != nil {
		rec.Status = storage.StatusError
		rec.Error = err.Error()
	}
	if _, serr := history.SaveExport(rec); serr != nil {
		slog.Default().With("component", "api").Warn("recording export failed", "error", serr)
	}
}
