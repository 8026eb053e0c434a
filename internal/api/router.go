// Package api exposes the report builder over HTTP and MCP.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/export"
	"github.com/kalambet/chartdeck/internal/render"
	"github.com/kalambet/chartdeck/internal/session"
	"github.com/kalambet/chartdeck/internal/storage"
)

// SessionHeader selects the caller's session. Requests without it share the
// default session.
const SessionHeader = "X-Chartdeck-Session"

const (
	maxRequestBodySize = 1 << 20 // 1MB
	defaultUploadSize  = 32 << 20
)

// ExportDefaults are applied when an export request leaves a field unset.
type ExportDefaults struct {
	PageSize    export.PageSize
	Orientation export.Orientation
	TableSlot   dataset.Slot
	LinkColumn  string
	SettleDelay time.Duration
}

type AppDeps struct {
	Sessions *session.Manager
	// History records export attempts; nil disables the audit trail.
	History   *storage.Store
	Token     string
	MaxUpload int64
	Render    render.Options
	Export    ExportDefaults
}

func (d AppDeps) withDefaults() AppDeps {
	if d.MaxUpload <= 0 {
		d.MaxUpload = defaultUploadSize
	}
	if d.Export.PageSize == "" {
		d.Export.PageSize = export.A4
	}
	if d.Export.Orientation == "" {
		d.Export.Orientation = export.Portrait
	}
	if d.Export.TableSlot == "" {
		d.Export.TableSlot = dataset.OfficialInstagram
	}
	if d.Export.LinkColumn == "" {
		d.Export.LinkColumn = "Media URL"
	}
	return d
}

// NewAppHandler returns the HTTP API. Everything except /health requires the
// bearer token when one is configured.
func NewAppHandler(deps AppDeps) http.Handler {
	deps = deps.withDefaults()

	r := chi.NewRouter()
	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/dashboard", handleDashboard(deps))

		r.Get("/datasets", handleListDatasets(deps))
		r.Delete("/datasets", handleClearAll(deps))
		r.Get("/datasets/{slot}", handleGetDataset(deps))
		r.Post("/datasets/{slot}", handleUpload(deps))

		r.Get("/report", handleGetReport(deps))
		r.Patch("/report", handlePatchReport(deps))

		r.Get("/charts", handleListCharts(deps))
		r.Post("/charts", handleCreateChart(deps))
		r.Post("/charts/preview", handlePreviewChart(deps))
		r.Get("/charts/{id}/image", handleChartImage(deps))

		r.Post("/export/pdf", handleExportPDF(deps))
		r.Post("/export/slides", handleExportSlides(deps))
		r.Get("/export/status", handleExportStatus(deps))

		r.Get("/exports", handleListExports(deps))
		r.Get("/sessions", handleListSessions(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// sessionFor resolves the request's session, writing a 400 when the header
// holds an invalid id.
func sessionFor(deps AppDeps, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := deps.Sessions.Get(r.Header.Get(SessionHeader))
	if err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
		return nil, false
	}
	return sess, true
}

func handleListSessions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Sessions.List())
	}
}

// writeJSON encodes v before writing the status so an unencodable value
// becomes a 500 instead of a success with an empty body.
func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Default().With("component", "api").Error("encoding response", "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
