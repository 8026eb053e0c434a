package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/decode"
	"github.com/kalambet/chartdeck/internal/upload"
)

func handleDashboard(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, dashboard(sess.ID, sess.Store))
	}
}

func handleListDatasets(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, listDatasets(sess.Store))
	}
}

func handleGetDataset(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		slot, err := dataset.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "%v", err)
			return
		}
		if _, ok := sess.Store.Dataset(slot); !ok {
			httpError(w, http.StatusNotFound, "not_found", "no dataset uploaded for %s", slot.Label())
			return
		}
		limit := parseIntParam(r, "limit", 20, 1000)
		writeJSON(w, http.StatusOK, datasetDetail(sess.Store, slot, limit))
	}
}

func handleUpload(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		slot, err := dataset.ParseSlot(chi.URLParam(r, "slot"))
		if err != nil {
			httpError(w, http.StatusNotFound, "not_found", "%s", upload.MsgUnknownSlot)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUpload)
		defer r.Body.Close()
		file, header, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "file exceeds %d bytes", deps.MaxUpload)
				return
			}
			httpError(w, http.StatusBadRequest, "invalid_request_error", "multipart field \"file\" is required: %v", err)
			return
		}
		defer file.Close()

		res, err := sess.Uploader.Upload(r.Context(), slot, header.Filename, file)
		switch {
		case err == nil:
			writeJSON(w, http.StatusOK, res)
		case errors.Is(err, decode.ErrUnsupportedExtension):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%s", upload.Message(err))
		case errors.Is(err, upload.ErrInsufficientData), errors.Is(err, upload.ErrDecode):
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%s", upload.Message(err))
		default:
			httpError(w, http.StatusInternalServerError, "api_error", "%s", upload.Message(err))
		}
	}
}

func handleClearAll(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFor(deps, w, r)
		if !ok {
			return
		}
		sess.Store.ClearAll()
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	}
}
