package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/export"
	"github.com/kalambet/chartdeck/internal/session"
	"github.com/kalambet/chartdeck/internal/storage"
	"github.com/kalambet/chartdeck/internal/upload"
)

const testToken = "test-token-12345"

const salesCSV = "Month,Sales\nJan,10\nFeb,20\nMar,15\n"

func setupAppHandler(t *testing.T, token string) (http.Handler, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	handler := NewAppHandler(AppDeps{
		Sessions: session.NewManager(session.Options{}),
		History:  store,
		Token:    token,
	})
	return handler, store
}

func authReq(method, url, body, token string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, url, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func uploadReq(t *testing.T, slot, fileName, content, token string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/datasets/"+slot, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error envelope: %v (body %q)", err, rr.Body.String())
	}
	return body.Error.Message
}

// seed uploads the sales CSV into keywords and creates one bar chart.
func seed(t *testing.T, h http.Handler) chart.Definition {
	t.Helper()
	rr := serve(h, uploadReq(t, "keywords", "sales.csv", salesCSV, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d; body = %s", rr.Code, rr.Body.String())
	}
	rr = serve(h, authReq(http.MethodPost, "/charts", `{"slot":"keywords","x":"Month","y":"Sales","kind":"bar"}`, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create chart status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var def chart.Definition
	if err := json.NewDecoder(rr.Body).Decode(&def); err != nil {
		t.Fatalf("decoding chart: %v", err)
	}
	return def
}

func TestHealth_NoAuth(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, authReq(http.MethodGet, "/dashboard", "", ""))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	rr = serve(h, authReq(http.MethodGet, "/dashboard", "", "wrong"))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong token = %d, want 401", rr.Code)
	}
}

func TestAuth_EmptyTokenDisablesCheck(t *testing.T) {
	h, _ := setupAppHandler(t, "")

	rr := serve(h, authReq(http.MethodGet, "/dashboard", "", ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestDashboard_Defaults(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, authReq(http.MethodGet, "/dashboard", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var d Dashboard
	if err := json.NewDecoder(rr.Body).Decode(&d); err != nil {
		t.Fatal(err)
	}
	if d.Session != session.DefaultID {
		t.Errorf("Session = %q", d.Session)
	}
	if d.Title != "Data Visualization Report" {
		t.Errorf("Title = %q", d.Title)
	}
	if len(d.Datasets) != 4 || d.Charts != 0 || d.Ready {
		t.Errorf("dashboard = %+v", d)
	}
}

func TestUpload_CSV(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, uploadReq(t, "keywords", "sales.csv", salesCSV, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var res upload.Result
	if err := json.NewDecoder(rr.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Rows != 3 || len(res.Columns) != 2 || res.Columns[0] != "Month" || res.Columns[1] != "Sales" {
		t.Errorf("result = %+v", res)
	}

	rr = serve(h, authReq(http.MethodGet, "/datasets/keywords?limit=2", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get dataset status = %d", rr.Code)
	}
	var detail DatasetDetail
	if err := json.NewDecoder(rr.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.Rows != 3 || len(detail.Data) != 2 || detail.FileName != "sales.csv" {
		t.Errorf("detail = %+v", detail)
	}
}

func TestUpload_NonFiniteCellsStayValidJSON(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, uploadReq(t, "keywords", "volume.csv", "Keyword,Volume\ngo,NaN\nrust,80\n", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("upload status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = serve(h, authReq(http.MethodGet, "/datasets/keywords", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("get dataset status = %d", rr.Code)
	}
	var detail DatasetDetail
	if err := json.NewDecoder(rr.Body).Decode(&detail); err != nil {
		t.Fatalf("decoding dataset: %v (body %q)", err, rr.Body.String())
	}
	if len(detail.Data) != 2 {
		t.Fatalf("rows = %d, want 2", len(detail.Data))
	}
	if v, _ := detail.Data[0].Get("Volume"); v.Text() != "NaN" {
		t.Errorf("Volume = %q, want NaN", v.Text())
	}

	rr = serve(h, authReq(http.MethodPost, "/charts", `{"slot":"keywords","x":"Keyword","y":"Volume","kind":"bar"}`, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create chart status = %d; body = %s", rr.Code, rr.Body.String())
	}
	var def chart.Definition
	if err := json.NewDecoder(rr.Body).Decode(&def); err != nil {
		t.Fatalf("decoding chart: %v (body %q)", err, rr.Body.String())
	}
	if len(def.Data) != 2 {
		t.Errorf("chart data = %+v", def.Data)
	}
}

func TestWriteJSON_EncodeFailureIs500(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusOK, map[string]any{"v": math.NaN()})
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if msg := errorMessage(t, rr); msg == "" {
		t.Error("empty error message")
	}
}

func TestUpload_BadExtension(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, uploadReq(t, "keywords", "notes.txt", salesCSV, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != upload.MsgExtension {
		t.Errorf("message = %q", msg)
	}
}

func TestUpload_InsufficientData(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, uploadReq(t, "keywords", "empty.csv", "Month,Sales\n", testToken))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != upload.MsgInsufficient {
		t.Errorf("message = %q", msg)
	}

	rr = serve(h, authReq(http.MethodGet, "/datasets/keywords", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("dataset stored after insufficient upload: status %d", rr.Code)
	}
}

func TestUpload_UnknownSlot(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, uploadReq(t, "tiktok", "sales.csv", salesCSV, testToken))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestUpload_MissingFile(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, authReq(http.MethodPost, "/datasets/keywords", `{}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestCreateChart_ByNameAndIndex(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	def := seed(t, h)

	if def.Title != "Bar Chart - Sales by Month" || len(def.Data) != 3 {
		t.Errorf("chart = %+v", def)
	}

	rr := serve(h, authReq(http.MethodPost, "/charts", `{"slot":"keywords","x":0,"y":1,"kind":"pie"}`, testToken))
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}

	rr = serve(h, authReq(http.MethodGet, "/charts", "", testToken))
	var charts []ChartInfo
	if err := json.NewDecoder(rr.Body).Decode(&charts); err != nil {
		t.Fatal(err)
	}
	if len(charts) != 2 || charts[0].ID != def.ID || charts[1].Type != chart.Pie {
		t.Errorf("charts = %+v", charts)
	}
}

func TestCreateChart_Errors(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	seed(t, h)

	tests := []struct {
		name string
		body string
	}{
		{"unknown slot", `{"slot":"nope","x":0,"y":1}`},
		{"unknown column", `{"slot":"keywords","x":"Profit","y":"Sales"}`},
		{"bad kind", `{"slot":"keywords","x":0,"y":1,"kind":"radar"}`},
		{"bad filter", `{"slot":"keywords","x":0,"y":1,"filter":"Sales >"}`},
		{"bad json", `{"slot":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, authReq(http.MethodPost, "/charts", tt.body, testToken))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body = %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestPreviewAndChartImage(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	def := seed(t, h)

	rr := serve(h, authReq(http.MethodPost, "/charts/preview", `{"slot":"keywords","kind":"line"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("preview status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("preview is not a PNG")
	}

	rr = serve(h, authReq(http.MethodGet, "/charts", "", testToken))
	var charts []ChartInfo
	json.NewDecoder(rr.Body).Decode(&charts)
	if len(charts) != 1 {
		t.Fatalf("preview stored a chart: %d charts", len(charts))
	}

	rr = serve(h, authReq(http.MethodGet, "/charts/"+def.ID+"/image", "", testToken))
	if rr.Code != http.StatusOK || !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("chart image status = %d", rr.Code)
	}

	rr = serve(h, authReq(http.MethodGet, "/charts/missing/image", "", testToken))
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing chart image status = %d, want 404", rr.Code)
	}
}

func TestPatchReport(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)

	rr := serve(h, authReq(http.MethodPatch, "/report", `{"title":"Q1 Report"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	rr = serve(h, authReq(http.MethodGet, "/report", "", testToken))
	var rep struct {
		Title string `json:"title"`
		Date  string `json:"date"`
	}
	json.NewDecoder(rr.Body).Decode(&rep)
	if rep.Title != "Q1 Report" || rep.Date == "" {
		t.Errorf("report = %+v", rep)
	}
}

func TestExportPDF_NoCharts(t *testing.T) {
	h, history := setupAppHandler(t, testToken)

	rr := serve(h, authReq(http.MethodPost, "/export/pdf", "", testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if msg := errorMessage(t, rr); msg != export.NoChartsMessage {
		t.Errorf("message = %q", msg)
	}
	if n, _ := history.CountExports(); n != 0 {
		t.Errorf("history has %d records, want 0", n)
	}
}

func TestExportPDF(t *testing.T) {
	h, history := setupAppHandler(t, testToken)
	seed(t, h)
	serve(h, authReq(http.MethodPatch, "/report", `{"title":"Q1 Report"}`, testToken))

	rr := serve(h, authReq(http.MethodPost, "/export/pdf", `{"page_size":"letter","orientation":"landscape"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="Q1_Report.pdf"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}

	records, err := history.ListExports(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Kind != "pdf" || records[0].Status != storage.StatusSuccess || records[0].ChartCount != 1 {
		t.Errorf("history = %+v", records)
	}

	rr = serve(h, authReq(http.MethodGet, "/export/status", "", testToken))
	var st export.Status
	json.NewDecoder(rr.Body).Decode(&st)
	if st.State != export.StateSuccess || st.FileName != "Q1_Report.pdf" {
		t.Errorf("status = %+v", st)
	}
}

func TestExportPDF_BadOptions(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	seed(t, h)

	rr := serve(h, authReq(http.MethodPost, "/export/pdf", `{"page_size":"tabloid"}`, testToken))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestExportSlides(t *testing.T) {
	h, history := setupAppHandler(t, testToken)
	seed(t, h)

	rr := serve(h, authReq(http.MethodPost, "/export/slides", `{"table_slot":"keywords"}`, testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="DataReport.pptx"` {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("PK")) {
		t.Error("body is not a zip archive")
	}

	rr = serve(h, authReq(http.MethodGet, "/exports", "", testToken))
	var records []storage.ExportRecord
	if err := json.NewDecoder(rr.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Kind != "pptx" || records[0].FileName != "DataReport.pptx" {
		t.Errorf("exports = %+v", records)
	}
	if n, _ := history.CountExports(); n != 1 {
		t.Errorf("CountExports = %d", n)
	}
}

func TestClearAll(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	seed(t, h)

	rr := serve(h, authReq(http.MethodDelete, "/datasets", "", testToken))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	rr = serve(h, authReq(http.MethodGet, "/dashboard", "", testToken))
	var d Dashboard
	json.NewDecoder(rr.Body).Decode(&d)
	if d.Charts != 0 {
		t.Errorf("charts after clear = %d", d.Charts)
	}
	for _, ds := range d.Datasets {
		if ds.Uploaded {
			t.Errorf("%s still uploaded", ds.Slot)
		}
	}
}

func TestSessionsIsolated(t *testing.T) {
	h, _ := setupAppHandler(t, testToken)
	seed(t, h)

	req := authReq(http.MethodGet, "/dashboard", "", testToken)
	req.Header.Set(SessionHeader, "other")
	rr := serve(h, req)
	var d Dashboard
	json.NewDecoder(rr.Body).Decode(&d)
	if d.Session != "other" || d.Charts != 0 {
		t.Errorf("other session dashboard = %+v", d)
	}

	req = authReq(http.MethodGet, "/dashboard", "", testToken)
	req.Header.Set(SessionHeader, "bad id!")
	if rr := serve(h, req); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid session status = %d, want 400", rr.Code)
	}

	rr = serve(h, authReq(http.MethodGet, "/sessions", "", testToken))
	var list []session.Info
	json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 2 {
		t.Errorf("sessions = %+v", list)
	}
}
