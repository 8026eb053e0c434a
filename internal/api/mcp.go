package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/export"
	"github.com/kalambet/chartdeck/internal/session"
	"github.com/kalambet/chartdeck/internal/storage"
	"github.com/kalambet/chartdeck/internal/store"
	"github.com/kalambet/chartdeck/internal/upload"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Sessions *session.Manager
	History  *storage.Store // optional
	Export   ExportDefaults
}

// NewMCPServer creates an MCP server with all chartdeck tools and resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	deps.Export = AppDeps{Export: deps.Export}.withDefaults().Export

	s := server.NewMCPServer(
		"chartdeck",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("chartdeck builds chart reports from spreadsheet uploads and exports them as PDF or PPTX."),
		server.WithRecovery(),
	)

	sessionArg := mcp.WithString("session", mcp.Description("Session id (default session when omitted)"))

	s.AddTool(
		mcp.NewTool("list_datasets",
			mcp.WithDescription("List the four dataset slots with upload status, row count and columns."),
			sessionArg,
		),
		mcpListDatasets(deps),
	)

	s.AddTool(
		mcp.NewTool("upload_dataset",
			mcp.WithDescription("Load a .xlsx, .xls or .csv file from disk into a dataset slot."),
			mcp.WithString("slot", mcp.Description("combinedSources, officialFacebook, officialInstagram or keywords"), mcp.Required()),
			mcp.WithString("path", mcp.Description("Path of the spreadsheet file"), mcp.Required()),
			sessionArg,
		),
		mcpUploadDataset(deps),
	)

	s.AddTool(
		mcp.NewTool("describe_dataset",
			mcp.WithDescription("Show the columns and first rows of a dataset slot."),
			mcp.WithString("slot", mcp.Description("Dataset slot"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of rows (default 10)")),
			sessionArg,
		),
		mcpDescribeDataset(deps),
	)

	s.AddTool(
		mcp.NewTool("add_chart",
			mcp.WithDescription("Create a chart from a dataset and append it to the report."),
			mcp.WithString("slot", mcp.Description("Dataset slot"), mcp.Required()),
			mcp.WithString("x", mcp.Description("X axis column name or zero-based index (default first column)")),
			mcp.WithString("y", mcp.Description("Y axis column name or zero-based index (default second column)")),
			mcp.WithString("kind", mcp.Description("bar, line or pie (default bar)")),
			mcp.WithString("filter", mcp.Description("Optional row filter expression, e.g. Sales > 10")),
			sessionArg,
		),
		mcpAddChart(deps),
	)

	s.AddTool(
		mcp.NewTool("list_charts",
			mcp.WithDescription("List the charts in the report."),
			sessionArg,
		),
		mcpListCharts(deps),
	)

	s.AddTool(
		mcp.NewTool("update_report",
			mcp.WithDescription("Set the report title and/or date."),
			mcp.WithString("title", mcp.Description("Report title")),
			mcp.WithString("date", mcp.Description("Report date")),
			sessionArg,
		),
		mcpUpdateReport(deps),
	)

	s.AddTool(
		mcp.NewTool("export_pdf",
			mcp.WithDescription("Export the report as a PDF file."),
			mcp.WithString("path", mcp.Description("Output file or directory"), mcp.Required()),
			mcp.WithString("title", mcp.Description("Title override")),
			mcp.WithString("page_size", mcp.Description("a4, letter or legal")),
			mcp.WithString("orientation", mcp.Description("portrait or landscape")),
			mcp.WithBoolean("group_by_dataset", mcp.Description("Start a new page per dataset")),
			sessionArg,
		),
		mcpExportPDF(deps),
	)

	s.AddTool(
		mcp.NewTool("export_slides",
			mcp.WithDescription("Export the report as a PPTX slide deck."),
			mcp.WithString("path", mcp.Description("Output file or directory"), mcp.Required()),
			mcp.WithString("table_slot", mcp.Description("Dataset listed on the table slides")),
			sessionArg,
		),
		mcpExportSlides(deps),
	)

	s.AddTool(
		mcp.NewTool("clear_all",
			mcp.WithDescription("Remove every dataset and chart and reset the report."),
			sessionArg,
		),
		mcpClearAll(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"report://current",
			"Current Report",
			mcp.WithResourceDescription("Report metadata and chart list of the default session"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceReport(deps),
	)

	return s
}

func mcpSession(deps MCPDeps, req mcp.CallToolRequest) (*session.Session, *mcp.CallToolResult) {
	sess, err := deps.Sessions.Get(req.GetString("session", ""))
	if err != nil {
		return nil, mcpError(err.Error())
	}
	return sess, nil
}

func mcpSlot(req mcp.CallToolRequest) (dataset.Slot, *mcp.CallToolResult) {
	name, err := req.RequireString("slot")
	if err != nil {
		return "", mcpError("slot is required")
	}
	slot, err := dataset.ParseSlot(name)
	if err != nil {
		return "", mcpError(err.Error())
	}
	return slot, nil
}

func mcpListDatasets(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		return mcpJSON(listDatasets(sess.Store)), nil
	}
}

func mcpUploadDataset(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		slot, errRes := mcpSlot(req)
		if errRes != nil {
			return errRes, nil
		}
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		f, err := os.Open(path)
		if err != nil {
			return mcpError(fmt.Sprintf("opening %s: %v", path, err)), nil
		}
		defer f.Close()

		res, err := sess.Uploader.Upload(ctx, slot, filepath.Base(path), f)
		if err != nil {
			return mcpError(upload.Message(err)), nil
		}
		return mcpText(fmt.Sprintf("Loaded %d rows into %s (columns: %v)", res.Rows, slot.Label(), res.Columns)), nil
	}
}

func mcpDescribeDataset(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		slot, errRes := mcpSlot(req)
		if errRes != nil {
			return errRes, nil
		}
		if _, ok := sess.Store.Dataset(slot); !ok {
			return mcpError(fmt.Sprintf("no dataset uploaded for %s", slot.Label())), nil
		}
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 1000 {
			limit = 1000
		}
		return mcpJSON(datasetDetail(sess.Store, slot, limit)), nil
	}
}

func mcpAddChart(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		slot, errRes := mcpSlot(req)
		if errRes != nil {
			return errRes, nil
		}
		sel, err := selectionFor(sess.Store, slot,
			parseAxisRef(req.GetString("x", "")),
			parseAxisRef(req.GetString("y", "")),
			req.GetString("kind", ""),
			req.GetString("filter", ""))
		if err != nil {
			return mcpError(err.Error()), nil
		}
		def, err := sess.Builder.Create(sel)
		if err != nil {
			return mcpError(fmt.Sprintf("creating chart: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Added chart %s: %s (%d points)", def.ID, def.Title, len(def.Data))), nil
	}
}

func mcpListCharts(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		return mcpJSON(chartInfos(sess.Store.Charts())), nil
	}
}

func mcpUpdateReport(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		var patch store.ReportPatch
		if title := req.GetString("title", ""); title != "" {
			patch.Title = &title
		}
		if date := req.GetString("date", ""); date != "" {
			patch.Date = &date
		}
		if patch.Title == nil && patch.Date == nil {
			return mcpError("title or date is required"), nil
		}
		sess.Store.UpdateReportMetadata(patch)
		rep := sess.Store.Report()
		return mcpText(fmt.Sprintf("Report: %s (%s)", rep.Title, rep.Date)), nil
	}
}

func mcpExportPDF(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		opts, err := pdfOptions(deps.Export, PDFRequest{
			Title:          req.GetString("title", ""),
			PageSize:       req.GetString("page_size", ""),
			Orientation:    req.GetString("orientation", ""),
			GroupByDataset: req.GetBool("group_by_dataset", false),
		})
		if err != nil {
			return mcpError(err.Error()), nil
		}

		rep := sess.Store.Report()
		doc, err := sess.Exporter.ExportPDF(ctx, rep, opts)
		recordExport(deps.History, sess, export.FormatPDF, titleOr(opts.Title, rep.Title), len(rep.Charts), doc, err)
		if err != nil {
			return mcpError(exportMessage(err)), nil
		}
		out, err := writeDocumentFile(path, doc)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(fmt.Sprintf("Wrote %d-page PDF to %s", doc.Pages, out)), nil
	}
}

func mcpExportSlides(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}
		opts, err := slideOptions(deps.Export, SlidesRequest{TableSlot: req.GetString("table_slot", "")})
		if err != nil {
			return mcpError(err.Error()), nil
		}

		rep := sess.Store.Report()
		table, _ := sess.Store.Dataset(opts.TableSlot)
		doc, err := sess.Exporter.ExportSlides(ctx, rep, table, opts)
		recordExport(deps.History, sess, export.FormatSlides, rep.Title, len(rep.Charts), doc, err)
		if err != nil {
			return mcpError(exportMessage(err)), nil
		}
		out, err := writeDocumentFile(path, doc)
		if err != nil {
			return mcpError(err.Error()), nil
		}
		return mcpText(fmt.Sprintf("Wrote %d-slide deck to %s", doc.Pages, out)), nil
	}
}

func mcpClearAll(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, errRes := mcpSession(deps, req)
		if errRes != nil {
			return errRes, nil
		}
		sess.Store.ClearAll()
		return mcpText("Cleared all datasets and charts"), nil
	}
}

func mcpResourceReport(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		sess, err := deps.Sessions.Get(session.DefaultID)
		if err != nil {
			return nil, err
		}
		rep := sess.Store.Report()
		b, err := json.Marshal(struct {
			Title  string      `json:"title"`
			Date   string      `json:"date"`
			Charts []ChartInfo `json:"charts"`
		}{rep.Title, rep.Date, chartInfos(rep.Charts)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal report: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// writeDocumentFile writes doc to path, or into path when it is a directory.
func writeDocumentFile(path string, doc export.Document) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, doc.FileName)
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func exportMessage(err error) string {
	var ee *export.Error
	switch {
	case errors.Is(err, export.ErrNoCharts):
		return export.NoChartsMessage
	case errors.As(err, &ee):
		return ee.Message
	default:
		return err.Error()
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
