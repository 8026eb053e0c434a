// Package export assembles the report into downloadable documents: a paged
// PDF and a PPTX slide deck. Documents are built in memory and only returned
// whole; a failed export never yields partial output.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/render"
)

var (
	// ErrNoCharts is returned before any work when the report has no charts.
	ErrNoCharts = errors.New("no charts to export")
	// ErrExportInProgress is returned when another export of the same
	// session is still running.
	ErrExportInProgress = errors.New("an export is already in progress")
)

// NoChartsMessage is shown when an export is requested for an empty report.
const NoChartsMessage = "No charts available to export. Please create charts first."

// Format identifies the document type.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatSlides Format = "pptx"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

func failureMessage(f Format) string {
	if f == FormatSlides {
		return "Failed to generate slide deck. Please try again."
	}
	return "Failed to generate PDF. Please try again."
}

// Error is a failed export. Message is safe to show to users; Err carries the
// cause for logs.
type Error struct {
	Format  Format
	Message string
	Err     error
}

func (e *Error) Error() string { return fmt.Sprintf("export %s: %v", e.Format, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// Document is a finished export.
type Document struct {
	Format      Format
	FileName    string
	ContentType string
	Data        []byte
	// Pages is the page count for PDFs and the slide count for decks.
	Pages int
}

// Nodes resolves registered chart views by node id.
type Nodes interface {
	Lookup(nodeID string) (*render.Handle, error)
}

// Exporter builds documents for one session.
type Exporter struct {
	nodes   Nodes
	tracker *Tracker
	logger  *slog.Logger
	now     func() time.Time
}

// New returns an Exporter rasterizing through nodes.
func New(nodes Nodes) *Exporter {
	return &Exporter{
		nodes:   nodes,
		tracker: NewTracker(),
		logger:  slog.Default().With("component", "export"),
		now:     time.Now,
	}
}

// Tracker exposes the export state machine.
func (e *Exporter) Tracker() *Tracker { return e.tracker }

// run checks the precondition, holds the tracker for the duration of build and
// converts failures into generic user-facing errors.
func (e *Exporter) run(format Format, charts []chart.Definition, build func() (Document, error)) (Document, error) {
	if len(charts) == 0 {
		return Document{}, ErrNoCharts
	}
	finish, err := e.tracker.begin(format)
	if err != nil {
		return Document{}, err
	}

	var doc Document
	defer func() { finish(doc.FileName, err) }()

	doc, err = build()
	if err != nil {
		e.logger.Error("export failed", "format", string(format), "error", err)
		err = &Error{Format: format, Message: failureMessage(format), Err: err}
		return Document{}, err
	}
	e.logger.Info("export complete", "format", string(format), "file", doc.FileName,
		"bytes", len(doc.Data), "pages", doc.Pages)
	return doc, nil
}

// rasterize renders one chart through its registered view.
func (e *Exporter) rasterize(ctx context.Context, c chart.Definition) (render.Image, error) {
	h, err := e.nodes.Lookup(render.NodeID(c.ID))
	if err != nil {
		return render.Image{}, err
	}
	img, err := h.Rasterize(ctx)
	if err != nil {
		return render.Image{}, fmt.Errorf("rasterizing %s: %w", render.NodeID(c.ID), err)
	}
	return img, nil
}

var whitespace = regexp.MustCompile(`\s+`)

// FileName derives a download name from title: whitespace runs become "_".
func FileName(title, ext string) string {
	base := whitespace.ReplaceAllString(title, "_")
	if strings.Trim(base, "_") == "" {
		base = "report"
	}
	return base + ext
}
