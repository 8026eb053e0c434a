package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/kalambet/chartdeck/internal/chart"
	"github.com/kalambet/chartdeck/internal/store"
)

// PDF layout, in millimetres.
const (
	pdfMargin       = 20.0
	pdfTitleY       = 20.0
	pdfSubtitleY    = 30.0
	pdfRuleY        = 35.0
	pdfChartsStartY = 50.0
	pdfCaptionGap   = 10.0
	pdfChartGap     = 30.0
	pdfSectionY     = 20.0
	pdfSectionBody  = 35.0

	pdfTitleSize    = 18.0
	pdfSubtitleSize = 12.0
	pdfSectionSize  = 16.0
	pdfCaptionSize  = 14.0
)

// PDFOptions controls PDF layout.
type PDFOptions struct {
	// Title overrides the report title when set.
	Title       string
	PageSize    PageSize
	Orientation Orientation
	// GroupByDataset starts a new headed page for each source dataset.
	GroupByDataset bool
}

// ExportPDF renders every chart of rep into a paged PDF.
func (e *Exporter) ExportPDF(ctx context.Context, rep store.Report, opts PDFOptions) (Document, error) {
	return e.run(FormatPDF, rep.Charts, func() (Document, error) {
		return e.buildPDF(ctx, rep, opts)
	})
}

func (e *Exporter) buildPDF(ctx context.Context, rep store.Report, opts PDFOptions) (Document, error) {
	if opts.PageSize == "" {
		opts.PageSize = A4
	}
	if opts.Orientation == "" {
		opts.Orientation = Portrait
	}
	title := rep.Title
	if opts.Title != "" {
		title = opts.Title
	}
	date := rep.Date
	if date == "" {
		date = e.now().Format("2006-01-02")
	}

	portrait := PageDimensions(opts.PageSize, Portrait)
	page := PageDimensions(opts.PageSize, opts.Orientation)
	orientation := "P"
	if opts.Orientation == Landscape {
		orientation = "L"
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: portrait.Width, Ht: portrait.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("chartdeck", false)
	pdf.SetCreationDate(e.now())
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfTitleSize)
	pdf.Text(pdfMargin, pdfTitleY, tr(title))
	pdf.SetFont("Helvetica", "", pdfSubtitleSize)
	pdf.Text(pdfMargin, pdfSubtitleY, tr("Generated on "+date))
	pdf.Line(pdfMargin, pdfRuleY, page.Width-pdfMargin, pdfRuleY)

	groups := [][]chart.Definition{rep.Charts}
	if opts.GroupByDataset {
		groups = groupByDataset(rep.Charts)
	}

	y := pdfChartsStartY
	for _, group := range groups {
		if opts.GroupByDataset {
			pdf.AddPage()
			pdf.SetFont("Helvetica", "B", pdfSectionSize)
			pdf.Text(pdfMargin, pdfSectionY, tr(group[0].DatasetName.Label()))
			y = pdfSectionBody
		}
		for _, c := range group {
			img, err := e.rasterize(ctx, c)
			if err != nil {
				return Document{}, err
			}
			w := page.Width - 2*pdfMargin
			h := w * float64(img.Height) / float64(img.Width)
			if y+h+pdfChartGap > page.Height {
				pdf.AddPage()
				y = pdfMargin
			}

			pdf.SetFont("Helvetica", "", pdfCaptionSize)
			pdf.Text(pdfMargin, y, tr(c.Title))

			name := "chart-" + c.ID
			imgOpts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, imgOpts, bytes.NewReader(img.PNG))
			pdf.ImageOptions(name, pdfMargin, y+pdfCaptionGap, w, h, false, imgOpts, 0, "")
			if err := pdf.Error(); err != nil {
				return Document{}, fmt.Errorf("placing chart %s: %w", c.ID, err)
			}
			y += h + pdfChartGap
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Document{}, fmt.Errorf("writing pdf: %w", err)
	}
	return Document{
		Format:      FormatPDF,
		FileName:    FileName(title, ".pdf"),
		ContentType: contentTypePDF,
		Data:        buf.Bytes(),
		Pages:       pdf.PageCount(),
	}, nil
}

// groupByDataset splits charts by source slot, in first-seen order.
func groupByDataset(charts []chart.Definition) [][]chart.Definition {
	var groups [][]chart.Definition
	index := make(map[string]int)
	for _, c := range charts {
		key := string(c.DatasetName)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], c)
	}
	return groups
}
