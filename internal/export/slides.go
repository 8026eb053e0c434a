package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/kalambet/chartdeck/internal/dataset"
	"github.com/kalambet/chartdeck/internal/store"
)

// DefaultDeckName is used when the caller does not name the deck.
const DefaultDeckName = "DataReport.pptx"

const (
	tableRowsPerSlide = 12
	// tableExtraColumns caps the data columns shown next to the link column.
	tableExtraColumns = 5
	linkText          = "View Post"
)

// SlideOptions controls deck contents.
type SlideOptions struct {
	FileName string
	// TableSlot names the dataset listed on the table slides.
	TableSlot dataset.Slot
	// LinkColumn is the column each table row links to.
	LinkColumn string
	// SettleDelay is waited before each chart is rasterized.
	SettleDelay time.Duration
}

// ExportSlides builds a deck: a title slide, table slides listing table (the
// rows of opts.TableSlot), then one slide per chart.
func (e *Exporter) ExportSlides(ctx context.Context, rep store.Report, table []dataset.Record, opts SlideOptions) (Document, error) {
	return e.run(FormatSlides, rep.Charts, func() (Document, error) {
		return e.buildSlides(ctx, rep, table, opts)
	})
}

func (e *Exporter) buildSlides(ctx context.Context, rep store.Report, table []dataset.Record, opts SlideOptions) (Document, error) {
	if opts.FileName == "" {
		opts.FileName = DefaultDeckName
	}
	if opts.TableSlot == "" {
		opts.TableSlot = dataset.OfficialInstagram
	}
	if opts.LinkColumn == "" {
		opts.LinkColumn = "Media URL"
	}

	d := newDeck()
	d.addTitle(rep.Title, rep.Date)

	if len(table) > 0 {
		header, rows := tableCells(table, opts.LinkColumn)
		heading := opts.TableSlot.Label() + " Data"
		for start := 0; start < len(rows); start += tableRowsPerSlide {
			end := min(start+tableRowsPerSlide, len(rows))
			d.addTable(heading, header, rows[start:end])
		}
	}

	for _, c := range rep.Charts {
		if err := settle(ctx, opts.SettleDelay); err != nil {
			return Document{}, err
		}
		img, err := e.rasterize(ctx, c)
		if err != nil {
			return Document{}, err
		}
		d.addPicture(c.Title, img.PNG, img.Width, img.Height)
	}

	var buf bytes.Buffer
	if err := d.write(&buf, deckMeta{Title: rep.Title, Created: e.now()}); err != nil {
		return Document{}, fmt.Errorf("writing deck: %w", err)
	}
	return Document{
		Format:      FormatSlides,
		FileName:    opts.FileName,
		ContentType: contentTypePPTX,
		Data:        buf.Bytes(),
		Pages:       len(d.slides),
	}, nil
}

// tableCells lays rows out as a link column followed by up to
// tableExtraColumns other columns taken from the first row.
func tableCells(rows []dataset.Record, linkColumn string) ([]string, [][]cell) {
	var cols []string
	for _, k := range dataset.Columns(rows) {
		if k == linkColumn {
			continue
		}
		if len(cols) == tableExtraColumns {
			break
		}
		cols = append(cols, k)
	}
	header := append([]string{"Link"}, cols...)

	out := make([][]cell, 0, len(rows))
	for _, row := range rows {
		line := make([]cell, 0, len(header))
		link := cell{}
		if v, ok := row.Get(linkColumn); ok {
			if u, ok := normalizeLink(v.Text()); ok {
				link = cell{Text: linkText, URL: u}
			}
		}
		line = append(line, link)
		for _, k := range cols {
			v, _ := row.Get(k)
			line = append(line, cell{Text: v.Text()})
		}
		out = append(out, line)
	}
	return header, out
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
