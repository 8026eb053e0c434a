// Package decode reads uploaded spreadsheet bytes into a header + rows grid
// and types the cells into dataset records.
package decode

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kalambet/chartdeck/internal/dataset"
)

// ErrUnsupportedExtension is returned for files that are not .xlsx, .xls or .csv.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// Extensions lists the accepted upload suffixes.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// DecodeError wraps a failure to read or parse an uploaded file.
type DecodeError struct {
	File string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %q: %v", e.File, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CheckExtension accepts only spreadsheet suffixes, case-insensitively.
func CheckExtension(fileName string) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, ok := range Extensions {
		if ext == ok {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedExtension, fileName)
}

// Sheet is the raw grid of the first sheet: Rows[0] is the header.
// Blank rows are dropped.
type Sheet struct {
	Name string
	Rows [][]string
}

// Decode reads r to the end and parses it according to fileName's extension.
func Decode(ctx context.Context, fileName string, r io.Reader) (Sheet, error) {
	if err := CheckExtension(fileName); err != nil {
		return Sheet{}, err
	}
	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: r})
	if err != nil {
		return Sheet{}, &DecodeError{File: fileName, Err: fmt.Errorf("reading upload: %w", err)}
	}

	var grid [][]string
	var name string
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		name = strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
		grid, err = readCSV(data)
	default:
		name, grid, err = readWorkbook(data)
	}
	if err != nil {
		return Sheet{}, &DecodeError{File: fileName, Err: err}
	}
	return Sheet{Name: name, Rows: dropBlankRows(grid)}, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return rows, nil
}

func readWorkbook(data []byte) (string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	return sheets[0], rows, nil
}

func dropBlankRows(grid [][]string) [][]string {
	out := grid[:0:0]
	for _, row := range grid {
		blank := true
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, row)
		}
	}
	return out
}

// Header returns the column names derived from the first row. Blank header
// cells become __EMPTY, __EMPTY_1, …; repeated names get _1, _2 suffixes.
func (s Sheet) Header() []string {
	if len(s.Rows) == 0 {
		return nil
	}
	width := 0
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	used := make(map[string]bool, width)
	suffix := make(map[string]int, width)
	header := make([]string, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(s.Rows[0]) {
			name = strings.TrimSpace(s.Rows[0][i])
		}
		if name == "" {
			name = "__EMPTY"
		}
		if used[name] {
			base, n := name, suffix[name]
			for used[name] {
				n++
				name = fmt.Sprintf("%s_%d", base, n)
			}
			suffix[base] = n
		}
		used[name] = true
		header[i] = name
	}
	return header
}

// Records converts every data row into a typed record keyed by the header.
// Empty cells are omitted from their record.
func (s Sheet) Records() []dataset.Record {
	if len(s.Rows) < 2 {
		return []dataset.Record{}
	}
	header := s.Header()
	out := make([]dataset.Record, 0, len(s.Rows)-1)
	for _, row := range s.Rows[1:] {
		rec := dataset.NewRecord()
		for i, cell := range row {
			if i >= len(header) || cell == "" {
				continue
			}
			rec.Set(header[i], dataset.Parse(cell))
		}
		out = append(out, rec)
	}
	return out
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
