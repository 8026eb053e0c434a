// Package inspect summarises an exported PDF: page geometry, placed images and
// extracted text.
package inspect

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
)

const mmPerPoint = 25.4 / 72

// Page describes one page of a document.
type Page struct {
	Number   int     `json:"number"`
	WidthMM  float64 `json:"widthMm"`
	HeightMM float64 `json:"heightMm"`
	Images   int     `json:"images"`
	Text     string  `json:"text"`
}

// Summary describes a whole document.
type Summary struct {
	Pages []Page `json:"pages"`
}

// Images is the number of images placed across all pages.
func (s Summary) Images() int {
	n := 0
	for _, p := range s.Pages {
		n += p.Images
	}
	return n
}

// Text joins the text of every page.
func (s Summary) Text() string {
	parts := make([]string, len(s.Pages))
	for i, p := range s.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\n")
}

// File summarises the PDF at path.
func File(path string) (Summary, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return summarize(r)
}

// PDF summarises the document in r.
func PDF(r io.ReaderAt, size int64) (Summary, error) {
	rd, err := pdf.NewReader(r, size)
	if err != nil {
		return Summary{}, fmt.Errorf("reading pdf: %w", err)
	}
	return summarize(rd)
}

func summarize(r *pdf.Reader) (s Summary, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	n := r.NumPage()
	s.Pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		w, h := mediaBox(p.V)
		text, err := p.GetPlainText(nil)
		if err != nil {
			return Summary{}, fmt.Errorf("page %d text: %w", i, err)
		}
		s.Pages = append(s.Pages, Page{
			Number:   i,
			WidthMM:  round2(w * mmPerPoint),
			HeightMM: round2(h * mmPerPoint),
			Images:   countDraws(p.V.Key("Contents")),
			Text:     text,
		})
	}
	return s, nil
}

// mediaBox returns the page size in points, following the page tree for
// inherited boxes.
func mediaBox(v pdf.Value) (w, h float64) {
	for !v.IsNull() {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			return box.Index(2).Float64() - box.Index(0).Float64(),
				box.Index(3).Float64() - box.Index(1).Float64()
		}
		v = v.Key("Parent")
	}
	return 0, 0
}

// countDraws counts XObject paint operators in a content stream or array of
// streams.
func countDraws(contents pdf.Value) int {
	if contents.Kind() == pdf.Array {
		n := 0
		for i := 0; i < contents.Len(); i++ {
			n += countDraws(contents.Index(i))
		}
		return n
	}
	if contents.Kind() != pdf.Stream {
		return 0
	}
	n := 0
	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		if op == "Do" {
			n++
		}
		for stk.Len() > 0 {
			stk.Pop()
		}
	})
	return n
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }
