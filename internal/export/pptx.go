package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"text/template"
	"time"
)

// Slide geometry in EMU (914400 per inch) for a 10 x 5.625 in 16:9 deck.
const (
	emuPerInch  = 914400
	slideWidth  = 10 * emuPerInch
	slideHeight = 5143500

	headingX     = emuPerInch / 2
	headingY     = emuPerInch * 3 / 10
	headingCX    = 9 * emuPerInch
	headingCY    = emuPerInch * 6 / 10
	bodyX        = emuPerInch / 2
	bodyY        = emuPerInch
	bodyCX       = 9 * emuPerInch
	bodyCY       = emuPerInch * 43 / 10
	tableRowH    = emuPerInch * 3 / 10
	headingSize  = 2000
	titleSize    = 2400
	subtitleSize = 1400
	tableSize    = 1000
)

const (
	relSlideLayout = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	relImage       = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relHyperlink   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"
)

type textBox struct {
	ID           int
	Name         string
	X, Y, CX, CY int64
	Size         int
	Bold         bool
	Text         string
}

type cell struct {
	Text string
	URL  string
	// RID is the slide relationship of URL, assigned when the slide is built.
	RID string
}

type tableFrame struct {
	ID           int
	X, Y, CX, CY int64
	ColW         int64
	RowH         int64
	FontSize     int
	Header       []string
	Rows         [][]cell
}

type picture struct {
	ID           int
	RID          string
	Descr        string
	X, Y, CX, CY int64
}

type relationship struct {
	ID       string
	Type     string
	Target   string
	External bool
}

type slide struct {
	Texts   []textBox
	Table   *tableFrame
	Picture *picture
	Rels    []relationship
	media   map[string][]byte
}

func (s *slide) addRel(typ, target string, external bool) string {
	id := fmt.Sprintf("rId%d", len(s.Rels)+1)
	s.Rels = append(s.Rels, relationship{ID: id, Type: typ, Target: target, External: external})
	return id
}

type deck struct {
	slides []*slide
	images int
}

type deckMeta struct {
	Title   string
	Created time.Time
}

func newDeck() *deck { return &deck{} }

func (d *deck) newSlide() *slide {
	s := &slide{media: make(map[string][]byte)}
	s.addRel(relSlideLayout, "../slideLayouts/slideLayout1.xml", false)
	d.slides = append(d.slides, s)
	return s
}

func (d *deck) addTitle(title, date string) {
	s := d.newSlide()
	s.Texts = append(s.Texts,
		textBox{ID: 2, Name: "Title", X: emuPerInch, Y: emuPerInch, CX: 8 * emuPerInch, CY: emuPerInch * 8 / 10,
			Size: titleSize, Bold: true, Text: title},
		textBox{ID: 3, Name: "Date", X: emuPerInch, Y: emuPerInch * 18 / 10, CX: 8 * emuPerInch, CY: emuPerInch / 2,
			Size: subtitleSize, Text: date},
	)
}

func (d *deck) addTable(heading string, header []string, rows [][]cell) {
	s := d.newSlide()
	s.Texts = append(s.Texts, headingBox(heading))

	linked := make([][]cell, len(rows))
	for i, row := range rows {
		linked[i] = append([]cell(nil), row...)
		for j := range linked[i] {
			if linked[i][j].URL != "" {
				linked[i][j].RID = s.addRel(relHyperlink, linked[i][j].URL, true)
			}
		}
	}
	n := int64(len(header))
	s.Table = &tableFrame{
		ID:       3,
		X:        bodyX,
		Y:        bodyY,
		CX:       bodyCX,
		CY:       tableRowH * int64(len(rows)+1),
		ColW:     bodyCX / n,
		RowH:     tableRowH,
		FontSize: tableSize,
		Header:   header,
		Rows:     linked,
	}
}

func (d *deck) addPicture(caption string, png []byte, w, h int) {
	s := d.newSlide()
	s.Texts = append(s.Texts, headingBox(caption))

	d.images++
	name := fmt.Sprintf("image%d.png", d.images)
	s.media[name] = png
	rid := s.addRel(relImage, "../media/"+name, false)

	cx, cy := fit(int64(w), int64(h), bodyCX, bodyCY)
	s.Picture = &picture{
		ID:    3,
		RID:   rid,
		Descr: caption,
		X:     bodyX + (bodyCX-cx)/2,
		Y:     bodyY,
		CX:    cx,
		CY:    cy,
	}
}

func headingBox(text string) textBox {
	return textBox{ID: 2, Name: "Heading", X: headingX, Y: headingY, CX: headingCX, CY: headingCY,
		Size: headingSize, Text: text}
}

// fit scales w x h to the largest size inside maxW x maxH keeping the aspect
// ratio.
func fit(w, h, maxW, maxH int64) (int64, int64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	cx, cy := maxW, maxW*h/w
	if cy > maxH {
		cx, cy = maxH*w/h, maxH
	}
	return cx, cy
}

// write emits the deck as an OOXML package.
func (d *deck) write(w io.Writer, meta deckMeta) error {
	zw := zip.NewWriter(w)
	put := func(name string, tmpl *template.Template, data any) error {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: meta.Created})
		if err != nil {
			return err
		}
		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
	raw := func(name string, data []byte) error {
		f, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store, Modified: meta.Created})
		if err != nil {
			return err
		}
		_, err = f.Write(data)
		return err
	}

	pkg := struct {
		Slides           []*slide
		Title            string
		Created          string
		SlideCX, SlideCY int64
	}{d.slides, meta.Title, meta.Created.UTC().Format(time.RFC3339), slideWidth, slideHeight}

	parts := []struct {
		name string
		tmpl *template.Template
	}{
		{"[Content_Types].xml", contentTypesTmpl},
		{"_rels/.rels", rootRelsTmpl},
		{"docProps/core.xml", coreTmpl},
		{"docProps/app.xml", appTmpl},
		{"ppt/presentation.xml", presentationTmpl},
		{"ppt/_rels/presentation.xml.rels", presentationRelsTmpl},
		{"ppt/presProps.xml", presPropsTmpl},
		{"ppt/viewProps.xml", viewPropsTmpl},
		{"ppt/tableStyles.xml", tableStylesTmpl},
		{"ppt/theme/theme1.xml", themeTmpl},
		{"ppt/slideMasters/slideMaster1.xml", masterTmpl},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", masterRelsTmpl},
		{"ppt/slideLayouts/slideLayout1.xml", layoutTmpl},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", layoutRelsTmpl},
	}
	for _, p := range parts {
		if err := put(p.name, p.tmpl, pkg); err != nil {
			return err
		}
	}
	for i, s := range d.slides {
		n := i + 1
		if err := put(fmt.Sprintf("ppt/slides/slide%d.xml", n), slideTmpl, s); err != nil {
			return err
		}
		if err := put(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), slideRelsTmpl, s); err != nil {
			return err
		}
		for name, data := range s.media {
			if err := raw("ppt/media/"+name, data); err != nil {
				return err
			}
		}
	}
	return zw.Close()
}

func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

var tmplFuncs = template.FuncMap{
	"esc": xmlEscape,
	"add": func(a, b int) int { return a + b },
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(tmplFuncs).Parse(text))
}
