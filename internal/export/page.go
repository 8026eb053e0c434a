package export

import (
	"fmt"
	"strings"
)

// PageSize names a supported paper format.
type PageSize string

const (
	A4     PageSize = "a4"
	Letter PageSize = "letter"
	Legal  PageSize = "legal"
)

// Orientation of the exported pages.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Dimensions in millimetres, portrait.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var pageSizes = map[PageSize]Dimensions{
	A4:     {Width: 210, Height: 297},
	Letter: {Width: 215.9, Height: 279.4},
	Legal:  {Width: 215.9, Height: 355.6},
}

// PageSizes lists the supported formats in menu order.
var PageSizes = []PageSize{A4, Letter, Legal}

// Label is the display name ("A4", "Letter").
func (p PageSize) Label() string {
	if p == A4 {
		return "A4"
	}
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePageSize accepts a format name case-insensitively.
func ParsePageSize(s string) (PageSize, error) {
	p := PageSize(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := pageSizes[p]; !ok {
		return "", fmt.Errorf("unsupported page size %q (want a4, letter or legal)", s)
	}
	return p, nil
}

// ParseOrientation accepts "portrait" or "landscape" case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch o := Orientation(strings.ToLower(strings.TrimSpace(s))); o {
	case Portrait, Landscape:
		return o, nil
	}
	return "", fmt.Errorf("unsupported orientation %q (want portrait or landscape)", s)
}

// PageDimensions returns the page width and height for p in orientation o;
// landscape swaps the portrait dimensions.
func PageDimensions(p PageSize, o Orientation) Dimensions {
	d, ok := pageSizes[p]
	if !ok {
		d = pageSizes[A4]
	}
	if o == Landscape {
		d.Width, d.Height = d.Height, d.Width
	}
	return d
}
