package svgdoc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultSize is used for a dimension that neither width/height nor viewBox declares
const DefaultSize = 400

// Geometry is output raster size in pixels, always even and at least 2
type Geometry struct {
	Width  int
	Height int
}

func (g Geometry) String() string { return fmt.Sprintf("%dx%d", g.Width, g.Height) }

// ViewBox is a parsed viewBox attribute
type ViewBox struct {
	MinX, MinY, Width, Height float64
}

// ParseViewBox parses "minx miny width height", comma and/or space separated
func ParseViewBox(s string) (ViewBox, bool) {
	fs := splitNumberList(s)
	if len(fs) != 4 {
		return ViewBox{}, false
	}
	var ns [4]float64
	for i, f := range fs {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return ViewBox{}, false
		}
		ns[i] = n
	}
	if ns[2] <= 0 || ns[3] <= 0 {
		return ViewBox{}, false
	}
	return ViewBox{MinX: ns[0], MinY: ns[1], Width: ns[2], Height: ns[3]}, true
}

func splitNumberList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
}

var absoluteUnits = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72.0,
	"pc": 16,
	"mm": 96.0 / 25.4,
	"cm": 96.0 / 2.54,
	"in": 96,
}

// parseLength parses a length with an absolute unit into pixels, relative
// units like % and em are not resolvable without a viewport
func parseLength(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] == '%') {
		i--
	}
	scale, ok := absoluteUnits[s[i:]]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil || n <= 0 || math.IsInf(n, 0) {
		return 0, false
	}
	return n * scale, true
}

// Size returns the intrinsic size of the document. Declared width/height wins,
// a missing dimension is derived from the viewBox (keeping aspect ratio if
// the other one is declared), else DefaultSize.
func (d *Document) Size() (width, height float64) {
	w, wOK := parseLength(attrOr(d.Root(), "width", ""))
	h, hOK := parseLength(attrOr(d.Root(), "height", ""))
	vb, vbOK := ParseViewBox(attrOr(d.Root(), "viewBox", ""))

	switch {
	case wOK && hOK:
	case wOK && vbOK:
		h = w * vb.Height / vb.Width
	case hOK && vbOK:
		w = h * vb.Width / vb.Height
	case vbOK:
		w, h = vb.Width, vb.Height
	}
	if w <= 0 {
		w = DefaultSize
	}
	if h <= 0 {
		h = DefaultSize
	}
	return w, h
}

func evenFloor(v float64) int {
	n := int(math.Floor(v/2)) * 2
	if n < 2 {
		return 2
	}
	return n
}

// Geometry returns output geometry for scale, each dimension rounded down to
// an even number as required by yuv420p video encoders
func (d *Document) Geometry(scale float64) Geometry {
	w, h := d.Size()
	return Geometry{
		Width:  evenFloor(w * scale),
		Height: evenFloor(h * scale),
	}
}
