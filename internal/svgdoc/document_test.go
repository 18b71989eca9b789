package svgdoc_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/wader/svgcast/internal/sample"
	"github.com/wader/svgcast/internal/svgdoc"
)

func TestParseInvalid(t *testing.T) {
	testCases := []string{
		"",
		"not xml at all",
		"<div>hello</div>",
		"<svg><g></svg>",
		"<svg><g>",
		"<svg",
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			_, err := svgdoc.Parse(tC)
			var ide *svgdoc.InvalidDocumentError
			if !errors.As(err, &ide) {
				t.Errorf("%q: expected InvalidDocumentError, got %v", tC, err)
			}
		})
	}
}

func TestParseNested(t *testing.T) {
	doc, err := svgdoc.Parse(`<html><body><svg width="10" height="20"><rect/></svg></body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	s := doc.String()
	if !strings.HasPrefix(s, "<svg ") || strings.Contains(s, "body") {
		t.Errorf("expected only svg element, got %s", s)
	}
	if !strings.Contains(s, `xmlns="http://www.w3.org/2000/svg"`) {
		t.Errorf("expected svg namespace to be added, got %s", s)
	}
}

func TestRoundTrip(t *testing.T) {
	src := `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><text x="1">a &amp; b</text><use xlink:href="#a"/></svg>`
	doc, err := svgdoc.Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if doc.String() != src {
		t.Errorf("expected %s, got %s", src, doc.String())
	}
	again, err := svgdoc.Parse(doc.String())
	if err != nil {
		t.Fatal(err)
	}
	if again.String() != src {
		t.Errorf("expected stable serialization, got %s", again.String())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc, err := svgdoc.Parse(`<svg><rect id="a" x="1"/></svg>`)
	if err != nil {
		t.Fatal(err)
	}
	before := doc.String()
	c := doc.Clone()
	for _, n := range c.Root().FindElements("//rect") {
		n.CreateAttr("x", "2")
	}
	if !strings.Contains(c.String(), `x="2"`) {
		t.Errorf("expected clone modified, got %s", c.String())
	}
	if doc.String() != before {
		t.Errorf("expected original unchanged, got %s", doc.String())
	}
}

func TestGeometry(t *testing.T) {
	testCases := []struct {
		svg      string
		scale    float64
		expected svgdoc.Geometry
	}{
		{`<svg width="400" height="400"/>`, 2, svgdoc.Geometry{Width: 800, Height: 800}},
		{`<svg width="401" height="301"/>`, 1, svgdoc.Geometry{Width: 400, Height: 300}},
		{`<svg viewBox="0 0 100 50"/>`, 1.5, svgdoc.Geometry{Width: 150, Height: 74}},
		{`<svg/>`, 1, svgdoc.Geometry{Width: 400, Height: 400}},
		{`<svg width="100" viewBox="0,0,200,100"/>`, 1, svgdoc.Geometry{Width: 100, Height: 50}},
		{`<svg width="100%" height="100%" viewBox="0 0 30 20"/>`, 1, svgdoc.Geometry{Width: 30, Height: 20}},
		{`<svg width="1in" height="0.5in"/>`, 1, svgdoc.Geometry{Width: 96, Height: 48}},
		{`<svg width="1" height="1"/>`, 1, svgdoc.Geometry{Width: 2, Height: 2}},
		{`<svg width="333" height="333"/>`, 0.5, svgdoc.Geometry{Width: 166, Height: 166}},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			doc, err := svgdoc.Parse(tC.svg)
			if err != nil {
				t.Fatal(err)
			}
			actual := doc.Geometry(tC.scale)
			if tC.expected != actual {
				t.Errorf("expected %v, got %v", tC.expected, actual)
			}
			if actual.Width%2 != 0 || actual.Height%2 != 0 {
				t.Errorf("expected even geometry, got %v", actual)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	testCases := []struct {
		svg      string
		expected svgdoc.Analysis
	}{
		{
			svg: sample.OrbitString(),
			expected: svgdoc.Analysis{
				HasSMIL:           true,
				ViewBox:           "0 0 400 400",
				Width:             400,
				Height:            400,
				SuggestedDuration: 8,
			},
		},
		{
			svg: `<svg viewBox="0 0 10 20"><style>@keyframes a { to { opacity: 0 } } rect { animation: a 1.5s 0.5s }</style><rect/></svg>`,
			expected: svgdoc.Analysis{
				HasCSSAnimation:   true,
				ViewBox:           "0 0 10 20",
				Width:             10,
				Height:            20,
				SuggestedDuration: 1.5,
			},
		},
		{
			svg: `<svg width="10" height="10"><rect/></svg>`,
			expected: svgdoc.Analysis{
				Width:             10,
				Height:            10,
				SuggestedDuration: svgdoc.DefaultSuggestedDuration,
			},
		},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			doc, err := svgdoc.Parse(tC.svg)
			if err != nil {
				t.Fatal(err)
			}
			if actual := svgdoc.Analyze(doc); tC.expected != actual {
				t.Errorf("expected %+v, got %+v", tC.expected, actual)
			}
		})
	}
}
