// Package sample generates demo animated SVG documents
package sample

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo/float"
)

// Options for the orbit document
type Options struct {
	Size       float64
	Background string
	Core       string
	Satellite  string
}

// DefaultOptions is a 400x400 dark canvas
var DefaultOptions = Options{
	Size:       400,
	Background: "#0f172a",
	Core:       "#6366f1",
	Satellite:  "#f43f5e",
}

// Orbit writes a document using all kinds of SMIL animation, a rotating
// dashed ring, a pulsing core and a satellite moving along an arc path
func Orbit(w io.Writer, o Options) {
	c := o.Size / 2
	doc := svg.New(w)
	doc.Start(o.Size, o.Size, fmt.Sprintf(`viewBox="0 0 %g %g"`, o.Size, o.Size))
	doc.Rect(0, 0, o.Size, o.Size, `fill="`+o.Background+`"`, `rx="20"`)
	doc.Gtransform(fmt.Sprintf("translate(%g,%g)", c, c))

	fmt.Fprintf(doc.Writer, `<circle r="%g" fill="none" stroke="url(#gradient)" stroke-width="4" stroke-dasharray="10 20">`+"\n", c/2)
	fmt.Fprintln(doc.Writer, `<animateTransform attributeName="transform" type="rotate" from="0" to="360" dur="8s" repeatCount="indefinite"/>`)
	fmt.Fprintln(doc.Writer, `</circle>`)

	fmt.Fprintf(doc.Writer, `<circle r="%g" fill="%s">`+"\n", c/5, o.Core)
	fmt.Fprintf(doc.Writer, `<animate attributeName="r" values="%g;%g;%g" dur="2s" repeatCount="indefinite"/>`+"\n", c/5, c/4, c/5)
	fmt.Fprintln(doc.Writer, `<animate attributeName="opacity" values="1;0.7;1" dur="2s" repeatCount="indefinite"/>`)
	fmt.Fprintln(doc.Writer, `</circle>`)

	r := c * 0.4
	fmt.Fprintf(doc.Writer, `<circle r="%g" fill="%s">`+"\n", c/20, o.Satellite)
	fmt.Fprintf(doc.Writer, `<animateMotion dur="3s" repeatCount="indefinite" path="M 0,%g A %g,%g 0 1,1 0,%g A %g,%g 0 1,1 0,%g"/>`+"\n",
		-r, r, r, r, r, r, -r)
	fmt.Fprintln(doc.Writer, `</circle>`)
	doc.Gend()

	doc.Def()
	doc.LinearGradient("gradient", 0, 0, 100, 0, []svg.Offcolor{
		{Offset: 0, Color: o.Core, Opacity: 1},
		{Offset: 100, Color: o.Satellite, Opacity: 1},
	})
	doc.DefEnd()
	doc.End()
}

// OrbitString returns Orbit with DefaultOptions
func OrbitString() string {
	b := &bytes.Buffer{}
	Orbit(b, DefaultOptions)
	return b.String()
}

// Pulse writes a document animated only with CSS keyframes, a square that
// moves right and fades
func Pulse(w io.Writer, size float64) {
	doc := svg.New(w)
	doc.Start(size, size)
	fmt.Fprintf(doc.Writer, `<style>
@keyframes slide { from { transform: translateX(0px); opacity: 1 } to { transform: translateX(%gpx); opacity: 0.2 } }
#box { animation: slide 2s linear infinite; }
</style>
`, size/2)
	doc.Rect(0, 0, size/4, size/4, `id="box"`, `fill="#f43f5e"`)
	doc.End()
}
