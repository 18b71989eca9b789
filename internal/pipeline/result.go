package pipeline

import (
	"github.com/gabriel-vasile/mimetype"
	"github.com/wader/svgcast/internal/svgdoc"
)

// Result is an encoded animation, owned by the caller
type Result struct {
	ID        string
	Data      []byte
	MediaType string
	Codec     string
	Frames    int
	Geometry  svgdoc.Geometry
}

// Extension for MediaType including dot, sniffed from Data if the media type
// is unknown
func (r *Result) Extension() string {
	if m := mimetype.Lookup(r.MediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return mimetype.Detect(r.Data).Extension()
}
