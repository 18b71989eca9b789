package pipeline

import (
	"bytes"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// surface is the raster all frames are drawn onto, its pixel buffer is
// reused between frames and conversions
type surface struct {
	img *image.NRGBA
	enc png.Encoder
}

func newSurface() *surface {
	return &surface{
		img: &image.NRGBA{},
		enc: png.Encoder{CompressionLevel: png.BestSpeed},
	}
}

func (s *surface) resize(w, h int) {
	n := w * h * 4
	if cap(s.img.Pix) >= n {
		s.img.Pix = s.img.Pix[:n]
	} else {
		s.img.Pix = make([]uint8, n)
	}
	s.img.Stride = w * 4
	s.img.Rect = image.Rect(0, 0, w, h)
}

// clear to transparent black or opaque white
func (s *surface) clear(transparent bool) {
	var v uint8
	if !transparent {
		v = 0xff
	}
	for i := range s.img.Pix {
		s.img.Pix[i] = v
	}
}

// draw m scaled to the whole surface
func (s *surface) draw(m image.Image) {
	if m.Bounds().Size() == s.img.Rect.Size() {
		xdraw.Draw(s.img, s.img.Rect, m, m.Bounds().Min, xdraw.Over)
		return
	}
	xdraw.CatmullRom.Scale(s.img, s.img.Rect, m, m.Bounds(), xdraw.Over, nil)
}

func (s *surface) encodePNG() ([]byte, error) {
	b := &bytes.Buffer{}
	if err := s.enc.Encode(b, s.img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// rgba returns the raw non-premultiplied RGBA pixels
func (s *surface) rgba() []byte { return s.img.Pix }
