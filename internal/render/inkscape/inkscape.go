// Package inkscape rasterizes using inkscape 1.x
package inkscape

import (
	"context"
	"image"
	"strconv"

	"github.com/wader/svgcast/internal/render"
)

var Paths = []string{
	"inkscape",
	"/Applications/Inkscape.app/Contents/MacOS/inkscape",
}

type Rasterizer struct{}

func (Rasterizer) Name() string { return "inkscape" }

func (Rasterizer) Available() bool {
	_, ok := render.FindPath(Paths)
	return ok
}

func (Rasterizer) Rasterize(ctx context.Context, path string, width, height int) (image.Image, error) {
	p, ok := render.FindPath(Paths)
	if !ok {
		return nil, render.ErrUnavailable
	}
	return render.DecodeCommand(ctx, p,
		"--export-type=png",
		"--export-filename=-",
		"--export-width="+strconv.Itoa(width),
		"--export-height="+strconv.Itoa(height),
		path,
	)
}
