// Package rsvg rasterizes using rsvg-convert from librsvg
package rsvg

import (
	"context"
	"image"
	"strconv"

	"github.com/wader/svgcast/internal/render"
)

// Paths to try for the rsvg-convert binary
var Paths = []string{"rsvg-convert"}

type Rasterizer struct{}

func (Rasterizer) Name() string { return "rsvg" }

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
		"--format", "png",
		"--width", strconv.Itoa(width),
		"--height", strconv.Itoa(height),
		path,
	)
}
