// Package all lists the known rasterizers in preference order
package all

import (
	"fmt"
	"strings"

	"github.com/wader/svgcast/internal/render"
	"github.com/wader/svgcast/internal/render/ffmpeg"
	"github.com/wader/svgcast/internal/render/inkscape"
	"github.com/wader/svgcast/internal/render/rsvg"
)

var Rasterizers = []render.Rasterizer{
	rsvg.Rasterizer{},
	inkscape.Rasterizer{},
	ffmpeg.Rasterizer{},
}

// Names of all rasterizers
func Names() []string {
	var ns []string
	for _, r := range Rasterizers {
		ns = append(ns, r.Name())
	}
	return ns
}

// First returns the rasterizer with name, or the first available one if name
// is empty
func First(name string) (render.Rasterizer, error) {
	for _, r := range Rasterizers {
		if name != "" && r.Name() != name {
			continue
		}
		if !r.Available() {
			if name != "" {
				return nil, fmt.Errorf("%s: %w", name, render.ErrUnavailable)
			}
			continue
		}
		return r, nil
	}
	if name != "" {
		return nil, fmt.Errorf("unknown rasterizer %q (%s)", name, strings.Join(Names(), ", "))
	}
	return nil, fmt.Errorf("%w: tried %s", render.ErrUnavailable, strings.Join(Names(), ", "))
}
