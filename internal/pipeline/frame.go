package pipeline

import (
	"context"

	"github.com/wader/svgcast/internal/svgdoc"
)

// renderFrame seeks doc to t, rasterizes the snapshot through a staging
// blob and draws it onto the surface
func (p *Pipeline) renderFrame(ctx context.Context, doc *svgdoc.Document, t float64, geo svgdoc.Geometry, transparent bool) error {
	snap, err := svgdoc.Seek(doc, t, p.seekLog)
	if err != nil {
		return &FrameGenerationError{Time: t, Err: err}
	}

	path, release, err := p.staging.put(snap.Data)
	if err != nil {
		return &FrameGenerationError{Time: t, Err: err}
	}
	defer release()

	m, err := p.rasterizer.Rasterize(ctx, path, geo.Width, geo.Height)
	if err != nil {
		return &FrameGenerationError{Time: t, Err: err}
	}

	p.surface.clear(transparent)
	p.surface.draw(m)
	return nil
}
