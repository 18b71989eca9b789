package pipeline

import (
	"context"

	"github.com/wader/svgcast/internal/encoder"
)

// rasterLoop captures all frames as PNG first and then encodes them as a
// looping GIF. Capture and encode each own a part of the progress.
func (p *Pipeline) rasterLoop(ctx context.Context, c *conversion) (*Result, error) {
	capture := c.progress.phase(0, p.captureShare)
	frames := make([][]byte, 0, c.samples.Count)
	for i := 0; i < c.samples.Count; i++ {
		t := c.samples.At(i)
		if err := p.renderFrame(ctx, c.doc, t, c.geo, c.cfg.Transparent); err != nil {
			return nil, err
		}
		b, err := p.surface.encodePNG()
		if err != nil {
			return nil, &FrameGenerationError{Time: t, Err: err}
		}
		frames = append(frames, b)
		capture(float64(i+1) / float64(c.samples.Count))
	}
	c.log.WithField("frames", len(frames)).Debug("frames captured")

	data, err := p.loop.EncodeLoop(ctx, encoder.LoopJob{
		Frames:      frames,
		Width:       c.geo.Width,
		Height:      c.geo.Height,
		Interval:    c.samples.Interval(),
		Count:       c.samples.Count,
		Transparent: c.cfg.Transparent,
	}, c.progress.phase(p.captureShare, 1))
	if err != nil {
		return nil, err
	}

	return &Result{
		Data:      data,
		MediaType: encoder.GIFMediaType,
		Codec:     "gif",
		Frames:    c.samples.Count,
	}, nil
}
