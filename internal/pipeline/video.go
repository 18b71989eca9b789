package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/encoder"
)

// video streams frames from the surface into the recorder while it encodes
func (p *Pipeline) video(ctx context.Context, c *conversion) (*Result, error) {
	format := encoder.Negotiate(ctx, p.prober, encoder.DefaultFormats, c.cfg.VideoFormat)
	job := encoder.RecordJob{
		Width:       c.geo.Width,
		Height:      c.geo.Height,
		FrameRate:   c.cfg.FrameRate,
		Bitrate:     encoder.Bitrate(c.cfg.Quality),
		Format:      format,
		Transparent: c.cfg.Transparent,
	}
	c.log.WithFields(logrus.Fields{
		"format":  format.String(),
		"bitrate": job.Bitrate,
	}).Debug("video format negotiated")

	report := c.progress.phase(0, 1)
	data, err := p.recorder.Record(ctx, job, func(ctx context.Context, w io.Writer) error {
		for i := 0; i < c.samples.Count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.renderFrame(ctx, c.doc, c.samples.At(i), c.geo, c.cfg.Transparent); err != nil {
				return err
			}
			if _, err := w.Write(p.surface.rgba()); err != nil {
				return err
			}
			report(float64(i+1) / float64(c.samples.Count))

			if p.throttle > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(p.throttle):
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	codec := format.Encoder
	if codec == "" {
		codec = format.Muxer + " default"
	}
	return &Result{
		Data:      data,
		MediaType: format.MediaType,
		Codec:     codec,
		Frames:    c.samples.Count,
	}, nil
}
