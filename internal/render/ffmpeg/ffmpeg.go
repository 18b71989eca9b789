// Package ffmpeg rasterizes using a ffmpeg built with the librsvg decoder
package ffmpeg

import (
	"bytes"
	"context"
	"image"
	"strconv"
	"sync"

	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/render"
)

// Decoder is the ffmpeg SVG decoder name
const Decoder = "librsvg"

var hasDecoder = sync.OnceValue(func() bool {
	if _, err := goffmpeg.LookPath(); err != nil {
		return false
	}
	f, err := goffmpeg.Features(context.Background())
	if err != nil {
		return false
	}
	return f.HasDecoder(Decoder)
})

type Rasterizer struct {
	DebugLog goffmpeg.Printer
}

func (Rasterizer) Name() string { return "ffmpeg" }

func (Rasterizer) Available() bool { return hasDecoder() }

func (r Rasterizer) Rasterize(ctx context.Context, path string, width, height int) (image.Image, error) {
	if !hasDecoder() {
		return nil, render.ErrUnavailable
	}

	fg := goffmpeg.FilterGraph{
		goffmpeg.FilterChain{
			goffmpeg.Filter{
				Name:    "scale",
				Inputs:  []string{"0:v"},
				Outputs: []string{"out"},
				Options: map[string]string{
					"w": strconv.Itoa(width),
					"h": strconv.Itoa(height),
				},
			},
		},
	}

	bb := &bytes.Buffer{}
	f := goffmpeg.FFmpegCmd{
		Context:  ctx,
		DebugLog: r.DebugLog,
		Inputs: []*goffmpeg.Input{
			{
				File:    path,
				Options: map[string]string{"codec:v": Decoder},
			},
		},
		FilterGraph: &fg,
		Outputs: []*goffmpeg.Output{
			{
				Maps: []*goffmpeg.Map{
					{
						Specifier: "[out]",
						Codec:     "png",
					},
				},
				Flags:  []string{"-frames", "1"},
				Format: "image2",
				File:   bb,
			},
		},
	}
	if err := f.Run(); err != nil {
		return nil, err
	}

	m, _, err := image.Decode(bb)
	if err != nil {
		return nil, err
	}
	return m, nil
}
