package encoder

import (
	"context"
	"sync"

	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/goffmpeg/features"
)

// FeatureProber answers using the encoders and muxers ffmpeg lists. The
// listing is loaded once.
type FeatureProber struct {
	// Load defaults to goffmpeg.Features
	Load func(ctx context.Context) (features.Features, error)

	once sync.Once
	f    features.Features
	err  error
}

// Features returns the loaded listing
func (p *FeatureProber) Features(ctx context.Context) (features.Features, error) {
	p.once.Do(func() {
		load := p.Load
		if load == nil {
			load = goffmpeg.Features
		}
		p.f, p.err = load(ctx)
	})
	return p.f, p.err
}

func (p *FeatureProber) Supports(ctx context.Context, f Format) bool {
	fs, err := p.Features(ctx)
	if err != nil {
		return false
	}
	if !fs.HasMuxer(f.Muxer) {
		return false
	}
	return f.Encoder == "" || fs.HasEncoder(f.Encoder)
}
