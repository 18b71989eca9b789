// Package pipeline converts animated SVG documents into GIF loops and videos.
//
// A Pipeline owns a raster surface and a staging directory that are reused
// between conversions, it runs one conversion at a time.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/encoder"
	"github.com/wader/svgcast/internal/logging"
	"github.com/wader/svgcast/internal/render"
	"github.com/wader/svgcast/internal/render/all"
	"github.com/wader/svgcast/internal/svgdoc"
	"github.com/wader/svgcast/internal/timeline"
)

// DefaultCaptureShare is the part of the GIF progress used by frame capture,
// the rest is encoding
const DefaultCaptureShare = 0.6

// LoopEncoder encodes a finite set of PNG frames into a looping image
type LoopEncoder interface {
	EncodeLoop(ctx context.Context, job encoder.LoopJob, progress func(float64)) ([]byte, error)
}

// VideoRecorder encodes a live raw frame feed
type VideoRecorder interface {
	Record(ctx context.Context, job encoder.RecordJob, feed encoder.Feed) ([]byte, error)
}

type Option func(p *Pipeline)

func WithRasterizer(r render.Rasterizer) Option { return func(p *Pipeline) { p.rasterizer = r } }
func WithLoopEncoder(e LoopEncoder) Option      { return func(p *Pipeline) { p.loop = e } }
func WithRecorder(r VideoRecorder) Option       { return func(p *Pipeline) { p.recorder = r } }
func WithProber(pr encoder.Prober) Option       { return func(p *Pipeline) { p.prober = pr } }
func WithLogger(l logrus.FieldLogger) Option    { return func(p *Pipeline) { p.logger = l } }

// WithThrottle sets a delay after each video frame
func WithThrottle(d time.Duration) Option { return func(p *Pipeline) { p.throttle = d } }

// WithCaptureShare sets the part (0-1) of GIF progress used by frame capture
func WithCaptureShare(f float64) Option { return func(p *Pipeline) { p.captureShare = f } }

// WithStagingDir sets where the staging directory is created, default is
// the system temp directory
func WithStagingDir(dir string) Option { return func(p *Pipeline) { p.stagingParent = dir } }

type Pipeline struct {
	mu sync.Mutex

	rasterizer    render.Rasterizer
	loop          LoopEncoder
	recorder      VideoRecorder
	prober        encoder.Prober
	logger        logrus.FieldLogger
	seekLog       *logrus.Entry
	throttle      time.Duration
	captureShare  float64
	stagingParent string

	surface *surface
	staging *staging
}

type conversion struct {
	doc      *svgdoc.Document
	cfg      Config
	geo      svgdoc.Geometry
	samples  timeline.Samples
	progress *progress
	log      *logrus.Entry
}

// New creates a pipeline. Without options the first available rasterizer and
// ffmpeg encoders are used.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{captureShare: DefaultCaptureShare}
	for _, o := range opts {
		o(p)
	}
	if p.captureShare < 0 || p.captureShare > 1 {
		return nil, fmt.Errorf("capture share must be in [0,1], got %v", p.captureShare)
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	p.seekLog = logging.Component(p.logger, "seek")
	if p.rasterizer == nil {
		r, err := all.First("")
		if err != nil {
			return nil, err
		}
		p.rasterizer = r
	}
	encLog := logging.Component(p.logger, "encoder")
	if p.loop == nil {
		p.loop = &encoder.GIF{Log: encLog}
	}
	if p.recorder == nil {
		p.recorder = &encoder.Recorder{Log: encLog}
	}
	if p.prober == nil {
		p.prober = &encoder.FeatureProber{}
	}

	s, err := newStaging(p.stagingParent)
	if err != nil {
		return nil, err
	}
	p.staging = s
	p.surface = newSurface()

	return p, nil
}

// Rasterizer in use
func (p *Pipeline) Rasterizer() render.Rasterizer { return p.rasterizer }

// Outstanding is the number of staging blobs not yet released
func (p *Pipeline) Outstanding() int {
	if p.staging == nil {
		return 0
	}
	return int(p.staging.outstanding.Load())
}

func (p *Pipeline) begin() error {
	if p.surface == nil || p.staging == nil {
		return &ConversionError{Reason: "surface not initialized"}
	}
	if !p.mu.TryLock() {
		return &ConversionError{Reason: "conversion already running"}
	}
	return nil
}

func (p *Pipeline) prepare(src string, cfg Config) (*svgdoc.Document, svgdoc.Geometry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, svgdoc.Geometry{}, &ConversionError{Reason: "invalid configuration", Err: err}
	}
	doc, err := svgdoc.Parse(src)
	if err != nil {
		return nil, svgdoc.Geometry{}, err
	}
	if w, h := doc.Size(); w*cfg.Scale*h*cfg.Scale > MaxPixels {
		return nil, svgdoc.Geometry{}, &ConversionError{
			Reason: fmt.Sprintf("output %gx%g exceeds %d pixels", w*cfg.Scale, h*cfg.Scale, MaxPixels),
		}
	}
	geo := doc.Geometry(cfg.Scale)
	p.surface.resize(geo.Width, geo.Height)
	return doc, geo, nil
}

// Convert renders src with cfg into a GIF loop or video. onProgress is
// called with non-decreasing percentages and with 100 only on success.
func (p *Pipeline) Convert(ctx context.Context, src string, cfg Config, onProgress func(percent int)) (*Result, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	doc, geo, err := p.prepare(src, cfg)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	c := &conversion{
		doc:      doc,
		cfg:      cfg,
		geo:      geo,
		samples:  timeline.Sample(cfg.FrameRate, cfg.Duration),
		progress: newProgress(onProgress),
		log: logging.Component(p.logger, "pipeline").WithFields(logrus.Fields{
			"id":        id,
			"container": cfg.Container,
			"geometry":  geo.String(),
		}),
	}
	c.log.WithFields(logrus.Fields{
		"frames":     c.samples.Count,
		"rasterizer": p.rasterizer.Name(),
	}).Info("conversion started")
	start := time.Now()

	var res *Result
	switch cfg.Container {
	case ContainerGIF:
		res, err = p.rasterLoop(ctx, c)
	case ContainerVideo:
		res, err = p.video(ctx, c)
	}
	if err != nil {
		c.progress.stop()
		c.log.WithError(err).Warn("conversion failed")
		return nil, err
	}

	res.ID = id
	res.Geometry = geo
	c.progress.finish()
	c.log.WithFields(logrus.Fields{
		"bytes":    len(res.Data),
		"codec":    res.Codec,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Info("conversion done")

	return res, nil
}

// Still renders the frame at t as PNG
func (p *Pipeline) Still(ctx context.Context, src string, cfg Config, t float64) ([]byte, error) {
	if err := p.begin(); err != nil {
		return nil, err
	}
	defer p.mu.Unlock()

	if t < 0 {
		return nil, &ConversionError{Reason: fmt.Sprintf("negative time %v", t)}
	}
	doc, geo, err := p.prepare(src, cfg)
	if err != nil {
		return nil, err
	}
	if err := p.renderFrame(ctx, doc, t, geo, cfg.Transparent); err != nil {
		return nil, err
	}
	b, err := p.surface.encodePNG()
	if err != nil {
		return nil, &FrameGenerationError{Time: t, Err: err}
	}
	return b, nil
}

// Close removes the staging directory
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.staging == nil {
		return nil
	}
	err := p.staging.close()
	p.staging = nil
	return err
}
