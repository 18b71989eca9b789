package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"image"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/wader/svgcast/internal/encoder"
	"github.com/wader/svgcast/internal/pipeline"
	"github.com/wader/svgcast/internal/sample"
	"github.com/wader/svgcast/internal/svgdoc"
)

// fakeRasterizer returns a solid image with a color derived from the blob
type fakeRasterizer struct {
	mu        sync.Mutex
	snapshots []string
	paths     []string
	failAt    int
	entered   chan struct{}
	release   chan struct{}
}

func (*fakeRasterizer) Name() string    { return "fake" }
func (*fakeRasterizer) Available() bool { return true }

func (r *fakeRasterizer) Rasterize(ctx context.Context, path string, w, h int) (image.Image, error) {
	if r.entered != nil {
		r.entered <- struct{}{}
		<-r.release
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.snapshots = append(r.snapshots, string(b))
	r.paths = append(r.paths, path)
	n := len(r.snapshots)
	r.mu.Unlock()
	if r.failAt > 0 && n == r.failAt {
		return nil, errors.New("decode failed")
	}

	hs := fnv.New32a()
	hs.Write(b)
	sum := hs.Sum32()
	c := color.NRGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 255}
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return m, nil
}

type fakeLoop struct {
	job encoder.LoopJob
	err error
}

func (l *fakeLoop) EncodeLoop(ctx context.Context, job encoder.LoopJob, progress func(float64)) ([]byte, error) {
	l.job = job
	if l.err != nil {
		return nil, l.err
	}
	progress(0.5)
	progress(1)
	return []byte("GIF89a"), nil
}

type fakeRecorder struct {
	job  encoder.RecordJob
	read int
}

func (r *fakeRecorder) Record(ctx context.Context, job encoder.RecordJob, feed encoder.Feed) ([]byte, error) {
	r.job = job
	b := &bytes.Buffer{}
	if err := feed(ctx, b); err != nil {
		return nil, err
	}
	r.read = b.Len()
	return []byte("video"), nil
}

type staticProber map[string]bool

func (p staticProber) Supports(_ context.Context, f encoder.Format) bool { return p[f.String()] }

type progressLog struct {
	mu       sync.Mutex
	percents []int
}

func (pl *progressLog) fn(percent int) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.percents = append(pl.percents, percent)
}

func (pl *progressLog) check(t *testing.T, done bool) {
	t.Helper()
	pl.mu.Lock()
	defer pl.mu.Unlock()
	for i := 1; i < len(pl.percents); i++ {
		if pl.percents[i] < pl.percents[i-1] {
			t.Errorf("expected non-decreasing progress, got %v", pl.percents)
		}
	}
	hasDone := len(pl.percents) > 0 && pl.percents[len(pl.percents)-1] == 100
	if done != hasDone {
		t.Errorf("expected done %v, got %v", done, pl.percents)
	}
}

func newTestPipeline(t *testing.T, opts ...pipeline.Option) *pipeline.Pipeline {
	t.Helper()
	opts = append([]pipeline.Option{
		pipeline.WithStagingDir(t.TempDir()),
		pipeline.WithProber(staticProber{"mp4/libx264": true}),
		pipeline.WithRecorder(&fakeRecorder{}),
		pipeline.WithLoopEncoder(&fakeLoop{}),
	}, opts...)
	p, err := pipeline.New(opts...)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func pulse() string {
	b := &bytes.Buffer{}
	sample.Pulse(b, 100)
	return b.String()
}

func gifConfig(fps int, duration float64) pipeline.Config {
	c := pipeline.DefaultConfig()
	c.Container = pipeline.ContainerGIF
	c.FrameRate = fps
	c.Duration = duration
	c.Scale = 0.5
	return c
}

func TestConvertRasterLoop(t *testing.T) {
	r := &fakeRasterizer{}
	l := &fakeLoop{}
	p := newTestPipeline(t, pipeline.WithRasterizer(r), pipeline.WithLoopEncoder(l))

	pl := &progressLog{}
	res, err := p.Convert(context.Background(), pulse(), gifConfig(1, 2), pl.fn)
	if err != nil {
		t.Fatal(err)
	}
	pl.check(t, true)

	if res.MediaType != "image/gif" || res.Extension() != ".gif" {
		t.Errorf("expected image/gif .gif, got %s %s", res.MediaType, res.Extension())
	}
	if res.Frames != 2 || l.job.Count != 2 || len(l.job.Frames) != 2 {
		t.Errorf("expected 2 frames, got %d %d", res.Frames, l.job.Count)
	}
	if l.job.Width != 50 || l.job.Height != 50 || l.job.Interval != 1 {
		t.Errorf("expected 50x50 interval 1, got %dx%d %v", l.job.Width, l.job.Height, l.job.Interval)
	}
	if bytes.Equal(l.job.Frames[0], l.job.Frames[1]) {
		t.Error("expected style animation frames at 0s and 1s to differ")
	}
	if !strings.Contains(r.snapshots[1], `transform="translate(25 0)"`) {
		t.Errorf("expected seeked transform in snapshot, got %s", r.snapshots[1])
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()
	expected := []int{30, 60, 80, 99, 100}
	if len(pl.percents) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, pl.percents)
	}
	for i := range expected {
		if expected[i] != pl.percents[i] {
			t.Errorf("expected %v, got %v", expected, pl.percents)
		}
	}
}

func TestConvertReleasesBlobs(t *testing.T) {
	r := &fakeRasterizer{}
	p := newTestPipeline(t, pipeline.WithRasterizer(r))

	if _, err := p.Convert(context.Background(), sample.OrbitString(), gifConfig(10, 0.5), nil); err != nil {
		t.Fatal(err)
	}
	if p.Outstanding() != 0 {
		t.Errorf("expected 0 outstanding blobs, got %d", p.Outstanding())
	}
	for _, path := range r.paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected %s to be removed, got %v", path, err)
		}
	}
}

func TestConvertFrameFailure(t *testing.T) {
	for _, container := range []pipeline.Container{pipeline.ContainerGIF, pipeline.ContainerVideo} {
		t.Run(string(container), func(t *testing.T) {
			r := &fakeRasterizer{failAt: 3}
			p := newTestPipeline(t, pipeline.WithRasterizer(r))

			cfg := gifConfig(10, 1)
			cfg.Container = container
			pl := &progressLog{}
			_, err := p.Convert(context.Background(), pulse(), cfg, pl.fn)
			var fge *pipeline.FrameGenerationError
			if !errors.As(err, &fge) {
				t.Fatalf("expected FrameGenerationError, got %v", err)
			}
			if fge.Time != 0.2 {
				t.Errorf("expected failure at 0.2, got %v", fge.Time)
			}
			pl.check(t, false)
			if p.Outstanding() != 0 {
				t.Errorf("expected 0 outstanding blobs, got %d", p.Outstanding())
			}
		})
	}
}

func TestConvertInvalidDocument(t *testing.T) {
	p := newTestPipeline(t, pipeline.WithRasterizer(&fakeRasterizer{}))
	pl := &progressLog{}
	_, err := p.Convert(context.Background(), `<html><body/></html>`, gifConfig(10, 1), pl.fn)
	var ide *svgdoc.InvalidDocumentError
	if !errors.As(err, &ide) {
		t.Errorf("expected InvalidDocumentError, got %v", err)
	}
	if len(pl.percents) != 0 {
		t.Errorf("expected no progress, got %v", pl.percents)
	}
}

func TestConvertInvalidConfig(t *testing.T) {
	p := newTestPipeline(t, pipeline.WithRasterizer(&fakeRasterizer{}))
	cfg := gifConfig(10, 1)
	cfg.Quality = 1.5
	_, err := p.Convert(context.Background(), pulse(), cfg, nil)
	var ce *pipeline.ConversionError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConversionError, got %v", err)
	}
}

func TestConvertOutOfRange(t *testing.T) {
	testCases := []struct {
		svg    string
		modify func(c *pipeline.Config)
	}{
		{pulse(), func(c *pipeline.Config) { c.Duration = math.NaN() }},
		{pulse(), func(c *pipeline.Config) { c.Duration = math.Inf(1) }},
		{pulse(), func(c *pipeline.Config) { c.Scale = math.Inf(1) }},
		{`<svg width="100000" height="100000"/>`, func(c *pipeline.Config) {}},
		{`<svg width="1e300" height="1e300"/>`, func(c *pipeline.Config) {}},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			r := &fakeRasterizer{}
			p := newTestPipeline(t, pipeline.WithRasterizer(r))
			cfg := gifConfig(10, 1)
			tC.modify(&cfg)
			_, err := p.Convert(context.Background(), tC.svg, cfg, nil)
			var ce *pipeline.ConversionError
			if !errors.As(err, &ce) {
				t.Errorf("expected ConversionError, got %v", err)
			}
			if len(r.snapshots) != 0 {
				t.Errorf("expected no frames rendered, got %d", len(r.snapshots))
			}
		})
	}
}

func TestConvertUninitialized(t *testing.T) {
	var p pipeline.Pipeline
	_, err := p.Convert(context.Background(), pulse(), gifConfig(10, 1), nil)
	var ce *pipeline.ConversionError
	if !errors.As(err, &ce) || ce.Reason != "surface not initialized" {
		t.Errorf("expected surface not initialized, got %v", err)
	}
}

func TestConvertRejectsConcurrent(t *testing.T) {
	r := &fakeRasterizer{entered: make(chan struct{}), release: make(chan struct{})}
	p := newTestPipeline(t, pipeline.WithRasterizer(r))

	errCh := make(chan error, 1)
	go func() {
		_, err := p.Convert(context.Background(), pulse(), gifConfig(1, 1), nil)
		errCh <- err
	}()
	<-r.entered

	_, err := p.Convert(context.Background(), pulse(), gifConfig(1, 1), nil)
	var ce *pipeline.ConversionError
	if !errors.As(err, &ce) || ce.Reason != "conversion already running" {
		t.Errorf("expected conversion already running, got %v", err)
	}
	_, err = p.Still(context.Background(), pulse(), gifConfig(1, 1), 0)
	if !errors.As(err, &ce) {
		t.Errorf("expected ConversionError for still, got %v", err)
	}

	close(r.release)
	if err := <-errCh; err != nil {
		t.Errorf("expected first conversion to succeed, got %v", err)
	}
}

func TestConvertVideo(t *testing.T) {
	rec := &fakeRecorder{}
	p := newTestPipeline(t,
		pipeline.WithRasterizer(&fakeRasterizer{}),
		pipeline.WithRecorder(rec),
		pipeline.WithProber(staticProber{"mp4/mpeg4": true, "webm/libvpx": true}),
	)

	cfg := pipeline.DefaultConfig()
	cfg.FrameRate = 10
	cfg.Duration = 0.5
	cfg.Scale = 0.5
	cfg.Quality = 0.5
	pl := &progressLog{}
	res, err := p.Convert(context.Background(), sample.OrbitString(), cfg, pl.fn)
	if err != nil {
		t.Fatal(err)
	}
	pl.check(t, true)

	if rec.job.Format.String() != "mp4/mpeg4" || rec.job.Bitrate != 7_500_000 || rec.job.FrameRate != 10 {
		t.Errorf("expected mp4/mpeg4 7500000 10fps, got %s %d %d", rec.job.Format, rec.job.Bitrate, rec.job.FrameRate)
	}
	if rec.read != 5*rec.job.FrameSize() || rec.job.Width != 200 {
		t.Errorf("expected 5 frames of 200x200, got %d bytes %dx%d", rec.read, rec.job.Width, rec.job.Height)
	}
	if res.MediaType != "video/mp4" || res.Extension() != ".mp4" || res.Codec != "mpeg4" {
		t.Errorf("expected video/mp4 .mp4 mpeg4, got %s %s %s", res.MediaType, res.Extension(), res.Codec)
	}

	cfg.VideoFormat = "webm"
	res, err = p.Convert(context.Background(), sample.OrbitString(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.MediaType != "video/webm" || res.Extension() != ".webm" {
		t.Errorf("expected video/webm .webm, got %s %s", res.MediaType, res.Extension())
	}
}

func TestStillIdempotent(t *testing.T) {
	p := newTestPipeline(t, pipeline.WithRasterizer(&fakeRasterizer{}))
	cfg := gifConfig(10, 1)
	a, err := p.Still(context.Background(), sample.OrbitString(), cfg, 1.25)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Still(context.Background(), sample.OrbitString(), cfg, 1.25)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expected identical frames")
	}
	m, _, err := image.Decode(bytes.NewReader(a))
	if err != nil {
		t.Fatal(err)
	}
	if m.Bounds().Dx() != 200 || m.Bounds().Dy() != 200 {
		t.Errorf("expected 200x200, got %v", m.Bounds())
	}
}

func TestClose(t *testing.T) {
	dir := t.TempDir()
	p, err := pipeline.New(pipeline.WithStagingDir(dir), pipeline.WithRasterizer(&fakeRasterizer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("expected staging dir to be removed, got %v", entries)
	}
	_, err = p.Convert(context.Background(), pulse(), gifConfig(1, 1), nil)
	var ce *pipeline.ConversionError
	if !errors.As(err, &ce) {
		t.Errorf("expected ConversionError after close, got %v", err)
	}
}
