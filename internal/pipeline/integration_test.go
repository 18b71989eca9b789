package pipeline_test

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/wader/osleaktest"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/pipeline"
	"github.com/wader/svgcast/internal/render"
	"github.com/wader/svgcast/internal/render/all"
	"github.com/wader/svgcast/internal/sample"
)

func leakChecks(t *testing.T) func() {
	leakFn := leaktest.Check(t)
	osLeakFn := osleaktest.Check(t)
	return func() {
		leakFn()
		osLeakFn()
	}
}

func requireTools(t *testing.T) render.Rasterizer {
	t.Helper()
	if _, err := exec.LookPath(goffmpeg.FFmpegPath); err != nil {
		t.Skipf("Skipping test, %s not available: %v", goffmpeg.FFmpegPath, err)
	}
	if _, err := exec.LookPath(goffmpeg.FFprobePath); err != nil {
		t.Skipf("Skipping test, %s not available: %v", goffmpeg.FFprobePath, err)
	}
	r, err := all.First("")
	if err != nil {
		t.Skipf("Skipping test, no rasterizer: %v", err)
	}
	return r
}

func TestIntegrationGIF(t *testing.T) {
	r := requireTools(t)
	p, err := pipeline.New(pipeline.WithRasterizer(r), pipeline.WithStagingDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	defer leakChecks(t)()

	cfg := gifConfig(5, 0.4)
	cfg.Scale = 0.25
	pl := &progressLog{}
	res, err := p.Convert(context.Background(), sample.OrbitString(), cfg, pl.fn)
	if err != nil {
		t.Fatal(err)
	}
	pl.check(t, true)
	if !bytes.HasPrefix(res.Data, []byte("GIF89a")) {
		t.Errorf("expected GIF89a header")
	}

	pr, err := goffmpeg.Probe(context.Background(), bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	vs, ok := pr.FirstVideoStream()
	if !ok || vs.Width != 100 || vs.Height != 100 {
		t.Errorf("expected 100x100 video stream, got %v", pr)
	}
}

func TestIntegrationVideo(t *testing.T) {
	r := requireTools(t)
	p, err := pipeline.New(pipeline.WithRasterizer(r), pipeline.WithStagingDir(t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()
	defer leakChecks(t)()

	cfg := pipeline.DefaultConfig()
	cfg.FrameRate = 10
	cfg.Duration = 0.5
	cfg.Scale = 0.25
	res, err := p.Convert(context.Background(), sample.OrbitString(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	pr, err := goffmpeg.Probe(context.Background(), bytes.NewReader(res.Data))
	if err != nil {
		t.Fatal(err)
	}
	vs, ok := pr.FirstVideoStream()
	if !ok || vs.Width != 100 || vs.Height != 100 {
		t.Errorf("expected 100x100 video stream, got %v", pr)
	}
	if res.Extension() != ".mp4" && res.Extension() != ".webm" {
		t.Errorf("expected .mp4 or .webm, got %s", res.Extension())
	}
}
