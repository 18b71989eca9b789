package goffmpeg_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/wader/svgcast/internal/goffmpeg"
)

func TestProbe(t *testing.T) {
	requireFFmpeg(t)
	defer leakChecks(t)()

	testData := generateTestVideo(t, "nut", "ffv1", 1*time.Second)
	pr, err := goffmpeg.Probe(context.Background(), bytes.NewReader(testData))
	if err != nil {
		t.Fatal(err)
	}

	s, ok := pr.FirstVideoStream()
	if !ok {
		t.Fatalf("expected a video stream, got %s", pr)
	}
	if s.Width != 64 || s.Height != 48 {
		t.Errorf("expected 64x48, got %dx%d", s.Width, s.Height)
	}
	if pr.FormatName() != "nut" {
		t.Errorf("expected nut, got %s", pr.FormatName())
	}
}
