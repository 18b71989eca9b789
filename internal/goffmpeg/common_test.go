package goffmpeg_test

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/wader/osleaktest"
	"github.com/wader/svgcast/internal/goffmpeg"
)

func leakChecks(t *testing.T) func() {
	leakFn := leaktest.Check(t)
	osLeakFn := osleaktest.Check(t)
	return func() {
		leakFn()
		osLeakFn()
	}
}

func requireFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(goffmpeg.FFmpegPath); err != nil {
		t.Skipf("Skipping test, %s not available: %v", goffmpeg.FFmpegPath, err)
	}
	if _, err := exec.LookPath(goffmpeg.FFprobePath); err != nil {
		t.Skipf("Skipping test, %s not available: %v", goffmpeg.FFprobePath, err)
	}
}

func generateTestVideo(t *testing.T, format string, vcodec string, duration time.Duration) []byte {
	data := &bytes.Buffer{}
	c := &goffmpeg.FFmpegCmd{
		Context: context.Background(),
		Inputs:  []*goffmpeg.Input{{Format: "lavfi", File: "testsrc=size=64x48:rate=10"}},
		Outputs: []*goffmpeg.Output{
			{
				Maps:   []*goffmpeg.Map{{Specifier: "0:0", Codec: vcodec}},
				Format: format,
				File:   data,
				Flags:  []string{"-t", strconv.Itoa(int(duration.Seconds()))},
			},
		},
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}

	return data.Bytes()
}
