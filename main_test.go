package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/logging"
	"github.com/wader/svgcast/internal/pipeline"
	"github.com/wader/svgcast/internal/svgdoc"
)

func TestConvertFlagsConfig(t *testing.T) {
	preset := filepath.Join(t.TempDir(), "preset.yaml")
	if err := os.WriteFile(preset, []byte("fps: 15\nscale: 1\ncontainer: gif\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		args   []string
		modify func(c *pipeline.Config)
		err    bool
	}{
		{nil, func(c *pipeline.Config) {}, false},
		{[]string{"--fps", "12", "--duration", "1.5"}, func(c *pipeline.Config) {
			c.FrameRate = 12
			c.Duration = 1.5
		}, false},
		{[]string{"--format", "gif", "--transparent"}, func(c *pipeline.Config) {
			c.Container = pipeline.ContainerGIF
			c.VideoFormat = ""
			c.Transparent = true
		}, false},
		{[]string{"--format", "webm", "--quality", "0.5"}, func(c *pipeline.Config) {
			c.VideoFormat = "webm"
			c.Quality = 0.5
		}, false},
		{[]string{"--config", preset}, func(c *pipeline.Config) {
			c.FrameRate = 15
			c.Scale = 1
			c.Container = pipeline.ContainerGIF
		}, false},
		{[]string{"--config", preset, "--fps", "60"}, func(c *pipeline.Config) {
			c.FrameRate = 60
			c.Scale = 1
			c.Container = pipeline.ContainerGIF
		}, false},
		{[]string{"--format", "avi"}, nil, true},
		{[]string{"--quality", "2"}, nil, true},
		{[]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, nil, true},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			cmd := &cobra.Command{}
			var f convertFlags
			f.register(cmd)
			if err := cmd.ParseFlags(tC.args); err != nil {
				t.Fatal(err)
			}
			actual, err := f.config(cmd)
			if tC.err != (err != nil) {
				t.Fatalf("expected error %v, got %v", tC.err, err)
			}
			if tC.err {
				return
			}
			expected := pipeline.DefaultConfig()
			tC.modify(&expected)
			if expected != actual {
				t.Errorf("expected %+v, got %+v", expected, actual)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	oldFFmpeg, oldFFprobe := goffmpeg.FFmpegPath, goffmpeg.FFprobePath
	defer func() { goffmpeg.FFmpegPath, goffmpeg.FFprobePath = oldFFmpeg, oldFFprobe }()

	env := map[string]string{envFFmpeg: "/opt/ffmpeg/bin/ffmpeg"}
	applyEnv(func(k string) string { return env[k] }, logging.Discard())
	if goffmpeg.FFmpegPath != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("expected ffmpeg path from env, got %s", goffmpeg.FFmpegPath)
	}
	if goffmpeg.FFprobePath != oldFFprobe {
		t.Errorf("expected ffprobe path unchanged, got %s", goffmpeg.FFprobePath)
	}
}

func TestRasterizerName(t *testing.T) {
	env := map[string]string{envRasterizer: "inkscape"}
	getenv := func(k string) string { return env[k] }
	if actual := rasterizerName("rsvg", getenv); actual != "rsvg" {
		t.Errorf("expected flag to win, got %s", actual)
	}
	if actual := rasterizerName("", getenv); actual != "inkscape" {
		t.Errorf("expected env, got %s", actual)
	}
}

func TestFormatBytes(t *testing.T) {
	testCases := []struct {
		n        int64
		expected string
	}{
		{0, "0B"},
		{512, "512B"},
		{1536, "1.5KB"},
		{2 * 1024 * 1024, "2.0MB"},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			if actual := formatBytes(tC.n); tC.expected != actual {
				t.Errorf("expected %v, got %v", tC.expected, actual)
			}
		})
	}
}

func TestSampleDocument(t *testing.T) {
	testCases := []struct {
		kind string
		smil bool
		css  bool
	}{
		{"orbit", true, false},
		{"pulse", false, true},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			b, err := sampleDocument(tC.kind, 200)
			if err != nil {
				t.Fatal(err)
			}
			doc, err := svgdoc.Parse(string(b))
			if err != nil {
				t.Fatal(err)
			}
			a := svgdoc.Analyze(doc)
			if a.HasSMIL != tC.smil || a.HasCSSAnimation != tC.css || a.Width != 200 {
				t.Errorf("expected smil %v css %v width 200, got %+v", tC.smil, tC.css, a)
			}
		})
	}
	if _, err := sampleDocument("spiral", 100); err == nil {
		t.Error("expected unknown sample error")
	}
}
