package goffmpeg_test

import (
	"bytes"
	"context"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/wader/svgcast/internal/goffmpeg"
)

func TestParseProgress(t *testing.T) {
	type call struct {
		line string
		r    bool
	}
	testCases := []struct {
		calls            []call
		expectedProgress goffmpeg.Progress
	}{
		{
			calls: []call{
				{line: "frame=241\n", r: false},
				{line: "fps=79.81\n", r: false},
				{line: "stream_0_1_q=10.0\n", r: false},
				{line: "bitrate= 107.1kbits/s\n", r: false},
				{line: "total_size=116071\n", r: false},
				{line: "out_time_us=8674000\n", r: false},
				{line: "out_time=00:00:08.674000\n", r: false},
				{line: "dup_frames=1\n", r: false},
				{line: "drop_frames=2\n", r: false},
				{line: "speed=2.87x\n", r: false},
				{line: "progress=continue\n", r: true},
			},
			expectedProgress: goffmpeg.Progress{
				Frame:      241,
				FPS:        79.81,
				BitRate:    107100,
				TotalSize:  116071,
				OutTimeUS:  8674000,
				DupFrames:  1,
				DropFrames: 2,
				Speed:      2.87,
				Progress:   "continue",
			},
		},
		{
			calls: []call{
				{line: "frame=10", r: false},
				{line: "garbage", r: false},
				{line: "progress=end", r: true},
			},
			expectedProgress: goffmpeg.Progress{
				Frame:    10,
				Progress: "end",
			},
		},
	}
	for i, tC := range testCases {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			p := goffmpeg.Progress{}
			for _, c := range tC.calls {
				actualR := goffmpeg.ParseProgress(&p, c.line)
				if c.r != actualR {
					t.Errorf("%q: expected %v, got %v", c.line, c.r, actualR)
				}
			}
			if !reflect.DeepEqual(tC.expectedProgress, p) {
				t.Errorf("expected %#v, got %#v", tC.expectedProgress, p)
			}
		})
	}
}

func TestArgs(t *testing.T) {
	c := &goffmpeg.FFmpegCmd{
		Flags: []string{"-y"},
		Inputs: []*goffmpeg.Input{
			{Format: "image2pipe", Flags: []string{"-framerate", "30"}, File: &bytes.Buffer{}},
		},
		FilterGraph: &goffmpeg.FilterGraph{
			{
				{Name: "split", Inputs: []string{"0:v"}, Outputs: []string{"a", "b"}},
			},
			{
				{Name: "palettegen", Inputs: []string{"a"}, Options: map[string]string{"stats_mode": "full"}, Outputs: []string{"p"}},
			},
		},
		Outputs: []*goffmpeg.Output{
			{
				Maps:    []*goffmpeg.Map{{Specifier: "[p]", Codec: "gif", Options: map[string]string{"b": "1k"}}},
				Format:  "gif",
				Options: map[string]string{"loop": "0"},
				File:    &bytes.Buffer{},
			},
		},
	}

	expected := []string{
		"-nostdin", "-hide_banner", "-y",
		"-filter_complex", "[0:v]split[a][b];[a]palettegen=stats_mode=full[p]",
		"-framerate", "30", "-f", "image2pipe", "-i", "pipe-input-index:0",
		"-map", "[p]", "-codec:0", "gif", "-b:0", "1k",
		"-f", "gif", "-loop", "0", "pipe-output-index:0",
	}
	if actual := c.Args(); !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestFilterGraphEscape(t *testing.T) {
	fg := goffmpeg.FilterGraph{
		{{Name: "scale", Options: map[string]string{"w": "trunc(iw/2)*2", "flags": "a:b"}}},
	}
	expected := `scale=flags=a\:b:w=trunc(iw/2)*2`
	if actual := fg.String(); expected != actual {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}

func TestUnknownFileType(t *testing.T) {
	c := &goffmpeg.FFmpegCmd{
		Outputs: []*goffmpeg.Output{{File: 123}},
	}
	if err := c.Start(); err == nil || !strings.Contains(err.Error(), "unknown file type") {
		t.Errorf("expected unknown file type error, got %v", err)
	}
}

func TestPipeProgress(t *testing.T) {
	requireFFmpeg(t)
	defer leakChecks(t)()

	input := bytes.NewReader(generateTestVideo(t, "nut", "ffv1", 1*time.Second))
	output := &bytes.Buffer{}

	var mu sync.Mutex
	var progress []goffmpeg.Progress
	c := &goffmpeg.FFmpegCmd{
		Context: context.Background(),
		Inputs:  []*goffmpeg.Input{{File: input}},
		Outputs: []*goffmpeg.Output{
			{
				Maps:   []*goffmpeg.Map{{Specifier: "0:0", Codec: "ffv1"}},
				Format: "nut",
				File:   output,
			},
		},
		ProgressFn: func(p goffmpeg.Progress) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, p)
		},
	}
	if err := c.Run(); err != nil {
		t.Fatal(err)
	}

	if output.Len() == 0 {
		t.Error("expected output")
	}
	if len(progress) == 0 || !progress[len(progress)-1].Done() {
		t.Errorf("expected progress ending with end, got %#v", progress)
	}
}

func TestErrorIncludesStderr(t *testing.T) {
	requireFFmpeg(t)
	defer leakChecks(t)()

	c := &goffmpeg.FFmpegCmd{
		Context: context.Background(),
		Inputs:  []*goffmpeg.Input{{File: bytes.NewReader([]byte("not a video"))}},
		Outputs: []*goffmpeg.Output{{Format: "nut", File: &bytes.Buffer{}}},
	}
	err := c.Run()
	if err == nil {
		t.Fatal("expected error")
	}
	if c.StderrBuffer() == "" || !strings.Contains(err.Error(), strings.TrimSpace(c.StderrBuffer())) {
		t.Errorf("expected error to include stderr, got %v", err)
	}
}
