package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/goffmpeg"
)

// GIFMediaType is the media type of EncodeLoop artifacts
const GIFMediaType = "image/gif"

// LoopJob is a finite sequence of PNG encoded frames to loop forever
type LoopJob struct {
	Frames [][]byte
	Width  int
	Height int
	// Interval between frames in seconds
	Interval    float64
	Count       int
	Transparent bool
}

// GIF encodes frame loops with ffmpeg palettegen/paletteuse. The engine is
// located on first use.
type GIF struct {
	// LookPath defaults to goffmpeg.LookPath
	LookPath func() (string, error)
	Log      logrus.FieldLogger

	once    sync.Once
	loadErr error
}

func (g *GIF) load() error {
	g.once.Do(func() {
		lookPath := g.LookPath
		if lookPath == nil {
			lookPath = goffmpeg.LookPath
		}
		p, err := lookPath()
		if err != nil {
			g.loadErr = &UnavailableError{Engine: "GIF", Err: err}
			return
		}
		if g.Log != nil {
			g.Log.WithField("path", p).Debug("GIF engine loaded")
		}
	})
	return g.loadErr
}

// frame rate as short as possible, 1/30 -> "30"
func frameRate(interval float64) string {
	return strconv.FormatFloat(math.Round(1/interval*1000)/1000, 'f', -1, 64)
}

// EncodeLoop encodes the frames, progress is called with fraction of frames encoded
func (g *GIF) EncodeLoop(ctx context.Context, job LoopJob, progress func(float64)) ([]byte, error) {
	if err := g.load(); err != nil {
		return nil, err
	}
	if job.Count != len(job.Frames) || job.Count == 0 {
		return nil, fmt.Errorf("frame count %d does not match %d frames", job.Count, len(job.Frames))
	}
	if job.Interval <= 0 {
		return nil, errors.New("interval must be positive")
	}

	readers := make([]io.Reader, len(job.Frames))
	for i, f := range job.Frames {
		readers[i] = bytes.NewReader(f)
	}

	reserveTransparent := "0"
	if job.Transparent {
		reserveTransparent = "1"
	}
	fg := goffmpeg.FilterGraph{
		goffmpeg.FilterChain{
			goffmpeg.Filter{
				Name:    "split",
				Inputs:  []string{"0:v"},
				Outputs: []string{"a", "b"},
			},
		},
		goffmpeg.FilterChain{
			goffmpeg.Filter{
				Name:    "palettegen",
				Inputs:  []string{"a"},
				Outputs: []string{"palette"},
				Options: map[string]string{
					"stats_mode":          "full",
					"reserve_transparent": reserveTransparent,
				},
			},
		},
		goffmpeg.FilterChain{
			goffmpeg.Filter{
				Name:    "paletteuse",
				Inputs:  []string{"b", "palette"},
				Outputs: []string{"out"},
				Options: map[string]string{"dither": "sierra2_4a"},
			},
		},
	}

	out := &bytes.Buffer{}
	f := &goffmpeg.FFmpegCmd{
		Context: ctx,
		Inputs: []*goffmpeg.Input{
			{
				File:    io.MultiReader(readers...),
				Format:  "image2pipe",
				Options: map[string]string{"framerate": frameRate(job.Interval), "codec:v": "png"},
			},
		},
		FilterGraph: &fg,
		Outputs: []*goffmpeg.Output{
			{
				Maps:    []*goffmpeg.Map{{Specifier: "[out]"}},
				Format:  "gif",
				Options: map[string]string{"loop": "0"},
				File:    out,
			},
		},
		ProgressFn: func(p goffmpeg.Progress) {
			if progress == nil {
				return
			}
			if p.Done() {
				progress(1)
				return
			}
			progress(math.Min(float64(p.Frame)/float64(job.Count), 1))
		},
	}
	if g.Log != nil {
		f.DebugLog = g.Log
	}

	if err := (ffmpegCmd{f}).Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	return out.Bytes(), nil
}

// ffmpegCmd reports ffmpeg failures as FailureError
type ffmpegCmd struct {
	*goffmpeg.FFmpegCmd
}

func (c ffmpegCmd) Wait() error {
	if err := c.FFmpegCmd.Wait(); err != nil {
		return &FailureError{Msg: tail(c.StderrBuffer(), 3), Err: err}
	}
	return nil
}

func (c ffmpegCmd) Run() error {
	if err := c.Start(); err != nil {
		return err
	}
	return c.Wait()
}
