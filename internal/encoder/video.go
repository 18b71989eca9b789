package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/goffmpeg/cmdgroup"
)

// RecordJob describes a raw RGBA frame feed and the wanted output
type RecordJob struct {
	Width       int
	Height      int
	FrameRate   int
	Bitrate     int
	Format      Format
	Transparent bool
}

// FrameSize is the number of bytes of one raw RGBA frame
func (j RecordJob) FrameSize() int { return j.Width * j.Height * 4 }

// Feed writes raw frames to w, it should stop when ctx is done
type Feed func(ctx context.Context, w io.Writer) error

// Recorder encodes a live frame feed into a video
type Recorder struct {
	Log logrus.FieldLogger
}

func (r *Recorder) command(ctx context.Context, job RecordJob, in io.Reader, out io.Writer) *goffmpeg.FFmpegCmd {
	pixFmt := job.Format.PixFmt
	if job.Transparent && job.Format.AlphaPixFmt != "" {
		pixFmt = job.Format.AlphaPixFmt
	}
	m := &goffmpeg.Map{
		Specifier: "0:v",
		Codec:     job.Format.Encoder,
		Options:   map[string]string{},
	}
	if job.Bitrate > 0 {
		m.Options["b"] = strconv.Itoa(job.Bitrate)
	}
	if pixFmt != "" {
		m.Options["pix_fmt"] = pixFmt
	}

	f := &goffmpeg.FFmpegCmd{
		Context: ctx,
		Inputs: []*goffmpeg.Input{
			{
				File:   in,
				Format: "rawvideo",
				Options: map[string]string{
					"pix_fmt":    "rgba",
					"video_size": fmt.Sprintf("%dx%d", job.Width, job.Height),
					"framerate":  strconv.Itoa(job.FrameRate),
				},
			},
		},
		Outputs: []*goffmpeg.Output{
			{
				Maps:   []*goffmpeg.Map{m},
				Format: job.Format.Muxer,
				Flags:  job.Format.Flags,
				File:   out,
			},
		},
	}
	if r.Log != nil {
		f.DebugLog = r.Log
	}
	return f
}

// Record starts ffmpeg and runs feed as one group, if either fails the
// other is stopped. Returns the encoded video.
func (r *Recorder) Record(ctx context.Context, job RecordJob, feed Feed) ([]byte, error) {
	if job.Width <= 0 || job.Height <= 0 || job.FrameRate <= 0 {
		return nil, errors.New("invalid record job geometry or frame rate")
	}

	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	g, gctx := cmdgroup.WithContext(ctx)
	out := &bytes.Buffer{}
	f := r.command(gctx, job, pr, out)
	// child has its own copy of the read end after start
	f.CloseAfterStart = append(f.CloseAfterStart, pr)

	g.Add(ffmpegCmd{f})
	g.Add(cmdgroup.Func(func() error {
		defer pw.Close()
		return feed(gctx, pw)
	}))

	if r.Log != nil {
		r.Log.WithFields(logrus.Fields{
			"format":  job.Format.String(),
			"bitrate": job.Bitrate,
			"size":    fmt.Sprintf("%dx%d", job.Width, job.Height),
		}).Debug("recording")
	}

	if err := causeError(g.Run()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
