package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/iterm2"
	"github.com/wader/svgcast/internal/logging"
	"github.com/wader/svgcast/internal/pipeline"
	"github.com/wader/svgcast/internal/render/all"
	"github.com/wader/svgcast/internal/render/ffmpeg"
	"golang.org/x/term"
)

var convertOpts convertFlags

var convertCmd = &cobra.Command{
	Use:   "convert <in.svg>",
	Short: "Convert an animated SVG to GIF, MP4 or WebM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		cfg, err := convertOpts.config(cmd)
		if err != nil {
			return err
		}
		src, err := os.ReadFile(in)
		if err != nil {
			return err
		}

		p, err := newPipeline(convertOpts.rasterizer, pipeline.WithThrottle(convertOpts.throttle))
		if err != nil {
			return err
		}
		defer p.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		convert := func(ctx context.Context, onProgress func(int)) (*pipeline.Result, error) {
			return p.Convert(ctx, string(src), cfg, onProgress)
		}
		var res *pipeline.Result
		if useTUI(convertOpts.noTUI) {
			res, err = runTUI(ctx, "Converting "+filepath.Base(in), convert)
		} else {
			res, err = runLogged(ctx, logging.Component(log, "convert"), convert)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}

		out := convertOpts.output
		if out == "" {
			out = strings.TrimSuffix(in, filepath.Ext(in)) + res.Extension()
		}
		if err := os.WriteFile(out, res.Data, 0o644); err != nil {
			return err
		}

		lines := [][2]string{
			{"output", out},
			{"type", res.MediaType + " (" + res.Codec + ")"},
			{"size", res.Geometry.String() + ", " + formatBytes(int64(len(res.Data)))},
			{"frames", strconv.Itoa(res.Frames) + " at " + strconv.Itoa(cfg.FrameRate) + " fps"},
		}
		if d := describe(ctx, res.Data); d != "" {
			lines = append(lines, [2]string{"probed", d})
		}
		fmt.Print(summary(lines))

		if convertOpts.preview {
			return preview(res.Data, filepath.Base(out), res.Geometry.Width)
		}
		return nil
	},
}

func init() {
	convertOpts.register(convertCmd)
	rootCmd.AddCommand(convertCmd)
}

func newPipeline(rasterizer string, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	r, err := all.First(rasterizerName(rasterizer, os.Getenv))
	if err != nil {
		return nil, err
	}
	if _, ok := r.(ffmpeg.Rasterizer); ok {
		r = ffmpeg.Rasterizer{DebugLog: logging.Component(log, "render")}
	}
	log.WithField("rasterizer", r.Name()).Debug("rasterizer selected")
	opts = append([]pipeline.Option{
		pipeline.WithRasterizer(r),
		pipeline.WithLogger(log),
	}, opts...)
	return pipeline.New(opts...)
}

func useTUI(disabled bool) bool {
	return !disabled && !debugFlag && !verboseFlag && term.IsTerminal(int(os.Stdout.Fd()))
}

// describe probes the artifact, empty if ffprobe is missing or fails
func describe(ctx context.Context, data []byte) string {
	pr, err := goffmpeg.Probe(ctx, bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Debug("probe artifact")
		return ""
	}
	s := pr.String()
	if d := pr.Duration(); d > 0 {
		s += " " + d.String()
	}
	return s
}

func preview(data []byte, name string, pixelWidth int) error {
	if !iterm2.IsCompatible() {
		log.Warn("preview needs a terminal supporting iTerm2 inline images")
		return nil
	}
	width := 0
	if pixelWidth > 0 {
		width = iterm2.FitWidth(os.Stdin, pixelWidth)
	}
	return iterm2.Image(os.Stdout, data, name, width)
}

func formatBytes(n int64) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%dB", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	}
}
