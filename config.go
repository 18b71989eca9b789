package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/pipeline"
)

const (
	envFFmpeg     = "SVGCAST_FFMPEG"
	envFFprobe    = "SVGCAST_FFPROBE"
	envRasterizer = "SVGCAST_RASTERIZER"
)

// applyEnv points goffmpeg at binaries given in the environment
func applyEnv(getenv func(string) string, l logrus.FieldLogger) {
	if p := getenv(envFFmpeg); p != "" {
		goffmpeg.FFmpegPath = p
		l.WithField("path", p).Debug("ffmpeg from environment")
	}
	if p := getenv(envFFprobe); p != "" {
		goffmpeg.FFprobePath = p
		l.WithField("path", p).Debug("ffprobe from environment")
	}
}

// rasterizerName is the flag value, else the environment, else empty for the
// first available
func rasterizerName(flag string, getenv func(string) string) string {
	if flag != "" {
		return flag
	}
	return getenv(envRasterizer)
}

type renderFlags struct {
	scale       float64
	transparent bool
	preset      string
	rasterizer  string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultConfig()
	cmd.Flags().Float64Var(&f.scale, "scale", d.Scale, "output size relative to the document size")
	cmd.Flags().BoolVar(&f.transparent, "transparent", d.Transparent, "keep transparency instead of a white background")
	cmd.Flags().StringVar(&f.preset, "config", "", "YAML preset file, flags override it")
	cmd.Flags().StringVar(&f.rasterizer, "rasterizer", "", "rasterizer to use, default is $"+envRasterizer+" or first available")
}

type convertFlags struct {
	renderFlags
	fps      int
	duration float64
	quality  float64
	format   string
	throttle time.Duration
	output   string
	preview  bool
	noTUI    bool
}

func (f *convertFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultConfig()
	f.renderFlags.register(cmd)
	cmd.Flags().IntVar(&f.fps, "fps", d.FrameRate, "frames per second")
	cmd.Flags().Float64Var(&f.duration, "duration", d.Duration, "seconds to record, see analyze for a suggestion")
	cmd.Flags().Float64Var(&f.quality, "quality", d.Quality, "video quality in (0,1], scales the bitrate")
	cmd.Flags().StringVar(&f.format, "format", d.VideoFormat, "output format: gif, mp4, webm")
	cmd.Flags().DurationVar(&f.throttle, "throttle", 0, "delay after each video frame")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file, default is input name with format extension")
	cmd.Flags().BoolVar(&f.preview, "preview", false, "show result inline (iTerm2)")
	cmd.Flags().BoolVar(&f.noTUI, "no-tui", false, "log progress instead of showing a progress bar")
}

// baseConfig starts from the defaults, applies the preset and then changed flags
func (f *renderFlags) baseConfig(cmd *cobra.Command) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if f.preset != "" {
		pf, err := os.Open(f.preset)
		if err != nil {
			return pipeline.Config{}, err
		}
		defer pf.Close()
		if cfg, err = pipeline.LoadConfig(pf, cfg); err != nil {
			return pipeline.Config{}, fmt.Errorf("%s: %w", f.preset, err)
		}
	}
	changed := cmd.Flags().Changed
	if changed("scale") {
		cfg.Scale = f.scale
	}
	if changed("transparent") {
		cfg.Transparent = f.transparent
	}
	return cfg, nil
}

func (f *convertFlags) config(cmd *cobra.Command) (pipeline.Config, error) {
	cfg, err := f.baseConfig(cmd)
	if err != nil {
		return pipeline.Config{}, err
	}
	changed := cmd.Flags().Changed
	if changed("fps") {
		cfg.FrameRate = f.fps
	}
	if changed("duration") {
		cfg.Duration = f.duration
	}
	if changed("quality") {
		cfg.Quality = f.quality
	}
	if changed("format") {
		c, vf, err := pipeline.ParseFormat(f.format)
		if err != nil {
			return pipeline.Config{}, err
		}
		cfg.Container = c
		cfg.VideoFormat = vf
	}
	return cfg, cfg.Validate()
}
