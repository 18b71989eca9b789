package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/encoder"
	"github.com/wader/svgcast/internal/goffmpeg"
	"github.com/wader/svgcast/internal/render/all"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Show which tools and formats are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var lines [][2]string

		prober := &encoder.FeatureProber{}
		if path, err := goffmpeg.LookPath(); err != nil {
			lines = append(lines, [2]string{"ffmpeg", "not found: " + err.Error()})
		} else if f, err := prober.Features(ctx); err != nil {
			lines = append(lines, [2]string{"ffmpeg", path + ": " + err.Error()})
		} else {
			lines = append(lines, [2]string{"ffmpeg", path + " " + f.Version.Release})
		}

		for _, r := range all.Rasterizers {
			status := "not available"
			if r.Available() {
				status = "available"
			}
			lines = append(lines, [2]string{"rasterizer " + r.Name(), status})
		}

		for _, f := range encoder.DefaultFormats {
			status := "not supported"
			if prober.Supports(ctx, f) {
				status = "supported"
			}
			lines = append(lines, [2]string{"format " + f.String(), status})
		}
		for _, preferred := range []string{"mp4", "webm"} {
			f := encoder.Negotiate(ctx, prober, encoder.DefaultFormats, preferred)
			lines = append(lines, [2]string{"negotiated " + preferred, f.String()})
		}

		fmt.Print(summary(lines))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
