package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var frameOpts struct {
	renderFlags
	time    float64
	output  string
	preview bool
}

var frameCmd = &cobra.Command{
	Use:   "frame <in.svg>",
	Short: "Render one frame as PNG",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := args[0]
		cfg, err := frameOpts.baseConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		src, err := os.ReadFile(in)
		if err != nil {
			return err
		}

		p, err := newPipeline(frameOpts.rasterizer)
		if err != nil {
			return err
		}
		defer p.Close()

		b, err := p.Still(cmd.Context(), string(src), cfg, frameOpts.time)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}

		out := frameOpts.output
		switch out {
		case "-":
			_, err := os.Stdout.Write(b)
			return err
		case "":
			out = fmt.Sprintf("%s-%gs.png", strings.TrimSuffix(in, filepath.Ext(in)), frameOpts.time)
		}
		if err := os.WriteFile(out, b, 0o644); err != nil {
			return err
		}
		log.WithField("output", out).Info("frame written")

		if frameOpts.preview {
			return preview(b, filepath.Base(out), 0)
		}
		return nil
	},
}

func init() {
	frameOpts.register(frameCmd)
	frameCmd.Flags().Float64VarP(&frameOpts.time, "time", "t", 0, "seconds into the animation")
	frameCmd.Flags().StringVarP(&frameOpts.output, "output", "o", "", "output PNG, - for stdout")
	frameCmd.Flags().BoolVar(&frameOpts.preview, "preview", false, "show frame inline (iTerm2)")
	rootCmd.AddCommand(frameCmd)
}
