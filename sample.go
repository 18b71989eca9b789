package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/sample"
)

var sampleOpts struct {
	kind   string
	size   float64
	output string
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a demo animated SVG",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := sampleDocument(sampleOpts.kind, sampleOpts.size)
		if err != nil {
			return err
		}
		if sampleOpts.output == "" || sampleOpts.output == "-" {
			_, err := os.Stdout.Write(b)
			return err
		}
		return os.WriteFile(sampleOpts.output, b, 0o644)
	},
}

func sampleDocument(kind string, size float64) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("size must be positive, got %v", size)
	}
	b := &bytes.Buffer{}
	switch kind {
	case "orbit":
		o := sample.DefaultOptions
		o.Size = size
		sample.Orbit(b, o)
	case "pulse":
		sample.Pulse(b, size)
	default:
		return nil, fmt.Errorf("unknown sample %q, should be orbit or pulse", kind)
	}
	return b.Bytes(), nil
}

func init() {
	sampleCmd.Flags().StringVar(&sampleOpts.kind, "kind", "orbit", "orbit (SMIL) or pulse (CSS keyframes)")
	sampleCmd.Flags().Float64Var(&sampleOpts.size, "size", sample.DefaultOptions.Size, "width and height")
	sampleCmd.Flags().StringVarP(&sampleOpts.output, "output", "o", "", "output file, default stdout")
	rootCmd.AddCommand(sampleCmd)
}
