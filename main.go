package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/logging"
)

var (
	debugFlag   bool
	verboseFlag bool
	log         = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:           "svgcast",
	Short:         "Render animated SVG to GIF, MP4 or WebM",
	Long:          "svgcast samples SMIL and CSS animations of a SVG document, rasterizes each frame and encodes them with ffmpeg.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log = logging.New(logging.Level(debugFlag, verboseFlag), os.Stderr)
		applyEnv(os.Getenv, log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "debug logging, includes ffmpeg command lines")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
