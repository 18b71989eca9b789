package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wader/svgcast/internal/svgdoc"
	"gopkg.in/yaml.v2"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <in.svg>",
	Short: "Show size and animations of a SVG document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := svgdoc.Parse(string(src))
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		a := svgdoc.Analyze(doc)

		if analyzeJSON {
			e := json.NewEncoder(os.Stdout)
			e.SetIndent("", "  ")
			return e.Encode(a)
		}
		b, err := yaml.Marshal(a)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(b)
		return err
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output JSON instead of YAML")
	rootCmd.AddCommand(analyzeCmd)
}
