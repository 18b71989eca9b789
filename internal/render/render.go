// Package render turns SVG files into images using external rasterizers
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os/exec"
	"strings"

	// decoders for rasterizer output
	_ "image/png"
)

// ErrUnavailable is returned when a rasterizer binary can't be found
var ErrUnavailable = errors.New("rasterizer not available")

// Rasterizer renders an SVG file to an image of width x height pixels
type Rasterizer interface {
	Name() string
	Available() bool
	Rasterize(ctx context.Context, path string, width, height int) (image.Image, error)
}

// FindPath returns the first of paths that resolves to an executable
func FindPath(paths []string) (string, bool) {
	for _, s := range paths {
		if p, err := exec.LookPath(s); err == nil {
			return p, true
		}
	}
	return "", false
}

// DecodeCommand runs a command that writes an image to stdout and decodes it.
// The error includes the last line of stderr.
func DecodeCommand(ctx context.Context, name string, args ...string) (image.Image, error) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	c := exec.CommandContext(ctx, name, args...)
	c.Stdout = stdout
	c.Stderr = stderr
	if err := c.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	m, _, err := image.Decode(stdout)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	return m, nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
