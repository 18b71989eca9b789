package goffmpeg

import (
	"context"
	"os/exec"

	"github.com/wader/svgcast/internal/goffmpeg/features"
)

// Printer is something that printfs (used for debug logging)
type Printer interface {
	Printf(format string, v ...any)
}

// NopPrinter is discard printfer
type NopPrinter struct{}

// Printf nop
func (NopPrinter) Printf(format string, v ...any) {}

// LookPath resolves FFmpegPath to an executable
func LookPath() (string, error) {
	return exec.LookPath(FFmpegPath)
}

// Version return ffmpeg version
func Version(ctx context.Context) (features.VersionParts, error) {
	return features.Version(ctx, FFmpegPath)
}

// Features return encoders and muxers the ffmpeg binary was built with
func Features(ctx context.Context) (features.Features, error) {
	return features.LoadFeatures(ctx, FFmpegPath)
}
