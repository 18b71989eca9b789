package encoder

import (
	"context"
	"strings"
)

// BaselineBitrate is the video bitrate at quality 1
const BaselineBitrate = 15_000_000

// Bitrate for quality in (0,1]
func Bitrate(quality float64) int {
	return int(BaselineBitrate * quality)
}

// Format is a container and codec pair
type Format struct {
	MediaType string
	Muxer     string
	// Encoder is empty for the muxer default
	Encoder string
	PixFmt  string
	// AlphaPixFmt is used for transparent recordings if set
	AlphaPixFmt string
	Flags       []string
}

func (f Format) String() string {
	if f.Encoder == "" {
		return f.Muxer
	}
	return f.Muxer + "/" + f.Encoder
}

// fragmented so mp4 can be written to a pipe
var mp4Flags = []string{"-movflags", "frag_keyframe+empty_moov+default_base_moof"}

// DefaultFormats in preference order
var DefaultFormats = []Format{
	{MediaType: "video/mp4", Muxer: "mp4", Encoder: "libx264", PixFmt: "yuv420p", Flags: mp4Flags},
	{MediaType: "video/mp4", Muxer: "mp4", Encoder: "mpeg4", PixFmt: "yuv420p", Flags: mp4Flags},
	{MediaType: "video/webm", Muxer: "webm", Encoder: "libvpx-vp9", PixFmt: "yuv420p", AlphaPixFmt: "yuva420p"},
	{MediaType: "video/webm", Muxer: "webm", Encoder: "libvpx", PixFmt: "yuv420p", AlphaPixFmt: "yuva420p"},
}

// FallbackFormat is used when no preferred format is supported
var FallbackFormat = Format{MediaType: "video/webm", Muxer: "webm"}

// Prober reports if a format can be encoded
type Prober interface {
	Supports(ctx context.Context, f Format) bool
}

// Negotiate returns the first format in prefs supported by p. Formats with
// muxer preferred are tried first.
func Negotiate(ctx context.Context, p Prober, prefs []Format, preferred string) Format {
	for _, f := range Prefer(prefs, preferred) {
		if p.Supports(ctx, f) {
			return f
		}
	}
	return FallbackFormat
}

// Prefer returns prefs with formats using muxer moved first, order is
// otherwise kept
func Prefer(prefs []Format, muxer string) []Format {
	muxer = strings.ToLower(muxer)
	var first, rest []Format
	for _, f := range prefs {
		if muxer != "" && f.Muxer == muxer {
			first = append(first, f)
		} else {
			rest = append(rest, f)
		}
	}
	return append(first, rest...)
}
