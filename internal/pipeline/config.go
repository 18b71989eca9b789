package pipeline

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"gopkg.in/yaml.v2"
)

// Container is the kind of artifact a conversion produces
type Container string

const (
	// ContainerGIF is a looping animated GIF
	ContainerGIF Container = "gif"
	// ContainerVideo is a mp4 or webm video, see Config.VideoFormat
	ContainerVideo Container = "video"
)

// Config is the configuration for one conversion
type Config struct {
	FrameRate   int       `yaml:"fps"`
	Duration    float64   `yaml:"duration"`
	Scale       float64   `yaml:"scale"`
	Quality     float64   `yaml:"quality"`
	Container   Container `yaml:"container"`
	VideoFormat string    `yaml:"videoFormat"`
	Transparent bool      `yaml:"transparent"`
}

// DefaultConfig is 4 seconds of 30 fps mp4 at twice the document size
func DefaultConfig() Config {
	return Config{
		FrameRate:   30,
		Duration:    4,
		Scale:       2,
		Quality:     1,
		Container:   ContainerVideo,
		VideoFormat: "mp4",
	}
}

const (
	// MaxFrames bounds ceil(duration*fps)
	MaxFrames = 100_000
	// MaxScale bounds the scale factor, the output size is checked against
	// MaxPixels once the document is parsed
	MaxScale = 64
	// MaxPixels bounds output width*height
	MaxPixels = 8192 * 8192
)

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate reports the first out of range value
func (c Config) Validate() error {
	switch {
	case !finite(c.Duration):
		return fmt.Errorf("duration must be finite, got %v", c.Duration)
	case !finite(c.Scale):
		return fmt.Errorf("scale must be finite, got %v", c.Scale)
	case !finite(c.Quality):
		return fmt.Errorf("quality must be finite, got %v", c.Quality)
	case c.FrameRate <= 0:
		return fmt.Errorf("frame rate must be positive, got %d", c.FrameRate)
	case c.Duration <= 0:
		return fmt.Errorf("duration must be positive, got %v", c.Duration)
	case c.Duration*float64(c.FrameRate) > MaxFrames:
		return fmt.Errorf("duration %v at %d fps exceeds %d frames", c.Duration, c.FrameRate, MaxFrames)
	case c.Scale <= 0 || c.Scale > MaxScale:
		return fmt.Errorf("scale must be in (0,%d], got %v", MaxScale, c.Scale)
	case c.Quality <= 0 || c.Quality > 1:
		return fmt.Errorf("quality must be in (0,1], got %v", c.Quality)
	}
	switch c.Container {
	case ContainerGIF, ContainerVideo:
	default:
		return fmt.Errorf("unknown container %q", c.Container)
	}
	switch c.VideoFormat {
	case "", "mp4", "webm":
	default:
		return fmt.Errorf("unknown video format %q", c.VideoFormat)
	}
	return nil
}

// ParseFormat maps a user facing format name (gif, mp4, webm, video) to a
// container and video format preference
func ParseFormat(s string) (Container, string, error) {
	switch s = strings.ToLower(s); s {
	case "gif":
		return ContainerGIF, "", nil
	case "video":
		return ContainerVideo, "", nil
	case "mp4", "webm":
		return ContainerVideo, s, nil
	}
	return "", "", errors.New("unknown format " + s + ", should be gif, mp4, webm or video")
}

// LoadConfig reads a YAML preset on top of base
func LoadConfig(r io.Reader, base Config) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	c := base
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return Config{}, fmt.Errorf("preset: %w", err)
	}
	return c, nil
}
