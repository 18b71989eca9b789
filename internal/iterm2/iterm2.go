// Package iterm2 shows images inline using the iTerm2 escape protocol
package iterm2

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// DefaultCellWidth is assumed when the terminal can't report its cell size
const DefaultCellWidth = 8

// IsCompatible reports if the terminal understands inline images
func IsCompatible() bool {
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm":
		return true
	}
	return os.Getenv("LC_TERMINAL") == "iTerm2"
}

// Image writes encoded image data (PNG, GIF, ...) inline. Width is in
// terminal cells, 0 shows the image at its own size.
func Image(w io.Writer, data []byte, name string, width int) error {
	args := []string{
		"inline=1",
		"size=" + strconv.Itoa(len(data)),
		"preserveAspectRatio=1",
	}
	if name != "" {
		args = append(args, "name="+base64.StdEncoding.EncodeToString([]byte(name)))
	}
	if width > 0 {
		args = append(args, "width="+strconv.Itoa(width))
	}
	if _, err := fmt.Fprintf(w, "\x1b]1337;File=%s:", strings.Join(args, ";")); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := enc.Write(data); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write([]byte("\a\n"))
	return err
}

type CellSize struct {
	Width  float64
	Height float64
	Scale  float64
}

// ReportCellSize asks the terminal for its cell size in points
func ReportCellSize(f *os.File) (sz CellSize, err error) {
	state, err := term.MakeRaw(int(f.Fd()))
	if err != nil {
		return CellSize{}, err
	}
	defer func() {
		if rerr := term.Restore(int(f.Fd()), state); err == nil {
			err = rerr
		}
	}()

	if _, err := f.Write([]byte("\x1b]1337;ReportCellSize\x07")); err != nil {
		return CellSize{}, err
	}
	b := make([]byte, 64)
	n, err := f.Read(b)
	if err != nil {
		return CellSize{}, err
	}
	return parseCellSize(string(b[:n]))
}

// "\x1b]1337;ReportCellSize=14.0;6.0;1.0\x1b\\", order is height;width[;scale]
func parseCellSize(s string) (CellSize, error) {
	const prefix = "ReportCellSize="
	start := strings.Index(s, prefix)
	if start == -1 {
		return CellSize{}, errors.New("no cell size in terminal response")
	}
	s = s[start+len(prefix):]
	if stop := strings.Index(s, "\x1b\\"); stop != -1 {
		s = s[:stop]
	}

	parts := strings.Split(s, ";")
	if len(parts) < 2 {
		return CellSize{}, fmt.Errorf("bad cell size %q", s)
	}
	sz := CellSize{Scale: 1}
	var err error
	if sz.Height, err = strconv.ParseFloat(parts[0], 64); err != nil {
		return CellSize{}, err
	}
	if sz.Width, err = strconv.ParseFloat(parts[1], 64); err != nil {
		return CellSize{}, err
	}
	if len(parts) > 2 {
		if sz.Scale, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return CellSize{}, err
		}
	}
	return sz, nil
}

// FitWidth returns the number of cells an image pixelWidth wide should use,
// at most the terminal width
func FitWidth(f *os.File, pixelWidth int) int {
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 {
		return 0
	}
	cellWidth := float64(DefaultCellWidth)
	if sz, err := ReportCellSize(f); err == nil && sz.Width > 0 {
		cellWidth = sz.Width * sz.Scale
	}
	return fitCells(pixelWidth, cellWidth, cols)
}

func fitCells(pixelWidth int, cellWidth float64, cols int) int {
	cells := int(float64(pixelWidth)/cellWidth + 0.5)
	return max(1, min(cells, cols))
}
