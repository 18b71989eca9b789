// Package encoder turns raster frames into GIF loops and videos using ffmpeg
package encoder

import (
	"context"
	"errors"
	"strings"
	"syscall"
)

// UnavailableError is returned when an encoding engine can't be loaded
type UnavailableError struct {
	Engine string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return "failed to load " + e.Engine + " engine"
	}
	return "failed to load " + e.Engine + " engine: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// FailureError is returned when the encoder process fails, Msg is the tail
// of its stderr
type FailureError struct {
	Msg string
	Err error
}

func (e *FailureError) Error() string {
	if e.Msg == "" {
		return "encoder failed: " + e.Err.Error()
	}
	return "encoder failed: " + e.Msg
}

func (e *FailureError) Unwrap() error { return e.Err }

// last n non-empty lines
func tail(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// causeError picks the error that caused a group to fail. Broken pipes and
// cancellations are consequences of another failure.
func causeError(errs []error) error {
	for _, err := range errs {
		if !errors.Is(err, syscall.EPIPE) && !errors.Is(err, context.Canceled) {
			return err
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
