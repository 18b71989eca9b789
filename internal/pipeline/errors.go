package pipeline

import "fmt"

// ConversionError is returned when a conversion can't start
type ConversionError struct {
	Reason string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *ConversionError) Unwrap() error { return e.Err }

// FrameGenerationError is returned when the frame at Time could not be
// rendered, the whole conversion is aborted
type FrameGenerationError struct {
	Time float64
	Err  error
}

func (e *FrameGenerationError) Error() string {
	return fmt.Sprintf("frame at %.3fs: %s", e.Time, e.Err)
}

func (e *FrameGenerationError) Unwrap() error { return e.Err }
