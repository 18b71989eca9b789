// Package timeline samples an animation at a fixed frame rate.
package timeline

import "math"

// tolerance for products like 0.1*30 that land just above an integer
const epsilon = 1e-9

// Samples is a finite, restartable sequence of timestamps in seconds
type Samples struct {
	FrameRate int
	Count     int
}

// Sample returns ceil(duration*frameRate) timestamps spaced 1/frameRate apart
// starting at 0. The last frame may end up to one interval after duration.
func Sample(frameRate int, duration float64) Samples {
	if frameRate <= 0 || duration <= 0 {
		return Samples{FrameRate: frameRate}
	}
	return Samples{
		FrameRate: frameRate,
		Count:     int(math.Ceil(duration*float64(frameRate) - epsilon)),
	}
}

// Interval between two timestamps in seconds
func (s Samples) Interval() float64 { return 1 / float64(s.FrameRate) }

// At returns timestamp i
func (s Samples) At(i int) float64 { return float64(i) / float64(s.FrameRate) }

// Duration is the played back duration, Count intervals
func (s Samples) Duration() float64 { return float64(s.Count) / float64(s.FrameRate) }

// Timestamps returns all timestamps
func (s Samples) Timestamps() []float64 {
	ts := make([]float64, s.Count)
	for i := range ts {
		ts[i] = s.At(i)
	}
	return ts
}
