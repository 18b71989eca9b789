package timeline_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/wader/svgcast/internal/timeline"
)

func TestSample(t *testing.T) {
	testCases := []struct {
		frameRate     int
		duration      float64
		expectedCount int
	}{
		{frameRate: 30, duration: 4, expectedCount: 120},
		{frameRate: 30, duration: 0.1, expectedCount: 3},
		{frameRate: 24, duration: 1.01, expectedCount: 25},
		{frameRate: 10, duration: 0.05, expectedCount: 1},
		{frameRate: 1, duration: 2.5, expectedCount: 3},
		{frameRate: 60, duration: 1.0 / 3, expectedCount: 20},
	}
	for _, tC := range testCases {
		t.Run(fmt.Sprintf("%d_%v", tC.frameRate, tC.duration), func(t *testing.T) {
			s := timeline.Sample(tC.frameRate, tC.duration)
			if s.Count != tC.expectedCount {
				t.Fatalf("expected %d frames, got %d", tC.expectedCount, s.Count)
			}

			ts := s.Timestamps()
			if len(ts) != tC.expectedCount {
				t.Fatalf("expected %d timestamps, got %d", tC.expectedCount, len(ts))
			}
			if ts[0] != 0 {
				t.Errorf("expected first timestamp 0, got %v", ts[0])
			}
			for i := 1; i < len(ts); i++ {
				if ts[i] <= ts[i-1] {
					t.Fatalf("timestamps not increasing at %d: %v <= %v", i, ts[i], ts[i-1])
				}
				if d := ts[i] - ts[i-1]; math.Abs(d-s.Interval()) > 1e-9 {
					t.Fatalf("expected spacing %v at %d, got %v", s.Interval(), i, d)
				}
			}
			if s.Duration() < tC.duration-1e-9 || s.Duration() > tC.duration+s.Interval() {
				t.Errorf("expected played back duration within one interval of %v, got %v", tC.duration, s.Duration())
			}
		})
	}
}

func TestSampleThirtyFPSFourSeconds(t *testing.T) {
	s := timeline.Sample(30, 4)
	ts := s.Timestamps()
	if len(ts) != 120 {
		t.Fatalf("expected 120 timestamps, got %d", len(ts))
	}
	if last := ts[len(ts)-1]; math.Abs(last-119.0/30) > 1e-12 {
		t.Errorf("expected last timestamp 119/30, got %v", last)
	}
}

func TestSampleRestartable(t *testing.T) {
	a := timeline.Sample(25, 2).Timestamps()
	b := timeline.Sample(25, 2).Timestamps()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical timestamps at %d, got %v and %v", i, a[i], b[i])
		}
	}
}

func TestSampleInvalid(t *testing.T) {
	if s := timeline.Sample(0, 4); s.Count != 0 {
		t.Errorf("expected no frames for zero frame rate, got %d", s.Count)
	}
	if s := timeline.Sample(30, 0); s.Count != 0 {
		t.Errorf("expected no frames for zero duration, got %d", s.Count)
	}
}
