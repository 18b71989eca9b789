package pipeline

import (
	"math"
	"sync"
)

// progress forwards non-decreasing percentages, 100 only from finish
type progress struct {
	mu      sync.Mutex
	fn      func(percent int)
	last    int
	stopped bool
}

func newProgress(fn func(percent int)) *progress {
	return &progress{fn: fn, last: -1}
}

func (p *progress) report(percent int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	percent = min(max(percent, 0), 99)
	if p.stopped || percent <= p.last {
		return
	}
	p.last = percent
	if p.fn != nil {
		p.fn(percent)
	}
}

// phase maps a fraction 0-1 to the percentage range from-to (0-1)
func (p *progress) phase(from, to float64) func(f float64) {
	return func(f float64) {
		f = math.Max(0, math.Min(1, f))
		p.report(int(math.Floor((from + (to-from)*f) * 100)))
	}
}

func (p *progress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return
	}
	p.stopped = true
	p.last = 100
	if p.fn != nil {
		p.fn(100)
	}
}

// stop drops all later reports
func (p *progress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}
