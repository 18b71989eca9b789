package svgdoc

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Easing maps linear progress in [0,1] to eased progress
type Easing func(p float64) float64

func Linear(p float64) float64 { return p }

// CubicBezier returns an easing for a bezier from (0,0) to (1,1) with control
// points (x1,y1) and (x2,y2), as used by CSS cubic-bezier() and SMIL keySplines
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	bez := func(a, b, t float64) float64 {
		mt := 1 - t
		return 3*mt*mt*t*a + 3*mt*t*t*b + t*t*t
	}
	bezDeriv := func(a, b, t float64) float64 {
		mt := 1 - t
		return 3*mt*mt*a + 6*mt*t*(b-a) + 3*t*t*(1-b)
	}
	return func(p float64) float64 {
		if p <= 0 {
			return 0
		}
		if p >= 1 {
			return 1
		}
		// newton then fall back to bisection
		t := p
		for i := 0; i < 8; i++ {
			x := bez(x1, x2, t) - p
			if math.Abs(x) < 1e-7 {
				return bez(y1, y2, t)
			}
			d := bezDeriv(x1, x2, t)
			if math.Abs(d) < 1e-6 {
				break
			}
			t -= x / d
		}
		lo, hi := 0.0, 1.0
		t = p
		for i := 0; i < 50; i++ {
			x := bez(x1, x2, t)
			if math.Abs(x-p) < 1e-7 {
				break
			}
			if x < p {
				lo = t
			} else {
				hi = t
			}
			t = (lo + hi) / 2
		}
		return bez(y1, y2, t)
	}
}

// Steps returns a step easing with n intervals, jumpStart makes the first jump at p=0
func Steps(n int, jumpStart bool) Easing {
	if n < 1 {
		n = 1
	}
	return func(p float64) float64 {
		if p >= 1 {
			return 1
		}
		s := math.Floor(p * float64(n))
		if jumpStart {
			s++
		}
		return math.Min(1, s/float64(n))
	}
}

var (
	cubicBezierRe = regexp.MustCompile(`^cubic-bezier\(([^)]*)\)$`)
	stepsRe       = regexp.MustCompile(`^steps\(\s*(\d+)\s*(?:,\s*([a-z-]+)\s*)?\)$`)
)

var namedEasings = map[string]Easing{
	"linear":      Linear,
	"ease":        CubicBezier(0.25, 0.1, 0.25, 1),
	"ease-in":     CubicBezier(0.42, 0, 1, 1),
	"ease-out":    CubicBezier(0, 0, 0.58, 1),
	"ease-in-out": CubicBezier(0.42, 0, 0.58, 1),
	"step-start":  Steps(1, true),
	"step-end":    Steps(1, false),
}

// ParseEasing parses a CSS timing function
func ParseEasing(s string) (Easing, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if e, ok := namedEasings[s]; ok {
		return e, true
	}
	if m := cubicBezierRe.FindStringSubmatch(s); m != nil {
		ns, ok := parseFloats(m[1], 4)
		if !ok || ns[0] < 0 || ns[0] > 1 || ns[2] < 0 || ns[2] > 1 {
			return nil, false
		}
		return CubicBezier(ns[0], ns[1], ns[2], ns[3]), true
	}
	if m := stepsRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		switch m[2] {
		case "", "end", "jump-end":
			return Steps(n, false), true
		case "start", "jump-start":
			return Steps(n, true), true
		}
	}
	return nil, false
}

func isEasing(s string) bool {
	_, ok := ParseEasing(s)
	return ok
}

// parseFloats parses exactly n comma/space separated numbers
func parseFloats(s string, n int) ([]float64, bool) {
	fs := splitNumberList(s)
	if len(fs) != n {
		return nil, false
	}
	ns := make([]float64, n)
	for i, f := range fs {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, false
		}
		ns[i] = v
	}
	return ns, true
}
