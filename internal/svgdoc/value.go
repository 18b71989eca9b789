package svgdoc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ParseClock parses a SMIL clock value or CSS time into seconds,
// ex: "2s", "500ms", "1.5min", "1h", "02:30", "00:00:05.5", "5"
func ParseClock(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, false
		}
		var secs float64
		for _, p := range parts {
			n, err := strconv.ParseFloat(p, 64)
			if err != nil || n < 0 {
				return 0, false
			}
			secs = secs*60 + n
		}
		return secs, true
	}

	scale := 1.0
	for _, u := range []struct {
		suffix string
		scale  float64
	}{
		{"ms", 0.001},
		{"min", 60},
		{"h", 3600},
		{"s", 1},
	} {
		if strings.HasSuffix(s, u.suffix) {
			s = strings.TrimSuffix(s, u.suffix)
			scale = u.scale
			break
		}
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n * scale, true
}

func formatNumber(f float64) string {
	f = math.Round(f*1e4) / 1e4
	if f == 0 {
		// no "-0"
		f = 0
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var numberRe = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// template is a value split into numbers and the literal text around them,
// "rotate(45 10 10)" is literals ["rotate(", " ", " ", ")"] and numbers [45 10 10]
type template struct {
	literals []string
	numbers  []float64
}

func parseTemplate(s string) template {
	var t template
	last := 0
	for _, m := range numberRe.FindAllStringIndex(s, -1) {
		n, err := strconv.ParseFloat(s[m[0]:m[1]], 64)
		if err != nil {
			continue
		}
		t.literals = append(t.literals, s[last:m[0]])
		t.numbers = append(t.numbers, n)
		last = m[1]
	}
	t.literals = append(t.literals, s[last:])
	return t
}

func (t template) compatible(o template) bool {
	if len(t.numbers) != len(o.numbers) || len(t.literals) != len(o.literals) {
		return false
	}
	for i := range t.literals {
		if unitless(t.literals[i]) != unitless(o.literals[i]) {
			return false
		}
	}
	return true
}

// unitless ignores whitespace and px so "10" and "10px" interpolate
func unitless(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "px", ""))
}

func (t template) String() string {
	var sb strings.Builder
	for i, l := range t.literals {
		sb.WriteString(l)
		if i < len(t.numbers) {
			sb.WriteString(formatNumber(t.numbers[i]))
		}
	}
	return sb.String()
}

func (t template) combine(o template, fn func(a, b float64) float64) template {
	r := template{literals: t.literals, numbers: make([]float64, len(t.numbers))}
	for i := range t.numbers {
		r.numbers[i] = fn(t.numbers[i], o.numbers[i])
	}
	return r
}

// Interpolate interpolates between two values at p in [0,1]. Colors are
// interpolated per channel, values with the same shape per number, anything
// else is discrete and switches at p = 0.5.
func Interpolate(a, b string, p float64) string {
	if p <= 0 {
		return a
	}
	if p >= 1 {
		return b
	}
	if ca, ok := ParseColor(a); ok {
		if cb, ok := ParseColor(b); ok {
			return ca.lerp(cb, p).String()
		}
	}
	ta, tb := parseTemplate(a), parseTemplate(b)
	if len(ta.numbers) > 0 && ta.compatible(tb) {
		return ta.combine(tb, func(x, y float64) float64 { return x + (y-x)*p }).String()
	}
	if p < 0.5 {
		return a
	}
	return b
}

// addValues adds b to a, used for by and accumulate. ok false if not addable.
func addValues(a, b string, times float64) (string, bool) {
	if ca, ok := ParseColor(a); ok {
		if cb, ok := ParseColor(b); ok {
			return Color{
				R: ca.R + cb.R*times,
				G: ca.G + cb.G*times,
				B: ca.B + cb.B*times,
				A: ca.A,
			}.clamp().String(), true
		}
	}
	ta, tb := parseTemplate(a), parseTemplate(b)
	if len(ta.numbers) == 0 || !ta.compatible(tb) {
		return "", false
	}
	return ta.combine(tb, func(x, y float64) float64 { return x + y*times }).String(), true
}

// distance between two values, used by paced interpolation
func distance(a, b string) (float64, bool) {
	if ca, ok := ParseColor(a); ok {
		if cb, ok := ParseColor(b); ok {
			return math.Sqrt(sq(ca.R-cb.R) + sq(ca.G-cb.G) + sq(ca.B-cb.B)), true
		}
	}
	ta, tb := parseTemplate(a), parseTemplate(b)
	if len(ta.numbers) == 0 || !ta.compatible(tb) {
		return 0, false
	}
	var s float64
	for i := range ta.numbers {
		s += sq(ta.numbers[i] - tb.numbers[i])
	}
	return math.Sqrt(s), true
}

func sq(f float64) float64 { return f * f }

// Color is a RGBA color, channels 0-255 and alpha 0-1
type Color struct {
	R, G, B, A float64
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"silver":      {192, 192, 192, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"white":       {255, 255, 255, 1},
	"maroon":      {128, 0, 0, 1},
	"red":         {255, 0, 0, 1},
	"purple":      {128, 0, 128, 1},
	"fuchsia":     {255, 0, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"green":       {0, 128, 0, 1},
	"lime":        {0, 255, 0, 1},
	"olive":       {128, 128, 0, 1},
	"yellow":      {255, 255, 0, 1},
	"navy":        {0, 0, 128, 1},
	"blue":        {0, 0, 255, 1},
	"teal":        {0, 128, 128, 1},
	"aqua":        {0, 255, 255, 1},
	"cyan":        {0, 255, 255, 1},
	"orange":      {255, 165, 0, 1},
	"pink":        {255, 192, 203, 1},
	"gold":        {255, 215, 0, 1},
	"brown":       {165, 42, 42, 1},
	"coral":       {255, 127, 80, 1},
	"crimson":     {220, 20, 60, 1},
	"indigo":      {75, 0, 130, 1},
	"violet":      {238, 130, 238, 1},
	"tomato":      {255, 99, 71, 1},
	"steelblue":   {70, 130, 180, 1},
	"skyblue":     {135, 206, 235, 1},
	"transparent": {0, 0, 0, 0},
}

var rgbFuncRe = regexp.MustCompile(`^rgba?\(\s*([^,\s]+)\s*[,\s]\s*([^,\s]+)\s*[,\s]\s*([^,\s/]+)\s*(?:[,/]\s*([^,\s)]+)\s*)?\)$`)

// ParseColor parses #rgb, #rrggbb, #rrggbbaa, rgb()/rgba() and common named colors
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		h := s[1:]
		switch len(h) {
		case 3, 4:
			var e strings.Builder
			for _, r := range h {
				e.WriteRune(r)
				e.WriteRune(r)
			}
			h = e.String()
		case 6, 8:
		default:
			return Color{}, false
		}
		v, err := strconv.ParseUint(h, 16, 64)
		if err != nil {
			return Color{}, false
		}
		if len(h) == 6 {
			v = v<<8 | 0xff
		}
		return Color{
			R: float64(v >> 24 & 0xff),
			G: float64(v >> 16 & 0xff),
			B: float64(v >> 8 & 0xff),
			A: float64(v&0xff) / 255,
		}, true
	}
	m := rgbFuncRe.FindStringSubmatch(s)
	if m == nil {
		return Color{}, false
	}
	var c Color
	for i, dst := range []*float64{&c.R, &c.G, &c.B} {
		v := m[i+1]
		if strings.HasSuffix(v, "%") {
			f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
			if err != nil {
				return Color{}, false
			}
			*dst = f * 255 / 100
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Color{}, false
		}
		*dst = f
	}
	c.A = 1
	if m[4] != "" {
		v := m[4]
		scale := 1.0
		if strings.HasSuffix(v, "%") {
			v, scale = strings.TrimSuffix(v, "%"), 0.01
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Color{}, false
		}
		c.A = f * scale
	}
	return c.clamp(), true
}

func clamp(f, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, f)) }

func (c Color) clamp() Color {
	return Color{
		R: clamp(c.R, 0, 255),
		G: clamp(c.G, 0, 255),
		B: clamp(c.B, 0, 255),
		A: clamp(c.A, 0, 1),
	}
}

func (c Color) lerp(o Color, p float64) Color {
	return Color{
		R: c.R + (o.R-c.R)*p,
		G: c.G + (o.G-c.G)*p,
		B: c.B + (o.B-c.B)*p,
		A: c.A + (o.A-c.A)*p,
	}
}

func (c Color) String() string {
	r, g, b := math.Round(c.R), math.Round(c.G), math.Round(c.B)
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d,%d,%d)", int(r), int(g), int(b))
	}
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", int(r), int(g), int(b), formatNumber(c.A))
}
