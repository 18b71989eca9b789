package svgdoc

import (
	"math"
	"strings"
)

// DefaultSuggestedDuration is used when no animation has a finite end
const DefaultSuggestedDuration = 5

// Analysis describes a document and its animations
type Analysis struct {
	HasSMIL           bool    `json:"hasSmil" yaml:"hasSmil"`
	HasCSSAnimation   bool    `json:"hasCssAnimation" yaml:"hasCssAnimation"`
	ViewBox           string  `json:"viewBox,omitempty" yaml:"viewBox,omitempty"`
	Width             float64 `json:"width" yaml:"width"`
	Height            float64 `json:"height" yaml:"height"`
	SuggestedDuration float64 `json:"suggestedDuration" yaml:"suggestedDuration"`
}

// Analyze inspects the document for animations. SuggestedDuration is the end
// of the longest finite animation, one iteration for infinite ones. CSS
// animation delays are not counted, seeking overrides them.
func Analyze(doc *Document) Analysis {
	w, h := doc.Size()
	a := Analysis{
		ViewBox: attrOr(doc.Root(), "viewBox", ""),
		Width:   w,
		Height:  h,
	}

	var longest float64
	var css strings.Builder
	for _, n := range elements(doc.Root()) {
		if smilElements[n.Tag] {
			a.HasSMIL = true
			if tm, ok := parseTiming(n); ok {
				end := tm.active
				if math.IsInf(end, 1) {
					end = tm.simple
				}
				if !math.IsInf(end, 1) {
					longest = math.Max(longest, tm.begin+end)
				}
			}
		}
		if n.Tag == "style" {
			css.WriteString(textContent(n))
			css.WriteString("\n")
		}
		if style, ok := attr(n, "style"); ok && strings.Contains(style, "animation") {
			a.HasCSSAnimation = true
		}
	}

	sh := parseStylesheet(css.String())
	if len(sh.keyframes) > 0 {
		a.HasCSSAnimation = true
	}
	for _, n := range elements(doc.Root()) {
		for _, anim := range cssAnimations(sh.cascade(n)) {
			iterations := anim.iterations
			if math.IsInf(iterations, 1) {
				iterations = 1
			}
			longest = math.Max(longest, anim.duration*iterations)
		}
	}

	a.SuggestedDuration = DefaultSuggestedDuration
	if longest > 0 {
		a.SuggestedDuration = math.Round(longest*100) / 100
	}
	return a
}
