package svgdoc

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var animationLonghands = []struct {
	name string
	def  string
}{
	{"animation-name", "none"},
	{"animation-duration", "0s"},
	{"animation-timing-function", "ease"},
	{"animation-delay", "0s"},
	{"animation-iteration-count", "1"},
	{"animation-direction", "normal"},
	{"animation-fill-mode", "none"},
}

// expandShorthand expands "animation" into its longhands, other declarations
// are returned as is
func expandShorthand(d declaration) []declaration {
	if d.Property != "animation" {
		return []declaration{d}
	}
	lists := map[string][]string{}
	for _, item := range splitTopLevel(d.Value, isRune(',')) {
		v := map[string]string{}
		for _, tok := range splitFields(item) {
			lower := strings.ToLower(tok)
			switch {
			case isEasing(lower):
				v["animation-timing-function"] = tok
			case lower == "infinite" || isPlainNumber(lower):
				v["animation-iteration-count"] = tok
			case lower == "normal" || lower == "reverse" || lower == "alternate" || lower == "alternate-reverse":
				v["animation-direction"] = lower
			case lower == "forwards" || lower == "backwards" || lower == "both":
				v["animation-fill-mode"] = lower
			case lower == "running" || lower == "paused":
			case isTime(lower):
				if _, ok := v["animation-duration"]; !ok {
					v["animation-duration"] = tok
				} else {
					v["animation-delay"] = tok
				}
			default:
				if _, ok := v["animation-name"]; !ok {
					v["animation-name"] = strings.Trim(tok, `"'`)
				}
			}
		}
		for _, l := range animationLonghands {
			s, ok := v[l.name]
			if !ok {
				s = l.def
			}
			lists[l.name] = append(lists[l.name], s)
		}
	}
	var ds []declaration
	for _, l := range animationLonghands {
		ds = append(ds, declaration{Property: l.name, Value: strings.Join(lists[l.name], ","), Important: d.Important})
	}
	return ds
}

func isPlainNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isTime(s string) bool {
	if !strings.HasSuffix(s, "s") {
		return false
	}
	_, ok := ParseClock(s)
	return ok
}

type cssAnimation struct {
	name       string
	duration   float64
	easing     Easing
	iterations float64
	direction  string
	fill       string
}

// cssAnimations returns the animations declared by cascaded properties
func cssAnimations(props map[string]string) []cssAnimation {
	names, ok := props["animation-name"]
	if !ok {
		return nil
	}
	list := func(prop, def string) []string {
		v, ok := props[prop]
		if !ok {
			return []string{def}
		}
		return splitTopLevel(v, isRune(','))
	}
	item := func(l []string, i int) string { return strings.TrimSpace(l[i%len(l)]) }

	durations := list("animation-duration", "0s")
	easings := list("animation-timing-function", "ease")
	counts := list("animation-iteration-count", "1")
	directions := list("animation-direction", "normal")
	fills := list("animation-fill-mode", "none")

	var as []cssAnimation
	for i, name := range splitTopLevel(names, isRune(',')) {
		name = strings.Trim(strings.TrimSpace(name), `"'`)
		if name == "" || name == "none" {
			continue
		}
		a := cssAnimation{
			name:       name,
			easing:     namedEasings["ease"],
			iterations: 1,
			direction:  strings.ToLower(item(directions, i)),
			fill:       strings.ToLower(item(fills, i)),
		}
		if d, ok := ParseClock(item(durations, i)); ok && d > 0 {
			a.duration = d
		}
		if e, ok := ParseEasing(item(easings, i)); ok {
			a.easing = e
		}
		switch c := item(counts, i); c {
		case "infinite":
			a.iterations = math.Inf(1)
		default:
			if n, err := strconv.ParseFloat(c, 64); err == nil && n >= 0 {
				a.iterations = n
			}
		}
		as = append(as, a)
	}
	return as
}

func (a cssAnimation) fillsForwards() bool { return a.fill == "forwards" || a.fill == "both" }

// progress returns keyframe progress at document time t, ok false if the
// animation has no effect at t. Seeking overrides animation-delay with -t so
// every animation is t into its run, declared delays never apply.
func (a cssAnimation) progress(t float64) (float64, bool) {
	local := t
	var iter, p float64
	switch {
	case a.duration <= 0 || local >= a.duration*a.iterations:
		if !a.fillsForwards() {
			return 0, false
		}
		if math.IsInf(a.iterations, 1) {
			iter, p = 0, 1
			break
		}
		iter = math.Floor(a.iterations)
		p = a.iterations - iter
		if p == 0 && iter > 0 {
			iter--
			p = 1
		}
	default:
		r := local / a.duration
		iter = math.Floor(r)
		p = r - iter
	}

	odd := math.Mod(iter, 2) == 1
	switch a.direction {
	case "reverse":
		p = 1 - p
	case "alternate":
		if odd {
			p = 1 - p
		}
	case "alternate-reverse":
		if !odd {
			p = 1 - p
		}
	}
	return p, true
}

type keyframeValue struct {
	offset float64
	value  string
	easing Easing
}

// values returns the animated value of every property in kf at progress p,
// base is used for implicit from/to keyframes
func (kf *keyframes) values(p float64, defEasing Easing, base func(prop string) string) map[string]string {
	perProp := map[string][]keyframeValue{}
	var order []string
	for _, f := range kf.frames {
		easing := defEasing
		for _, d := range f.decls {
			if d.Property == "animation-timing-function" {
				if e, ok := ParseEasing(d.Value); ok {
					easing = e
				}
			}
		}
		for _, d := range f.decls {
			if strings.HasPrefix(d.Property, "animation") {
				continue
			}
			if _, ok := perProp[d.Property]; !ok {
				order = append(order, d.Property)
			}
			perProp[d.Property] = append(perProp[d.Property], keyframeValue{offset: f.offset, value: d.Value, easing: easing})
		}
	}

	out := map[string]string{}
	for _, prop := range order {
		kvs := perProp[prop]
		b := base(prop)
		if b == "" {
			b = kvs[0].value
		}
		if kvs[0].offset > 0 {
			kvs = append([]keyframeValue{{offset: 0, value: b, easing: defEasing}}, kvs...)
		}
		if kvs[len(kvs)-1].offset < 1 {
			last := b
			if base(prop) == "" {
				last = kvs[len(kvs)-1].value
			}
			kvs = append(kvs, keyframeValue{offset: 1, value: last, easing: defEasing})
		}

		if prop == "transform" {
			neutralizeNone(kvs)
		}

		seg := 0
		for i := 0; i < len(kvs)-1; i++ {
			if p >= kvs[i].offset {
				seg = i
			}
		}
		a, b2 := kvs[seg], kvs[seg+1]
		if p >= b2.offset || b2.offset <= a.offset {
			out[prop] = b2.value
			continue
		}
		q := (p - a.offset) / (b2.offset - a.offset)
		out[prop] = Interpolate(a.value, b2.value, a.easing(q))
	}
	return out
}

var transformFuncRe = regexp.MustCompile(`([a-zA-Z0-9]+)\(([^)]*)\)`)

// neutralizeNone replaces transform none with the identity form of another
// keyframe so rotate(0) to rotate(360deg) interpolates
func neutralizeNone(kvs []keyframeValue) {
	var other string
	for _, kv := range kvs {
		if strings.TrimSpace(kv.value) != "none" {
			other = kv.value
			break
		}
	}
	if other == "" {
		return
	}
	neutral := transformFuncRe.ReplaceAllStringFunc(other, func(fn string) string {
		m := transformFuncRe.FindStringSubmatch(fn)
		name := strings.ToLower(m[1])
		switch {
		case name == "matrix":
			return "matrix(1, 0, 0, 1, 0, 0)"
		case strings.HasPrefix(name, "scale"):
			return m[1] + numberRe.ReplaceAllString(fn[len(m[1]):], "1")
		default:
			return m[1] + numberRe.ReplaceAllString(fn[len(m[1]):], "0")
		}
	})
	for i := range kvs {
		if strings.TrimSpace(kvs[i].value) == "none" {
			kvs[i].value = neutral
		}
	}
}

func cssLength(s string) float64 {
	if v, ok := parseLength(s); ok {
		return v
	}
	// parseLength only accepts positive lengths
	s = strings.TrimSpace(s)
	if neg, ok := strings.CutPrefix(s, "-"); ok {
		if v, ok := parseLength(neg); ok {
			return -v
		}
	}
	return 0
}

func cssAngle(s string) float64 {
	s = strings.TrimSpace(s)
	for _, u := range []struct {
		suffix string
		scale  float64
	}{
		{"deg", 1},
		{"grad", 0.9},
		{"rad", 180 / math.Pi},
		{"turn", 360},
	} {
		if v, ok := strings.CutSuffix(s, u.suffix); ok {
			f, _ := strconv.ParseFloat(v, 64)
			return f * u.scale
		}
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// cssTransformToSVG converts a CSS transform to transform attribute syntax,
// 3d and unknown functions are dropped
func cssTransformToSVG(v string) string {
	var fns []string
	for _, m := range transformFuncRe.FindAllStringSubmatch(v, -1) {
		args := splitNumberList(m[2])
		arg := func(i int) string {
			if i < len(args) {
				return args[i]
			}
			return ""
		}
		f := formatNumber
		switch strings.ToLower(m[1]) {
		case "translate":
			fns = append(fns, "translate("+f(cssLength(arg(0)))+" "+f(cssLength(arg(1)))+")")
		case "translatex":
			fns = append(fns, "translate("+f(cssLength(arg(0)))+" 0)")
		case "translatey":
			fns = append(fns, "translate(0 "+f(cssLength(arg(0)))+")")
		case "scale":
			sx, _ := strconv.ParseFloat(arg(0), 64)
			sy := sx
			if len(args) > 1 {
				sy, _ = strconv.ParseFloat(arg(1), 64)
			}
			fns = append(fns, "scale("+f(sx)+" "+f(sy)+")")
		case "scalex":
			sx, _ := strconv.ParseFloat(arg(0), 64)
			fns = append(fns, "scale("+f(sx)+" 1)")
		case "scaley":
			sy, _ := strconv.ParseFloat(arg(0), 64)
			fns = append(fns, "scale(1 "+f(sy)+")")
		case "rotate", "rotatez":
			fns = append(fns, "rotate("+f(cssAngle(arg(0)))+")")
		case "skewx":
			fns = append(fns, "skewX("+f(cssAngle(arg(0)))+")")
		case "skewy":
			fns = append(fns, "skewY("+f(cssAngle(arg(0)))+")")
		case "skew":
			fns = append(fns, "skewX("+f(cssAngle(arg(0)))+")")
			if len(args) > 1 {
				fns = append(fns, "skewY("+f(cssAngle(arg(1)))+")")
			}
		case "matrix":
			if len(args) == 6 {
				fns = append(fns, "matrix("+strings.Join(args, " ")+")")
			}
		}
	}
	return strings.Join(fns, " ")
}

type box struct{ x, y, w, h float64 }

func (b box) union(o box) box {
	x0, y0 := math.Min(b.x, o.x), math.Min(b.y, o.y)
	x1, y1 := math.Max(b.x+b.w, o.x+o.w), math.Max(b.y+b.h, o.y+o.h)
	return box{x0, y0, x1 - x0, y1 - y0}
}

func attrFloat(n *etree.Element, name string) float64 {
	return cssLength(attrOr(n, name, "0"))
}

// bbox is the untransformed bounding box of basic shapes and groups of them
func bbox(n *etree.Element) (box, bool) {
	switch n.Tag {
	case "rect", "image", "use", "foreignObject":
		return box{attrFloat(n, "x"), attrFloat(n, "y"), attrFloat(n, "width"), attrFloat(n, "height")}, true
	case "circle":
		r := attrFloat(n, "r")
		return box{attrFloat(n, "cx") - r, attrFloat(n, "cy") - r, 2 * r, 2 * r}, true
	case "ellipse":
		rx, ry := attrFloat(n, "rx"), attrFloat(n, "ry")
		return box{attrFloat(n, "cx") - rx, attrFloat(n, "cy") - ry, 2 * rx, 2 * ry}, true
	case "line":
		return pointsBox([]Point{
			{attrFloat(n, "x1"), attrFloat(n, "y1")},
			{attrFloat(n, "x2"), attrFloat(n, "y2")},
		})
	case "polygon", "polyline":
		ns := splitNumberList(attrOr(n, "points", ""))
		var ps []Point
		for i := 0; i+1 < len(ns); i += 2 {
			x, _ := strconv.ParseFloat(ns[i], 64)
			y, _ := strconv.ParseFloat(ns[i+1], 64)
			ps = append(ps, Point{x, y})
		}
		return pointsBox(ps)
	case "path":
		pl, err := ParsePath(attrOr(n, "d", ""))
		if err != nil {
			return box{}, false
		}
		return pointsBox(pl.points)
	case "g", "a", "switch":
		var b box
		found := false
		for _, c := range n.ChildElements() {
			cb, ok := bbox(c)
			if !ok {
				continue
			}
			if !found {
				b, found = cb, true
			} else {
				b = b.union(cb)
			}
		}
		return b, found
	}
	return box{}, false
}

func pointsBox(ps []Point) (box, bool) {
	if len(ps) == 0 {
		return box{}, false
	}
	minX, minY, maxX, maxY := ps[0].X, ps[0].Y, ps[0].X, ps[0].Y
	for _, p := range ps[1:] {
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	return box{minX, minY, maxX - minX, maxY - minY}, true
}

// transformOrigin resolves a CSS transform-origin against the reference box
func transformOrigin(origin string, ref box) (float64, float64) {
	fs := strings.Fields(strings.ToLower(origin))
	x, y := ref.x, ref.y
	resolve := func(s string, start, size float64) (float64, bool) {
		switch s {
		case "left", "top":
			return start, true
		case "center":
			return start + size/2, true
		case "right", "bottom":
			return start + size, true
		}
		if p, ok := strings.CutSuffix(s, "%"); ok {
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return 0, false
			}
			return start + size*f/100, true
		}
		return start + cssLength(s), true
	}
	// keywords may come in y x order, "top left"
	if len(fs) == 2 && (fs[0] == "top" || fs[0] == "bottom" || fs[1] == "left" || fs[1] == "right") {
		fs[0], fs[1] = fs[1], fs[0]
	}
	switch len(fs) {
	case 0:
	case 1:
		if fs[0] == "top" || fs[0] == "bottom" {
			x = ref.x + ref.w/2
			y, _ = resolve(fs[0], ref.y, ref.h)
		} else {
			x, _ = resolve(fs[0], ref.x, ref.w)
			y = ref.y + ref.h/2
		}
	default:
		x, _ = resolve(fs[0], ref.x, ref.w)
		y, _ = resolve(fs[1], ref.y, ref.h)
	}
	return x, y
}

// resolveCSSAnimations writes the state of CSS keyframe animations at t into
// inline styles and transform attributes
func resolveCSSAnimations(doc *Document, t float64) {
	root := doc.Root()
	var css strings.Builder
	for _, n := range elements(root) {
		if n.Tag == "style" {
			css.WriteString(textContent(n))
			css.WriteString("\n")
		}
	}
	sh := parseStylesheet(css.String())
	if len(sh.keyframes) == 0 {
		return
	}

	w, h := doc.Size()
	viewBox := box{0, 0, w, h}
	if vb, ok := ParseViewBox(attrOr(root, "viewBox", "")); ok {
		// lengths in transform-origin are relative to the user space origin
		viewBox = box{0, 0, vb.Width, vb.Height}
	}

	for _, n := range elements(root) {
		props := sh.cascade(n)
		anims := cssAnimations(props)
		if len(anims) == 0 {
			continue
		}
		base := func(prop string) string {
			if v, ok := props[prop]; ok {
				return v
			}
			if v, ok := attr(n, prop); ok {
				return v
			}
			if prop == "transform" {
				return "none"
			}
			return defaultAttributeValues[prop]
		}

		animated := map[string]string{}
		var animatedOrder []string
		for _, a := range anims {
			kf, ok := sh.keyframes[a.name]
			if !ok || len(kf.frames) == 0 {
				continue
			}
			p, ok := a.progress(t)
			if !ok {
				continue
			}
			for prop, v := range kf.values(p, a.easing, base) {
				if _, ok := animated[prop]; !ok {
					animatedOrder = append(animatedOrder, prop)
				}
				// later animations in the list win
				animated[prop] = v
			}
		}

		for _, prop := range animatedOrder {
			v := animated[prop]
			if prop != "transform" {
				setStyleProperty(n, prop, v)
				continue
			}
			removeStyleProperty(n, "transform")
			tr := cssTransformToSVG(v)
			if tr == "" {
				n.RemoveAttr("transform")
				continue
			}
			ref := viewBox
			if props["transform-box"] == "fill-box" {
				if b, ok := bbox(n); ok {
					ref = b
				}
			}
			origin, ok := props["transform-origin"]
			if !ok {
				origin = "0 0"
			}
			ox, oy := transformOrigin(origin, ref)
			if ox != 0 || oy != 0 {
				tr = "translate(" + formatNumber(ox) + " " + formatNumber(oy) + ") " + tr +
					" translate(" + formatNumber(-ox) + " " + formatNumber(-oy) + ")"
			}
			n.CreateAttr("transform", tr)
		}
	}
}
