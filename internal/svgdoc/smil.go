package svgdoc

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

var smilElements = map[string]bool{
	"animate":          true,
	"set":              true,
	"animateColor":     true,
	"animateTransform": true,
	"animateMotion":    true,
}

// TimelineSeeker is implemented by documents with a SMIL animation timeline
type TimelineSeeker interface {
	// SetCurrentTime bakes the animated values at t into the document and
	// removes the animation elements, so it can only be called once per document
	SetCurrentTime(t float64) error
}

type smilTimeline struct {
	doc   *Document
	anims []*etree.Element
}

// Timeline returns a seeker if the document has SMIL animation elements
func Timeline(doc *Document) (TimelineSeeker, bool) {
	var anims []*etree.Element
	for _, n := range elements(doc.Root()) {
		if smilElements[n.Tag] {
			anims = append(anims, n)
		}
	}
	if len(anims) == 0 {
		return nil, false
	}
	return &smilTimeline{doc: doc, anims: anims}, true
}

func (st *smilTimeline) SetCurrentTime(t float64) error {
	ids := map[string]*etree.Element{}
	for _, n := range elements(st.doc.Root()) {
		if id := elementID(n); id != "" {
			if _, ok := ids[id]; !ok {
				ids[id] = n
			}
		}
	}

	var errs []error
	// document order so later animations sandwich on top of earlier ones
	for _, n := range st.anims {
		if err := applySMIL(n, ids, t); err != nil {
			errs = append(errs, fmt.Errorf("<%s attributeName=%q>: %w", n.Tag, attrOr(n, "attributeName", ""), err))
		}
	}
	for _, n := range st.anims {
		removeElement(n)
	}
	return errors.Join(errs...)
}

func resolveHref(n *etree.Element, ids map[string]*etree.Element) (*etree.Element, error) {
	ref, ok := href(n)
	if !ok {
		return nil, nil
	}
	id, ok := strings.CutPrefix(strings.TrimSpace(ref), "#")
	if !ok {
		return nil, fmt.Errorf("unsupported href %q", ref)
	}
	target, ok := ids[id]
	if !ok {
		return nil, fmt.Errorf("href %q not found", ref)
	}
	return target, nil
}

func animationTarget(n *etree.Element, ids map[string]*etree.Element) (*etree.Element, error) {
	target, err := resolveHref(n, ids)
	if err != nil {
		return nil, err
	}
	if target != nil {
		return target, nil
	}
	p := parentElement(n)
	if p == nil {
		return nil, errors.New("no target element")
	}
	return p, nil
}

// parseTimeList returns the earliest offset value of a begin/end list, event
// and syncbase values are never resolved
func parseTimeList(s string) (float64, bool) {
	best, found := math.Inf(1), false
	for _, v := range strings.Split(s, ";") {
		if c, ok := ParseClock(v); ok && c < best {
			best, found = c, true
		}
	}
	return best, found
}

// smilTiming is the interval model of one animation element
type smilTiming struct {
	begin  float64
	simple float64 // +Inf if indefinite
	active float64 // +Inf if indefinite
	freeze bool
}

func parseTiming(n *etree.Element) (smilTiming, bool) {
	begin, ok := parseTimeList(attrOr(n, "begin", "0s"))
	if !ok {
		return smilTiming{}, false
	}
	tm := smilTiming{
		begin:  begin,
		simple: math.Inf(1),
		freeze: attrOr(n, "fill", "remove") == "freeze",
	}
	if d, ok := ParseClock(attrOr(n, "dur", "")); ok && d > 0 {
		tm.simple = d
	}

	tm.active = tm.simple
	rcStr, rcOK := attr(n, "repeatCount")
	rdStr, rdOK := attr(n, "repeatDur")
	if rcOK || rdOK {
		tm.active = math.Inf(1)
		if rcOK && rcStr != "indefinite" {
			if rc, err := strconv.ParseFloat(strings.TrimSpace(rcStr), 64); err == nil && rc > 0 {
				tm.active = tm.simple * rc
			} else {
				tm.active = tm.simple
			}
		}
		if rdOK && rdStr != "indefinite" {
			if rd, ok := ParseClock(rdStr); ok && rd >= 0 {
				tm.active = math.Min(tm.active, rd)
			}
		}
	}
	if end, ok := parseTimeList(attrOr(n, "end", "")); ok {
		tm.active = math.Min(tm.active, math.Max(0, end-begin))
	}

	return tm, true
}

// at returns iteration and simple progress at document time t, ok false if
// the animation has no effect at t
func (tm smilTiming) at(t float64) (iteration int, p float64, ok bool) {
	local := t - tm.begin
	if local < 0 {
		return 0, 0, false
	}
	if math.IsInf(tm.simple, 1) {
		if local < tm.active || tm.freeze {
			return 0, 0, true
		}
		return 0, 0, false
	}
	if local < tm.active {
		r := local / tm.simple
		iter := math.Floor(r)
		return int(iter), r - iter, true
	}
	if !tm.freeze {
		return 0, 0, false
	}
	r := tm.active / tm.simple
	iter := math.Floor(r)
	p = r - iter
	if p < 1e-9 && iter > 0 {
		iter--
		p = 1
	}
	return int(iter), p, true
}

func splitValues(s string) []string {
	var vs []string
	for _, v := range strings.Split(s, ";") {
		if v = strings.TrimSpace(v); v != "" {
			vs = append(vs, v)
		}
	}
	return vs
}

func parseKeyTimes(s string, n int) ([]float64, bool) {
	vs := splitValues(s)
	if len(vs) != n || n < 1 {
		return nil, false
	}
	kts := make([]float64, n)
	for i, v := range vs {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 || f > 1 || (i > 0 && f < kts[i-1]) {
			return nil, false
		}
		kts[i] = f
	}
	if kts[0] != 0 {
		return nil, false
	}
	return kts, true
}

func parseKeySplines(s string, n int) ([]Easing, bool) {
	vs := splitValues(s)
	if len(vs) != n {
		return nil, false
	}
	es := make([]Easing, n)
	for i, v := range vs {
		ns, ok := parseFloats(v, 4)
		if !ok {
			return nil, false
		}
		es[i] = CubicBezier(ns[0], ns[1], ns[2], ns[3])
	}
	return es, true
}

// keyed is values with their key times and easing per segment
type keyed struct {
	values   []string
	calcMode string
	keyTimes []float64
	splines  []Easing
}

func newKeyed(n *etree.Element, values []string, defaultCalcMode string) keyed {
	k := keyed{values: values, calcMode: attrOr(n, "calcMode", defaultCalcMode)}
	nv := len(values)
	kts, ktsOK := parseKeyTimes(attrOr(n, "keyTimes", ""), nv)

	switch k.calcMode {
	case "discrete":
		if ktsOK {
			k.keyTimes = kts
		}
		return k
	case "paced":
		if pts, ok := pacedKeyTimes(values); ok {
			k.keyTimes = pts
			return k
		}
	case "spline":
		if ss, ok := parseKeySplines(attrOr(n, "keySplines", ""), nv-1); ok {
			k.splines = ss
		}
	}
	if ktsOK && kts[nv-1] == 1 {
		k.keyTimes = kts
	}
	return k
}

func pacedKeyTimes(values []string) ([]float64, bool) {
	if len(values) < 2 {
		return nil, false
	}
	kts := make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		d, ok := distance(values[i-1], values[i])
		if !ok {
			return nil, false
		}
		kts[i] = kts[i-1] + d
	}
	total := kts[len(kts)-1]
	if total == 0 {
		return nil, false
	}
	for i := range kts {
		kts[i] /= total
	}
	return kts, true
}

func (k keyed) at(p float64) string {
	n := len(k.values)
	switch {
	case n == 0:
		return ""
	case n == 1:
		return k.values[0]
	}

	if k.calcMode == "discrete" {
		if k.keyTimes != nil {
			idx := 0
			for i, kt := range k.keyTimes {
				if kt <= p {
					idx = i
				}
			}
			return k.values[idx]
		}
		return k.values[min(n-1, int(math.Floor(p*float64(n))))]
	}

	if p >= 1 {
		return k.values[n-1]
	}
	kts := k.keyTimes
	if kts == nil {
		kts = make([]float64, n)
		for i := range kts {
			kts[i] = float64(i) / float64(n-1)
		}
	}
	seg := 0
	for i := 0; i < n-1; i++ {
		if p >= kts[i] {
			seg = i
		}
	}
	span := kts[seg+1] - kts[seg]
	if span <= 0 {
		return k.values[seg+1]
	}
	q := (p - kts[seg]) / span
	if k.splines != nil {
		q = k.splines[seg](q)
	}
	return Interpolate(k.values[seg], k.values[seg+1], q)
}

var defaultAttributeValues = map[string]string{
	"opacity":        "1",
	"fill-opacity":   "1",
	"stroke-opacity": "1",
	"stop-opacity":   "1",
	"fill":           "black",
	"stroke":         "none",
	"visibility":     "visible",
	"display":        "inline",
}

// animatedBase is the current value of a property, inline style wins over attribute
func animatedBase(target *etree.Element, name string) string {
	if v, ok := styleProperty(target, name); ok {
		return v
	}
	if v, ok := attr(target, name); ok {
		return v
	}
	return defaultAttributeValues[name]
}

func setAnimated(target *etree.Element, name, value string) {
	if _, ok := styleProperty(target, name); ok {
		setStyleProperty(target, name, value)
		return
	}
	target.CreateAttr(name, value)
}

// fromToBy expands from/to/by into a values list, base is the value used
// when from is missing
func fromToBy(n *etree.Element, base string) ([]string, error) {
	from, fromOK := attr(n, "from")
	to, toOK := attr(n, "to")
	by, byOK := attr(n, "by")
	if !fromOK {
		from = base
	}
	switch {
	case toOK:
		return []string{from, to}, nil
	case byOK:
		sum, ok := addValues(from, by, 1)
		if !ok {
			return nil, fmt.Errorf("can't add by %q to %q", by, from)
		}
		return []string{from, sum}, nil
	}
	return nil, errors.New("no values, to or by")
}

func applySMIL(n *etree.Element, ids map[string]*etree.Element, t float64) error {
	target, err := animationTarget(n, ids)
	if err != nil {
		return err
	}
	tm, ok := parseTiming(n)
	if !ok {
		// begins on an event that never happens
		return nil
	}
	iter, p, active := tm.at(t)
	if !active {
		return nil
	}

	switch n.Tag {
	case "animateMotion":
		return applyMotion(n, target, ids, p)
	case "animateTransform":
		return applyTransform(n, target, iter, p)
	}

	name := attrOr(n, "attributeName", "")
	if name == "" {
		return errors.New("missing attributeName")
	}
	base := animatedBase(target, name)

	var k keyed
	if n.Tag == "set" {
		to, ok := attr(n, "to")
		if !ok {
			return errors.New("set without to")
		}
		k = keyed{values: []string{to}, calcMode: "discrete"}
	} else {
		values := splitValues(attrOr(n, "values", ""))
		if len(values) == 0 {
			if values, err = fromToBy(n, base); err != nil {
				return err
			}
		}
		k = newKeyed(n, values, "linear")
	}

	v := k.at(p)
	if attrOr(n, "accumulate", "none") == "sum" && iter > 0 {
		if sum, ok := addValues(v, k.values[len(k.values)-1], float64(iter)); ok {
			v = sum
		}
	}
	if attrOr(n, "additive", "replace") == "sum" {
		if sum, ok := addValues(base, v, 1); ok {
			v = sum
		}
	}
	setAnimated(target, name, v)
	return nil
}

var transformIdentity = map[string]string{
	"translate": "0 0",
	"scale":     "1 1",
	"rotate":    "0",
	"skewX":     "0",
	"skewY":     "0",
}

func applyTransform(n *etree.Element, target *etree.Element, iter int, p float64) error {
	typ := attrOr(n, "type", "translate")
	identity, ok := transformIdentity[typ]
	if !ok {
		return fmt.Errorf("unsupported transform type %q", typ)
	}
	values := splitValues(attrOr(n, "values", ""))
	if len(values) == 0 {
		from, fromOK := attr(n, "from")
		to, toOK := attr(n, "to")
		by, byOK := attr(n, "by")
		if !fromOK {
			from = identity
		}
		switch {
		case toOK:
			values = []string{from, to}
		case byOK:
			pair := normalizeTransformParams(typ, []string{from, by})
			values = []string{pair[0], addTransformParams(typ, pair[0], pair[1])}
		default:
			return errors.New("no values, to or by")
		}
	}
	values = normalizeTransformParams(typ, values)

	k := newKeyed(n, values, "linear")
	v := k.at(p)
	if attrOr(n, "accumulate", "none") == "sum" && iter > 0 {
		if sum, ok := addValues(v, k.values[len(k.values)-1], float64(iter)); ok {
			v = sum
		}
	}

	name := attrOr(n, "attributeName", "transform")
	value := typ + "(" + v + ")"
	if attrOr(n, "additive", "replace") == "sum" {
		if cur := strings.TrimSpace(attrOr(target, name, "")); cur != "" {
			value = cur + " " + value
		}
	}
	target.CreateAttr(name, value)
	return nil
}

// normalizeTransformParams pads parameter lists so they interpolate, for
// translate "10" and "20 30" become "10 0" and "20 30"
func normalizeTransformParams(typ string, values []string) []string {
	lists := make([][]string, len(values))
	var longest []string
	for i, v := range values {
		lists[i] = splitNumberList(v)
		if len(lists[i]) > len(longest) {
			longest = lists[i]
		}
	}
	out := make([]string, len(values))
	for i, l := range lists {
		if len(l) == 1 && len(l) < len(longest) {
			switch typ {
			case "translate":
				l = append(l, "0")
			case "scale":
				l = append(l, l[0])
			case "rotate":
				// rotate around the same center
				l = append(l, longest[1:]...)
			}
		}
		out[i] = strings.Join(l, " ")
	}
	return out
}

// addTransformParams adds b to a, rotate only adds the angle
func addTransformParams(typ, a, b string) string {
	la, lb := splitNumberList(a), splitNumberList(b)
	for i := range la {
		if i >= len(lb) || (typ == "rotate" && i > 0) {
			break
		}
		x, errX := strconv.ParseFloat(la[i], 64)
		y, errY := strconv.ParseFloat(lb[i], 64)
		if errX != nil || errY != nil {
			continue
		}
		la[i] = formatNumber(x + y)
	}
	return strings.Join(la, " ")
}

func parsePoint(s string) (Point, bool) {
	ns, ok := parseFloats(s, 2)
	if !ok {
		return Point{}, false
	}
	return Point{ns[0], ns[1]}, true
}

func motionPath(n *etree.Element, ids map[string]*etree.Element) (*Polyline, []string, error) {
	if d, ok := attr(n, "path"); ok {
		pl, err := ParsePath(d)
		return pl, nil, err
	}
	for _, c := range n.SelectElements("mpath") {
		pathNode, err := resolveHref(c, ids)
		if err != nil {
			return nil, nil, err
		}
		if pathNode == nil {
			return nil, nil, errors.New("mpath without href")
		}
		pl, err := ParsePath(attrOr(pathNode, "d", ""))
		return pl, nil, err
	}

	values := splitValues(attrOr(n, "values", ""))
	if len(values) == 0 {
		var err error
		if values, err = fromToBy(n, "0,0"); err != nil {
			return nil, nil, err
		}
	}
	var ps []Point
	for _, v := range values {
		p, ok := parsePoint(v)
		if !ok {
			return nil, nil, fmt.Errorf("invalid motion value %q", v)
		}
		ps = append(ps, p)
	}
	return PolylineFromPoints(ps), values, nil
}

func applyMotion(n *etree.Element, target *etree.Element, ids map[string]*etree.Element, p float64) error {
	pl, values, err := motionPath(n, ids)
	if err != nil {
		return err
	}

	frac := p
	if kps := splitValues(attrOr(n, "keyPoints", "")); len(kps) > 0 {
		k := newKeyed(n, kps, "linear")
		if f, err := strconv.ParseFloat(k.at(p), 64); err == nil {
			frac = f
		}
	}

	pt, angle := pl.At(frac)
	if values != nil && attrOr(n, "calcMode", "paced") != "paced" {
		// linear and discrete step through the values list by time, not length
		if vp, ok := parsePoint(newKeyed(n, values, "linear").at(p)); ok {
			pt = vp
		}
	}

	value := "translate(" + formatNumber(pt.X) + "," + formatNumber(pt.Y) + ")"
	switch r := attrOr(n, "rotate", "0"); r {
	case "auto":
	case "auto-reverse":
		angle += 180
	default:
		a, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return fmt.Errorf("invalid rotate %q", r)
		}
		angle = a
	}
	if angle != 0 {
		value += " rotate(" + formatNumber(angle) + ")"
	}
	if cur := strings.TrimSpace(attrOr(target, "transform", "")); cur != "" {
		value += " " + cur
	}
	target.CreateAttr("transform", value)
	return nil
}
