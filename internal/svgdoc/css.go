package svgdoc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type declaration struct {
	Property  string
	Value     string
	Important bool
}

// splitTopLevel splits on sep outside of parentheses and quotes
func splitTopLevel(s string, sep func(r rune) bool) []string {
	var parts []string
	depth := 0
	var quote rune
	start := 0
	for i, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && sep(r):
			parts = append(parts, s[start:i])
			start = i + len(string(r))
		}
	}
	return append(parts, s[start:])
}

func isRune(c rune) func(r rune) bool { return func(r rune) bool { return r == c } }

func isSpace(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' }

// splitFields splits on whitespace outside of parentheses
func splitFields(s string) []string {
	var fs []string
	for _, f := range splitTopLevel(s, isSpace) {
		if f != "" {
			fs = append(fs, f)
		}
	}
	return fs
}

// tokensString joins tokens as the parser normalized them, whitespace
// collapsed to a single space
func tokensString(ts []css.Token) string {
	var sb strings.Builder
	for _, t := range ts {
		sb.Write(t.Data)
	}
	return sb.String()
}

func trimWhitespace(ts []css.Token) []css.Token {
	for len(ts) > 0 && ts[0].TokenType == css.WhitespaceToken {
		ts = ts[1:]
	}
	for len(ts) > 0 && ts[len(ts)-1].TokenType == css.WhitespaceToken {
		ts = ts[:len(ts)-1]
	}
	return ts
}

// newDeclaration builds a declaration from a lowercased property and its
// value tokens, a trailing !important is split off
func newDeclaration(prop []byte, values []css.Token) (declaration, bool) {
	vs := trimWhitespace(values)
	d := declaration{Property: string(prop)}
	if n := len(vs); n > 0 && vs[n-1].TokenType == css.IdentToken && strings.EqualFold(string(vs[n-1].Data), "important") {
		rest := trimWhitespace(vs[:n-1])
		if m := len(rest); m > 0 && rest[m-1].TokenType == css.DelimToken && string(rest[m-1].Data) == "!" {
			vs = trimWhitespace(rest[:m-1])
			d.Important = true
		}
	}
	d.Value = tokensString(vs)
	return d, d.Property != "" && d.Value != ""
}

// parseDeclarations parses a style attribute, invalid declarations are skipped
func parseDeclarations(s string) []declaration {
	var ds []declaration
	p := css.NewParser(parse.NewInputString(s), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if !p.HasParseError() {
				return ds
			}
		case css.DeclarationGrammar:
			if d, ok := newDeclaration(data, p.Values()); ok {
				ds = append(ds, d)
			}
		}
	}
}

func formatDeclarations(ds []declaration) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.Property + ":" + d.Value
		if d.Important {
			parts[i] += " !important"
		}
	}
	return strings.Join(parts, ";")
}

func styleProperty(n *etree.Element, prop string) (string, bool) {
	var v string
	var found bool
	for _, d := range parseDeclarations(attrOr(n, "style", "")) {
		if d.Property == prop {
			v, found = d.Value, true
		}
	}
	return v, found
}

func setStyleProperty(n *etree.Element, prop, value string) {
	ds := parseDeclarations(attrOr(n, "style", ""))
	out := ds[:0]
	set := false
	for _, d := range ds {
		if d.Property != prop {
			out = append(out, d)
			continue
		}
		if !set {
			d.Value = value
			out = append(out, d)
			set = true
		}
	}
	if !set {
		out = append(out, declaration{Property: prop, Value: value})
	}
	n.CreateAttr("style", formatDeclarations(out))
}

func removeStyleProperty(n *etree.Element, prop string) {
	style, ok := attr(n, "style")
	if !ok {
		return
	}
	ds := parseDeclarations(style)
	out := ds[:0]
	for _, d := range ds {
		if d.Property != prop {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		n.RemoveAttr("style")
		return
	}
	n.CreateAttr("style", formatDeclarations(out))
}

type attrSelector struct {
	name     string
	value    string
	hasValue bool
}

type compound struct {
	tag     string // empty or * matches any
	id      string
	classes []string
	attrs   []attrSelector
	root    bool
}

type selector struct {
	parts       []compound
	combinators []rune // between parts, ' ' descendant or '>' child
	specificity [3]int
}

func isIdentRune(r rune) bool {
	return r == '-' || r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127
}

// parseSelector parses the supported subset, type, *, #id, .class, [attr],
// [attr=value], :root and descendant/child combinators
func parseSelector(s string) (selector, bool) {
	var sel selector
	rs := []rune(strings.TrimSpace(s))
	if len(rs) == 0 {
		return sel, false
	}

	ident := func(i int) (string, int) {
		start := i
		for i < len(rs) && isIdentRune(rs[i]) {
			i++
		}
		return string(rs[start:i]), i
	}

	cur := compound{}
	empty := true
	pendingComb := rune(0)
	flush := func() bool {
		if empty {
			return false
		}
		if len(sel.parts) > 0 {
			if pendingComb == 0 {
				pendingComb = ' '
			}
			sel.combinators = append(sel.combinators, pendingComb)
		}
		sel.parts = append(sel.parts, cur)
		cur, empty, pendingComb = compound{}, true, 0
		return true
	}

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case isSpace(r):
			if !empty && !flush() {
				return sel, false
			}
			i++
		case r == '>':
			if !empty {
				flush()
			}
			if len(sel.parts) == 0 || pendingComb == '>' {
				return sel, false
			}
			pendingComb = '>'
			i++
		case r == '*':
			cur.tag = "*"
			empty = false
			i++
		case r == '#':
			var id string
			id, i = ident(i + 1)
			if id == "" {
				return sel, false
			}
			cur.id = id
			sel.specificity[0]++
			empty = false
		case r == '.':
			var class string
			class, i = ident(i + 1)
			if class == "" {
				return sel, false
			}
			cur.classes = append(cur.classes, class)
			sel.specificity[1]++
			empty = false
		case r == '[':
			end := i + 1
			for end < len(rs) && rs[end] != ']' {
				end++
			}
			if end >= len(rs) {
				return sel, false
			}
			inner := string(rs[i+1 : end])
			name, value, hasValue := strings.Cut(inner, "=")
			name = strings.TrimSpace(name)
			if strings.ContainsAny(name, "~|^$*") || name == "" {
				return sel, false
			}
			cur.attrs = append(cur.attrs, attrSelector{
				name:     name,
				value:    strings.Trim(strings.TrimSpace(value), `"'`),
				hasValue: hasValue,
			})
			sel.specificity[1]++
			empty = false
			i = end + 1
		case r == ':':
			var pseudo string
			pseudo, i = ident(i + 1)
			if pseudo != "root" {
				return sel, false
			}
			cur.root = true
			sel.specificity[1]++
			empty = false
		case isIdentRune(r):
			var tag string
			tag, i = ident(i)
			cur.tag = tag
			sel.specificity[2]++
			empty = false
		default:
			// +, ~, pseudo elements etc
			return sel, false
		}
	}
	if empty || !flush() {
		return sel, false
	}
	return sel, true
}

func (c compound) matches(n *etree.Element) bool {
	if c.tag != "" && c.tag != "*" && c.tag != n.Tag {
		return false
	}
	if c.root && parentElement(n) != nil {
		return false
	}
	if c.id != "" && elementID(n) != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attrOr(n, "class", ""))
		for _, want := range c.classes {
			found := false
			for _, h := range have {
				if h == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := attr(n, a.name)
		if !ok || (a.hasValue && v != a.value) {
			return false
		}
	}
	return true
}

func (sel selector) matchAt(i int, n *etree.Element) bool {
	if !sel.parts[i].matches(n) {
		return false
	}
	if i == 0 {
		return true
	}
	if sel.combinators[i-1] == '>' {
		p := parentElement(n)
		return p != nil && sel.matchAt(i-1, p)
	}
	for p := parentElement(n); p != nil; p = parentElement(p) {
		if sel.matchAt(i-1, p) {
			return true
		}
	}
	return false
}

func (sel selector) matches(n *etree.Element) bool { return sel.matchAt(len(sel.parts)-1, n) }

func lessSpecificity(a, b [3]int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

type cssRule struct {
	selectors []selector
	decls     []declaration
}

type keyframe struct {
	offset float64
	decls  []declaration
}

type keyframes struct {
	name   string
	frames []keyframe // sorted by offset
}

type stylesheet struct {
	rules     []cssRule
	keyframes map[string]*keyframes
}

// atBlock is an open at-rule, kf is set inside @keyframes and skip inside
// at-rules whose rules never apply
type atBlock struct {
	kf   *keyframes
	skip bool
}

// keyframeOffsets parses a keyframe selector like "from" or "0%,50%"
func keyframeOffsets(sel string) []float64 {
	var offsets []float64
	for _, s := range strings.Split(sel, ",") {
		s = strings.ToLower(strings.TrimSpace(s))
		switch s {
		case "from":
			offsets = append(offsets, 0)
		case "to":
			offsets = append(offsets, 1)
		default:
			p, ok := strings.CutSuffix(s, "%")
			if !ok {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil || f < 0 || f > 100 {
				continue
			}
			offsets = append(offsets, f/100)
		}
	}
	return offsets
}

func isKeyframesRule(atKeyword string) bool {
	name := strings.TrimPrefix(atKeyword, "@")
	return name == "keyframes" || strings.HasPrefix(name, "-") && strings.HasSuffix(name, "-keyframes")
}

// grouping at-rules whose nested rules are applied unconditionally
var groupingRules = map[string]bool{
	"@media":         true,
	"@supports":      true,
	"@layer":         true,
	"@document":      true,
	"@-moz-document": true,
}

func parseStylesheet(src string) *stylesheet {
	sh := &stylesheet{keyframes: map[string]*keyframes{}}
	p := css.NewParser(parse.NewInputString(src), false)

	var stack []atBlock
	top := func() atBlock {
		if len(stack) == 0 {
			return atBlock{}
		}
		return stack[len(stack)-1]
	}
	var rule *cssRule
	var frame *keyframe
	var offsets []float64
	var frameOf *keyframes

	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			if p.HasParseError() {
				continue
			}
			for _, kf := range sh.keyframes {
				sort.SliceStable(kf.frames, func(i, j int) bool { return kf.frames[i].offset < kf.frames[j].offset })
			}
			return sh
		case css.BeginAtRuleGrammar:
			b := atBlock{skip: true}
			outer := top()
			switch at := string(data); {
			case outer.skip || outer.kf != nil:
			case isKeyframesRule(at):
				name := strings.Trim(tokensString(trimWhitespace(p.Values())), `"'`)
				if name != "" {
					b = atBlock{kf: &keyframes{name: name}}
					sh.keyframes[name] = b.kf
				}
			case groupingRules[at]:
				b = atBlock{}
			}
			stack = append(stack, b)
		case css.EndAtRuleGrammar:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case css.BeginRulesetGrammar:
			rule, frame = nil, nil
			sel := tokensString(p.Values())
			switch b := top(); {
			case b.skip:
			case b.kf != nil:
				frame, frameOf, offsets = &keyframe{}, b.kf, keyframeOffsets(sel)
			default:
				r := &cssRule{}
				for _, s := range splitTopLevel(sel, isRune(',')) {
					if ps, ok := parseSelector(s); ok {
						r.selectors = append(r.selectors, ps)
					}
				}
				if len(r.selectors) > 0 {
					rule = r
				}
			}
		case css.DeclarationGrammar:
			d, ok := newDeclaration(data, p.Values())
			switch {
			case !ok:
			case rule != nil:
				rule.decls = append(rule.decls, d)
			case frame != nil:
				frame.decls = append(frame.decls, d)
			}
		case css.EndRulesetGrammar:
			if rule != nil {
				sh.rules = append(sh.rules, *rule)
			}
			if frame != nil {
				for _, o := range offsets {
					frameOf.frames = append(frameOf.frames, keyframe{offset: o, decls: frame.decls})
				}
			}
			rule, frame = nil, nil
		}
	}
}

// cascade returns the declared properties of n, animation shorthands are
// expanded into longhands so later longhands override them
func (sh *stylesheet) cascade(n *etree.Element) map[string]string {
	type matched struct {
		specificity [3]int
		order       int
		decls       []declaration
	}
	var ms []matched
	for i, r := range sh.rules {
		best, ok := [3]int{}, false
		for _, sel := range r.selectors {
			if sel.matches(n) && (!ok || lessSpecificity(best, sel.specificity)) {
				best, ok = sel.specificity, true
			}
		}
		if ok {
			ms = append(ms, matched{specificity: best, order: i, decls: r.decls})
		}
	}
	sort.SliceStable(ms, func(i, j int) bool { return lessSpecificity(ms[i].specificity, ms[j].specificity) })

	inline := parseDeclarations(attrOr(n, "style", ""))
	props := map[string]string{}
	apply := func(ds []declaration, important bool) {
		for _, d := range ds {
			if d.Important != important {
				continue
			}
			for _, e := range expandShorthand(d) {
				props[e.Property] = e.Value
			}
		}
	}
	for _, important := range []bool{false, true} {
		for _, m := range ms {
			apply(m.decls, important)
		}
		apply(inline, important)
	}
	return props
}
