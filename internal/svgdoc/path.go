package svgdoc

import (
	"fmt"
	"math"
	"strconv"
)

// Point in user space
type Point struct{ X, Y float64 }

// curves are flattened into this many line segments
const curveSegments = 16

// Polyline is a flattened path used for motion along a path
type Polyline struct {
	points  []Point
	lengths []float64 // cumulative length at each point
}

type pathScanner struct {
	s   string
	pos int
}

func (ps *pathScanner) skipSeparators() {
	for ps.pos < len(ps.s) {
		switch ps.s[ps.pos] {
		case ' ', '\t', '\n', '\r', ',':
			ps.pos++
		default:
			return
		}
	}
}

func (ps *pathScanner) command() (byte, bool) {
	ps.skipSeparators()
	if ps.pos >= len(ps.s) {
		return 0, false
	}
	c := ps.s[ps.pos]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		ps.pos++
		return c, true
	}
	return 0, false
}

func (ps *pathScanner) hasNumber() bool {
	ps.skipSeparators()
	if ps.pos >= len(ps.s) {
		return false
	}
	c := ps.s[ps.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (ps *pathScanner) number() (float64, error) {
	ps.skipSeparators()
	loc := numberRe.FindStringIndex(ps.s[ps.pos:])
	if loc == nil || loc[0] != 0 {
		return 0, fmt.Errorf("expected number at %d", ps.pos)
	}
	n, err := strconv.ParseFloat(ps.s[ps.pos:ps.pos+loc[1]], 64)
	if err != nil {
		return 0, err
	}
	ps.pos += loc[1]
	return n, nil
}

// arc flags can be written without separators, "a1 1 0 00 10 10"
func (ps *pathScanner) flag() (bool, error) {
	ps.skipSeparators()
	if ps.pos >= len(ps.s) {
		return false, fmt.Errorf("expected flag at %d", ps.pos)
	}
	c := ps.s[ps.pos]
	if c != '0' && c != '1' {
		return false, fmt.Errorf("expected flag at %d", ps.pos)
	}
	ps.pos++
	return c == '1', nil
}

func (ps *pathScanner) numbers(n int) ([]float64, error) {
	ns := make([]float64, n)
	for i := range ns {
		v, err := ps.number()
		if err != nil {
			return nil, err
		}
		ns[i] = v
	}
	return ns, nil
}

// ParsePath flattens SVG path data into a polyline
func ParsePath(d string) (*Polyline, error) {
	ps := &pathScanner{s: d}
	pl := &Polyline{}

	var cur, start, lastCtrl Point
	var lastCmd byte
	lineTo := func(p Point) {
		pl.add(p)
		cur = p
	}

	cmd, ok := ps.command()
	if !ok {
		if ps.pos < len(ps.s) {
			return nil, fmt.Errorf("expected command at %d", ps.pos)
		}
		return pl, nil
	}
	for {
		rel := cmd >= 'a'
		off := func(p Point) Point {
			if rel {
				return Point{cur.X + p.X, cur.Y + p.Y}
			}
			return p
		}

		switch cmd | 0x20 {
		case 'm':
			ns, err := ps.numbers(2)
			if err != nil {
				return nil, err
			}
			cur = off(Point{ns[0], ns[1]})
			start = cur
			pl.move(cur)
			// following pairs are implicit lineto
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
			for ps.hasNumber() {
				ns, err := ps.numbers(2)
				if err != nil {
					return nil, err
				}
				lineTo(off(Point{ns[0], ns[1]}))
			}
			lastCmd = 'm'
		case 'z':
			lineTo(start)
			lastCmd = 'z'
		default:
			for first := true; first || ps.hasNumber(); first = false {
				if err := ps.segment(cmd, &cur, &lastCtrl, lastCmd, off, pl); err != nil {
					return nil, err
				}
				lastCmd = cmd | 0x20
			}
		}

		if cmd|0x20 != 'c' && cmd|0x20 != 's' && cmd|0x20 != 'q' && cmd|0x20 != 't' {
			lastCtrl = cur
		}

		var ok bool
		if cmd, ok = ps.command(); !ok {
			if ps.pos < len(ps.s) {
				return nil, fmt.Errorf("unexpected %q at %d", ps.s[ps.pos], ps.pos)
			}
			break
		}
	}

	return pl, nil
}

func (ps *pathScanner) segment(cmd byte, cur, lastCtrl *Point, lastCmd byte, off func(Point) Point, pl *Polyline) error {
	lineTo := func(p Point) {
		pl.add(p)
		*cur = p
	}
	reflect := func(prevCmds string) Point {
		for i := range prevCmds {
			if lastCmd == prevCmds[i] {
				return Point{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
			}
		}
		return *cur
	}

	switch cmd | 0x20 {
	case 'l':
		ns, err := ps.numbers(2)
		if err != nil {
			return err
		}
		lineTo(off(Point{ns[0], ns[1]}))
	case 'h':
		n, err := ps.number()
		if err != nil {
			return err
		}
		x := n
		if cmd == 'h' {
			x += cur.X
		}
		lineTo(Point{x, cur.Y})
	case 'v':
		n, err := ps.number()
		if err != nil {
			return err
		}
		y := n
		if cmd == 'v' {
			y += cur.Y
		}
		lineTo(Point{cur.X, y})
	case 'c', 's':
		var c1 Point
		var rest []float64
		if cmd|0x20 == 'c' {
			ns, err := ps.numbers(6)
			if err != nil {
				return err
			}
			c1 = off(Point{ns[0], ns[1]})
			rest = ns[2:]
		} else {
			ns, err := ps.numbers(4)
			if err != nil {
				return err
			}
			c1 = reflect("cs")
			rest = ns
		}
		c2 := off(Point{rest[0], rest[1]})
		end := off(Point{rest[2], rest[3]})
		p0 := *cur
		for i := 1; i <= curveSegments; i++ {
			t := float64(i) / curveSegments
			mt := 1 - t
			pl.add(Point{
				mt*mt*mt*p0.X + 3*mt*mt*t*c1.X + 3*mt*t*t*c2.X + t*t*t*end.X,
				mt*mt*mt*p0.Y + 3*mt*mt*t*c1.Y + 3*mt*t*t*c2.Y + t*t*t*end.Y,
			})
		}
		*lastCtrl = c2
		*cur = end
	case 'q', 't':
		var c Point
		var rest []float64
		if cmd|0x20 == 'q' {
			ns, err := ps.numbers(4)
			if err != nil {
				return err
			}
			c = off(Point{ns[0], ns[1]})
			rest = ns[2:]
		} else {
			ns, err := ps.numbers(2)
			if err != nil {
				return err
			}
			c = reflect("qt")
			rest = ns
		}
		end := off(Point{rest[0], rest[1]})
		p0 := *cur
		for i := 1; i <= curveSegments; i++ {
			t := float64(i) / curveSegments
			mt := 1 - t
			pl.add(Point{
				mt*mt*p0.X + 2*mt*t*c.X + t*t*end.X,
				mt*mt*p0.Y + 2*mt*t*c.Y + t*t*end.Y,
			})
		}
		*lastCtrl = c
		*cur = end
	case 'a':
		ns, err := ps.numbers(3)
		if err != nil {
			return err
		}
		large, err := ps.flag()
		if err != nil {
			return err
		}
		sweep, err := ps.flag()
		if err != nil {
			return err
		}
		xy, err := ps.numbers(2)
		if err != nil {
			return err
		}
		end := off(Point{xy[0], xy[1]})
		for _, p := range flattenArc(*cur, end, ns[0], ns[1], ns[2], large, sweep) {
			pl.add(p)
		}
		*cur = end
	default:
		return fmt.Errorf("unsupported path command %q", cmd)
	}
	return nil
}

// flattenArc converts endpoint arc parameterization to center form and samples it
func flattenArc(p0, p1 Point, rx, ry, angle float64, large, sweep bool) []Point {
	if p0 == p1 {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Point{p1}
	}
	phi := angle * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx, dy := (p0.X-p1.X)/2, (p0.Y-p1.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		s := math.Sqrt(l)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx
	cx := cosPhi*cx1 - sinPhi*cy1 + (p0.X+p1.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (p0.Y+p1.Y)/2

	vecAngle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	theta1 := vecAngle(1, 0, (x1-cx1)/rx, (y1-cy1)/ry)
	dTheta := vecAngle((x1-cx1)/rx, (y1-cy1)/ry, (-x1-cx1)/rx, (-y1-cy1)/ry)
	if !sweep && dTheta > 0 {
		dTheta -= 2 * math.Pi
	} else if sweep && dTheta < 0 {
		dTheta += 2 * math.Pi
	}

	var ps []Point
	for i := 1; i <= curveSegments; i++ {
		th := theta1 + dTheta*float64(i)/curveSegments
		x, y := rx*math.Cos(th), ry*math.Sin(th)
		ps = append(ps, Point{cosPhi*x - sinPhi*y + cx, sinPhi*x + cosPhi*y + cy})
	}
	ps[len(ps)-1] = p1
	return ps
}

func (pl *Polyline) move(p Point) {
	if len(pl.points) == 0 {
		pl.points = append(pl.points, p)
		pl.lengths = append(pl.lengths, 0)
		return
	}
	// a subpath jump does not add length
	pl.points = append(pl.points, p)
	pl.lengths = append(pl.lengths, pl.lengths[len(pl.lengths)-1])
}

func (pl *Polyline) add(p Point) {
	if len(pl.points) == 0 {
		pl.move(Point{})
	}
	last := pl.points[len(pl.points)-1]
	pl.points = append(pl.points, p)
	pl.lengths = append(pl.lengths, pl.lengths[len(pl.lengths)-1]+math.Hypot(p.X-last.X, p.Y-last.Y))
}

// PolylineFromPoints builds a polyline through points, used for values/from/to motion
func PolylineFromPoints(ps []Point) *Polyline {
	pl := &Polyline{}
	for i, p := range ps {
		if i == 0 {
			pl.move(p)
		} else {
			pl.add(p)
		}
	}
	return pl
}

// Length is total length
func (pl *Polyline) Length() float64 {
	if len(pl.lengths) == 0 {
		return 0
	}
	return pl.lengths[len(pl.lengths)-1]
}

// At returns the point and tangent angle in degrees at fraction f of the length
func (pl *Polyline) At(f float64) (Point, float64) {
	switch len(pl.points) {
	case 0:
		return Point{}, 0
	case 1:
		return pl.points[0], 0
	}
	f = clamp(f, 0, 1)
	target := f * pl.Length()

	for i := 1; i < len(pl.points); i++ {
		l0, l1 := pl.lengths[i-1], pl.lengths[i]
		if l1 == l0 {
			continue
		}
		if target <= l1 || i == len(pl.points)-1 {
			a, b := pl.points[i-1], pl.points[i]
			t := clamp((target-l0)/(l1-l0), 0, 1)
			angle := math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
			return Point{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}, angle
		}
	}
	return pl.points[len(pl.points)-1], 0
}
