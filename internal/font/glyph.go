package font

import (
	"fmt"
	"io"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Point is an outline point in font units, y growing upwards.
type Point struct {
	X, Y int
	On   bool
}

// Contour is one closed quadratic outline.
type Contour []Point

// Glyph is one icon converted into the em square.
type Glyph struct {
	Name      string
	Codepoint rune
	Advance   int
	Contours  []Contour
}

// Bounds returns the bounding box of the glyph's points. ok is false for a
// glyph without outlines.
func (g *Glyph) Bounds() (xMin, yMin, xMax, yMax int, ok bool) {
	for _, contour := range g.Contours {
		for _, p := range contour {
			if !ok {
				xMin, yMin, xMax, yMax, ok = p.X, p.Y, p.X, p.Y, true
				continue
			}
			xMin = min(xMin, p.X)
			yMin = min(yMin, p.Y)
			xMax = max(xMax, p.X)
			yMax = max(yMax, p.Y)
		}
	}

	return xMin, yMin, xMax, yMax, ok
}

// NumPoints counts the points of every contour.
func (g *Glyph) NumPoints() int {
	n := 0
	for _, contour := range g.Contours {
		n += len(contour)
	}

	return n
}

// Metrics describe the vertical layout of the em square.
type Metrics struct {
	UnitsPerEm int
	Descent    int
}

// Ascent is the part of the em square above the baseline.
func (m Metrics) Ascent() int {
	return m.UnitsPerEm - m.Descent
}

// DefaultViewBoxSize is the square assumed for SVG files without a viewBox
// or size, the same 0 0 24 24 the preview page uses.
const DefaultViewBoxSize = 24

// ParseGlyph reads an SVG document and converts its paths into a glyph.
// A missing dimension is taken from the other one. The viewBox height is scaled to the em height, the y axis is flipped and
// the bottom of the viewBox lands on -Descent.
func ParseGlyph(r io.Reader, name string, codepoint rune, m Metrics) (*Glyph, error) {
	icon, err := oksvg.ReadIconStream(r, oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parsing svg: %w", err)
	}
	// oksvg already falls back to width and height per axis.
	vb := icon.ViewBox
	switch {
	case vb.W <= 0 && vb.H <= 0:
		vb.X, vb.Y, vb.W, vb.H = 0, 0, DefaultViewBoxSize, DefaultViewBoxSize
	case vb.W <= 0:
		vb.W = vb.H
	case vb.H <= 0:
		vb.H = vb.W
	}

	scale := float64(m.UnitsPerEm) / vb.H
	ascent := float64(m.Ascent())
	o := &outliner{
		tolerance: 0.5,
		transform: func(p fixed.Point26_6) vec {
			x := float64(p.X)/64 - vb.X
			y := float64(p.Y)/64 - vb.Y
			return vec{x * scale, ascent - y*scale}
		},
	}
	for _, path := range icon.SVGPaths {
		path.Path.AddTo(o)
		o.Stop(false)
	}

	return &Glyph{
		Name:      name,
		Codepoint: codepoint,
		Advance:   int(math.Round(vb.W * scale)),
		Contours:  o.contours,
	}, nil
}

type vec struct{ x, y float64 }

func (a vec) add(b vec) vec     { return vec{a.x + b.x, a.y + b.y} }
func (a vec) sub(b vec) vec     { return vec{a.x - b.x, a.y - b.y} }
func (a vec) mul(k float64) vec { return vec{a.x * k, a.y * k} }
func (a vec) length() float64   { return math.Hypot(a.x, a.y) }

func (a vec) lerp(b vec, t float64) vec {
	return vec{a.x + (b.x-a.x)*t, a.y + (b.y-a.y)*t}
}

// outliner collects path segments as quadratic contours. It implements
// rasterx.Adder so that a parsed rasterx.Path can replay itself into it.
type outliner struct {
	transform func(fixed.Point26_6) vec
	tolerance float64

	contours []Contour
	current  Contour
	last     vec
}

var _ rasterx.Adder = (*outliner)(nil)

func (o *outliner) Start(a fixed.Point26_6) {
	o.flush()
	o.last = o.transform(a)
	o.current = Contour{point(o.last, true)}
}

func (o *outliner) Line(b fixed.Point26_6) {
	o.last = o.transform(b)
	o.current = append(o.current, point(o.last, true))
}

func (o *outliner) QuadBezier(b, c fixed.Point26_6) {
	ctrl, end := o.transform(b), o.transform(c)
	o.current = append(o.current, point(ctrl, false), point(end, true))
	o.last = end
}

func (o *outliner) CubeBezier(b, c, d fixed.Point26_6) {
	p0, c1, c2, p3 := o.last, o.transform(b), o.transform(c), o.transform(d)

	// The error of a single quadratic approximation shrinks with the cube of
	// the number of pieces.
	deviation := math.Sqrt(3) / 36 * p3.sub(c2.mul(3)).add(c1.mul(3)).sub(p0).length()
	n := int(math.Ceil(math.Cbrt(deviation / o.tolerance)))
	n = max(1, min(n, 16))

	for i := 0; i < n; i++ {
		t0, t1 := float64(i)/float64(n), float64(i+1)/float64(n)
		q0, q1, q2, q3 := cubicSegment(p0, c1, c2, p3, t0, t1)
		ctrl := q1.add(q2).mul(3).sub(q0).sub(q3).mul(0.25)
		o.current = append(o.current, point(ctrl, false), point(q3, true))
	}
	o.last = p3
}

func (o *outliner) Stop(bool) {
	o.flush()
}

func (o *outliner) flush() {
	contour := cleanContour(o.current)
	o.current = nil
	if len(contour) >= 3 {
		o.contours = append(o.contours, contour)
	}
}

// cleanContour drops repeated on-curve points and the closing point that
// duplicates the start.
func cleanContour(c Contour) Contour {
	if len(c) == 0 {
		return nil
	}
	out := make(Contour, 0, len(c))
	for _, p := range c {
		if n := len(out); n > 0 && p.On && out[n-1].On && out[n-1].X == p.X && out[n-1].Y == p.Y {
			continue
		}
		out = append(out, p)
	}
	if n := len(out); n > 1 && out[n-1].On && out[n-1] == out[0] {
		out = out[:n-1]
	}

	return out
}

// cubicSegment returns the control polygon of the part of the cubic between
// t0 and t1.
func cubicSegment(p0, c1, c2, p3 vec, t0, t1 float64) (vec, vec, vec, vec) {
	at := func(t float64) vec {
		a, b, c := p0.lerp(c1, t), c1.lerp(c2, t), c2.lerp(p3, t)
		d, e := a.lerp(b, t), b.lerp(c, t)
		return d.lerp(e, t)
	}
	deriv := func(t float64) vec {
		mt := 1 - t
		d := c1.sub(p0).mul(3 * mt * mt)
		d = d.add(c2.sub(c1).mul(6 * mt * t))
		return d.add(p3.sub(c2).mul(3 * t * t))
	}

	span := t1 - t0
	q0, q3 := at(t0), at(t1)
	q1 := q0.add(deriv(t0).mul(span / 3))
	q2 := q3.sub(deriv(t1).mul(span / 3))

	return q0, q1, q2, q3
}

func point(v vec, on bool) Point {
	return Point{X: int(math.Round(v.x)), Y: int(math.Round(v.y)), On: on}
}
