package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrTooFewPoints is returned when a polygon has fewer than three vertices.
var ErrTooFewPoints = errors.New("polygon needs at least 3 points")

// Point represents a 2D point in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is an ordered, implicitly closed sequence of points.
type Polygon []Point

// Bounds is an axis-aligned bounding box. Both corners are inclusive.
type Bounds struct {
	X1 float64 `json:"x1"` // Left edge
	Y1 float64 `json:"y1"` // Top edge
	X2 float64 `json:"x2"` // Right edge
	Y2 float64 `json:"y2"` // Bottom edge
}

// Width returns X2 - X1.
func (b Bounds) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2 - Y1.
func (b Bounds) Height() float64 { return b.Y2 - b.Y1 }

// Validate reports ErrTooFewPoints for polygons with fewer than three vertices.
func (p Polygon) Validate() error {
	if len(p) < 3 {
		return fmt.Errorf("%w: got %d", ErrTooFewPoints, len(p))
	}
	return nil
}

// Clone returns a copy that does not share storage with p.
func (p Polygon) Clone() Polygon {
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Reverse returns the polygon with its point order reversed.
func (p Polygon) Reverse() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[len(p)-1-i] = pt
	}
	return out
}

// Translate returns the polygon shifted by (dx, dy).
func (p Polygon) Translate(dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: pt.X + dx, Y: pt.Y + dy}
	}
	return out
}

// Scale returns the polygon with X multiplied by sx and Y by sy.
func (p Polygon) Scale(sx, sy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: pt.X * sx, Y: pt.Y * sy}
	}
	return out
}

// Truncate drops the fractional part of every coordinate, matching an
// integer cast of the vertices.
func (p Polygon) Truncate() Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: math.Trunc(pt.X), Y: math.Trunc(pt.Y)}
	}
	return out
}

// Bounds returns the bounding box of the polygon. An empty polygon yields
// the zero Bounds.
func (p Polygon) Bounds() Bounds {
	if len(p) == 0 {
		return Bounds{}
	}
	b := Bounds{X1: p[0].X, Y1: p[0].Y, X2: p[0].X, Y2: p[0].Y}
	for _, pt := range p[1:] {
		b.X1 = math.Min(b.X1, pt.X)
		b.Y1 = math.Min(b.Y1, pt.Y)
		b.X2 = math.Max(b.X2, pt.X)
		b.Y2 = math.Max(b.Y2, pt.Y)
	}
	return b
}

// SignedArea computes the shoelace area as the sum of p_i x p_{i-1} / 2.
// A positive result means the polygon must be reversed to reach the
// canonical winding.
func SignedArea(p Polygon) float64 {
	if len(p) == 0 {
		return 0
	}
	var area float64
	q := p[len(p)-1]
	for _, pt := range p {
		area += pt.X*q.Y - pt.Y*q.X
		q = pt
	}
	return area / 2
}

// Area returns the absolute enclosed area.
func Area(p Polygon) float64 {
	return math.Abs(SignedArea(p))
}

// Perimeter returns the length of the closed boundary.
func Perimeter(p Polygon) float64 {
	if len(p) < 2 {
		return 0
	}
	var length float64
	for i := range p {
		j := (i + 1) % len(p)
		length += math.Hypot(p[j].X-p[i].X, p[j].Y-p[i].Y)
	}
	return length
}

// Canonical returns p in canonical winding: reversed when SignedArea is positive.
func Canonical(p Polygon) Polygon {
	if SignedArea(p) > 0 {
		return p.Reverse()
	}
	return p.Clone()
}

// ClipToBounds clamps every coordinate into [0, width-1] x [0, height-1].
func ClipToBounds(p Polygon, width, height int) Polygon {
	maxX := float64(width - 1)
	maxY := float64(height - 1)
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{X: clampFloat(pt.X, 0, maxX), Y: clampFloat(pt.Y, 0, maxY)}
	}
	return out
}

// IsOutsideRect reports whether the bounding box of p misses the rectangle
// [x, x+w] x [y, y+h] entirely.
func IsOutsideRect(p Polygon, x, y, w, h float64) bool {
	b := p.Bounds()
	if b.X2 < x || b.X1 > x+w {
		return true
	}
	if b.Y2 < y || b.Y1 > y+h {
		return true
	}
	return false
}

// IsInsideRect reports whether every vertex of p lies within [x, x+w] x [y, y+h].
func IsInsideRect(p Polygon, x, y, w, h float64) bool {
	b := p.Bounds()
	return b.X1 >= x && b.X2 <= x+w && b.Y1 >= y && b.Y2 <= y+h
}

// ClipToRect clips p against an axis-aligned box with Sutherland-Hodgman.
// Concave input may produce zero-width bridges along the box edges, which
// do not change the filled area.
func ClipToRect(p Polygon, b Bounds) Polygon {
	out := p
	out = clipHalfPlane(out, func(pt Point) bool { return pt.X >= b.X1 }, func(a, c Point) Point { return lerpX(a, c, b.X1) })
	out = clipHalfPlane(out, func(pt Point) bool { return pt.X <= b.X2 }, func(a, c Point) Point { return lerpX(a, c, b.X2) })
	out = clipHalfPlane(out, func(pt Point) bool { return pt.Y >= b.Y1 }, func(a, c Point) Point { return lerpY(a, c, b.Y1) })
	out = clipHalfPlane(out, func(pt Point) bool { return pt.Y <= b.Y2 }, func(a, c Point) Point { return lerpY(a, c, b.Y2) })
	return out
}

func clipHalfPlane(p Polygon, inside func(Point) bool, cross func(a, b Point) Point) Polygon {
	if len(p) == 0 {
		return nil
	}
	var clipped Polygon
	for i := range p {
		current := p[i]
		next := p[(i+1)%len(p)]
		currentInside := inside(current)
		nextInside := inside(next)

		if currentInside {
			clipped = append(clipped, current)
			if !nextInside {
				clipped = append(clipped, cross(current, next))
			}
		} else if nextInside {
			clipped = append(clipped, cross(current, next))
		}
	}
	return clipped
}

// lerpX returns the point on segment a-b whose X equals x.
func lerpX(a, b Point, x float64) Point {
	t := (x - a.X) / (b.X - a.X)
	return Point{X: x, Y: a.Y + t*(b.Y-a.Y)}
}

// lerpY returns the point on segment a-b whose Y equals y.
func lerpY(a, b Point, y float64) Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return Point{X: a.X + t*(b.X-a.X), Y: y}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
