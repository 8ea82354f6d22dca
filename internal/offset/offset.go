// Package offset grows and shrinks polygons by a perpendicular distance.
//
// The Offsetter interface hides the algorithm; Clipper implements it with
// the Clipper library's round-join offset for closed polygons. Offsetting a
// polygon may produce zero, one, or several disjoint polygons, so callers
// that need a single region escalate through a ratio sequence with
// TryWithEscalation.
package offset

import (
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/ironsheep/textdet-labels/internal/geometry"
)

// Offsetter expands (delta > 0) or shrinks (delta < 0) a closed polygon.
type Offsetter interface {
	Offset(p geometry.Polygon, delta float64) []geometry.Polygon
}

// Clipper offsets polygons with round joins on integer coordinates.
// Vertex coordinates are truncated to integers before offsetting.
type Clipper struct {
	// ArcTolerance is the maximum distance a round join may deviate from
	// the true arc. Zero keeps the library default of 0.25.
	ArcTolerance float64
}

// NewClipper returns a Clipper with the library defaults.
func NewClipper() *Clipper {
	return &Clipper{}
}

// Offset implements Offsetter.
func (c *Clipper) Offset(p geometry.Polygon, delta float64) []geometry.Polygon {
	if len(p) == 0 {
		return nil
	}

	co := clipper.NewClipperOffset()
	if c.ArcTolerance > 0 {
		co.ArcTolerance = c.ArcTolerance
	}

	path := make(clipper.Path, 0, len(p))
	for _, pt := range p {
		path = append(path, &clipper.IntPoint{X: clipper.CInt(pt.X), Y: clipper.CInt(pt.Y)})
	}
	co.AddPath(path, clipper.JtRound, clipper.EtClosedPolygon)

	solution := co.Execute(delta)
	out := make([]geometry.Polygon, 0, len(solution))
	for _, sp := range solution {
		poly := make(geometry.Polygon, len(sp))
		for i, ip := range sp {
			poly[i] = geometry.Point{X: float64(ip.X), Y: float64(ip.Y)}
		}
		out = append(out, poly)
	}
	return out
}

// DistanceForRatio returns area*(1-ratio²)/perimeter, the offset distance
// that scales a polygon's area by roughly ratio². Degenerate polygons
// yield 0.
func DistanceForRatio(p geometry.Polygon, ratio float64) float64 {
	perimeter := geometry.Perimeter(p)
	if perimeter == 0 {
		return 0
	}
	d := geometry.Area(p) * (1 - ratio*ratio) / perimeter
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return d
}
