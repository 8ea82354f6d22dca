package geometry

import "math"

// degenerateSegment is the squared length below which a segment is treated
// as a single point.
const degenerateSegment = 1e-12

// PointSegmentDistance returns the distance from p to the segment a-b.
//
// The angle subtended by the segment at p decides the case. When the angle
// is obtuse the perpendicular distance to the line through a and b is used;
// otherwise the distance to the nearer endpoint. Coincident endpoints fall
// back to the endpoint distance so the result is never NaN.
func PointSegmentDistance(p, a, b Point) float64 {
	d1 := squaredDistance(p, a)
	d2 := squaredDistance(p, b)
	d := squaredDistance(a, b)

	if d < degenerateSegment {
		return math.Sqrt(math.Min(d1, d2))
	}
	if d1 == 0 || d2 == 0 {
		return 0
	}

	cosin := (d - d1 - d2) / (2 * math.Sqrt(d1*d2))
	if cosin < 0 {
		return math.Sqrt(math.Min(d1, d2))
	}

	sin2 := 1 - cosin*cosin
	if sin2 < 0 || math.IsNaN(sin2) {
		sin2 = 0
	}
	return math.Sqrt(d1 * d2 * sin2 / d)
}

func squaredDistance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}
