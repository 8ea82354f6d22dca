package offset

import "github.com/ironsheep/textdet-labels/internal/geometry"

// ratioEpsilon keeps accumulated float error from admitting a ratio of 1.
const ratioEpsilon = 1e-9

// TryWithEscalation calls fn with each parameter in order and returns the
// first result fn accepts, together with the parameter that produced it.
// ok is false when every parameter was rejected or params is empty.
func TryWithEscalation[P, R any](params []P, fn func(P) (R, bool)) (result R, param P, ok bool) {
	for _, p := range params {
		if r, accepted := fn(p); accepted {
			return r, p, true
		}
	}
	return result, param, false
}

// Ratios returns start, 2*start, 3*start, ... while the value stays below 1.
// A start outside (0, 1) yields nil.
func Ratios(start float64) []float64 {
	if start <= 0 || start >= 1 {
		return nil
	}
	var out []float64
	for k := 1; ; k++ {
		r := float64(k) * start
		if r >= 1-ratioEpsilon {
			break
		}
		out = append(out, r)
	}
	return out
}

// ShrinkToSingle shrinks p with each ratio in turn until the offsetter
// returns exactly one polygon of at least three points. It reports false
// when no ratio produces a single region.
func ShrinkToSingle(o Offsetter, p geometry.Polygon, ratios []float64) (geometry.Polygon, float64, bool) {
	return TryWithEscalation(ratios, func(ratio float64) (geometry.Polygon, bool) {
		distance := DistanceForRatio(p, ratio)
		shrunk := o.Offset(p, -distance)
		if len(shrunk) != 1 || len(shrunk[0]) < 3 {
			return nil, false
		}
		return shrunk[0], true
	})
}

// Expand offsets p outward by the distance for ratio and returns the first
// resulting polygon. It reports false when the result is empty or degenerate.
func Expand(o Offsetter, p geometry.Polygon, ratio float64) (geometry.Polygon, float64, bool) {
	distance := DistanceForRatio(p, ratio)
	padded := o.Offset(p, distance)
	if len(padded) == 0 || len(padded[0]) < 3 {
		return nil, distance, false
	}
	return padded[0], distance, true
}
