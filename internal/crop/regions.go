package crop

import (
	"math"
	"math/rand"

	"github.com/ironsheep/textdet-labels/internal/geometry"
)

// occupancy returns per-axis flags marking every column and row spanned by
// the rounded bounding box of a polygon. The span [min, max) follows slice
// semantics and is clamped to the axis.
func occupancy(width, height int, polys []geometry.Polygon) (cols, rows []bool) {
	cols = make([]bool, width)
	rows = make([]bool, height)
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		b := p.Bounds()
		markSpan(cols, int(math.RoundToEven(b.X1)), int(math.RoundToEven(b.X2)))
		markSpan(rows, int(math.RoundToEven(b.Y1)), int(math.RoundToEven(b.Y2)))
	}
	return cols, rows
}

func markSpan(axis []bool, lo, hi int) {
	lo = clampInt(lo, 0, len(axis))
	hi = clampInt(hi, 0, len(axis))
	for i := lo; i < hi; i++ {
		axis[i] = true
	}
}

// freeCoords lists the unoccupied coordinates of an axis in increasing order.
func freeCoords(occupied []bool) []int {
	free := make([]int, 0, len(occupied))
	for i, o := range occupied {
		if !o {
			free = append(free, i)
		}
	}
	return free
}

// splitRegions groups increasing coordinates into maximal runs of
// consecutive values. The final run is included.
func splitRegions(coords []int) [][]int {
	if len(coords) == 0 {
		return nil
	}
	var regions [][]int
	start := 0
	for i := 1; i < len(coords); i++ {
		if coords[i] != coords[i-1]+1 {
			regions = append(regions, coords[start:i])
			start = i
		}
	}
	return append(regions, coords[start:])
}

// randomSelect draws two distinct coordinates from coords and returns them
// ordered. ok is false when coords has fewer than two values.
func randomSelect(coords []int, rng *rand.Rand) (lo, hi int, ok bool) {
	n := len(coords)
	if n < 2 {
		return 0, 0, false
	}
	i := rng.Intn(n)
	j := rng.Intn(n - 1)
	if j >= i {
		j++
	}
	a, b := coords[i], coords[j]
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

// regionWiseSelect picks two regions, possibly the same one, and draws one
// coordinate from each. ok is false when the two values coincide.
func regionWiseSelect(regions [][]int, rng *rand.Rand) (lo, hi int, ok bool) {
	first := regions[rng.Intn(len(regions))]
	second := regions[rng.Intn(len(regions))]
	a := first[rng.Intn(len(first))]
	b := second[rng.Intn(len(second))]
	if a > b {
		a, b = b, a
	}
	return a, b, a != b
}

// selectSpan chooses a [lo, hi] pair on one axis from its free regions.
func selectSpan(free []int, regions [][]int, rng *rand.Rand) (lo, hi int, ok bool) {
	if len(regions) > 1 {
		return regionWiseSelect(regions, rng)
	}
	return randomSelect(free, rng)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
