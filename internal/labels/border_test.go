package labels

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/geometry"
)

func TestBorderMap_Range(t *testing.T) {
	cfg := DefaultBorderConfig()
	b := NewBorderMapBuilder(cfg, nil, quietLogger())
	anns := []annotation.Annotation{
		{Polygon: square(10, 10, 50, 50), Text: "a"},
		{Polygon: square(40, 30, 90, 60), Text: "b"},
		{Polygon: square(-10, 70, 30, 110), Text: "c"},
	}

	res, err := b.Build(100, 100, anns)
	require.NoError(t, err)

	data := res.Map.RawMatrix().Data
	for _, v := range data {
		require.False(t, math.IsNaN(v))
	}
	assert.GreaterOrEqual(t, floats.Min(data), cfg.ThreshMin)
	assert.LessOrEqual(t, floats.Max(data), cfg.ThreshMax+1e-12)

	mask := res.Mask.RawMatrix().Data
	for _, v := range mask {
		require.True(t, v == 0 || v == 1)
	}
}

func TestBorderMap_SquareProfile(t *testing.T) {
	cfg := DefaultBorderConfig()
	b := NewBorderMapBuilder(cfg, nil, quietLogger())

	res, err := b.Build(100, 100, []annotation.Annotation{{Polygon: square(10, 10, 50, 50), Text: "a"}})
	require.NoError(t, err)

	// On the edge the distance is 0, so the value is ThreshMax.
	assert.InDelta(t, cfg.ThreshMax, res.Map.At(30, 10), 1e-9)
	// Center is 20px from every edge, beyond the 8.4px padding distance.
	assert.InDelta(t, cfg.ThreshMin, res.Map.At(30, 30), 1e-9)
	// 5px outside the left edge: 1 - 5/8.4 rescaled.
	want := (1-5/8.4)*(cfg.ThreshMax-cfg.ThreshMin) + cfg.ThreshMin
	assert.InDelta(t, want, res.Map.At(30, 5), 1e-9)
	// Far outside the padded region.
	assert.InDelta(t, cfg.ThreshMin, res.Map.At(90, 90), 1e-9)

	assert.Equal(t, 1.0, res.Mask.At(30, 5))
	assert.Equal(t, 1.0, res.Mask.At(30, 30))
	assert.Equal(t, 0.0, res.Mask.At(90, 90))
}

func TestBorderMap_SkipsIgnored(t *testing.T) {
	cfg := DefaultBorderConfig()
	b := NewBorderMapBuilder(cfg, nil, quietLogger())

	res, err := b.Build(60, 60, []annotation.Annotation{{Polygon: square(10, 10, 50, 50), Text: "###", Ignore: true}})
	require.NoError(t, err)

	assert.Equal(t, 0.0, mat.Sum(res.Mask))
	assert.InDelta(t, cfg.ThreshMin, floats.Max(res.Map.RawMatrix().Data), 1e-12)
}

func TestBorderMap_OverlapUsesMax(t *testing.T) {
	cfg := DefaultBorderConfig()
	b := NewBorderMapBuilder(cfg, nil, quietLogger())
	a := annotation.Annotation{Polygon: square(10, 10, 50, 50), Text: "a"}

	single, err := b.Build(100, 100, []annotation.Annotation{a})
	require.NoError(t, err)
	double, err := b.Build(100, 100, []annotation.Annotation{a, a})
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(single.Map, double.Map, 1e-12))
}

// A region cut by the image border must produce exactly the values of the
// same region drawn on a larger canvas, shifted back into place.
func TestBorderMap_PartiallyOutsideMatchesShiftedCanvas(t *testing.T) {
	b := NewBorderMapBuilder(DefaultBorderConfig(), nil, quietLogger())
	rng := rand.New(rand.NewSource(5))
	const size, pad = 60, 40

	for i := 0; i < 25; i++ {
		x := float64(rng.Intn(size+20) - 30)
		y := float64(rng.Intn(size+20) - 30)
		w := float64(12 + rng.Intn(30))
		h := float64(12 + rng.Intn(30))
		poly := square(x, y, x+w, y+h)

		small, err := b.Build(size, size, []annotation.Annotation{{Polygon: poly, Text: "t"}})
		require.NoError(t, err)
		large, err := b.Build(size+2*pad, size+2*pad, []annotation.Annotation{{Polygon: poly.Translate(pad, pad), Text: "t"}})
		require.NoError(t, err)

		for yy := 0; yy < size; yy++ {
			for xx := 0; xx < size; xx++ {
				got := small.Map.At(yy, xx)
				want := large.Map.At(yy+pad, xx+pad)
				if math.Abs(got-want) > 1e-9 {
					t.Fatalf("poly %v: pixel (%d,%d) = %v, want %v", poly, xx, yy, got, want)
				}
			}
		}
	}
}

func TestBorderMap_FullyOutside(t *testing.T) {
	cfg := DefaultBorderConfig()
	b := NewBorderMapBuilder(cfg, nil, quietLogger())

	res, err := b.Build(50, 50, []annotation.Annotation{{Polygon: square(200, 200, 240, 240), Text: "t"}})
	require.NoError(t, err)
	assert.InDelta(t, cfg.ThreshMin, floats.Max(res.Map.RawMatrix().Data), 1e-12)
	assert.Equal(t, 0.0, mat.Sum(res.Mask))
}

func TestBorderMap_InvalidInput(t *testing.T) {
	b := NewBorderMapBuilder(DefaultBorderConfig(), nil, quietLogger())

	_, err := b.Build(10, -1, nil)
	assert.Error(t, err)

	_, err = b.Build(10, 10, []annotation.Annotation{{Polygon: geometry.Polygon{{X: 1, Y: 1}, {X: 2, Y: 2}}}})
	assert.ErrorIs(t, err, geometry.ErrTooFewPoints)
}

func TestCompositeMax(t *testing.T) {
	canvas := mat.NewDense(2, 2, []float64{0.5, 0, 0, 0})
	field := mat.NewDense(3, 3, []float64{
		0, 0, 0,
		0, 0.9, 0.2,
		0, 0.7, 0.1,
	})

	// Field origin sits one pixel up and left of the canvas.
	compositeMax(canvas, field, -1, -1)

	assert.InDelta(t, 0.5, canvas.At(0, 0), 1e-12) // max(0.1, 0.5)
	assert.InDelta(t, 0.8, canvas.At(0, 1), 1e-12)
	assert.InDelta(t, 0.3, canvas.At(1, 0), 1e-12)
	assert.InDelta(t, 0.9, canvas.At(1, 1), 1e-12)
}

func TestDistanceField(t *testing.T) {
	p := square(0, 0, 4, 4)
	field := distanceField(p, 5, 5, 2)

	assert.Equal(t, 0.0, field.At(0, 2))
	assert.InDelta(t, 0.5, field.At(1, 2), 1e-9)
	assert.Equal(t, 1.0, field.At(2, 2))
}
