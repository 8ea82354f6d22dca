package crop

import (
	"image"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/geometry"
)

func newPSE(t *testing.T, width, height int, uniform float64) *PSESampler {
	t.Helper()
	cfg := DefaultPSEConfig()
	cfg.Size = [2]int{width, height}
	cfg.UniformProb = uniform
	s, err := NewPSESampler(cfg, quietLogger())
	require.NoError(t, err)
	return s
}

// coordMap returns a map whose value at (y, x) is y*1000 + x.
func coordMap(rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			m.Set(y, x, float64(y*1000+x))
		}
	}
	return m
}

func blockMap(rows, cols int, r image.Rectangle) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			m.Set(y, x, 1)
		}
	}
	return m
}

func TestNewPSESampler_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  PSEConfig
	}{
		{"zero size", PSEConfig{Size: [2]int{0, 4}}},
		{"negative probability", PSEConfig{Size: [2]int{4, 4}, UniformProb: -0.1}},
		{"probability above one", PSEConfig{Size: [2]int{4, 4}, UniformProb: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPSESampler(tt.cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestSelectOrigin_SameSize(t *testing.T) {
	s := newPSE(t, 32, 16, 0)
	x, y, err := s.SelectOrigin(32, 16, nil, nil, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)
}

func TestSelectOrigin_TooSmall(t *testing.T) {
	s := newPSE(t, 32, 32, 0)
	_, _, err := s.SelectOrigin(31, 64, nil, nil, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestSelectOrigin_UniformWithoutForeground(t *testing.T) {
	s := newPSE(t, 20, 10, 0)
	rng := rand.New(rand.NewSource(4))
	empty := mat.NewDense(50, 80, nil)
	seen := map[[2]int]bool{}

	for i := 0; i < 500; i++ {
		x, y, err := s.SelectOrigin(80, 50, empty, empty, rng)
		require.NoError(t, err)
		require.True(t, x >= 0 && x <= 60 && y >= 0 && y <= 40, "origin (%d,%d) out of range", x, y)
		seen[[2]int{x, y}] = true
	}
	assert.Greater(t, len(seen), 100, "uniform origins should spread out")
}

func TestSelectOrigin_BiasedContainsForeground(t *testing.T) {
	s := newPSE(t, 16, 16, 0)
	rng := rand.New(rand.NewSource(8))
	shrink := blockMap(100, 120, image.Rect(90, 70, 94, 73))

	for i := 0; i < 300; i++ {
		x, y, err := s.SelectOrigin(120, 100, shrink, shrink, rng)
		require.NoError(t, err)
		assert.Greater(t, mat.Sum(shrink.Slice(y, y+16, x, x+16)), 0.0, "origin (%d,%d)", x, y)
	}
}

func TestSelectOrigin_ForegroundAtEdge(t *testing.T) {
	s := newPSE(t, 10, 10, 0)
	rng := rand.New(rand.NewSource(9))
	shrink := blockMap(40, 40, image.Rect(0, 39, 1, 40))

	for i := 0; i < 100; i++ {
		x, y, err := s.SelectOrigin(40, 40, shrink, shrink, rng)
		require.NoError(t, err)
		assert.Equal(t, 0, x)
		assert.Equal(t, 30, y)
	}
}

func TestPSEApply_CropsStackIdentically(t *testing.T) {
	s := newPSE(t, 12, 8, 0.5)
	rng := rand.New(rand.NewSource(3))

	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off], img.Pix[off+1], img.Pix[off+3] = uint8(x), uint8(y), 255
		}
	}
	maps := map[string]*mat.Dense{
		"shrink_map":    blockMap(30, 40, image.Rect(20, 10, 30, 20)),
		"threshold_map": coordMap(30, 40),
	}

	for i := 0; i < 50; i++ {
		res, err := s.Apply(img, maps, nil, rng)
		require.NoError(t, err)

		require.Equal(t, image.Rect(0, 0, 12, 8), res.Image.Bounds())
		for key, m := range res.Maps {
			rows, cols := m.Dims()
			require.Equal(t, 8, rows, key)
			require.Equal(t, 12, cols, key)
		}

		for y := 0; y < 8; y++ {
			for x := 0; x < 12; x++ {
				want := float64((y+res.Y)*1000 + x + res.X)
				require.Equal(t, want, res.Maps["threshold_map"].At(y, x))
				c := res.Image.NRGBAAt(x, y)
				require.Equal(t, uint8(x+res.X), c.R)
				require.Equal(t, uint8(y+res.Y), c.G)
			}
		}
	}

	// Inputs are not modified.
	assert.Equal(t, 100.0, mat.Sum(maps["shrink_map"]))
}

func TestPSEApply_Annotations(t *testing.T) {
	s := newPSE(t, 20, 20, 0)
	shrink := blockMap(60, 60, image.Rect(40, 40, 45, 45))
	anns := []annotation.Annotation{
		{Polygon: square(40, 40, 45, 45), Text: "in"},
		{Polygon: square(0, 0, 5, 5), Text: "out"},
	}

	res, err := s.Apply(nil, map[string]*mat.Dense{"shrink_map": shrink}, anns, rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	assert.Nil(t, res.Image)

	require.Len(t, res.Annotations, 1)
	assert.Equal(t, "in", res.Annotations[0].Text)
	b := res.Annotations[0].Polygon.Bounds()
	assert.Equal(t, geometry.Bounds{X1: 40 - float64(res.X), Y1: 40 - float64(res.Y), X2: 45 - float64(res.X), Y2: 45 - float64(res.Y)}, b)
}

func TestPSEApply_Errors(t *testing.T) {
	s := newPSE(t, 4, 4, 0)
	rng := rand.New(rand.NewSource(1))

	_, err := s.Apply(nil, nil, nil, rng)
	assert.Error(t, err)

	_, err = s.Apply(image.NewNRGBA(image.Rect(0, 0, 10, 10)), map[string]*mat.Dense{"m": mat.NewDense(9, 10, nil)}, nil, rng)
	assert.Error(t, err)

	_, err = s.Apply(image.NewNRGBA(image.Rect(0, 0, 3, 10)), nil, nil, rng)
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestForegroundBounds(t *testing.T) {
	_, ok := foregroundBounds(nil)
	assert.False(t, ok)

	_, ok = foregroundBounds(mat.NewDense(3, 3, nil))
	assert.False(t, ok)

	m := mat.NewDense(5, 6, nil)
	m.Set(1, 4, 1)
	m.Set(3, 2, 0.5)
	r, ok := foregroundBounds(m)
	require.True(t, ok)
	assert.Equal(t, image.Rect(2, 1, 4, 3), r)
}
