package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func countOnes(m *mat.Dense) int {
	n := 0
	for _, v := range m.RawMatrix().Data {
		if v == 1 {
			n++
		}
	}
	return n
}

func TestFillPolygon_Square(t *testing.T) {
	m := Mask(square(10, 10, 50, 50), 100, 100)

	// Vertices sit on pixel centers, so both edges are inclusive.
	assert.Equal(t, 41*41, countOnes(m))
	assert.Equal(t, 1.0, m.At(10, 10))
	assert.Equal(t, 1.0, m.At(50, 50))
	assert.Equal(t, 1.0, m.At(30, 30))
	assert.Equal(t, 0.0, m.At(9, 30))
	assert.Equal(t, 0.0, m.At(30, 51))
}

func TestFillPolygon_RowsAreY(t *testing.T) {
	// Wide, short rectangle.
	m := Mask(square(5, 20, 60, 25), 40, 80)

	assert.Equal(t, 1.0, m.At(22, 55))
	assert.Equal(t, 0.0, m.At(10, 22))
}

func TestFillPolygon_PartiallyOutside(t *testing.T) {
	m := Mask(square(-20, -20, 9, 9), 50, 50)

	assert.Equal(t, 10*10, countOnes(m))
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 0.0, m.At(10, 10))
}

func TestFillPolygon_FullyOutside(t *testing.T) {
	m := Mask(square(200, 200, 300, 300), 50, 50)
	assert.Equal(t, 0, countOnes(m))

	m = Mask(square(-30, -30, -10, -10), 50, 50)
	assert.Equal(t, 0, countOnes(m))
}

func TestFillPolygon_KeepsExistingValues(t *testing.T) {
	m := mat.NewDense(20, 20, nil)
	m.Set(0, 0, 7)
	FillPolygon(m, square(10, 10, 15, 15), 2)

	assert.Equal(t, 7.0, m.At(0, 0))
	assert.Equal(t, 2.0, m.At(12, 12))
}

func TestFillPolygon_Degenerate(t *testing.T) {
	m := mat.NewDense(10, 10, nil)
	FillPolygon(m, Polygon{{1, 1}, {5, 5}}, 1)
	assert.Equal(t, 0, countOnes(m))
}

func TestFillPolygon_Triangle(t *testing.T) {
	tri := Polygon{{0, 0}, {40, 0}, {0, 40}}
	m := Mask(tri, 50, 50)

	assert.Equal(t, 1.0, m.At(5, 5))
	assert.Equal(t, 0.0, m.At(35, 35))
	// Roughly half of the 41x41 cell block.
	assert.InDelta(t, 41*41/2, countOnes(m), 80)
}
