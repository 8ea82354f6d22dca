package geometry

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
	"gonum.org/v1/gonum/mat"
)

// coverageThreshold is the minimum alpha (out of 255) at which a pixel
// counts as inside. A quarter cell keeps the corner pixels of axis-aligned
// polygons with integer vertices.
const coverageThreshold = 0x3f

// FillPolygon sets every pixel of dst covered by p to value. Rows index Y
// and columns index X. Pixels outside dst are ignored.
func FillPolygon(dst *mat.Dense, p Polygon, value float64) {
	rows, cols := dst.Dims()
	if len(p) < 3 || rows == 0 || cols == 0 {
		return
	}

	b := p.Bounds()
	x0 := maxInt(0, int(math.Floor(b.X1)))
	y0 := maxInt(0, int(math.Floor(b.Y1)))
	x1 := minInt(cols, int(math.Floor(b.X2))+2)
	y1 := minInt(rows, int(math.Floor(b.Y2))+2)
	if x0 >= x1 || y0 >= y1 {
		return
	}

	// Pixel (x, y) spans [x-0.5, x+0.5] x [y-0.5, y+0.5] in polygon space.
	window := Bounds{
		X1: float64(x0) - 0.5,
		Y1: float64(y0) - 0.5,
		X2: float64(x1) - 0.5,
		Y2: float64(y1) - 0.5,
	}
	clipped := ClipToRect(p, window)
	if len(clipped) < 3 {
		return
	}

	w, h := x1-x0, y1-y0
	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	for i, pt := range clipped {
		fx := float32(pt.X - window.X1)
		fy := float32(pt.Y - window.Y1)
		if i == 0 {
			r.MoveTo(fx, fy)
		} else {
			r.LineTo(fx, fy)
		}
	}
	r.ClosePath()

	coverage := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(coverage, coverage.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < h; y++ {
		row := coverage.Pix[y*coverage.Stride : y*coverage.Stride+w]
		for x, a := range row {
			if a >= coverageThreshold {
				dst.Set(y0+y, x0+x, value)
			}
		}
	}
}

// Mask returns a rows x cols matrix holding 1 inside p and 0 elsewhere.
func Mask(p Polygon, rows, cols int) *mat.Dense {
	m := mat.NewDense(rows, cols, nil)
	FillPolygon(m, p, 1)
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
