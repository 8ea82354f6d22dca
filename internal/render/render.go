// Package render turns label maps into images for visual inspection of the
// generated supervision.
package render

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type stop struct {
	col colorful.Color
	pos float64
}

// Gradient maps [0, 1] onto colors, interpolated in CIE L*a*b* between stops
// sorted by position.
type Gradient []stop

// Viridis approximates the perceptually uniform matplotlib colormap, so
// equal steps in map value read as equal steps in brightness.
var Viridis = mustGradient(
	"#440154", 0.0,
	"#3b528b", 0.25,
	"#21918c", 0.5,
	"#5ec962", 0.75,
	"#fde725", 1.0,
)

// NewGradient builds a gradient from alternating hex color and position
// arguments.
func NewGradient(spec ...any) (Gradient, error) {
	if len(spec) < 4 || len(spec)%2 != 0 {
		return nil, fmt.Errorf("gradient needs at least two (color, position) pairs")
	}
	g := make(Gradient, 0, len(spec)/2)
	for i := 0; i < len(spec); i += 2 {
		hex, ok := spec[i].(string)
		if !ok {
			return nil, fmt.Errorf("gradient stop %d: color must be a hex string", i/2)
		}
		pos, ok := spec[i+1].(float64)
		if !ok {
			return nil, fmt.Errorf("gradient stop %d: position must be a float64", i/2)
		}
		c, err := colorful.Hex(hex)
		if err != nil {
			return nil, fmt.Errorf("gradient stop %d: %w", i/2, err)
		}
		if len(g) > 0 && pos <= g[len(g)-1].pos {
			return nil, fmt.Errorf("gradient stop %d: positions must increase", i/2)
		}
		g = append(g, stop{col: c, pos: pos})
	}
	return g, nil
}

func mustGradient(spec ...any) Gradient {
	g, err := NewGradient(spec...)
	if err != nil {
		panic(err)
	}
	return g
}

// At returns the color for t, clamped to the gradient range.
func (g Gradient) At(t float64) colorful.Color {
	if math.IsNaN(t) || t <= g[0].pos {
		return g[0].col
	}
	for i := 1; i < len(g); i++ {
		lo, hi := g[i-1], g[i]
		if t <= hi.pos {
			return lo.col.BlendLab(hi.col, (t-lo.pos)/(hi.pos-lo.pos)).Clamped()
		}
	}
	return g[len(g)-1].col
}

// Heatmap colors every element of m by its position in [lo, hi], with rows
// as image rows. Values outside the range are clamped. When lo == hi every
// pixel takes the lowest color.
func Heatmap(m *mat.Dense, lo, hi float64) *image.NRGBA {
	return Viridis.Heatmap(m, lo, hi)
}

// AutoHeatmap is Heatmap over the value range of m itself.
func AutoHeatmap(m *mat.Dense) *image.NRGBA {
	data := m.RawMatrix().Data
	if len(data) == 0 {
		return image.NewNRGBA(image.Rect(0, 0, 0, 0))
	}
	return Heatmap(m, floats.Min(data), floats.Max(data))
}

// Heatmap renders m with g. See the package-level Heatmap.
func (g Gradient) Heatmap(m *mat.Dense, lo, hi float64) *image.NRGBA {
	rows, cols := m.Dims()
	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	span := hi - lo
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t := 0.0
			if span > 0 {
				t = (m.At(y, x) - lo) / span
			}
			r, gg, b := g.At(t).RGB255()
			off := img.PixOffset(x, y)
			img.Pix[off+0] = r
			img.Pix[off+1] = gg
			img.Pix[off+2] = b
			img.Pix[off+3] = 0xff
		}
	}
	return img
}

// Overlay blends heat over base at the given opacity in [0, 1]. Both images
// must have the same size.
func Overlay(base, heat image.Image, opacity float64) (*image.RGBA, error) {
	if base.Bounds().Size() != heat.Bounds().Size() {
		return nil, fmt.Errorf("overlay size mismatch: base %v, heat %v", base.Bounds().Size(), heat.Bounds().Size())
	}
	if opacity < 0 || opacity > 1 {
		return nil, fmt.Errorf("opacity must be in [0, 1], got %v", opacity)
	}
	return blend.Opacity(base, heat, opacity), nil
}

// Save writes img as a PNG, creating parent directories as needed.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
