package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// padColor fills the canvas area not covered by a scaled crop.
var padColor = color.NRGBA{R: 0, G: 0, B: 0, A: 255}

// Crop extracts the region r from img. The returned image has its origin at
// (0, 0). r is given in img's coordinate space and must lie within its bounds.
func Crop(img image.Image, r image.Rectangle) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if !r.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if r.Dx() <= 0 || r.Dy() <= 0 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	return imaging.Crop(img, r), nil
}

// Resize scales img to exactly width x height, ignoring aspect ratio.
func Resize(img image.Image, width, height int) *image.NRGBA {
	return imaging.Resize(img, maxInt(width, 1), maxInt(height, 1), imaging.Linear)
}

// ScaleAndPad scales img by scale, then places it at the top-left corner of
// an opaque black width x height canvas. Content beyond the canvas is cut.
// It returns the canvas and the size the scaled content occupies on it.
func ScaleAndPad(img image.Image, scale float64, width, height int) (*image.NRGBA, image.Point) {
	srcW, srcH := Dimensions(img)
	w := maxInt(int(float64(srcW)*scale), 1)
	h := maxInt(int(float64(srcH)*scale), 1)

	scaled := imaging.Resize(img, w, h, imaging.Linear)
	canvas := imaging.New(width, height, padColor)
	canvas = imaging.Paste(canvas, scaled, image.Pt(0, 0))

	return canvas, image.Pt(minInt(w, width), minInt(h, height))
}

// CropFixed cuts a width x height window whose top-left corner is (x, y)
// relative to img's origin. The window must fit inside img.
func CropFixed(img image.Image, x, y, width, height int) (*image.NRGBA, error) {
	min := img.Bounds().Min
	return Crop(img, image.Rect(min.X+x, min.Y+y, min.X+x+width, min.Y+y+height))
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
