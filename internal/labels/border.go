package labels

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/geometry"
	"github.com/ironsheep/textdet-labels/internal/offset"
)

// BorderConfig controls threshold map generation.
type BorderConfig struct {
	// ShrinkRatio sets the padding distance area*(1-ratio²)/perimeter.
	ShrinkRatio float64 `yaml:"shrink_ratio"`

	// ThreshMin and ThreshMax bound the output values.
	ThreshMin float64 `yaml:"thresh_min"`
	ThreshMax float64 `yaml:"thresh_max"`
}

// DefaultBorderConfig returns shrink_ratio 0.4, thresh_min 0.3, thresh_max 0.7.
func DefaultBorderConfig() BorderConfig {
	return BorderConfig{
		ShrinkRatio: 0.4,
		ThreshMin:   0.3,
		ThreshMax:   0.7,
	}
}

// BorderResult holds the outputs of BorderMapBuilder.Build.
type BorderResult struct {
	// Map holds values in [ThreshMin, ThreshMax].
	Map *mat.Dense

	// Mask is 1 inside every padded region and 0 elsewhere.
	Mask *mat.Dense
}

// BorderMapBuilder produces threshold maps. Use NewBorderMapBuilder.
type BorderMapBuilder struct {
	cfg       BorderConfig
	offsetter offset.Offsetter
	log       logrus.FieldLogger
}

// NewBorderMapBuilder creates a builder. A nil offsetter selects the
// Clipper implementation and a nil logger the logrus standard logger.
func NewBorderMapBuilder(cfg BorderConfig, o offset.Offsetter, log logrus.FieldLogger) *BorderMapBuilder {
	if o == nil {
		o = offset.NewClipper()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BorderMapBuilder{cfg: cfg, offsetter: o, log: log}
}

// Config returns the builder configuration.
func (b *BorderMapBuilder) Config() BorderConfig { return b.cfg }

// Build generates the threshold map and mask for an image of the given
// size. Ignored annotations are skipped. Overlapping regions combine with
// max, so the region closest to its own border wins.
func (b *BorderMapBuilder) Build(width, height int, anns []annotation.Annotation) (*BorderResult, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	canvas := mat.NewDense(height, width, nil)
	mask := mat.NewDense(height, width, nil)

	for i, a := range anns {
		if a.Ignore {
			continue
		}
		if err := a.Polygon.Validate(); err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		b.drawBorder(i, a.Polygon, canvas, mask)
	}

	span := b.cfg.ThreshMax - b.cfg.ThreshMin
	data := canvas.RawMatrix().Data
	for i, v := range data {
		data[i] = v*span + b.cfg.ThreshMin
	}

	return &BorderResult{Map: canvas, Mask: mask}, nil
}

func (b *BorderMapBuilder) drawBorder(index int, poly geometry.Polygon, canvas, mask *mat.Dense) {
	if geometry.Area(poly) <= 0 {
		return
	}

	padded, distance, ok := offset.Expand(b.offsetter, poly, b.cfg.ShrinkRatio)
	if !ok || distance <= 0 {
		b.log.WithFields(logrus.Fields{"index": index, "distance": distance}).Debug("padding produced no region, skipping border")
		return
	}
	geometry.FillPolygon(mask, padded, 1)

	pb := padded.Bounds()
	xmin, ymin := int(math.Floor(pb.X1)), int(math.Floor(pb.Y1))
	xmax, ymax := int(math.Ceil(pb.X2)), int(math.Ceil(pb.Y2))

	field := distanceField(poly.Translate(-float64(xmin), -float64(ymin)), xmax-xmin+1, ymax-ymin+1, distance)
	compositeMax(canvas, field, xmin, ymin)
}

// distanceField returns a rows x cols field whose value at (y, x) is the
// distance from (x, y) to the nearest edge of p, divided by distance and
// clipped to [0, 1].
func distanceField(p geometry.Polygon, cols, rows int, distance float64) *mat.Dense {
	field := mat.NewDense(rows, cols, nil)
	n := len(p)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pt := geometry.Point{X: float64(x), Y: float64(y)}
			nearest := 1.0
			for i := 0; i < n; i++ {
				d := geometry.PointSegmentDistance(pt, p[i], p[(i+1)%n]) / distance
				if d < nearest {
					nearest = d
				}
			}
			if nearest < 0 || math.IsNaN(nearest) {
				nearest = 0
			}
			field.Set(y, x, nearest)
		}
	}
	return field
}

// compositeMax writes max(1 - field, canvas) into canvas, with field's
// origin placed at canvas pixel (xmin, ymin). Only the part of field that
// overlaps canvas is used.
func compositeMax(canvas, field *mat.Dense, xmin, ymin int) {
	canvasRows, canvasCols := canvas.Dims()
	fieldRows, fieldCols := field.Dims()

	x0 := maxInt(xmin, 0)
	y0 := maxInt(ymin, 0)
	x1 := minInt(xmin+fieldCols-1, canvasCols-1)
	y1 := minInt(ymin+fieldRows-1, canvasRows-1)

	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			v := 1 - field.At(cy-ymin, cx-xmin)
			if v > canvas.At(cy, cx) {
				canvas.Set(cy, cx, v)
			}
		}
	}
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
