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

// ShrinkConfig controls shrink map generation.
type ShrinkConfig struct {
	// MinTextSize is the smallest bounding-box side, in pixels, of a region
	// that still produces positive pixels.
	MinTextSize float64 `yaml:"min_text_size"`

	// ShrinkRatio is the first shrink ratio tried and the escalation step.
	ShrinkRatio float64 `yaml:"shrink_ratio"`
}

// DefaultShrinkConfig returns min_text_size 8 and shrink_ratio 0.4.
func DefaultShrinkConfig() ShrinkConfig {
	return ShrinkConfig{
		MinTextSize: 8,
		ShrinkRatio: 0.4,
	}
}

// ShrinkResult holds the outputs of ShrinkMapBuilder.Build.
type ShrinkResult struct {
	// Map is 1 inside every shrunk region and 0 elsewhere.
	Map *mat.Dense

	// Mask is 1 except over ignored or invalid regions.
	Mask *mat.Dense

	// Polygons are the input polygons clipped to the image and put in
	// canonical winding.
	Polygons []geometry.Polygon

	// Ignore is the input ignore flags plus every region this build
	// marked ignorable.
	Ignore []bool
}

// ShrinkMapBuilder produces shrink maps. The zero value is not usable; use
// NewShrinkMapBuilder.
type ShrinkMapBuilder struct {
	cfg       ShrinkConfig
	offsetter offset.Offsetter
	log       logrus.FieldLogger
}

// NewShrinkMapBuilder creates a builder. A nil offsetter selects the
// Clipper implementation and a nil logger the logrus standard logger.
func NewShrinkMapBuilder(cfg ShrinkConfig, o offset.Offsetter, log logrus.FieldLogger) *ShrinkMapBuilder {
	if o == nil {
		o = offset.NewClipper()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ShrinkMapBuilder{cfg: cfg, offsetter: o, log: log}
}

// Config returns the builder configuration.
func (b *ShrinkMapBuilder) Config() ShrinkConfig { return b.cfg }

// Build generates the shrink map and mask for an image of the given size.
//
// For each annotation, in order:
//
//  1. Ignored annotations and regions whose bounding box has a side below
//     MinTextSize are zeroed in the mask.
//  2. Regions with absolute area below 1 are zeroed in the mask.
//  3. Otherwise the region is shrunk with ratios ShrinkRatio, 2*ShrinkRatio,
//     ... below 1 until exactly one polygon results, which is filled into
//     the map. If no ratio works the region is zeroed in the mask.
func (b *ShrinkMapBuilder) Build(width, height int, anns []annotation.Annotation) (*ShrinkResult, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	polys, ignore, err := validatePolygons(anns, width, height)
	if err != nil {
		return nil, err
	}

	gt := mat.NewDense(height, width, nil)
	mask := mat.NewDense(height, width, nil)
	fill(mask, 1)

	ratios := offset.Ratios(b.cfg.ShrinkRatio)
	for i, poly := range polys {
		bounds := poly.Bounds()
		if ignore[i] || math.Min(bounds.Width(), bounds.Height()) < b.cfg.MinTextSize {
			geometry.FillPolygon(mask, poly.Truncate(), 0)
			ignore[i] = true
			continue
		}

		shrunk, ratio, ok := offset.ShrinkToSingle(b.offsetter, poly, ratios)
		if !ok {
			b.log.WithFields(logrus.Fields{
				"index":  i,
				"ratios": ratios,
			}).Debug("no shrink ratio produced a single region, marking ignorable")
			geometry.FillPolygon(mask, poly.Truncate(), 0)
			ignore[i] = true
			continue
		}
		if ratio != b.cfg.ShrinkRatio {
			b.log.WithFields(logrus.Fields{"index": i, "ratio": ratio}).Debug("shrink ratio escalated")
		}
		geometry.FillPolygon(gt, shrunk, 1)
	}

	return &ShrinkResult{Map: gt, Mask: mask, Polygons: polys, Ignore: ignore}, nil
}

// validatePolygons clips every polygon into the image, puts it in canonical
// winding, and marks regions with near-zero area as ignorable.
func validatePolygons(anns []annotation.Annotation, width, height int) ([]geometry.Polygon, []bool, error) {
	polys := make([]geometry.Polygon, len(anns))
	ignore := make([]bool, len(anns))
	for i, a := range anns {
		if err := a.Polygon.Validate(); err != nil {
			return nil, nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		clipped := geometry.ClipToBounds(a.Polygon, width, height)
		area := geometry.SignedArea(clipped)
		ignore[i] = a.Ignore || math.Abs(area) < 1
		if area > 0 {
			clipped = clipped.Reverse()
		}
		polys[i] = clipped
	}
	return polys, ignore, nil
}

// fill sets every element of m to v.
func fill(m *mat.Dense, v float64) {
	data := m.RawMatrix().Data
	for i := range data {
		data[i] = v
	}
}
