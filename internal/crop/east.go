package crop

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/geometry"
	"github.com/ironsheep/textdet-labels/internal/imaging"
)

// EastConfig controls the area-based crop sampler.
type EastConfig struct {
	// Size is the output [width, height].
	Size [2]int `yaml:"size"`

	// MaxTries bounds the number of candidate rectangles drawn.
	MaxTries int `yaml:"max_tries"`

	// MinCropSideRatio is the smallest accepted crop side as a fraction of
	// the corresponding image dimension.
	MinCropSideRatio float64 `yaml:"min_crop_side_ratio"`

	// KeepRatio scales the crop uniformly and pads the rest of the output
	// with black. When false the crop is stretched to Size.
	KeepRatio bool `yaml:"keep_ratio"`
}

// DefaultEastConfig returns a 640x640 output, 50 tries, a 0.1 minimum side
// ratio and aspect-preserving scaling.
func DefaultEastConfig() EastConfig {
	return EastConfig{
		Size:             [2]int{640, 640},
		MaxTries:         50,
		MinCropSideRatio: 0.1,
		KeepRatio:        true,
	}
}

// Rect is an integer crop rectangle with its top-left corner at (X, Y).
type Rect struct {
	X, Y, W, H int
}

// Image returns r as an image.Rectangle.
func (r Rect) Image() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// EastResult is the output of EastSampler.Apply.
type EastResult struct {
	// Image is the Size[0] x Size[1] output tile.
	Image *image.NRGBA

	// Annotations are the input annotations mapped into the tile frame.
	// Annotations that fall entirely outside the scaled crop are dropped.
	Annotations []annotation.Annotation

	// Rect is the crop chosen in source image coordinates.
	Rect Rect

	// ScaleX and ScaleY map source pixels to tile pixels. They are equal
	// when KeepRatio is set.
	ScaleX, ScaleY float64
}

// EastSampler picks crop rectangles that avoid cutting through text and
// contain at least one cared-for region. Use NewEastSampler.
type EastSampler struct {
	cfg EastConfig
	log logrus.FieldLogger
}

// NewEastSampler creates a sampler. A nil logger selects the logrus standard
// logger.
func NewEastSampler(cfg EastConfig, log logrus.FieldLogger) (*EastSampler, error) {
	if cfg.Size[0] <= 0 || cfg.Size[1] <= 0 {
		return nil, fmt.Errorf("invalid crop size %dx%d", cfg.Size[0], cfg.Size[1])
	}
	if cfg.MaxTries < 0 {
		return nil, fmt.Errorf("max_tries must be >= 0, got %d", cfg.MaxTries)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EastSampler{cfg: cfg, log: log}, nil
}

// Config returns the sampler configuration.
func (s *EastSampler) Config() EastConfig { return s.cfg }

// SelectArea picks a crop rectangle for an image of the given size. polys
// are the regions the crop must not cut and must touch; ignored regions
// should be left out by the caller.
//
// Candidate edges are drawn from rows and columns not spanned by any region.
// A candidate is rejected when a side is shorter than MinCropSideRatio of
// the image, or when every region lies outside it. After MaxTries rejected
// candidates, or when there is nothing to sample, the full image is returned.
func (s *EastSampler) SelectArea(width, height int, polys []geometry.Polygon, rng *rand.Rand) Rect {
	full := Rect{W: width, H: height}
	if len(polys) == 0 {
		return full
	}

	colsOcc, rowsOcc := occupancy(width, height, polys)
	freeX, freeY := freeCoords(colsOcc), freeCoords(rowsOcc)
	if len(freeX) == 0 || len(freeY) == 0 {
		return full
	}
	regionsX, regionsY := splitRegions(freeX), splitRegions(freeY)

	minW := s.cfg.MinCropSideRatio * float64(width)
	minH := s.cfg.MinCropSideRatio * float64(height)

	for try := 0; try < s.cfg.MaxTries; try++ {
		xmin, xmax, okX := selectSpan(freeX, regionsX, rng)
		ymin, ymax, okY := selectSpan(freeY, regionsY, rng)
		if !okX || !okY {
			continue
		}
		if float64(xmax-xmin) < minW || float64(ymax-ymin) < minH {
			continue
		}

		w, h := xmax-xmin, ymax-ymin
		for _, p := range polys {
			if !geometry.IsOutsideRect(p, float64(xmin), float64(ymin), float64(w), float64(h)) {
				return Rect{X: xmin, Y: ymin, W: w, H: h}
			}
		}
	}

	s.log.WithFields(logrus.Fields{
		"tries":  s.cfg.MaxTries,
		"width":  width,
		"height": height,
	}).Debug("crop search exhausted, using full image")
	return full
}

// Apply crops img around its cared-for annotations, scales the crop to the
// configured size and remaps every annotation into the output frame.
func (s *EastSampler) Apply(img image.Image, anns []annotation.Annotation, rng *rand.Rand) (*EastResult, error) {
	width, height := imaging.Dimensions(img)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", width, height)
	}

	rect := s.SelectArea(width, height, annotation.Polygons(annotation.Cared(anns)), rng)

	origin := img.Bounds().Min
	cropped, err := imaging.Crop(img, rect.Image().Add(origin))
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}

	outW, outH := s.cfg.Size[0], s.cfg.Size[1]
	res := &EastResult{Rect: rect}

	// visW and visH bound the region of the tile covered by image content.
	var visW, visH float64
	if s.cfg.KeepRatio {
		scale := math.Min(float64(outW)/float64(rect.W), float64(outH)/float64(rect.H))
		tile, used := imaging.ScaleAndPad(cropped, scale, outW, outH)
		res.Image = tile
		res.ScaleX, res.ScaleY = scale, scale
		visW, visH = float64(used.X), float64(used.Y)
	} else {
		res.Image = imaging.Resize(cropped, outW, outH)
		res.ScaleX = float64(outW) / float64(rect.W)
		res.ScaleY = float64(outH) / float64(rect.H)
		visW, visH = float64(outW), float64(outH)
	}

	res.Annotations = remap(anns, rect, res.ScaleX, res.ScaleY, visW, visH)
	return res, nil
}

// remap shifts every annotation by the crop origin, scales it, and drops
// those lying entirely outside [0, visW] x [0, visH].
func remap(anns []annotation.Annotation, rect Rect, sx, sy, visW, visH float64) []annotation.Annotation {
	out := make([]annotation.Annotation, 0, len(anns))
	for _, a := range anns {
		p := a.Polygon.Translate(-float64(rect.X), -float64(rect.Y)).Scale(sx, sy)
		if geometry.IsOutsideRect(p, 0, 0, visW, visH) {
			continue
		}
		out = append(out, annotation.Annotation{Polygon: p, Text: a.Text, Ignore: a.Ignore})
	}
	return out
}
