package crop

import (
	"errors"
	"fmt"
	"image"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/geometry"
	"github.com/ironsheep/textdet-labels/internal/imaging"
)

// ErrImageTooSmall is returned when the input is smaller than the crop size.
var ErrImageTooSmall = errors.New("image smaller than crop size")

// PSEConfig controls the label-probability crop sampler.
type PSEConfig struct {
	// Size is the output [width, height].
	Size [2]int `yaml:"size"`

	// UniformProb is the probability of choosing the crop origin uniformly
	// even when foreground exists.
	UniformProb float64 `yaml:"uniform_prob"`

	// MaxTries bounds the foreground-biased origin search.
	MaxTries int `yaml:"max_tries"`

	// ReferenceKey names the map whose positive pixels define the
	// foreground bounding box.
	ReferenceKey string `yaml:"reference_key"`

	// ShrinkKey names the map that must contain a positive pixel inside a
	// foreground-biased crop.
	ShrinkKey string `yaml:"shrink_key"`
}

// DefaultPSEConfig returns a 640x640 output, a 5/8 uniform probability,
// 50000 biased tries, and shrink_map as both reference and shrink key.
func DefaultPSEConfig() PSEConfig {
	return PSEConfig{
		Size:         [2]int{640, 640},
		UniformProb:  5.0 / 8.0,
		MaxTries:     50000,
		ReferenceKey: "shrink_map",
		ShrinkKey:    "shrink_map",
	}
}

// PSEResult is the output of PSESampler.Apply.
type PSEResult struct {
	// Image is the cropped image, nil when no image was given.
	Image *image.NRGBA

	// Maps holds every input map cropped to the same window.
	Maps map[string]*mat.Dense

	// Annotations are shifted into the crop frame. Those entirely outside
	// the window are dropped.
	Annotations []annotation.Annotation

	// X and Y are the crop origin in source coordinates.
	X, Y int
}

// PSESampler crops an image and its aligned maps to a fixed window, biased
// toward windows that contain text. Use NewPSESampler.
type PSESampler struct {
	cfg PSEConfig
	log logrus.FieldLogger
}

// NewPSESampler creates a sampler. A nil logger selects the logrus standard
// logger.
func NewPSESampler(cfg PSEConfig, log logrus.FieldLogger) (*PSESampler, error) {
	if cfg.Size[0] <= 0 || cfg.Size[1] <= 0 {
		return nil, fmt.Errorf("invalid crop size %dx%d", cfg.Size[0], cfg.Size[1])
	}
	if cfg.UniformProb < 0 || cfg.UniformProb > 1 {
		return nil, fmt.Errorf("uniform_prob must be in [0, 1], got %v", cfg.UniformProb)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PSESampler{cfg: cfg, log: log}, nil
}

// Config returns the sampler configuration.
func (s *PSESampler) Config() PSEConfig { return s.cfg }

// SelectOrigin picks the top-left corner (x, y) of the crop window for a
// width x height input.
//
// With probability UniformProb, or when reference has no positive pixel, the
// origin is uniform over all valid positions. Otherwise it is drawn from the
// positions whose window overlaps the foreground bounding box, redrawn until
// the window holds a positive pixel of shrink or MaxTries is reached. A nil
// reference counts as no foreground; a nil shrink accepts the first draw.
func (s *PSESampler) SelectOrigin(width, height int, reference, shrink *mat.Dense, rng *rand.Rand) (x, y int, err error) {
	tw, th := s.cfg.Size[0], s.cfg.Size[1]
	if width < tw || height < th {
		return 0, 0, fmt.Errorf("%w: %dx%d < %dx%d", ErrImageTooSmall, width, height, tw, th)
	}
	if width == tw && height == th {
		return 0, 0, nil
	}

	fg, ok := foregroundBounds(reference)
	if !ok || rng.Float64() < s.cfg.UniformProb {
		return rng.Intn(width - tw + 1), rng.Intn(height - th + 1), nil
	}

	// The window [i, i+th) overlaps rows [fg.Min.Y, fg.Max.Y] when
	// i in [fg.Min.Y-th+1, fg.Max.Y], clamped to valid origins.
	x0 := clampInt(fg.Min.X-tw+1, 0, width-tw)
	x1 := clampInt(fg.Max.X, 0, width-tw)
	y0 := clampInt(fg.Min.Y-th+1, 0, height-th)
	y1 := clampInt(fg.Max.Y, 0, height-th)

	for try := 0; try < maxInt(s.cfg.MaxTries, 1); try++ {
		x = x0 + rng.Intn(x1-x0+1)
		y = y0 + rng.Intn(y1-y0+1)
		if shrink == nil || mat.Sum(shrink.Slice(y, y+th, x, x+tw)) > 0 {
			return x, y, nil
		}
	}

	s.log.WithFields(logrus.Fields{"tries": s.cfg.MaxTries, "x": x, "y": y}).Debug("no crop window contains shrink foreground, keeping last draw")
	return x, y, nil
}

// Apply crops img and every map in maps to the same window. All maps must
// share the image dimensions. img may be nil, in which case the dimensions
// come from the maps.
func (s *PSESampler) Apply(img image.Image, maps map[string]*mat.Dense, anns []annotation.Annotation, rng *rand.Rand) (*PSEResult, error) {
	width, height, err := stackDims(img, maps)
	if err != nil {
		return nil, err
	}

	x, y, err := s.SelectOrigin(width, height, maps[s.cfg.ReferenceKey], maps[s.cfg.ShrinkKey], rng)
	if err != nil {
		return nil, err
	}
	tw, th := s.cfg.Size[0], s.cfg.Size[1]

	res := &PSEResult{X: x, Y: y, Maps: make(map[string]*mat.Dense, len(maps))}
	if img != nil {
		res.Image, err = imaging.CropFixed(img, x, y, tw, th)
		if err != nil {
			return nil, fmt.Errorf("crop: %w", err)
		}
	}
	for key, m := range maps {
		res.Maps[key] = mat.DenseCopyOf(m.Slice(y, y+th, x, x+tw))
	}

	res.Annotations = make([]annotation.Annotation, 0, len(anns))
	for _, a := range anns {
		p := a.Polygon.Translate(-float64(x), -float64(y))
		if geometry.IsOutsideRect(p, 0, 0, float64(tw), float64(th)) {
			continue
		}
		res.Annotations = append(res.Annotations, annotation.Annotation{Polygon: p, Text: a.Text, Ignore: a.Ignore})
	}
	return res, nil
}

// foregroundBounds returns the inclusive pixel bounding box of the positive
// entries of m. Max holds the last row and column, not one past them.
func foregroundBounds(m *mat.Dense) (image.Rectangle, bool) {
	if m == nil {
		return image.Rectangle{}, false
	}
	rows, cols := m.Dims()
	minX, minY, maxX, maxY := cols, rows, -1, -1
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if m.At(y, x) > 0 {
				minX = minInt(minX, x)
				maxX = maxInt(maxX, x)
				minY = minInt(minY, y)
				maxY = maxInt(maxY, y)
			}
		}
	}
	if maxX < 0 {
		return image.Rectangle{}, false
	}
	return image.Rectangle{Min: image.Pt(minX, minY), Max: image.Pt(maxX, maxY)}, true
}

// stackDims returns the shared width and height of the image and maps.
func stackDims(img image.Image, maps map[string]*mat.Dense) (width, height int, err error) {
	width, height = -1, -1
	if img != nil {
		width, height = imaging.Dimensions(img)
	}
	for key, m := range maps {
		rows, cols := m.Dims()
		if width < 0 {
			width, height = cols, rows
			continue
		}
		if cols != width || rows != height {
			return 0, 0, fmt.Errorf("map %q is %dx%d, expected %dx%d", key, cols, rows, width, height)
		}
	}
	if width < 0 {
		return 0, 0, fmt.Errorf("nothing to crop: no image and no maps")
	}
	return width, height, nil
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
