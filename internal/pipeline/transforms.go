package pipeline

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/config"
	"github.com/ironsheep/textdet-labels/internal/crop"
	"github.com/ironsheep/textdet-labels/internal/imaging"
	"github.com/ironsheep/textdet-labels/internal/labels"
)

// Transform names accepted in pipeline configuration.
const (
	NameDecodeLabels = "decode_labels"
	NameEastCrop     = "east_crop"
	NamePSECrop      = "pse_crop"
	NameShrinkMap    = "shrink_map"
	NameBorderMap    = "border_map"
)

// Transform is one pipeline step. Apply must not modify s; it returns a new
// Sample with its outputs set. rng is owned by the calling worker.
type Transform interface {
	Name() string
	Apply(s *Sample, rng *rand.Rand) (*Sample, error)
}

// Names lists every registered transform name.
func Names() []string {
	return []string{NameDecodeLabels, NameEastCrop, NamePSECrop, NameShrinkMap, NameBorderMap}
}

// newTransform builds the transform a step names, with the step params
// overlaid on the transform defaults.
func newTransform(step config.Step, log logrus.FieldLogger) (Transform, error) {
	switch step.Name {
	case NameDecodeLabels:
		return decodeLabels{}, nil

	case NameEastCrop:
		cfg := crop.DefaultEastConfig()
		if err := step.DecodeParams(&cfg); err != nil {
			return nil, err
		}
		s, err := crop.NewEastSampler(cfg, log)
		if err != nil {
			return nil, err
		}
		return eastCrop{sampler: s}, nil

	case NamePSECrop:
		cfg := crop.DefaultPSEConfig()
		if err := step.DecodeParams(&cfg); err != nil {
			return nil, err
		}
		s, err := crop.NewPSESampler(cfg, log)
		if err != nil {
			return nil, err
		}
		return pseCrop{sampler: s}, nil

	case NameShrinkMap:
		cfg := labels.DefaultShrinkConfig()
		if err := step.DecodeParams(&cfg); err != nil {
			return nil, err
		}
		return shrinkMap{builder: labels.NewShrinkMapBuilder(cfg, nil, log)}, nil

	case NameBorderMap:
		cfg := labels.DefaultBorderConfig()
		if err := step.DecodeParams(&cfg); err != nil {
			return nil, err
		}
		return borderMap{builder: labels.NewBorderMapBuilder(cfg, nil, log)}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransform, step.Name)
	}
}

// === Label decoding ===

type decodeLabels struct{}

func (decodeLabels) Name() string { return NameDecodeLabels }

// Apply parses the raw label. A label that is malformed or has no
// annotations makes the sample unusable.
func (decodeLabels) Apply(s *Sample, _ *rand.Rand) (*Sample, error) {
	anns, err := annotation.Decode(s.Label)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoUsableSample, err)
	}
	out := s.clone()
	out.Annotations = anns
	return out, nil
}

// === Cropping ===

type eastCrop struct {
	sampler *crop.EastSampler
}

func (eastCrop) Name() string { return NameEastCrop }

// Apply crops and rescales the image. Maps built before this step would no
// longer line up with the image, so their presence is an error.
func (t eastCrop) Apply(s *Sample, rng *rand.Rand) (*Sample, error) {
	if s.Image == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingKey, KeyImage)
	}
	if len(s.Maps) > 0 {
		return nil, errors.New("east_crop must run before map builders")
	}
	res, err := t.sampler.Apply(s.Image, s.Annotations, rng)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	out.Image = res.Image
	out.Annotations = res.Annotations
	return out, nil
}

type pseCrop struct {
	sampler *crop.PSESampler
}

func (pseCrop) Name() string { return NamePSECrop }

// Apply cuts the image, every map, and the annotations to one window.
func (t pseCrop) Apply(s *Sample, rng *rand.Rand) (*Sample, error) {
	res, err := t.sampler.Apply(s.Image, s.Maps, s.Annotations, rng)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	if res.Image != nil {
		out.Image = res.Image
	}
	out.Maps = res.Maps
	if s.Annotations != nil {
		out.Annotations = res.Annotations
	}
	return out, nil
}

// === Map builders ===

type shrinkMap struct {
	builder *labels.ShrinkMapBuilder
}

func (shrinkMap) Name() string { return NameShrinkMap }

// Apply adds shrink_map and shrink_mask. The annotations are replaced with
// their clipped, canonically wound polygons, and regions found degenerate
// are marked ignored so later steps skip them.
func (t shrinkMap) Apply(s *Sample, _ *rand.Rand) (*Sample, error) {
	width, height, err := sampleSize(s)
	if err != nil {
		return nil, err
	}
	res, err := t.builder.Build(width, height, s.Annotations)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	for i := range out.Annotations {
		out.Annotations[i].Polygon = res.Polygons[i]
		out.Annotations[i].Ignore = res.Ignore[i]
	}
	out.Maps[KeyShrinkMap] = res.Map
	out.Maps[KeyShrinkMask] = res.Mask
	return out, nil
}

type borderMap struct {
	builder *labels.BorderMapBuilder
}

func (borderMap) Name() string { return NameBorderMap }

// Apply adds threshold_map and threshold_mask.
func (t borderMap) Apply(s *Sample, _ *rand.Rand) (*Sample, error) {
	width, height, err := sampleSize(s)
	if err != nil {
		return nil, err
	}
	res, err := t.builder.Build(width, height, s.Annotations)
	if err != nil {
		return nil, err
	}
	out := s.clone()
	out.Maps[KeyThresholdMap] = res.Map
	out.Maps[KeyThresholdMask] = res.Mask
	return out, nil
}

// sampleSize returns the image dimensions map builders draw on.
func sampleSize(s *Sample) (width, height int, err error) {
	if s.Image == nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrMissingKey, KeyImage)
	}
	width, height = imaging.Dimensions(s.Image)
	return width, height, nil
}
