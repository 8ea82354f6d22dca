package pipeline

import (
	"fmt"
	"image"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
)

// Named outputs a Sample exposes through Get and Select.
const (
	KeyImage         = "image"
	KeyLabel         = "label"
	KeyPolys         = "polys"
	KeyTexts         = "texts"
	KeyIgnoreTags    = "ignore_tags"
	KeyShrinkMap     = "shrink_map"
	KeyShrinkMask    = "shrink_mask"
	KeyThresholdMap  = "threshold_map"
	KeyThresholdMask = "threshold_mask"
)

// Sample is one training example as it moves through a Pipeline.
//
// Transforms never modify the Sample they receive. They return a copy with
// their outputs set, so a caller may keep the input for inspection.
type Sample struct {
	// Index is the dataset index the sample was read from.
	Index int

	// Path identifies the image source, for logging.
	Path string

	// Label is the raw JSON label. Set until decode_labels runs.
	Label string

	Image image.Image

	// Annotations is nil until decode_labels runs.
	Annotations []annotation.Annotation

	// Maps holds the dense label maps keyed by output name.
	Maps map[string]*mat.Dense
}

// clone returns a shallow copy with its own Maps and Annotations slices.
func (s *Sample) clone() *Sample {
	out := *s
	out.Maps = make(map[string]*mat.Dense, len(s.Maps))
	for k, v := range s.Maps {
		out.Maps[k] = v
	}
	if s.Annotations != nil {
		out.Annotations = append([]annotation.Annotation(nil), s.Annotations...)
	}
	return &out
}

// Get returns the value stored under key. Images come back as image.Image,
// maps as *mat.Dense, polys as []geometry.Polygon, texts as []string and
// ignore_tags as []bool. ok is false when the key is unknown or not yet
// produced.
func (s *Sample) Get(key string) (any, bool) {
	switch key {
	case KeyImage:
		return s.Image, s.Image != nil
	case KeyLabel:
		return s.Label, s.Label != ""
	case KeyPolys:
		return annotation.Polygons(s.Annotations), s.Annotations != nil
	case KeyTexts:
		texts := make([]string, len(s.Annotations))
		for i, a := range s.Annotations {
			texts[i] = a.Text
		}
		return texts, s.Annotations != nil
	case KeyIgnoreTags:
		tags := make([]bool, len(s.Annotations))
		for i, a := range s.Annotations {
			tags[i] = a.Ignore
		}
		return tags, s.Annotations != nil
	}
	m, ok := s.Maps[key]
	return m, ok
}

// Select returns the values for keys in order. Every requested key must be
// present.
func (s *Sample) Select(keys []string) ([]any, error) {
	out := make([]any, len(keys))
	for i, k := range keys {
		v, ok := s.Get(k)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingKey, k)
		}
		out[i] = v
	}
	return out, nil
}

// Keys lists every key currently present, sorted.
func (s *Sample) Keys() []string {
	var keys []string
	for _, k := range []string{KeyImage, KeyLabel, KeyPolys, KeyTexts, KeyIgnoreTags} {
		if _, ok := s.Get(k); ok {
			keys = append(keys, k)
		}
	}
	for k := range s.Maps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
