package pipeline

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textdet-labels/internal/config"
)

var (
	// ErrNoUsableSample marks a sample the caller should replace with
	// another index, such as one whose label holds no annotations.
	ErrNoUsableSample = errors.New("no usable sample")

	// ErrUnknownTransform is returned by Build for an unrecognized step name.
	ErrUnknownTransform = errors.New("unknown transform")

	// ErrMissingKey is returned when a required sample value is absent.
	ErrMissingKey = errors.New("missing sample key")
)

// Pipeline applies an ordered list of transforms to each sample.
// A Pipeline is immutable after Build and safe for concurrent Run calls as
// long as each goroutine passes its own *rand.Rand.
type Pipeline struct {
	steps []Transform
	log   logrus.FieldLogger
}

// New creates a pipeline from already constructed transforms.
func New(log logrus.FieldLogger, steps ...Transform) *Pipeline {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{steps: steps, log: log}
}

// Build constructs the transforms named by steps, in order.
func Build(steps []config.Step, log logrus.FieldLogger) (*Pipeline, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	transforms := make([]Transform, 0, len(steps))
	for i, step := range steps {
		t, err := newTransform(step, log.WithField("transform", step.Name))
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i, err)
		}
		transforms = append(transforms, t)
	}
	return New(log, transforms...), nil
}

// Names returns the transform names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.steps))
	for i, t := range p.steps {
		names[i] = t.Name()
	}
	return names
}

// Run applies every transform in order. The first error aborts the run and
// is returned wrapped with the failing step name; callers detect unusable
// samples with errors.Is(err, ErrNoUsableSample).
func (p *Pipeline) Run(s *Sample, rng *rand.Rand) (*Sample, error) {
	cur := s
	for _, t := range p.steps {
		next, err := t.Apply(cur, rng)
		if err != nil {
			if errors.Is(err, ErrNoUsableSample) {
				p.log.WithFields(logrus.Fields{
					"index":     s.Index,
					"path":      s.Path,
					"transform": t.Name(),
				}).Debug("sample not usable")
			}
			return nil, fmt.Errorf("%s: %w", t.Name(), err)
		}
		cur = next
	}
	return cur, nil
}
