package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/textdet-labels/internal/config"
	"github.com/ironsheep/textdet-labels/internal/pipeline"
)

// Item is one processed sample.
type Item struct {
	// Index is the store index that produced the sample, which differs
	// from the requested position after resampling.
	Index int

	Sample *pipeline.Sample

	// Values holds the sample values for OutputKeys, in order.
	Values []any
}

// Dataset maps positions onto store indices and runs the pipeline on each
// sample. It is safe for concurrent Get calls with distinct *rand.Rand.
type Dataset struct {
	store       Store
	pipe        *pipeline.Pipeline
	order       []int
	outputKeys  []string
	maxResample int
	log         logrus.FieldLogger
}

// New builds the position order and validates the output keys by running the
// pipeline on the first sample.
//
// The order lists every store index, shuffled with cfg.Seed when cfg.Shuffle
// is set, and truncated to round(n * cfg.SampleRatio). An empty OutputKeys
// selects every key the first sample produces.
func New(store Store, pipe *pipeline.Pipeline, cfg config.DatasetConfig, log logrus.FieldLogger) (*Dataset, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	n := store.Len()
	if n == 0 {
		return nil, errors.New("dataset is empty")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if cfg.Shuffle {
		rng := rand.New(rand.NewSource(cfg.Seed))
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	keep := int(math.Round(float64(n) * cfg.SampleRatio))
	if keep < 1 {
		return nil, fmt.Errorf("sample_ratio %v keeps no samples out of %d", cfg.SampleRatio, n)
	}
	if keep < n {
		order = order[:keep]
	}

	d := &Dataset{
		store:       store,
		pipe:        pipe,
		order:       order,
		maxResample: cfg.MaxResample,
		log:         log,
	}

	first, err := d.process(0, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		return nil, fmt.Errorf("failed to process first sample: %w", err)
	}
	if len(cfg.OutputKeys) == 0 {
		d.outputKeys = first.Sample.Keys()
	} else {
		available := first.Sample.Keys()
		for _, k := range cfg.OutputKeys {
			if _, ok := first.Sample.Get(k); !ok {
				return nil, fmt.Errorf("%w: output key %q not produced by the pipeline (available keys: %v)", pipeline.ErrMissingKey, k, available)
			}
		}
		d.outputKeys = append([]string(nil), cfg.OutputKeys...)
	}

	log.WithFields(logrus.Fields{
		"samples":     len(order),
		"store_size":  n,
		"output_keys": d.outputKeys,
		"steps":       pipe.Names(),
	}).Info("dataset ready")
	return d, nil
}

// Len returns the number of positions.
func (d *Dataset) Len() int { return len(d.order) }

// OutputKeys returns the keys Get selects, in order.
func (d *Dataset) OutputKeys() []string {
	return append([]string(nil), d.outputKeys...)
}

// Get processes the sample at position i. A sample whose record is
// unavailable or whose label is unusable is replaced by a random position,
// up to the configured number of attempts.
func (d *Dataset) Get(i int, rng *rand.Rand) (*Item, error) {
	if i < 0 || i >= len(d.order) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(d.order))
	}
	item, err := d.process(i, rng)
	if err != nil {
		return nil, err
	}
	values, err := item.Sample.Select(d.outputKeys)
	if err != nil {
		return nil, err
	}
	item.Values = values
	return item, nil
}

// process runs the pipeline at position pos, resampling on recoverable
// failures.
func (d *Dataset) process(pos int, rng *rand.Rand) (*Item, error) {
	var lastErr error
	for attempt := 0; attempt <= d.maxResample; attempt++ {
		index := d.order[pos]
		item, err := d.run(index, rng)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, pipeline.ErrNoUsableSample) && !errors.Is(err, ErrRecordUnavailable) {
			return nil, err
		}
		lastErr = err

		next := rng.Intn(len(d.order))
		d.log.WithFields(logrus.Fields{
			"index":   index,
			"attempt": attempt + 1,
			"next":    d.order[next],
			"error":   err,
		}).Debug("resampling")
		pos = next
	}
	return nil, fmt.Errorf("%w after %d resamples: %w", pipeline.ErrNoUsableSample, d.maxResample, lastErr)
}

func (d *Dataset) run(index int, rng *rand.Rand) (*Item, error) {
	rec, err := d.store.Get(index)
	if err != nil {
		return nil, err
	}
	s, err := d.pipe.Run(&pipeline.Sample{
		Index: index,
		Path:  rec.Path,
		Label: rec.Label,
		Image: rec.Image,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("sample %d (%s): %w", index, rec.Path, err)
	}
	return &Item{Index: index, Sample: s}, nil
}
