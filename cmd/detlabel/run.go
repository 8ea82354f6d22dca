package main

import (
	"context"
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/textdet-labels/internal/annotation"
	"github.com/ironsheep/textdet-labels/internal/config"
	"github.com/ironsheep/textdet-labels/internal/dataset"
	"github.com/ironsheep/textdet-labels/internal/imaging"
	"github.com/ironsheep/textdet-labels/internal/pipeline"
	"github.com/ironsheep/textdet-labels/internal/render"
)

const overlayOpacity = 0.45

type runOptions struct {
	Config  *config.Config
	Out     string
	Count   int
	Workers int
	Overlay bool
}

type runSummary struct {
	RunID   string
	Dir     string
	Samples int
	Files   int64
}

// run renders Count dataset positions into Out/<run-id>/. Every position gets
// its own random source seeded from the dataset seed, so output does not
// depend on the worker count or scheduling.
func run(ctx context.Context, opts runOptions, log logrus.FieldLogger) (*runSummary, error) {
	cfg := opts.Config
	cache := imaging.NewImageCache(cfg.Dataset.CacheSize)
	store, err := dataset.OpenStores(cfg.Dataset.Dir, cfg.Dataset.LabelFile, cache)
	if err != nil {
		return nil, err
	}
	pipe, err := pipeline.Build(cfg.Pipeline, log)
	if err != nil {
		return nil, err
	}
	ds, err := dataset.New(store, pipe, cfg.Dataset, log)
	if err != nil {
		return nil, err
	}

	count := opts.Count
	if count <= 0 || count > ds.Len() {
		count = ds.Len()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	runID := uuid.New().String()
	dir := filepath.Join(opts.Out, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	log = log.WithField("run_id", runID)
	log.WithFields(logrus.Fields{
		"samples": count,
		"workers": workers,
		"steps":   pipe.Names(),
	}).Info("Rendering samples")

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		files    atomic.Int64
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	sem := make(chan struct{}, workers)
	for pos := 0; pos < count; pos++ {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(pos int) {
				defer wg.Done()
				defer func() { <-sem }()

				rng := rand.New(rand.NewSource(cfg.Dataset.Seed + int64(pos)))
				item, err := ds.Get(pos, rng)
				if err != nil {
					fail(fmt.Errorf("position %d: %w", pos, err))
					return
				}
				n, err := writeItem(dir, pos, ds.OutputKeys(), item, opts.Overlay)
				files.Add(int64(n))
				if err != nil {
					fail(fmt.Errorf("position %d: %w", pos, err))
					return
				}
				log.WithFields(logrus.Fields{"position": pos, "index": item.Index, "files": n}).Debug("sample written")
			}(pos)
		}
		if ctx.Err() != nil {
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}

	return &runSummary{RunID: runID, Dir: dir, Samples: count, Files: files.Load()}, nil
}

// writeItem saves the selected values of one sample. Images and maps become
// PNGs named <pos>_<key>.png, annotations become <pos>_label.json. Other
// values are skipped since they are carried by the label file.
func writeItem(dir string, pos int, keys []string, item *dataset.Item, overlay bool) (int, error) {
	written := 0
	name := func(suffix string) string {
		return filepath.Join(dir, fmt.Sprintf("%06d_%s", pos, suffix))
	}

	for i, key := range keys {
		switch v := item.Values[i].(type) {
		case image.Image:
			if err := render.Save(name(key+".png"), v); err != nil {
				return written, err
			}
		case *mat.Dense:
			// Every map is in [0, 1], so a fixed range keeps colors comparable
			// across samples.
			if err := render.Save(name(key+".png"), render.Heatmap(v, 0, 1)); err != nil {
				return written, err
			}
		default:
			continue
		}
		written++
	}

	label, err := annotation.Encode(item.Sample.Annotations)
	if err != nil {
		return written, err
	}
	if err := os.WriteFile(name("label.json"), []byte(label), 0o644); err != nil {
		return written, fmt.Errorf("failed to write label: %w", err)
	}
	written++

	if !overlay {
		return written, nil
	}
	shrink, ok := item.Sample.Maps[pipeline.KeyShrinkMap]
	if !ok || item.Sample.Image == nil {
		return written, nil
	}
	blended, err := render.Overlay(item.Sample.Image, render.Heatmap(shrink, 0, 1), overlayOpacity)
	if err != nil {
		return written, err
	}
	if err := render.Save(name("overlay.png"), blended); err != nil {
		return written, err
	}
	return written + 1, nil
}
