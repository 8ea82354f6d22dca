// Package config loads the YAML configuration that drives dataset loading and
// the label-generation pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings.
const (
	EnvDataDir = "DETLABEL_DATA_DIR"
	EnvSeed    = "DETLABEL_SEED"
)

// Config is the top-level configuration file.
type Config struct {
	Dataset  DatasetConfig `yaml:"dataset"`
	Pipeline []Step        `yaml:"pipeline"`
}

// DatasetConfig describes where samples come from and which outputs are kept.
type DatasetConfig struct {
	Dir         string   `yaml:"dir"`
	LabelFile   string   `yaml:"label_file"`
	Shuffle     bool     `yaml:"shuffle"`
	SampleRatio float64  `yaml:"sample_ratio"`
	Seed        int64    `yaml:"seed"`
	OutputKeys  []string `yaml:"output_keys"`

	// MaxResample bounds how many replacement indices are tried when a
	// sample has no usable annotations.
	MaxResample int `yaml:"max_resample"`

	// CacheSize bounds the decoded image cache. Zero disables the bound.
	CacheSize int `yaml:"cache_size"`
}

// Step names one pipeline transform and its parameters. Params stays as a raw
// YAML node so each transform decodes it onto its own defaults.
type Step struct {
	Name   string    `yaml:"name"`
	Params yaml.Node `yaml:"params"`
}

// NewStep builds a step from a name and a params value, for configuring a
// pipeline in code.
func NewStep(name string, params any) (Step, error) {
	s := Step{Name: name}
	if params == nil {
		return s, nil
	}
	if err := s.Params.Encode(params); err != nil {
		return Step{}, fmt.Errorf("encode params for %s: %w", name, err)
	}
	return s, nil
}

// DecodeParams overlays the step parameters onto out, which should already
// hold the transform defaults. Absent params leave out unchanged.
func (s Step) DecodeParams(out any) error {
	if s.Params.Kind == 0 {
		return nil
	}
	if err := s.Params.Decode(out); err != nil {
		return fmt.Errorf("decode params for %s: %w", s.Name, err)
	}
	return nil
}

// Default returns the configuration used when no file is given: a shuffled
// dataset under ./data with a DB-style label pipeline.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Dir:         "./data",
			LabelFile:   "train.txt",
			Shuffle:     true,
			SampleRatio: 1.0,
			Seed:        42,
			OutputKeys:  []string{"image", "shrink_map", "shrink_mask", "threshold_map", "threshold_mask"},
			MaxResample: 10,
			CacheSize:   256,
		},
		Pipeline: []Step{
			{Name: "decode_labels"},
			{Name: "east_crop"},
			{Name: "shrink_map"},
			{Name: "border_map"},
		},
	}
}

// Load reads the file at path over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Fields missing from data keep their
// default values; a pipeline given in data replaces the default pipeline.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv applies DETLABEL_DATA_DIR and DETLABEL_SEED from getenv. Empty
// values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if dir := getenv(EnvDataDir); dir != "" {
		c.Dataset.Dir = dir
	}
	if seed := getenv(EnvSeed); seed != "" {
		v, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSeed, seed, err)
		}
		c.Dataset.Seed = v
	}
	return nil
}

// Validate reports configuration errors that would only surface later.
func (c *Config) Validate() error {
	var errs []error
	if c.Dataset.Dir == "" {
		errs = append(errs, errors.New("dataset.dir is required"))
	}
	if c.Dataset.LabelFile == "" {
		errs = append(errs, errors.New("dataset.label_file is required"))
	}
	if c.Dataset.SampleRatio <= 0 || c.Dataset.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("dataset.sample_ratio must be in (0, 1], got %v", c.Dataset.SampleRatio))
	}
	if c.Dataset.MaxResample < 0 {
		errs = append(errs, fmt.Errorf("dataset.max_resample must be >= 0, got %d", c.Dataset.MaxResample))
	}
	if len(c.Pipeline) == 0 {
		errs = append(errs, errors.New("pipeline must have at least one step"))
	}
	for i, s := range c.Pipeline {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("pipeline[%d]: name is required", i))
		}
	}
	return errors.Join(errs...)
}
