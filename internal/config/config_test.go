package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
dataset:
  dir: /data/icdar
  label_file: train_label.txt
  shuffle: false
  sample_ratio: 0.5
  output_keys: [image, shrink_map]
pipeline:
  - name: decode_labels
  - name: east_crop
    params: {size: [320, 320], max_tries: 10, keep_ratio: false}
  - name: shrink_map
`

type eastParams struct {
	Size      [2]int  `yaml:"size"`
	MaxTries  int     `yaml:"max_tries"`
	MinRatio  float64 `yaml:"min_crop_side_ratio"`
	KeepRatio bool    `yaml:"keep_ratio"`
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/data/icdar", cfg.Dataset.Dir)
	assert.Equal(t, "train_label.txt", cfg.Dataset.LabelFile)
	assert.False(t, cfg.Dataset.Shuffle)
	assert.Equal(t, 0.5, cfg.Dataset.SampleRatio)
	assert.Equal(t, []string{"image", "shrink_map"}, cfg.Dataset.OutputKeys)

	// Unset fields keep defaults.
	assert.Equal(t, int64(42), cfg.Dataset.Seed)
	assert.Equal(t, 10, cfg.Dataset.MaxResample)

	require.Len(t, cfg.Pipeline, 3)
	assert.Equal(t, "east_crop", cfg.Pipeline[1].Name)
}

func TestStep_DecodeParams(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	p := eastParams{Size: [2]int{640, 640}, MaxTries: 50, MinRatio: 0.1, KeepRatio: true}
	require.NoError(t, cfg.Pipeline[1].DecodeParams(&p))

	assert.Equal(t, [2]int{320, 320}, p.Size)
	assert.Equal(t, 10, p.MaxTries)
	assert.Equal(t, 0.1, p.MinRatio, "absent param keeps default")
	assert.False(t, p.KeepRatio)

	// A step without params leaves the defaults alone.
	q := eastParams{MaxTries: 7}
	require.NoError(t, cfg.Pipeline[2].DecodeParams(&q))
	assert.Equal(t, 7, q.MaxTries)
}

func TestStep_DecodeParams_TypeMismatch(t *testing.T) {
	cfg, err := Parse([]byte("pipeline:\n  - name: east_crop\n    params: {max_tries: lots}\n"))
	require.NoError(t, err)

	var p eastParams
	assert.Error(t, cfg.Pipeline[0].DecodeParams(&p))
}

func TestNewStep(t *testing.T) {
	s, err := NewStep("east_crop", map[string]any{"max_tries": 3})
	require.NoError(t, err)

	p := eastParams{MaxTries: 50, MinRatio: 0.1}
	require.NoError(t, s.DecodeParams(&p))
	assert.Equal(t, 3, p.MaxTries)
	assert.Equal(t, 0.1, p.MinRatio)

	bare, err := NewStep("shrink_map", nil)
	require.NoError(t, err)
	assert.Equal(t, "shrink_map", bare.Name)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("dataset: [not, a, map]"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		wantDir  string
		wantSeed int64
		wantErr  bool
	}{
		{"no overrides", nil, "./data", 42, false},
		{"data dir", map[string]string{EnvDataDir: "/mnt/ds"}, "/mnt/ds", 42, false},
		{"seed", map[string]string{EnvSeed: "7"}, "./data", 7, false},
		{"bad seed", map[string]string{EnvSeed: "seven"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			err := cfg.ApplyEnv(func(k string) string { return tt.env[k] })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDir, cfg.Dataset.Dir)
			assert.Equal(t, tt.wantSeed, cfg.Dataset.Seed)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"no dir", func(c *Config) { c.Dataset.Dir = "" }, true},
		{"no label file", func(c *Config) { c.Dataset.LabelFile = "" }, true},
		{"zero ratio", func(c *Config) { c.Dataset.SampleRatio = 0 }, true},
		{"ratio above one", func(c *Config) { c.Dataset.SampleRatio = 1.5 }, true},
		{"negative resample", func(c *Config) { c.Dataset.MaxResample = -1 }, true},
		{"empty pipeline", func(c *Config) { c.Pipeline = nil }, true},
		{"unnamed step", func(c *Config) { c.Pipeline = []Step{{}} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	t.Setenv(EnvSeed, "1234")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cfg.Dataset.Seed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
