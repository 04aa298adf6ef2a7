// Package config loads search settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/cwbudde/algo-cbc/dsp/waveform"
	"github.com/cwbudde/algo-cbc/search"
)

// ErrInvalid is returned for files that parse but hold unusable values.
var ErrInvalid = errors.New("config: invalid value")

// File mirrors the on-disk layout.
type File struct {
	Engine Engine `yaml:"engine"`
	Search Search `yaml:"search"`
	Log    Log    `yaml:"log"`
}

// Engine sets the analysis length.
type Engine struct {
	Size       int     `yaml:"size"`
	SampleRate float64 `yaml:"sample_rate"`
}

// Search holds search.Config in file form. Durations use Go syntax
// ("100ms", "1.5s").
type Search struct {
	Threshold              float64 `yaml:"threshold"`
	ClusterWindow          string  `yaml:"cluster_window"`
	SubBands               int     `yaml:"sub_bands"`
	Interpolation          string  `yaml:"interpolation"`
	LowFrequency           float64 `yaml:"low_frequency"`
	HighFrequency          float64 `yaml:"high_frequency"`
	Workers                int     `yaml:"workers"`
	ClusterAcrossTemplates bool    `yaml:"cluster_across_templates"`
	Pad                    string  `yaml:"pad"`
}

// Log selects the logger.
type Log struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the built-in settings.
func Default() *File {
	return &File{
		Engine: Engine{Size: 4096, SampleRate: 1024},
		Search: FromSearch(search.DefaultConfig()),
		Log:    Log{Level: "info"},
	}
}

// FromSearch converts a search.Config to its file form.
func FromSearch(cfg search.Config) Search {
	return Search{
		Threshold:              cfg.Threshold,
		ClusterWindow:          cfg.ClusterWindow.String(),
		SubBands:               cfg.SubBandCount,
		Interpolation:          cfg.Interpolation.String(),
		LowFrequency:           cfg.LowFrequency,
		HighFrequency:          cfg.HighFrequency,
		Workers:                cfg.Workers,
		ClusterAcrossTemplates: cfg.ClusterAcrossTemplates,
		Pad:                    cfg.Pad.String(),
	}
}

// Load reads and validates a file. Keys missing from the file keep their
// defaults.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML onto the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*File, error) {
	f := Default()
	if err := yaml.UnmarshalWithOptions(data, f, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Marshal encodes f as YAML.
func (f *File) Marshal() ([]byte, error) {
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return out, nil
}

// Validate checks the engine settings and the search section.
func (f *File) Validate() error {
	if f.Engine.Size < 4 || f.Engine.Size&(f.Engine.Size-1) != 0 {
		return fmt.Errorf("%w: engine size %d is not a power of two >= 4", ErrInvalid, f.Engine.Size)
	}
	if !(f.Engine.SampleRate > 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalid, f.Engine.SampleRate)
	}
	if _, err := f.SearchConfig(); err != nil {
		return err
	}
	return nil
}

// DeltaF returns the frequency resolution implied by the engine settings.
func (f *File) DeltaF() float64 {
	return f.Engine.SampleRate / float64(f.Engine.Size)
}

// SearchConfig converts the search section.
func (f *File) SearchConfig() (search.Config, error) {
	s := f.Search
	window, err := parseDuration("cluster_window", s.ClusterWindow)
	if err != nil {
		return search.Config{}, err
	}
	pad, err := parseDuration("pad", s.Pad)
	if err != nil {
		return search.Config{}, err
	}
	order, err := waveform.ParseOrder(s.Interpolation)
	if err != nil {
		return search.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	cfg := search.NewConfig(
		search.WithThreshold(s.Threshold),
		search.WithClusterWindow(window),
		search.WithSubBands(s.SubBands),
		search.WithInterpolation(order),
		search.WithFrequencyRange(s.LowFrequency, s.HighFrequency),
		search.WithWorkers(s.Workers),
		search.WithClusterAcrossTemplates(s.ClusterAcrossTemplates),
		search.WithPad(pad),
	)
	if err := cfg.Validate(); err != nil {
		return search.Config{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return cfg, nil
}

func parseDuration(key, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalid, key, err)
	}
	return d, nil
}
