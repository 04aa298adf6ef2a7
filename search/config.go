package search

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/cwbudde/algo-cbc/dsp/waveform"
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("search: invalid configuration")

// Config holds the bank scan settings.
type Config struct {
	// Threshold is the |ρ| cut applied to the SNR series.
	Threshold float64
	// ClusterWindow is the minimum separation between triggers of one pair.
	ClusterWindow time.Duration
	// SubBandCount is the number of chi-squared sub-bands; 0 disables the veto.
	SubBandCount int
	// Interpolation selects how sparse templates are reconstructed.
	Interpolation waveform.Order
	// LowFrequency and HighFrequency bound the filter band in Hz.
	// HighFrequency 0 means Nyquist.
	LowFrequency  float64
	HighFrequency float64
	// Workers bounds concurrent pairs; 0 uses GOMAXPROCS.
	Workers int
	// ClusterAcrossTemplates merges triggers from different pairs that fall
	// within ClusterWindow of each other.
	ClusterAcrossTemplates bool
	// Pad drops triggers this close to either segment edge, where the
	// circular correlation wraps.
	Pad time.Duration
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the scan defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:     5.5,
		ClusterWindow: 100 * time.Millisecond,
		SubBandCount:  16,
		Interpolation: waveform.OrderLinear,
		LowFrequency:  30,
	}
}

// WithThreshold sets the SNR threshold.
func WithThreshold(thr float64) Option {
	return func(cfg *Config) { cfg.Threshold = thr }
}

// WithClusterWindow sets the trigger clustering window.
func WithClusterWindow(w time.Duration) Option {
	return func(cfg *Config) { cfg.ClusterWindow = w }
}

// WithSubBands sets the chi-squared sub-band count.
func WithSubBands(n int) Option {
	return func(cfg *Config) { cfg.SubBandCount = n }
}

// WithInterpolation sets the sparse reconstruction order.
func WithInterpolation(o waveform.Order) Option {
	return func(cfg *Config) { cfg.Interpolation = o }
}

// WithFrequencyRange sets the filter band.
func WithFrequencyRange(lo, hi float64) Option {
	return func(cfg *Config) {
		cfg.LowFrequency = lo
		cfg.HighFrequency = hi
	}
}

// WithWorkers bounds the number of concurrent pairs.
func WithWorkers(n int) Option {
	return func(cfg *Config) { cfg.Workers = n }
}

// WithClusterAcrossTemplates enables bank-wide clustering.
func WithClusterAcrossTemplates(on bool) Option {
	return func(cfg *Config) { cfg.ClusterAcrossTemplates = on }
}

// WithPad sets the edge padding.
func WithPad(d time.Duration) Option {
	return func(cfg *Config) { cfg.Pad = d }
}

// NewConfig applies opts to DefaultConfig.
func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case math.IsNaN(c.Threshold) || math.IsInf(c.Threshold, 0):
		return fmt.Errorf("%w: threshold %v", ErrInvalidConfig, c.Threshold)
	case c.ClusterWindow < 0:
		return fmt.Errorf("%w: negative cluster window %v", ErrInvalidConfig, c.ClusterWindow)
	case c.SubBandCount == 1 || c.SubBandCount < 0:
		return fmt.Errorf("%w: %d sub-bands, need 0 or at least 2", ErrInvalidConfig, c.SubBandCount)
	case c.Interpolation != waveform.OrderLinear && c.Interpolation != waveform.OrderCubic:
		return fmt.Errorf("%w: interpolation %v", ErrInvalidConfig, c.Interpolation)
	case c.LowFrequency < 0:
		return fmt.Errorf("%w: low frequency %v", ErrInvalidConfig, c.LowFrequency)
	case c.HighFrequency != 0 && c.HighFrequency <= c.LowFrequency:
		return fmt.Errorf("%w: high frequency %v not above low frequency %v",
			ErrInvalidConfig, c.HighFrequency, c.LowFrequency)
	case c.Workers < 0:
		return fmt.Errorf("%w: %d workers", ErrInvalidConfig, c.Workers)
	case c.Pad < 0:
		return fmt.Errorf("%w: negative pad %v", ErrInvalidConfig, c.Pad)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
