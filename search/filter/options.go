package filter

// Config holds matched filter settings.
type Config struct {
	// LowFrequency excludes bins below this frequency in Hz.
	LowFrequency float64
	// HighFrequency excludes bins above this frequency; 0 means Nyquist.
	HighFrequency float64
	// PruneFactor selects the pruned inverse when the inner transform is
	// at most N/PruneFactor long. 0 disables pruning.
	PruneFactor int
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the filter defaults.
func DefaultConfig() Config {
	return Config{
		PruneFactor: 2,
	}
}

// WithLowFrequency sets the lower frequency cutoff.
func WithLowFrequency(f float64) Option {
	return func(cfg *Config) {
		if f >= 0 {
			cfg.LowFrequency = f
		}
	}
}

// WithHighFrequency sets the upper frequency cutoff.
func WithHighFrequency(f float64) Option {
	return func(cfg *Config) {
		if f >= 0 {
			cfg.HighFrequency = f
		}
	}
}

// WithPruneFactor sets the pruning threshold.
func WithPruneFactor(factor int) Option {
	return func(cfg *Config) {
		if factor >= 0 {
			cfg.PruneFactor = factor
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
