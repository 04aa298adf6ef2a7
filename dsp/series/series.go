package series

import "math"

// TimeSeries is a uniformly sampled real segment.
type TimeSeries struct {
	Data  []float64
	Delta float64 // sample spacing in seconds
	Epoch float64 // time of Data[0] in seconds
}

// NewTimeSeries returns a zero-filled series of n samples.
func NewTimeSeries(n int, delta, epoch float64) *TimeSeries {
	if n < 0 {
		n = 0
	}
	return &TimeSeries{Data: make([]float64, n), Delta: delta, Epoch: epoch}
}

// Len returns the number of samples.
func (t *TimeSeries) Len() int { return len(t.Data) }

// SampleRate returns 1/Delta.
func (t *TimeSeries) SampleRate() float64 {
	if t.Delta == 0 {
		return 0
	}
	return 1 / t.Delta
}

// Duration returns Len()*Delta.
func (t *TimeSeries) Duration() float64 { return float64(len(t.Data)) * t.Delta }

// TimeAt returns the timestamp of sample i.
func (t *TimeSeries) TimeAt(i int) float64 { return t.Epoch + float64(i)*t.Delta }

// ComplexTimeSeries is a uniformly sampled complex segment, typically an SNR
// time series.
type ComplexTimeSeries struct {
	Data  []complex128
	Delta float64
	Epoch float64
}

// NewComplexTimeSeries returns a zero-filled series of n samples.
func NewComplexTimeSeries(n int, delta, epoch float64) *ComplexTimeSeries {
	if n < 0 {
		n = 0
	}
	return &ComplexTimeSeries{Data: make([]complex128, n), Delta: delta, Epoch: epoch}
}

// Len returns the number of samples.
func (c *ComplexTimeSeries) Len() int { return len(c.Data) }

// TimeAt returns the timestamp of sample i.
func (c *ComplexTimeSeries) TimeAt(i int) float64 { return c.Epoch + float64(i)*c.Delta }

// IndexAt returns the sample index closest to time t, or -1 when t lies
// outside the series.
func (c *ComplexTimeSeries) IndexAt(t float64) int {
	if c.Delta <= 0 || len(c.Data) == 0 {
		return -1
	}
	i := int(math.Round((t - c.Epoch) / c.Delta))
	if i < 0 || i >= len(c.Data) {
		return -1
	}
	return i
}

// FrequencySeries is a one-sided complex spectrum. Bin k sits at k*DeltaF.
type FrequencySeries struct {
	Data   []complex128
	DeltaF float64
	Epoch  float64 // epoch of the time segment it was derived from
}

// NewFrequencySeries returns a zero-filled series of n bins.
func NewFrequencySeries(n int, deltaF, epoch float64) *FrequencySeries {
	if n < 0 {
		n = 0
	}
	return &FrequencySeries{Data: make([]complex128, n), DeltaF: deltaF, Epoch: epoch}
}

// Len returns the number of bins.
func (f *FrequencySeries) Len() int { return len(f.Data) }

// FrequencyAt returns the frequency of bin k.
func (f *FrequencySeries) FrequencyAt(k int) float64 { return float64(k) * f.DeltaF }

// TimeLength returns the length of the time segment a one-sided series of
// this size describes.
func (f *FrequencySeries) TimeLength() int {
	if len(f.Data) == 0 {
		return 0
	}
	return 2 * (len(f.Data) - 1)
}

// Scaled returns a copy with every bin multiplied by s.
func (f *FrequencySeries) Scaled(s complex128) *FrequencySeries {
	out := &FrequencySeries{Data: make([]complex128, len(f.Data)), DeltaF: f.DeltaF, Epoch: f.Epoch}
	for i, v := range f.Data {
		out.Data[i] = v * s
	}
	return out
}

// Clone returns a deep copy.
func (f *FrequencySeries) Clone() *FrequencySeries {
	out := &FrequencySeries{Data: make([]complex128, len(f.Data)), DeltaF: f.DeltaF, Epoch: f.Epoch}
	copy(out.Data, f.Data)
	return out
}

// PowerSpectrum is a one-sided real spectrum, used for noise PSDs.
type PowerSpectrum struct {
	Data   []float64
	DeltaF float64
}

// NewPowerSpectrum returns a zero-filled spectrum of n bins.
func NewPowerSpectrum(n int, deltaF float64) *PowerSpectrum {
	if n < 0 {
		n = 0
	}
	return &PowerSpectrum{Data: make([]float64, n), DeltaF: deltaF}
}

// Flat returns a spectrum with every bin set to level.
func Flat(n int, deltaF, level float64) *PowerSpectrum {
	p := NewPowerSpectrum(n, deltaF)
	for i := range p.Data {
		p.Data[i] = level
	}
	return p
}

// Len returns the number of bins.
func (p *PowerSpectrum) Len() int { return len(p.Data) }

// Valid reports whether bin k carries usable noise information. Zero,
// negative, NaN and infinite bins are treated as infinite noise.
func (p *PowerSpectrum) Valid(k int) bool {
	v := p.Data[k]
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// Bin returns the bin index nearest to frequency f, clamped to the spectrum.
func Bin(f, deltaF float64, n int) int {
	if deltaF <= 0 || n == 0 {
		return 0
	}
	k := int(math.Round(f / deltaF))
	if k < 0 {
		return 0
	}
	if k >= n {
		return n - 1
	}
	return k
}
