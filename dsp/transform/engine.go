package transform

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/internal/scratch"
)

var (
	// ErrInvalidSize is returned for analysis lengths that are not a power of
	// two of at least 4 samples.
	ErrInvalidSize = errors.New("transform: size must be a power of two >= 4")
	// ErrInvalidBand is returned for bands outside [0, N).
	ErrInvalidBand = errors.New("transform: invalid band")
	// ErrInvalidSpacing is returned for non-positive sample spacing.
	ErrInvalidSpacing = errors.New("transform: sample spacing must be positive")
)

// Engine performs transforms for one negotiated analysis length. It is safe
// for concurrent use.
type Engine struct {
	size    int
	twiddle []complex128 // exp(+2πi t/N), t in [0, N)
}

// New returns an engine for time segments of length size.
func New(size int) (*Engine, error) {
	if size < 4 || !isPowerOf2(size) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}

	// Build one plan eagerly so a backend failure surfaces here.
	plan, err := getPlan(size)
	if err != nil {
		return nil, err
	}
	putPlan(size, plan)

	tw := make([]complex128, size)
	for t := range tw {
		s, c := math.Sincos(2 * math.Pi * float64(t) / float64(size))
		tw[t] = complex(c, s)
	}

	return &Engine{size: size, twiddle: tw}, nil
}

// Size returns the time-domain length N.
func (e *Engine) Size() int { return e.size }

// Bins returns the one-sided spectrum length N/2+1.
func (e *Engine) Bins() int { return e.size/2 + 1 }

// Forward transforms a real time segment into its one-sided spectrum scaled
// by the sample spacing.
func (e *Engine) Forward(ts *series.TimeSeries) (*series.FrequencySeries, error) {
	if ts == nil || len(ts.Data) != e.size {
		return nil, fmt.Errorf("%w: time segment has %d samples, engine expects %d",
			series.ErrDimensionMismatch, lenTime(ts), e.size)
	}
	if ts.Delta <= 0 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidSpacing, ts.Delta)
	}

	in := scratch.GetComplex(e.size)
	defer scratch.PutComplex(in)
	out := scratch.GetComplex(e.size)
	defer scratch.PutComplex(out)

	for i, v := range ts.Data {
		in.Data[i] = complex(v, 0)
	}

	plan, err := getPlan(e.size)
	if err != nil {
		return nil, err
	}
	err = plan.Forward(out.Data, in.Data)
	putPlan(e.size, plan)
	if err != nil {
		return nil, fmt.Errorf("transform: forward FFT failed: %w", err)
	}

	fs := series.NewFrequencySeries(e.Bins(), 1/(float64(e.size)*ts.Delta), ts.Epoch)
	scale := complex(ts.Delta, 0)
	for k := range fs.Data {
		fs.Data[k] = out.Data[k] * scale
	}
	return fs, nil
}

// Inverse transforms a one-sided spectrum back into a real time segment. The
// imaginary parts of the DC and Nyquist bins are ignored.
func (e *Engine) Inverse(fs *series.FrequencySeries) (*series.TimeSeries, error) {
	if fs == nil || len(fs.Data) != e.Bins() {
		n := 0
		if fs != nil {
			n = len(fs.Data)
		}
		return nil, fmt.Errorf("%w: spectrum has %d bins, engine expects %d",
			series.ErrDimensionMismatch, n, e.Bins())
	}
	if fs.DeltaF <= 0 {
		return nil, fmt.Errorf("%w: delta f %g", ErrInvalidSpacing, fs.DeltaF)
	}

	full := scratch.GetComplex(e.size)
	defer scratch.PutComplex(full)
	out := scratch.GetComplex(e.size)
	defer scratch.PutComplex(out)

	half := e.size / 2
	full.Data[0] = complex(real(fs.Data[0]), 0)
	full.Data[half] = complex(real(fs.Data[half]), 0)
	for k := 1; k < half; k++ {
		v := fs.Data[k]
		full.Data[k] = v
		full.Data[e.size-k] = complex(real(v), -imag(v))
	}

	plan, err := getPlan(e.size)
	if err != nil {
		return nil, err
	}
	err = plan.Inverse(out.Data, full.Data)
	putPlan(e.size, plan)
	if err != nil {
		return nil, fmt.Errorf("transform: inverse FFT failed: %w", err)
	}

	// The backend inverse is scaled by 1/N; continuous units need N·Δf.
	scale := float64(e.size) * fs.DeltaF
	ts := series.NewTimeSeries(e.size, 1/(float64(e.size)*fs.DeltaF), fs.Epoch)
	for i := range ts.Data {
		ts.Data[i] = real(out.Data[i]) * scale
	}
	return ts, nil
}

// InverseComplex computes the unnormalised inverse DFT of a full-length
// spectrum: dst[n] = Σ_k src[k]·exp(+2πikn/N). dst and src may alias.
func (e *Engine) InverseComplex(dst, src []complex128) error {
	if len(dst) != e.size || len(src) != e.size {
		return fmt.Errorf("%w: got dst %d, src %d, engine expects %d",
			series.ErrDimensionMismatch, len(dst), len(src), e.size)
	}
	return inverseUnnormalized(e.size, dst, src)
}

func inverseUnnormalized(size int, dst, src []complex128) error {
	plan, err := getPlan(size)
	if err != nil {
		return err
	}
	err = plan.Inverse(dst, src)
	putPlan(size, plan)
	if err != nil {
		return fmt.Errorf("transform: inverse FFT failed: %w", err)
	}

	scale := complex(float64(size), 0)
	for i := range dst {
		dst[i] *= scale
	}
	return nil
}

func lenTime(ts *series.TimeSeries) int {
	if ts == nil {
		return 0
	}
	return len(ts.Data)
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
