package filter

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/spectrum"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/internal/scratch"
)

// ErrNoSupport is returned when a template has no power in the usable band.
var ErrNoSupport = errors.New("filter: template has no power in the usable band")

// Result is the output of one matched filter pass.
type Result struct {
	// SNR is the complex SNR; its length and spacing match the time segment
	// the data spectrum describes.
	SNR *series.ComplexTimeSeries
	// Corr is the full-length correlation spectrum q̃, zero outside Band.
	Corr []complex128
	// Band is the range of bins that contributed.
	Band transform.Band
	// Sigmasq is the template norm 4Δf Σ|h|²/S.
	Sigmasq float64
	// Norm converts an unnormalised inverse of Corr into SNR: 4Δf/σ.
	Norm   float64
	DeltaF float64
}

// Sigma returns sqrt(Sigmasq).
func (r *Result) Sigma() float64 { return math.Sqrt(r.Sigmasq) }

// Filter runs matched filters for one analysis length.
type Filter struct {
	engine *transform.Engine
	cfg    Config
}

// New returns a filter using eng for its transforms.
func New(eng *transform.Engine, opts ...Option) *Filter {
	return &Filter{engine: eng, cfg: ApplyOptions(opts...)}
}

// Config returns the effective configuration.
func (f *Filter) Config() Config { return f.cfg }

// Engine returns the transform engine.
func (f *Filter) Engine() *transform.Engine { return f.engine }

// Run correlates data against tmpl weighted by psd.
func (f *Filter) Run(data, tmpl *series.FrequencySeries, psd *series.PowerSpectrum) (*Result, error) {
	if data == nil || tmpl == nil || psd == nil {
		return nil, fmt.Errorf("%w: nil input", series.ErrDimensionMismatch)
	}
	if err := series.CheckCompatible(data, psd, tmpl); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	bins := f.engine.Bins()
	if data.Len() != bins {
		return nil, fmt.Errorf("filter: %w: data has %d bins, engine expects %d",
			series.ErrDimensionMismatch, data.Len(), bins)
	}

	band, ok := f.SupportBand(tmpl, psd)
	if !ok {
		return nil, ErrNoSupport
	}

	n := f.engine.Size()
	corr := make([]complex128, n)
	sigmasq := correlate(corr, data, tmpl, psd, band)
	if !(sigmasq > 0) || math.IsInf(sigmasq, 0) {
		return nil, fmt.Errorf("%w: sigmasq %g", ErrNoSupport, sigmasq)
	}

	snr := series.NewComplexTimeSeries(n, 1/(float64(n)*data.DeltaF), data.Epoch)
	if err := f.inverse(snr.Data, corr, band); err != nil {
		return nil, err
	}

	norm := 4 * data.DeltaF / math.Sqrt(sigmasq)
	scale := complex(norm, 0)
	for i := range snr.Data {
		snr.Data[i] *= scale
	}

	return &Result{
		SNR:     snr,
		Corr:    corr,
		Band:    band,
		Sigmasq: sigmasq,
		Norm:    norm,
		DeltaF:  data.DeltaF,
	}, nil
}

func (f *Filter) inverse(dst, corr []complex128, band transform.Band) error {
	n := f.engine.Size()
	if f.cfg.PruneFactor > 0 && f.engine.PrunedSize(band)*f.cfg.PruneFactor <= n {
		return f.engine.PrunedInverse(dst, corr, band)
	}
	return f.engine.InverseComplex(dst, corr)
}

// SupportBand returns the bins where the template is non-zero, the PSD is
// valid and the frequency lies within the configured cutoffs, trimmed to the
// first and last such bin.
func (f *Filter) SupportBand(tmpl *series.FrequencySeries, psd *series.PowerSpectrum) (transform.Band, bool) {
	lo, hi := cutoffBins(f.cfg, tmpl.DeltaF, tmpl.Len())
	first, last := -1, -1
	for k := lo; k < hi; k++ {
		if tmpl.Data[k] == 0 || !psd.Valid(k) {
			continue
		}
		if first < 0 {
			first = k
		}
		last = k
	}
	if first < 0 {
		return transform.Band{}, false
	}
	return transform.Band{Lo: first, Hi: last + 1}, true
}

func cutoffBins(cfg Config, deltaF float64, bins int) (lo, hi int) {
	lo = int(math.Ceil(cfg.LowFrequency/deltaF - 1e-9))
	lo = max(lo, 0)
	hi = bins
	if cfg.HighFrequency > 0 {
		hi = min(hi, int(math.Floor(cfg.HighFrequency/deltaF+1e-9))+1)
	}
	return lo, hi
}

// correlate fills corr over band with d·conj(h)/S and returns σ².
func correlate(corr []complex128, data, tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) float64 {
	w := band.Width()
	inv := scratch.GetReal(w)
	defer scratch.PutReal(inv)
	density := scratch.GetReal(w)
	defer scratch.PutReal(density)

	weights(inv.Data, psd, band)
	spectrum.PowerInto(density.Data, tmpl.Data[band.Lo:band.Hi])
	vecmath.MulBlockInPlace(density.Data, inv.Data)

	for i, k := 0, band.Lo; k < band.Hi; i, k = i+1, k+1 {
		h := tmpl.Data[k]
		corr[k] = data.Data[k] * complex(real(h)*inv.Data[i], -imag(h)*inv.Data[i])
	}
	return 4 * tmpl.DeltaF * floats.Sum(density.Data)
}

// weights writes 1/S over band, 0 for masked bins.
func weights(dst []float64, psd *series.PowerSpectrum, band transform.Band) {
	for i, k := 0, band.Lo; k < band.Hi; i, k = i+1, k+1 {
		if psd.Valid(k) {
			dst[i] = 1 / psd.Data[k]
		} else {
			dst[i] = 0
		}
	}
}

// Sigmasq returns 4Δf Σ|h|²/S over band, skipping masked bins.
func Sigmasq(tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) float64 {
	w := band.Width()
	if w == 0 {
		return 0
	}
	inv := scratch.GetReal(w)
	defer scratch.PutReal(inv)
	density := scratch.GetReal(w)
	defer scratch.PutReal(density)

	weights(inv.Data, psd, band)
	spectrum.PowerInto(density.Data, tmpl.Data[band.Lo:band.Hi])
	vecmath.MulBlockInPlace(density.Data, inv.Data)
	return 4 * tmpl.DeltaF * floats.Sum(density.Data)
}

// Overlap returns the normalised noise-weighted inner product of a and b at
// zero lag, |<a,b>| / sqrt(<a,a><b,b>), over band.
func Overlap(a, b *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) (float64, error) {
	if err := series.CheckCompatible(a, psd, b); err != nil {
		return 0, fmt.Errorf("filter: %w", err)
	}
	if band.Lo < 0 || band.Hi > a.Len() || band.Width() == 0 {
		return 0, fmt.Errorf("filter: %w: band [%d, %d) of %d bins",
			series.ErrDimensionMismatch, band.Lo, band.Hi, a.Len())
	}
	var ab complex128
	for k := band.Lo; k < band.Hi; k++ {
		if !psd.Valid(k) {
			continue
		}
		hb := b.Data[k]
		ab += a.Data[k] * complex(real(hb), -imag(hb)) / complex(psd.Data[k], 0)
	}
	na := Sigmasq(a, psd, band)
	nb := Sigmasq(b, psd, band)
	if na == 0 || nb == 0 {
		return 0, ErrNoSupport
	}
	ip := 4 * a.DeltaF * math.Hypot(real(ab), imag(ab))
	return ip / math.Sqrt(na*nb), nil
}
