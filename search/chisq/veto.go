package chisq

import (
	"fmt"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/search/filter"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

// DefaultBins is the sub-band count used when a partition is built on demand.
const DefaultBins = 16

// Accumulator holds the per-sub-band contributions of one evaluation. It is
// owned by the caller and may be reused, but not shared between goroutines.
type Accumulator struct {
	p, m    int
	indices []int
	z       []complex128 // p rows of m samples
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator { return &Accumulator{} }

func (a *Accumulator) reset(p, m int) {
	a.p, a.m = p, m
	a.indices = a.indices[:0]
	if cap(a.z) < p*m {
		a.z = make([]complex128, p*m)
	}
	a.z = a.z[:p*m]
}

// Contribution returns z_j for the i-th evaluated sample.
func (a *Accumulator) Contribution(j, i int) complex128 { return a.z[j*a.m+i] }

// Total returns Σ_j z_j for the i-th evaluated sample.
func (a *Accumulator) Total(i int) complex128 {
	var z complex128
	for j := range a.p {
		z += a.z[j*a.m+i]
	}
	return z
}

// Veto computes chi-squared statistics for triggers of one filter.
type Veto struct {
	filter *filter.Filter
	bins   int
}

// New returns a veto evaluating against f's engine. bins is the sub-band
// count used when Statistic has to build its own partition; values below 2
// select DefaultBins.
func New(f *filter.Filter, bins int) *Veto {
	if bins < 2 {
		bins = DefaultBins
	}
	return &Veto{filter: f, bins: bins}
}

// Bins returns the default sub-band count.
func (v *Veto) Bins() int { return v.bins }

// evaluate fills acc with z_j at every index.
func (v *Veto) evaluate(acc *Accumulator, indices []int, res *filter.Result, part *Partition) error {
	if res == nil || res.SNR == nil {
		return fmt.Errorf("chisq: %w: nil filter result", series.ErrDimensionMismatch)
	}
	if err := part.Validate(res.Band); err != nil {
		return err
	}
	for _, n := range indices {
		if n < 0 || n >= res.SNR.Len() {
			return fmt.Errorf("chisq: %w: trigger index %d outside [0, %d)",
				series.ErrDimensionMismatch, n, res.SNR.Len())
		}
	}

	p, m := part.Bins(), len(indices)
	acc.reset(p, m)
	acc.indices = append(acc.indices, indices...)

	eng := v.filter.Engine()
	norm := complex(res.Norm, 0)
	for j := range p {
		out, err := eng.PrunedInverseAt(res.Corr, part.Band(j), indices)
		if err != nil {
			return fmt.Errorf("chisq: sub-band %d: %w", j, err)
		}
		row := acc.z[j*m : (j+1)*m]
		for i, x := range out {
			row[i] = x * norm
		}
	}
	return nil
}

// statistic reduces the i-th column of acc.
func statistic(acc *Accumulator, i int, part *Partition) (trigger.ChiSq, complex128) {
	z := acc.Total(i)
	var chi float64
	for j, f := range part.Fractions {
		r := acc.Contribution(j, i) - complex(f, 0)*z
		chi += (real(r)*real(r) + imag(r)*imag(r)) / f
	}
	p := part.Bins()
	return trigger.ChiSq{Value: chi, DOF: 2*p - 2, Bins: p}, z
}

// Compute returns the chi-squared statistic of trig against the filter
// output res.
func (v *Veto) Compute(acc *Accumulator, trig trigger.Trigger, res *filter.Result, part *Partition) (trigger.ChiSq, error) {
	if acc == nil {
		acc = NewAccumulator()
	}
	if err := v.evaluate(acc, []int{trig.Index}, res, part); err != nil {
		return trigger.ChiSq{}, err
	}
	cs, _ := statistic(acc, 0, part)
	return cs, nil
}

// Attach computes the statistic for every trigger and stores it in place.
// All triggers must come from res.
func (v *Veto) Attach(acc *Accumulator, ts []trigger.Trigger, res *filter.Result, part *Partition) error {
	if len(ts) == 0 {
		return nil
	}
	if acc == nil {
		acc = NewAccumulator()
	}
	indices := make([]int, len(ts))
	for i, t := range ts {
		indices[i] = t.Index
	}
	if err := v.evaluate(acc, indices, res, part); err != nil {
		return err
	}
	for i := range ts {
		cs, _ := statistic(acc, i, part)
		ts[i].ChiSq = &cs
	}
	return nil
}

// Statistic filters data against tmpl and returns the shape statistic
// χ²/|ρ|² at the trigger sample. It does not depend on signal amplitude and
// is near 0 for a matching signal. The conventional χ² with 2p−2 degrees of
// freedom, whose noise expectation is the DOF, is what Compute and Attach
// return and store on Trigger.ChiSq; Trigger.ShapeChiSq recovers this value
// from it. A nil part selects an equal-power partition with the veto's
// default sub-band count. The result is 0 when ρ vanishes.
func (v *Veto) Statistic(trig trigger.Trigger, data, tmpl *series.FrequencySeries, psd *series.PowerSpectrum, part *Partition) (float64, error) {
	res, err := v.filter.Run(data, tmpl, psd)
	if err != nil {
		return 0, err
	}
	if part == nil {
		if part, err = NewPartition(tmpl, psd, res.Band, v.bins); err != nil {
			return 0, err
		}
	}
	acc := NewAccumulator()
	if err := v.evaluate(acc, []int{trig.Index}, res, part); err != nil {
		return 0, err
	}
	cs, z := statistic(acc, 0, part)
	rho2 := real(z)*real(z) + imag(z)*imag(z)
	if rho2 == 0 {
		return 0, nil
	}
	return cs.Value / rho2, nil
}
