// Package trigger defines the candidate event record produced by the search
// and the ordering helpers used to rank it.
package trigger

import (
	"cmp"
	"math"
	"math/cmplx"
	"slices"
)

// ChiSq is the chi-squared veto result attached to a trigger.
type ChiSq struct {
	Value float64 // Σ_j |z_j - f_j z|² / f_j
	DOF   int     // 2p - 2 for p sub-bands
	Bins  int
}

// Reduced returns Value/DOF, or 0 when DOF is zero.
func (c ChiSq) Reduced() float64 {
	if c.DOF <= 0 {
		return 0
	}
	return c.Value / float64(c.DOF)
}

// Trigger is a candidate detection.
type Trigger struct {
	TemplateID string
	SegmentID  string
	Index      int        // sample index in the SNR series
	Time       float64    // seconds
	SNR        complex128 // complex matched-filter SNR at Index
	Sigma      float64    // template norm, sqrt(σ²)
	ChiSq      *ChiSq     // nil until the veto has run
}

// Abs returns |SNR|.
func (t Trigger) Abs() float64 { return cmplx.Abs(t.SNR) }

// Phase returns the SNR phase in radians.
func (t Trigger) Phase() float64 { return cmplx.Phase(t.SNR) }

// ShapeChiSq returns χ²/|ρ|², a measure of shape consistency that does not
// depend on the overall amplitude. It is 0 without a veto result or SNR.
func (t Trigger) ShapeChiSq() float64 {
	rho2 := real(t.SNR)*real(t.SNR) + imag(t.SNR)*imag(t.SNR)
	if t.ChiSq == nil || rho2 == 0 {
		return 0
	}
	return t.ChiSq.Value / rho2
}

// NewSNR returns the chi-squared re-weighted SNR:
//
//	ρ̂ = ρ                               if χ²_r ≤ 1
//	ρ̂ = ρ / ((1 + χ²_r³) / 2)^(1/6)     otherwise
//
// Triggers without a veto result rank by plain |ρ|.
func (t Trigger) NewSNR() float64 {
	rho := t.Abs()
	if t.ChiSq == nil {
		return rho
	}
	return NewSNR(rho, t.ChiSq.Reduced())
}

// NewSNR re-weights rho by a reduced chi-squared value.
func NewSNR(rho, reducedChiSq float64) float64 {
	if reducedChiSq <= 1 {
		return rho
	}
	return rho / math.Pow((1+math.Pow(reducedChiSq, 3))/2, 1.0/6.0)
}

// SortByTime orders triggers by time, breaking ties by template then segment.
func SortByTime(ts []Trigger) {
	slices.SortStableFunc(ts, func(a, b Trigger) int {
		return cmp.Or(
			cmp.Compare(a.Time, b.Time),
			cmp.Compare(a.TemplateID, b.TemplateID),
			cmp.Compare(a.SegmentID, b.SegmentID),
		)
	})
}

// Rank orders triggers by descending re-weighted SNR. Ties fall back to
// time order so the result is deterministic.
func Rank(ts []Trigger) {
	slices.SortStableFunc(ts, func(a, b Trigger) int {
		return cmp.Or(
			cmp.Compare(b.NewSNR(), a.NewSNR()),
			cmp.Compare(a.Time, b.Time),
			cmp.Compare(a.TemplateID, b.TemplateID),
			cmp.Compare(a.SegmentID, b.SegmentID),
		)
	})
}
