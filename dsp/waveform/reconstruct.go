package waveform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/spectrum"
)

// binSlack absorbs rounding when node frequencies sit exactly on bins.
const binSlack = 1e-9

type fittablePredictor interface {
	interp.Fitter
	interp.Predictor
}

func newPredictor(order Order, n int) fittablePredictor {
	if order == OrderCubic && n >= minCubicNodes {
		return &interp.AkimaSpline{}
	}
	return &interp.PiecewiseLinear{}
}

// Reconstruct expands a sparse template into a one-sided spectrum of length
// bins at resolution deltaF. Bins outside the node range are exactly zero.
// The result is freshly allocated and identical for identical inputs.
func Reconstruct(sp *Sparse, deltaF float64, bins int, order Order) (*series.FrequencySeries, error) {
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	if deltaF <= 0 || bins <= 0 {
		return nil, fmt.Errorf("%w: delta f %g, %d bins", ErrInvalidTemplate, deltaF, bins)
	}
	if order != OrderLinear && order != OrderCubic {
		return nil, fmt.Errorf("%w: unsupported order %v", ErrInvalidTemplate, order)
	}

	phases := sp.Phases
	if sp.PhaseWrapped {
		phases = spectrum.UnwrapPhase(sp.Phases)
	}

	n := sp.Len()
	amp := newPredictor(order, n)
	if err := amp.Fit(sp.Frequencies, sp.Amplitudes); err != nil {
		return nil, fmt.Errorf("%w: amplitude fit: %w", ErrInvalidTemplate, err)
	}
	phase := newPredictor(order, n)
	if err := phase.Fit(sp.Frequencies, phases); err != nil {
		return nil, fmt.Errorf("%w: phase fit: %w", ErrInvalidTemplate, err)
	}

	out := series.NewFrequencySeries(bins, deltaF, 0)
	lo, hi := sp.Support()
	kLo := int(math.Ceil(lo/deltaF - binSlack))
	kHi := min(int(math.Floor(hi/deltaF+binSlack)), bins-1)

	for k := max(kLo, 0); k <= kHi; k++ {
		f := min(max(float64(k)*deltaF, lo), hi)
		a := amp.Predict(f)
		s, c := math.Sincos(phase.Predict(f))
		out.Data[k] = complex(a*c, a*s)
	}
	return out, nil
}
