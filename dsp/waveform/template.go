package waveform

import (
	"fmt"

	"github.com/cwbudde/algo-cbc/dsp/series"
)

// Template is one bank entry. Exactly one of Dense and Sparse is set. The ID
// is an opaque key used to tag triggers.
type Template struct {
	ID     string
	Dense  *series.FrequencySeries
	Sparse *Sparse
}

// Validate checks that exactly one representation is present and well formed.
func (t *Template) Validate() error {
	switch {
	case t == nil:
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	case t.Dense != nil && t.Sparse != nil:
		return fmt.Errorf("%w: template %q has both dense and sparse data", ErrInvalidTemplate, t.ID)
	case t.Dense == nil && t.Sparse == nil:
		return fmt.Errorf("%w: template %q has no data", ErrInvalidTemplate, t.ID)
	case t.Sparse != nil:
		return t.Sparse.Validate()
	}
	return nil
}

// Materialize returns the template as a one-sided spectrum with the given
// resolution and length. Dense templates are returned as-is after a shape
// check and must not be modified; sparse templates are reconstructed.
func (t *Template) Materialize(deltaF float64, bins int, order Order) (*series.FrequencySeries, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Sparse != nil {
		return Reconstruct(t.Sparse, deltaF, bins, order)
	}
	if !series.SameResolution(t.Dense.DeltaF, deltaF) {
		return nil, fmt.Errorf("%w: template %q has delta f %g, data %g",
			series.ErrIncompatibleResolution, t.ID, t.Dense.DeltaF, deltaF)
	}
	if t.Dense.Len() != bins {
		return nil, fmt.Errorf("%w: template %q has %d bins, data %d",
			series.ErrDimensionMismatch, t.ID, t.Dense.Len(), bins)
	}
	return t.Dense, nil
}

// BandEdges returns the sub-band boundaries carried by a sparse template, or
// nil.
func (t *Template) BandEdges() []float64 {
	if t == nil || t.Sparse == nil {
		return nil
	}
	return t.Sparse.BandEdges
}
