package series

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrDimensionMismatch reports arrays whose lengths do not agree.
	ErrDimensionMismatch = errors.New("series: dimension mismatch")
	// ErrIncompatibleResolution reports frequency series with different steps.
	ErrIncompatibleResolution = errors.New("series: incompatible frequency resolution")
)

// resolutionTolerance is the relative slack allowed between two frequency steps.
const resolutionTolerance = 1e-9

// SameResolution reports whether two frequency steps agree to within a relative
// tolerance of 1e-9.
func SameResolution(a, b float64) bool {
	if a == b {
		return true
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= resolutionTolerance*largest
}

// CheckCompatible verifies that every frequency series has the length and
// step of ref. The PSD may be nil.
func CheckCompatible(ref *FrequencySeries, psd *PowerSpectrum, others ...*FrequencySeries) error {
	if ref == nil {
		return fmt.Errorf("%w: nil reference series", ErrDimensionMismatch)
	}
	for _, o := range others {
		if o == nil {
			return fmt.Errorf("%w: nil series", ErrDimensionMismatch)
		}
		if !SameResolution(ref.DeltaF, o.DeltaF) {
			return fmt.Errorf("%w: delta f %g vs %g", ErrIncompatibleResolution, ref.DeltaF, o.DeltaF)
		}
		if len(o.Data) != len(ref.Data) {
			return fmt.Errorf("%w: %d vs %d bins", ErrDimensionMismatch, len(o.Data), len(ref.Data))
		}
	}
	if psd != nil {
		if !SameResolution(ref.DeltaF, psd.DeltaF) {
			return fmt.Errorf("%w: psd delta f %g vs %g", ErrIncompatibleResolution, psd.DeltaF, ref.DeltaF)
		}
		if len(psd.Data) != len(ref.Data) {
			return fmt.Errorf("%w: psd has %d bins, want %d", ErrDimensionMismatch, len(psd.Data), len(ref.Data))
		}
	}
	return nil
}
