package waveform

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidTemplate reports a malformed template.
var ErrInvalidTemplate = errors.New("waveform: invalid template")

// Order selects the interpolation scheme used by Reconstruct.
type Order int

const (
	// OrderLinear interpolates amplitude and phase linearly between nodes.
	OrderLinear Order = iota
	// OrderCubic uses Akima splines. Templates with fewer than
	// minCubicNodes nodes fall back to linear interpolation.
	OrderCubic
)

const minCubicNodes = 5

// String returns the configuration name of the order.
func (o Order) String() string {
	switch o {
	case OrderLinear:
		return "linear"
	case OrderCubic:
		return "cubic"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder maps a configuration string to an Order. "higher" is accepted
// as an alias for cubic.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear":
		return OrderLinear, nil
	case "cubic", "higher", "akima":
		return OrderCubic, nil
	default:
		return 0, fmt.Errorf("waveform: unknown interpolation order %q", s)
	}
}

// Sparse is a compressed frequency-domain template.
type Sparse struct {
	// Frequencies are the node positions in Hz, strictly increasing. The
	// first and last node bound the template support.
	Frequencies []float64
	Amplitudes  []float64
	// Phases in radians. They are continuous across nodes unless
	// PhaseWrapped is set, in which case they are principal values and are
	// unwrapped before interpolation.
	Phases       []float64
	PhaseWrapped bool
	// BandEdges optionally carries sub-band boundaries in Hz for the
	// chi-squared veto, including both support ends.
	BandEdges []float64
}

// Validate checks the structural invariants of the sparse template.
func (s *Sparse) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil sparse template", ErrInvalidTemplate)
	}
	n := len(s.Frequencies)
	if n < 2 {
		return fmt.Errorf("%w: need at least 2 nodes, got %d", ErrInvalidTemplate, n)
	}
	if len(s.Amplitudes) != n || len(s.Phases) != n {
		return fmt.Errorf("%w: %d nodes with %d amplitudes and %d phases",
			ErrInvalidTemplate, n, len(s.Amplitudes), len(s.Phases))
	}
	if s.Frequencies[0] < 0 {
		return fmt.Errorf("%w: negative node frequency %g", ErrInvalidTemplate, s.Frequencies[0])
	}
	if !strictlyIncreasing(s.Frequencies) {
		return fmt.Errorf("%w: node frequencies not strictly increasing", ErrInvalidTemplate)
	}
	if floats.HasNaN(s.Amplitudes) || floats.HasNaN(s.Phases) {
		return fmt.Errorf("%w: NaN in amplitudes or phases", ErrInvalidTemplate)
	}
	if len(s.BandEdges) > 0 && !strictlyIncreasing(s.BandEdges) {
		return fmt.Errorf("%w: band edges not strictly increasing", ErrInvalidTemplate)
	}
	return nil
}

// Support returns the lowest and highest node frequency.
func (s *Sparse) Support() (lo, hi float64) {
	if len(s.Frequencies) == 0 {
		return 0, 0
	}
	return s.Frequencies[0], s.Frequencies[len(s.Frequencies)-1]
}

// Len returns the number of nodes.
func (s *Sparse) Len() int { return len(s.Frequencies) }

// LogNodes returns n frequencies spaced logarithmically on [lo, hi].
func LogNodes(lo, hi float64, n int) []float64 {
	if n < 2 || lo <= 0 || hi <= lo {
		return nil
	}
	return floats.LogSpan(make([]float64, n), lo, hi)
}

func strictlyIncreasing(x []float64) bool {
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) || math.IsInf(x[i], 0) {
			return false
		}
	}
	return true
}
