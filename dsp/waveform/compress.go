package waveform

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/spectrum"
)

// Support returns the first and last non-zero bin of a dense spectrum, or
// ok=false if every bin is zero.
func Support(fs *series.FrequencySeries) (first, last int, ok bool) {
	first, last = -1, -1
	for k, v := range fs.Data {
		if v != 0 {
			if first < 0 {
				first = k
			}
			last = k
		}
	}
	return first, last, first >= 0
}

// Compress builds a sparse template from a dense spectrum. Nodes are placed
// greedily so that linear interpolation reproduces the unwrapped phase to
// within tol radians and the amplitude to within tol relative to the peak
// amplitude. Phases in the result are continuous.
func Compress(dense *series.FrequencySeries, tol float64) (*Sparse, error) {
	if dense == nil || dense.DeltaF <= 0 {
		return nil, fmt.Errorf("%w: dense template without resolution", ErrInvalidTemplate)
	}
	if tol <= 0 {
		return nil, fmt.Errorf("%w: tolerance must be positive, got %g", ErrInvalidTemplate, tol)
	}
	first, last, ok := Support(dense)
	if !ok || last == first {
		return nil, fmt.Errorf("%w: dense template needs at least 2 non-zero bins", ErrInvalidTemplate)
	}

	seg := dense.Data[first : last+1]
	amp := make([]float64, len(seg))
	peak := 0.0
	for i, v := range seg {
		amp[i] = cmplx.Abs(v)
		peak = math.Max(peak, amp[i])
	}
	phase := spectrum.UnwrapPhase(spectrum.Phase(seg))

	fits := func(a, b int) bool {
		return segmentError(phase, a, b) <= tol && segmentError(amp, a, b) <= tol*peak
	}

	nodes := []int{0}
	for start := 0; start < len(seg)-1; {
		end := farthestNode(start, len(seg)-1, fits)
		nodes = append(nodes, end)
		start = end
	}

	sp := &Sparse{
		Frequencies: make([]float64, len(nodes)),
		Amplitudes:  make([]float64, len(nodes)),
		Phases:      make([]float64, len(nodes)),
	}
	for i, j := range nodes {
		sp.Frequencies[i] = float64(first+j) * dense.DeltaF
		sp.Amplitudes[i] = amp[j]
		sp.Phases[i] = phase[j]
	}
	return sp, nil
}

// CompressAt samples a dense spectrum at the given node frequencies. Each
// node snaps to its nearest bin; the phase is unwrapped on the dense grid
// before sampling so node phases stay continuous.
func CompressAt(dense *series.FrequencySeries, nodes []float64) (*Sparse, error) {
	if dense == nil || dense.DeltaF <= 0 {
		return nil, fmt.Errorf("%w: dense template without resolution", ErrInvalidTemplate)
	}
	if len(nodes) < 2 || !strictlyIncreasing(nodes) {
		return nil, fmt.Errorf("%w: need at least 2 increasing nodes", ErrInvalidTemplate)
	}

	phase := spectrum.UnwrapPhase(spectrum.Phase(dense.Data))
	sp := &Sparse{
		Frequencies: make([]float64, 0, len(nodes)),
		Amplitudes:  make([]float64, 0, len(nodes)),
		Phases:      make([]float64, 0, len(nodes)),
	}
	prev := -1
	for _, f := range nodes {
		k := series.Bin(f, dense.DeltaF, dense.Len())
		if k == prev {
			continue
		}
		prev = k
		sp.Frequencies = append(sp.Frequencies, float64(k)*dense.DeltaF)
		sp.Amplitudes = append(sp.Amplitudes, cmplx.Abs(dense.Data[k]))
		sp.Phases = append(sp.Phases, phase[k])
	}
	if err := sp.Validate(); err != nil {
		return nil, err
	}
	return sp, nil
}

// farthestNode returns the largest end in (start, limit] accepted by fits,
// using exponential then binary search. start+1 is always accepted.
func farthestNode(start, limit int, fits func(a, b int) bool) int {
	good := start + 1
	step := 1
	for {
		next := min(start+2*step, limit)
		if next <= good || !fits(start, next) {
			break
		}
		good = next
		if next == limit {
			return good
		}
		step *= 2
	}

	bad := min(start+2*step, limit)
	if bad <= good {
		return good
	}
	for bad-good > 1 {
		mid := (good + bad) / 2
		if fits(start, mid) {
			good = mid
		} else {
			bad = mid
		}
	}
	return good
}

// segmentError is the largest deviation of y[a..b] from the straight line
// through its end points.
func segmentError(y []float64, a, b int) float64 {
	worst := 0.0
	span := float64(b - a)
	for i := a + 1; i < b; i++ {
		t := float64(i-a) / span
		line := y[a] + t*(y[b]-y[a])
		worst = math.Max(worst, math.Abs(y[i]-line))
	}
	return worst
}
