package transform

import (
	"fmt"
	"math/bits"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/internal/scratch"
)

// minPrunedSize is the smallest inner transform used by the pruned inverse.
const minPrunedSize = 16

// Band is a half-open range [Lo, Hi) of frequency bins.
type Band struct {
	Lo, Hi int
}

// Width returns the number of bins in the band.
func (b Band) Width() int {
	if b.Hi <= b.Lo {
		return 0
	}
	return b.Hi - b.Lo
}

// Contains reports whether bin k lies in the band.
func (b Band) Contains(k int) bool { return k >= b.Lo && k < b.Hi }

func (e *Engine) checkBand(b Band) error {
	if b.Lo < 0 || b.Hi > e.size || b.Lo > b.Hi {
		return fmt.Errorf("%w: [%d, %d) for size %d", ErrInvalidBand, b.Lo, b.Hi, e.size)
	}
	return nil
}

// PrunedSize returns the inner transform length used for a band, or N when
// pruning would not save work.
func (e *Engine) PrunedSize(b Band) int {
	q := max(nextPowerOf2(b.Width()), minPrunedSize)
	if q >= e.size {
		return e.size
	}
	return q
}

// PrunedInverse computes the unnormalised inverse DFT of src restricted to
// band: bins outside the band are treated as zero and never read. The result
// equals InverseComplex applied to the masked spectrum.
//
// With Q = PrunedSize(band) the cost is (N/Q) transforms of size Q, i.e.
// N·log2(Q) instead of N·log2(N).
func (e *Engine) PrunedInverse(dst, src []complex128, band Band) error {
	if len(dst) != e.size || len(src) != e.size {
		return fmt.Errorf("%w: got dst %d, src %d, engine expects %d",
			series.ErrDimensionMismatch, len(dst), len(src), e.size)
	}
	if err := e.checkBand(band); err != nil {
		return err
	}

	w := band.Width()
	if w == 0 {
		clear(dst)
		return nil
	}

	q := e.PrunedSize(band)
	if q == e.size {
		masked := scratch.GetComplex(e.size)
		defer scratch.PutComplex(masked)
		copy(masked.Data[band.Lo:band.Hi], src[band.Lo:band.Hi])
		return inverseUnnormalized(e.size, dst, masked.Data)
	}

	p := e.size / q
	buf := scratch.GetComplex(q)
	defer scratch.PutComplex(buf)

	plan, err := getPlan(q)
	if err != nil {
		return err
	}
	defer putPlan(q, plan)

	for r := 0; r < p; r++ {
		if err := e.residue(plan, buf.Data, src, band, q, r); err != nil {
			return err
		}
		for j, v := range buf.Data {
			n := p*j + r
			dst[n] = e.twiddle[(band.Lo*n)&(e.size-1)] * v
		}
	}
	return nil
}

// residue evaluates the Q-point transform for output samples n ≡ r (mod N/Q).
// buf receives Σ_m src[lo+m]·ω_N^{mr}·ω_Q^{mj} for j in [0, Q).
func (e *Engine) residue(plan *algofft.Plan[complex128], buf, src []complex128, band Band, q, r int) error {
	mask := e.size - 1
	w := band.Width()
	for m := 0; m < w; m++ {
		buf[m] = src[band.Lo+m] * e.twiddle[(m*r)&mask]
	}
	clear(buf[w:])

	if err := plan.Inverse(buf, buf); err != nil {
		return fmt.Errorf("transform: pruned inverse FFT failed: %w", err)
	}
	scale := complex(float64(q), 0)
	for j := range buf {
		buf[j] *= scale
	}
	return nil
}

// PrunedInverseAt evaluates the pruned inverse of src over band only at the
// given output indices. out[i] corresponds to indices[i].
//
// Few points are summed directly at a cost of W per point; larger requests
// share one Q-point transform per distinct residue class.
func (e *Engine) PrunedInverseAt(src []complex128, band Band, indices []int) ([]complex128, error) {
	if len(src) != e.size {
		return nil, fmt.Errorf("%w: src has %d bins, engine expects %d",
			series.ErrDimensionMismatch, len(src), e.size)
	}
	if err := e.checkBand(band); err != nil {
		return nil, err
	}
	for _, n := range indices {
		if n < 0 || n >= e.size {
			return nil, fmt.Errorf("%w: output index %d outside [0, %d)", series.ErrDimensionMismatch, n, e.size)
		}
	}

	out := make([]complex128, len(indices))
	if len(indices) == 0 || band.Width() == 0 {
		return out, nil
	}

	q := e.PrunedSize(band)
	p := e.size / q
	residues := make(map[int][]int)
	for i, n := range indices {
		r := n % p
		residues[r] = append(residues[r], i)
	}

	directCost := len(indices) * band.Width()
	fftCost := len(residues) * q * (bits.Len(uint(q)) + 1)
	if q == e.size || directCost <= fftCost {
		for i, n := range indices {
			out[i] = e.directSum(src, band, n)
		}
		return out, nil
	}

	buf := scratch.GetComplex(q)
	defer scratch.PutComplex(buf)
	plan, err := getPlan(q)
	if err != nil {
		return nil, err
	}
	defer putPlan(q, plan)

	mask := e.size - 1
	for r, members := range residues {
		if err := e.residue(plan, buf.Data, src, band, q, r); err != nil {
			return nil, err
		}
		for _, i := range members {
			n := indices[i]
			out[i] = e.twiddle[(band.Lo*n)&mask] * buf.Data[n/p]
		}
	}
	return out, nil
}

// directSum returns Σ_{k∈band} src[k]·exp(+2πikn/N).
func (e *Engine) directSum(src []complex128, band Band, n int) complex128 {
	mask := e.size - 1
	var acc complex128
	for k := band.Lo; k < band.Hi; k++ {
		acc += src[k] * e.twiddle[(k*n)&mask]
	}
	return acc
}
