package events

import (
	"github.com/cwbudde/algo-cbc/dsp/spectrum"
	"github.com/cwbudde/algo-cbc/internal/scratch"
)

// scanBlock is the number of samples processed per power/compaction pass.
const scanBlock = 4096

// Flags holds the compacted above-threshold samples of a scan.
type Flags struct {
	Index []int     // sample indices, increasing
	Power []float64 // |ρ|² at each index
}

// Len returns the number of flagged samples.
func (f Flags) Len() int { return len(f.Index) }

// PowerThreshold converts an SNR threshold into the |ρ|² cut used by Scan.
// Non-positive thresholds still require a non-zero sample.
func PowerThreshold(threshold float64) float64 {
	if threshold <= 0 {
		return 0
	}
	return threshold * threshold
}

// Scan flags every sample of data with |x|² > thr2. Indices are reported
// relative to data plus offset.
func Scan(data []complex128, thr2 float64, offset int) Flags {
	var out Flags
	if len(data) == 0 {
		return out
	}

	n := min(len(data), scanBlock)
	pw := scratch.GetReal(n)
	defer scratch.PutReal(pw)
	vals := scratch.GetReal(n + 1)
	defer scratch.PutReal(vals)
	idx := make([]int, n+1)

	for start := 0; start < len(data); start += scanBlock {
		end := min(start+scanBlock, len(data))
		block := pw.Data[:end-start]
		spectrum.PowerInto(block, data[start:end])

		m := compact(idx, vals.Data, block, thr2, offset+start)
		if m == 0 {
			continue
		}
		out.Index = append(out.Index, idx[:m]...)
		out.Power = append(out.Power, vals.Data[:m]...)
	}
	return out
}

// compact writes base+i and power[i] for every power[i] > thr2 to the front
// of idx and vals, returning the count. idx and vals need len(power)+1 slots.
func compact(idx []int, vals, power []float64, thr2 float64, base int) int {
	m := 0
	for i, p := range power {
		idx[m] = base + i
		vals[m] = p
		m += b2i(p > thr2)
	}
	return m
}

func b2i(b bool) int {
	var i int
	if b {
		i = 1
	}
	return i
}
