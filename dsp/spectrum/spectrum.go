package spectrum

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// blockSize bounds the scratch memory used per PowerInto call.
const blockSize = 4096

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

// PowerInto writes |in[i]|² into dst. dst must be at least as long as in.
func PowerInto(dst []float64, in []complex128) {
	if len(in) == 0 {
		return
	}
	dst = dst[:len(in)]

	n := min(len(in), blockSize)
	re, im, buf := getScratch(n)
	defer putScratch(buf)

	for start := 0; start < len(in); start += blockSize {
		end := min(start+blockSize, len(in))
		m := end - start
		for i, c := range in[start:end] {
			re[i] = real(c)
			im[i] = imag(c)
		}
		vecmath.Power(dst[start:end], re[:m], im[:m])
	}
}

// Power returns |in[i]|² for every bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	PowerInto(out, in)
	return out
}

// Phase returns the principal argument of every bin, in (-π, π].
func Phase(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}
	out := make([]float64, len(in))
	for i, c := range in {
		out[i] = cmplx.Phase(c)
	}
	return out
}

// UnwrapPhase removes 2π jumps so consecutive values differ by at most π.
func UnwrapPhase(phase []float64) []float64 {
	if len(phase) == 0 {
		return nil
	}
	out := make([]float64, len(phase))
	copy(out, phase)
	UnwrapPhaseInPlace(out)
	return out
}

// UnwrapPhaseInPlace is the in-place form of [UnwrapPhase].
func UnwrapPhaseInPlace(phase []float64) {
	offset := 0.0
	prev := 0.0
	for i, p := range phase {
		if i > 0 {
			d := p - prev
			// Whole turns, so jumps larger than 2π are also removed.
			offset -= 2 * math.Pi * math.Round(d/(2*math.Pi))
		}
		prev = p
		phase[i] = p + offset
	}
}
