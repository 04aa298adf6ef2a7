// Package scratch provides sync.Pool backed work buffers for the hot filter
// and scan loops. Buffers are returned zeroed and must be handed back with the
// matching Put call once the caller no longer references them.
package scratch

import "sync"

// Complex wraps a reusable complex128 slice.
type Complex struct {
	Data []complex128
}

// Real wraps a reusable float64 slice.
type Real struct {
	Data []float64
}

var (
	complexPool = sync.Pool{New: func() any { return &Complex{} }}
	realPool    = sync.Pool{New: func() any { return &Real{} }}
)

// GetComplex returns a zeroed buffer of length n.
func GetComplex(n int) *Complex {
	b := complexPool.Get().(*Complex)
	if cap(b.Data) < n {
		b.Data = make([]complex128, n)
		return b
	}
	b.Data = b.Data[:n]
	clear(b.Data)
	return b
}

// PutComplex returns b to the pool. The caller must not use b afterwards.
func PutComplex(b *Complex) {
	if b == nil {
		return
	}
	complexPool.Put(b)
}

// GetReal returns a zeroed buffer of length n.
func GetReal(n int) *Real {
	b := realPool.Get().(*Real)
	if cap(b.Data) < n {
		b.Data = make([]float64, n)
		return b
	}
	b.Data = b.Data[:n]
	clear(b.Data)
	return b
}

// PutReal returns b to the pool. The caller must not use b afterwards.
func PutReal(b *Real) {
	if b == nil {
		return
	}
	realPool.Put(b)
}
