package transform

import (
	"fmt"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Pools of FFT plans keyed by transform size. Plans carry scratch state, so
// each concurrent caller borrows its own.
var (
	planPoolsMu sync.RWMutex
	planPools   = make(map[int]*sync.Pool)
)

func planPool(size int) *sync.Pool {
	planPoolsMu.RLock()
	pool, ok := planPools[size]
	planPoolsMu.RUnlock()
	if ok {
		return pool
	}

	planPoolsMu.Lock()
	defer planPoolsMu.Unlock()
	if pool, ok = planPools[size]; ok {
		return pool
	}
	pool = &sync.Pool{}
	planPools[size] = pool
	return pool
}

func getPlan(size int) (*algofft.Plan[complex128], error) {
	if p, ok := planPool(size).Get().(*algofft.Plan[complex128]); ok && p != nil {
		return p, nil
	}
	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("transform: failed to create FFT plan of size %d: %w", size, err)
	}
	return plan, nil
}

func putPlan(size int, plan *algofft.Plan[complex128]) {
	if plan == nil {
		return
	}
	planPool(size).Put(plan)
}
