package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-cbc/dsp/spectrum"
)

func ExamplePower() {
	p := spectrum.Power([]complex128{3 + 4i, 1i})
	fmt.Printf("%.1f %.1f\n", p[0], p[1])
	// Output:
	// 25.0 1.0
}

func ExampleUnwrapPhase() {
	wrapped := []float64{2.8, -2.7, -2.6}
	unwrapped := spectrum.UnwrapPhase(wrapped)
	fmt.Printf("%.3f %.3f %.3f\n", unwrapped[0], unwrapped[1], unwrapped[2])
	// Output:
	// 2.800 3.583 3.683
}
