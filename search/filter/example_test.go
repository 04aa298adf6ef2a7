package filter_test

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/search/filter"
)

func ExampleFilter_Run() {
	eng, _ := transform.New(64)

	tmpl := series.NewFrequencySeries(33, 1, 0)
	for k := 8; k < 16; k++ {
		tmpl.Data[k] = 1
	}
	// The same waveform delayed by 5 samples.
	data := tmpl.Clone()
	for k := range data.Data {
		data.Data[k] *= cmplx.Rect(1, -2*math.Pi*float64(k)*5/64)
	}

	res, _ := filter.New(eng).Run(data, tmpl, series.Flat(33, 1, 1))
	best := 0
	for i, v := range res.SNR.Data {
		if cmplx.Abs(v) > cmplx.Abs(res.SNR.Data[best]) {
			best = i
		}
	}
	fmt.Printf("peak %d |snr| %.3f sigma %.3f\n", best, cmplx.Abs(res.SNR.Data[best]), res.Sigma())
	// Output:
	// peak 5 |snr| 5.657 sigma 5.657
}
