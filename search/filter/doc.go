// Package filter implements the frequency-domain matched filter.
//
// For a one-sided data spectrum d, template h and noise PSD S, the filter
// forms the correlation
//
//	q̃[k] = d[k]·conj(h[k]) / S[k]
//
// over the template band, inverse transforms it (pruned when the band is
// narrow) and normalises by the template norm σ² = 4Δf Σ |h[k]|²/S[k], so
// that the complex SNR has unit variance per quadrature in Gaussian noise.
//
// Bins where the PSD is zero, negative or not finite are masked out: they
// behave as infinite noise and contribute nothing to σ² or to the SNR.
//
// # Usage
//
//	eng, _ := transform.New(n)
//	f := filter.New(eng, filter.WithLowFrequency(20))
//	res, err := f.Run(data, tmpl, psd)
//	// res.SNR is the complex SNR time series, res.Corr feeds the veto.
//
// A Filter holds no per-call state and is safe for concurrent use; each Run
// returns buffers owned by the caller.
package filter
