// Package transform implements the discrete Fourier transforms used by the
// matched filter.
//
// An [Engine] is bound to one negotiated analysis length N, which must be a
// power of two. It converts real time segments into one-sided spectra and
// back, and evaluates complex inverse transforms of full-length spectra for
// the complex SNR.
//
// # Pruned inverse
//
// Templates rarely occupy the whole band up to Nyquist. When only the bins in
// a [Band] of width W are non-zero, [Engine.PrunedInverse] splits the output
// into N/Q residue classes and evaluates each with a Q-point transform, where
// Q is the next power of two at or above W. The result is the same as a full
// inverse of the masked spectrum, only cheaper:
//
//	err := eng.PrunedInverse(snr, corr, transform.Band{Lo: kmin, Hi: kmax})
//
// [Engine.PrunedInverseAt] goes further and evaluates only selected output
// samples, which is what the chi-squared veto needs at trigger times.
//
// # Conventions
//
// Forward scales by the sample spacing and Inverse by N·Δf, so a round trip
// is the identity and spectra carry continuous Fourier transform units.
// InverseComplex and the pruned variants are unnormalised:
// x[n] = Σ_k X[k]·exp(+2πikn/N).
package transform
