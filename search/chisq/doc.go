// Package chisq implements the frequency-band chi-squared veto.
//
// The template's usable band is split into p sub-bands carrying equal
// expected SNR² (the fractions f_j). At a trigger sample n the matched filter
// output is decomposed into per-band contributions z_j, each obtained from a
// pruned inverse transform evaluated only at n. For a true signal z_j ≈ f_j·z
// with z = Σ z_j; the statistic
//
//	χ² = Σ_j |z_j - f_j·z|² / f_j
//
// follows a χ² distribution with 2p-2 degrees of freedom in Gaussian noise
// and grows with |z|² when the data only partially resembles the template.
// The ratio χ²/|z|² is independent of the data amplitude and is what
// Veto.Statistic reports.
package chisq
