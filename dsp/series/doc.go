// Package series provides the sampled containers shared by the search core.
//
// A data segment is carried either as a real [TimeSeries] of N samples or as
// a one-sided [FrequencySeries] of N/2+1 bins. Matched filtering produces a
// [ComplexTimeSeries] whose magnitude is the signal-to-noise ratio, and noise
// is described by a one-sided [PowerSpectrum].
//
// Values are plain structs around slices. Once a series has been handed to
// another component it is treated as read-only, so a single data segment and
// PSD can be shared by any number of concurrent filter operations.
//
// # Errors
//
// The package also owns the two shape errors used across the module:
// [ErrDimensionMismatch] for incompatible lengths and
// [ErrIncompatibleResolution] for mismatched frequency steps.
package series
