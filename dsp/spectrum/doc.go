// Package spectrum provides element-wise kernels over complex bins.
//
// [PowerInto] is the vectorised |x|² kernel used by the threshold scan and by
// template normalisation. It splits complex input into pooled real and
// imaginary scratch blocks and hands them to the SIMD kernels of algo-vecmath,
// so steady-state calls do not allocate.
//
// [Phase] and [UnwrapPhase] support the sparse template representation, where
// phase must be continuous across frequency nodes.
package spectrum
