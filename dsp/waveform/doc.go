// Package waveform handles frequency-domain templates.
//
// A [Template] is either dense, a full-resolution one-sided spectrum, or
// sparse, amplitude and phase samples at a reduced set of frequency nodes.
// Sparse templates are what large banks store; [Reconstruct] expands them to
// the analysis resolution on demand:
//
//	dense, err := waveform.Reconstruct(sp, deltaF, bins, waveform.OrderLinear)
//
// Reconstruction is a pure function returning a newly allocated series.
// Nothing is cached; callers that filter one template against many segments
// decide themselves whether to keep the result.
//
// [Compress] is the inverse operation. It places nodes adaptively so that
// linear interpolation of amplitude and unwrapped phase stays within a
// tolerance of the dense input.
package waveform
