// Package events turns an SNR time series into clustered triggers.
//
// Extraction runs in two stages. [Scan] computes |ρ|² block by block with the
// SIMD power kernel and compacts the indices of samples above threshold with
// a branch-free store, so the cost is dominated by memory bandwidth rather
// than by mispredicted branches on long, mostly quiet series.
//
// The flagged indices then pass through a small state machine:
//
//	SCANNING --flag--> CANDIDATE_OPEN
//	CANDIDATE_OPEN --flag within window--> EXTEND
//	CANDIDATE_OPEN --flag beyond window--> CLOSE_AND_EMIT --> CANDIDATE_OPEN
//	end of input --> CLOSE_AND_EMIT --> SCANNING
//
// Flags whose gap is at most the cluster window chain into one cluster, and
// each cluster emits one trigger at its loudest sample (earliest on ties).
// Emitted triggers are therefore strictly time ordered and separated by more
// than the window.
package events
