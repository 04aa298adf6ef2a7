// Package search runs the full detection pipeline over a template bank.
//
// For every (segment, template) pair the Scanner materialises the template,
// runs the matched filter, extracts clustered triggers and attaches the
// chi-squared veto. Pairs are independent and run on a bounded worker pool;
// segments and PSDs are shared read-only. The result is a single list ranked
// by re-weighted SNR.
package search
