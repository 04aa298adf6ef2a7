package events

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

var (
	// ErrInvalidWindow is returned for negative cluster windows.
	ErrInvalidWindow = errors.New("events: cluster window must not be negative")
	// ErrInvalidRange is returned when an extraction range lies outside the series.
	ErrInvalidRange = errors.New("events: invalid sample range")
)

// Cluster is a run of flagged samples whose gaps do not exceed the window.
type Cluster struct {
	Start, End int // first and last flagged sample, inclusive
	Peak       int // loudest sample
	Power      float64
	Size       int // number of flagged samples
}

type state int

const (
	scanning state = iota
	candidateOpen
)

// WindowSamples converts a cluster window into whole samples, rounding up so
// that the separation guarantee holds in time.
func WindowSamples(window time.Duration, delta float64) int {
	if window <= 0 || delta <= 0 {
		return 0
	}
	w := window.Seconds() / delta
	// Guard against 0.1s/0.1s evaluating to 1.0000000000000002.
	return int(math.Ceil(w - 1e-9))
}

// ClusterFlags groups flagged samples. Consecutive flags belong to one
// cluster when their index gap is at most w.
func ClusterFlags(flags Flags, w int) []Cluster {
	var out []Cluster
	st := scanning
	var cur Cluster

	for i, n := range flags.Index {
		p := flags.Power[i]
		switch st {
		case scanning:
			cur = Cluster{Start: n, End: n, Peak: n, Power: p, Size: 1}
			st = candidateOpen
		case candidateOpen:
			if n-cur.End <= w {
				cur.End = n
				cur.Size++
				if p > cur.Power {
					cur.Peak, cur.Power = n, p
				}
				continue
			}
			out = append(out, cur)
			cur = Cluster{Start: n, End: n, Peak: n, Power: p, Size: 1}
		}
	}
	if st == candidateOpen {
		out = append(out, cur)
	}
	return out
}

// Extract scans an SNR series and returns one cluster per candidate event.
// An empty series yields no clusters.
func Extract(snr *series.ComplexTimeSeries, threshold float64, window time.Duration) ([]Cluster, error) {
	if snr == nil {
		return nil, nil
	}
	return extractRange(snr, 0, snr.Len(), threshold, window)
}

func extractRange(snr *series.ComplexTimeSeries, start, stop int, threshold float64, window time.Duration) ([]Cluster, error) {
	if window < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWindow, window)
	}
	if start < 0 || stop > snr.Len() || start > stop {
		return nil, fmt.Errorf("%w: [%d, %d) of %d", ErrInvalidRange, start, stop, snr.Len())
	}
	if start == stop {
		return nil, nil
	}
	flags := Scan(snr.Data[start:stop], PowerThreshold(threshold), start)
	return ClusterFlags(flags, WindowSamples(window, snr.Delta)), nil
}

// Extractor bundles the extraction settings for repeated use.
type Extractor struct {
	Threshold float64
	Window    time.Duration
}

// NewExtractor returns an extractor with the given SNR threshold and cluster
// window.
func NewExtractor(threshold float64, window time.Duration) *Extractor {
	return &Extractor{Threshold: threshold, Window: window}
}

// Extract returns time-ordered triggers for the whole series.
func (e *Extractor) Extract(snr *series.ComplexTimeSeries, templateID string, sigma float64) ([]trigger.Trigger, error) {
	if snr == nil {
		return nil, nil
	}
	return e.ExtractRange(snr, 0, snr.Len(), templateID, sigma)
}

// ExtractRange is Extract limited to samples [start, stop).
func (e *Extractor) ExtractRange(snr *series.ComplexTimeSeries, start, stop int, templateID string, sigma float64) ([]trigger.Trigger, error) {
	clusters, err := extractRange(snr, start, stop, e.Threshold, e.Window)
	if err != nil {
		return nil, err
	}
	return Triggers(snr, clusters, templateID, sigma), nil
}

// Triggers converts clusters into trigger records.
func Triggers(snr *series.ComplexTimeSeries, clusters []Cluster, templateID string, sigma float64) []trigger.Trigger {
	if len(clusters) == 0 {
		return nil
	}
	out := make([]trigger.Trigger, len(clusters))
	for i, c := range clusters {
		out[i] = trigger.Trigger{
			TemplateID: templateID,
			Index:      c.Peak,
			Time:       snr.TimeAt(c.Peak),
			SNR:        snr.Data[c.Peak],
			Sigma:      sigma,
		}
	}
	return out
}
