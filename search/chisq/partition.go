package chisq

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/spectrum"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/internal/scratch"
)

// ErrDegenerateBands is returned when a partition cannot support the veto.
var ErrDegenerateBands = errors.New("chisq: degenerate sub-band partition")

// Partition splits a band into contiguous sub-bands.
type Partition struct {
	// Edges has p+1 strictly increasing bin indices; sub-band j is
	// [Edges[j], Edges[j+1]).
	Edges []int
	// Fractions holds the expected share of the template norm per sub-band.
	Fractions []float64
}

// Bins returns the number of sub-bands.
func (p *Partition) Bins() int { return len(p.Fractions) }

// Band returns sub-band j.
func (p *Partition) Band(j int) transform.Band {
	return transform.Band{Lo: p.Edges[j], Hi: p.Edges[j+1]}
}

// Validate checks that the partition spans band exactly, has at least two
// sub-bands and that every sub-band carries template power.
func (p *Partition) Validate(band transform.Band) error {
	if p == nil {
		return fmt.Errorf("%w: nil partition", ErrDegenerateBands)
	}
	n := len(p.Fractions)
	if n < 2 {
		return fmt.Errorf("%w: %d sub-bands, need at least 2", ErrDegenerateBands, n)
	}
	if len(p.Edges) != n+1 {
		return fmt.Errorf("%w: %d edges for %d sub-bands", ErrDegenerateBands, len(p.Edges), n)
	}
	if p.Edges[0] != band.Lo || p.Edges[n] != band.Hi {
		return fmt.Errorf("%w: partition spans [%d, %d), band is [%d, %d)",
			ErrDegenerateBands, p.Edges[0], p.Edges[n], band.Lo, band.Hi)
	}
	for j := 1; j <= n; j++ {
		if p.Edges[j] <= p.Edges[j-1] {
			return fmt.Errorf("%w: edges not increasing at %d", ErrDegenerateBands, j)
		}
	}
	for j, f := range p.Fractions {
		if !(f > 0) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: sub-band %d has fraction %g", ErrDegenerateBands, j, f)
		}
	}
	return nil
}

// NewPartition splits band into bins sub-bands of approximately equal
// template power |h|²/S.
func NewPartition(tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band, bins int) (*Partition, error) {
	if err := checkInputs(tmpl, psd, band); err != nil {
		return nil, err
	}
	if bins < 2 || bins > band.Width() {
		return nil, fmt.Errorf("%w: %d sub-bands over %d bins", ErrDegenerateBands, bins, band.Width())
	}

	w := band.Width()
	d := scratch.GetReal(w)
	defer scratch.PutReal(d)
	density(d.Data, tmpl, psd, band)

	cum := make([]float64, w)
	floats.CumSum(cum, d.Data)
	total := cum[w-1]
	if !(total > 0) {
		return nil, fmt.Errorf("%w: template has no power in [%d, %d)", ErrDegenerateBands, band.Lo, band.Hi)
	}

	edges := make([]int, bins+1)
	edges[0], edges[bins] = band.Lo, band.Hi
	for j := 1; j < bins; j++ {
		target := total * float64(j) / float64(bins)
		i := sort.SearchFloat64s(cum, target)
		// Split after bin i unless stopping before it lands closer.
		e := i + 1
		if i > 0 && target-cum[i-1] < cum[i]-target {
			e = i
		}
		edges[j] = max(band.Lo+e, edges[j-1]+1)
		if edges[j] >= band.Hi {
			return nil, fmt.Errorf("%w: cannot place %d sub-bands", ErrDegenerateBands, bins)
		}
	}

	part := &Partition{Edges: edges, Fractions: fractions(cum, edges, band.Lo, total)}
	if err := part.Validate(band); err != nil {
		return nil, err
	}
	return part, nil
}

// PartitionFromEdges builds a partition from frequency markers in Hz, such
// as the band edges carried by a sparse template. Markers outside band are
// ignored; band's own limits are always used as the outer edges.
func PartitionFromEdges(freqEdges []float64, tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) (*Partition, error) {
	if err := checkInputs(tmpl, psd, band); err != nil {
		return nil, err
	}

	edges := []int{band.Lo}
	for _, f := range freqEdges {
		k := int(math.Round(f / tmpl.DeltaF))
		if k > band.Lo && k < band.Hi {
			edges = append(edges, k)
		}
	}
	edges = append(edges, band.Hi)
	slices.Sort(edges)
	edges = slices.Compact(edges)

	w := band.Width()
	d := scratch.GetReal(w)
	defer scratch.PutReal(d)
	density(d.Data, tmpl, psd, band)
	cum := make([]float64, w)
	floats.CumSum(cum, d.Data)

	part := &Partition{Edges: edges, Fractions: fractions(cum, edges, band.Lo, cum[w-1])}
	if err := part.Validate(band); err != nil {
		return nil, err
	}
	return part, nil
}

func checkInputs(tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) error {
	if tmpl == nil || psd == nil {
		return fmt.Errorf("chisq: %w: nil input", series.ErrDimensionMismatch)
	}
	if err := series.CheckCompatible(tmpl, psd); err != nil {
		return fmt.Errorf("chisq: %w", err)
	}
	if band.Lo < 0 || band.Hi > tmpl.Len() || band.Width() == 0 {
		return fmt.Errorf("%w: band [%d, %d) of %d bins", ErrDegenerateBands, band.Lo, band.Hi, tmpl.Len())
	}
	return nil
}

// density writes |h|²/S over band, 0 where the PSD is invalid.
func density(dst []float64, tmpl *series.FrequencySeries, psd *series.PowerSpectrum, band transform.Band) {
	spectrum.PowerInto(dst, tmpl.Data[band.Lo:band.Hi])
	inv := scratch.GetReal(len(dst))
	defer scratch.PutReal(inv)
	for i, k := 0, band.Lo; k < band.Hi; i, k = i+1, k+1 {
		if psd.Valid(k) {
			inv.Data[i] = 1 / psd.Data[k]
		}
	}
	vecmath.MulBlockInPlace(dst, inv.Data)
}

// fractions returns the share of total in each sub-band given the cumulative
// density starting at bin lo.
func fractions(cum []float64, edges []int, lo int, total float64) []float64 {
	out := make([]float64, len(edges)-1)
	if !(total > 0) {
		return out
	}
	below := func(e int) float64 {
		if e <= lo {
			return 0
		}
		return cum[e-lo-1]
	}
	for j := range out {
		out[j] = (below(edges[j+1]) - below(edges[j])) / total
	}
	return out
}
