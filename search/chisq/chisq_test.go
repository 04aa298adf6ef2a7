package chisq

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/dsp/transform"
	"github.com/cwbudde/algo-cbc/internal/synth"
	"github.com/cwbudde/algo-cbc/search/filter"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

const (
	testSize   = 4096
	testRate   = 1024.0
	testDeltaF = testRate / testSize
	testBins   = testSize/2 + 1
	testFLow   = 30.0
	subBands   = 16
)

type fixture struct {
	filter *filter.Filter
	veto   *Veto
	tmpl   *series.FrequencySeries
	psd    *series.PowerSpectrum
	band   transform.Band
	part   *Partition
	sigma  float64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng, err := transform.New(testSize)
	if err != nil {
		t.Fatalf("transform.New: %v", err)
	}
	f := filter.New(eng, filter.WithLowFrequency(testFLow))
	fx := &fixture{
		filter: f,
		veto:   New(f, subBands),
		tmpl:   synth.Chirp{Mass1: 10, Mass2: 10, FLow: 40}.Frequency(testDeltaF, testBins),
		psd:    synth.InitialLIGO(testBins, testDeltaF, testFLow),
	}
	band, ok := f.SupportBand(fx.tmpl, fx.psd)
	if !ok {
		t.Fatal("template has no support")
	}
	fx.band = band
	fx.part, err = NewPartition(fx.tmpl, fx.psd, band, subBands)
	if err != nil {
		t.Fatalf("NewPartition: %v", err)
	}
	fx.sigma = synth.Sigma(fx.tmpl, fx.psd, testFLow)
	return fx
}

// inject returns h scaled to the given optimal SNR and delayed by n0 samples.
func (fx *fixture) inject(h *series.FrequencySeries, snr float64, n0 int) *series.FrequencySeries {
	return synth.Shift(h.Scaled(complex(snr/fx.sigma, 0)), float64(n0)/testRate)
}

func TestNewPartitionEqualPower(t *testing.T) {
	fx := newFixture(t)
	part := fx.part

	if part.Bins() != subBands {
		t.Fatalf("Bins = %d, want %d", part.Bins(), subBands)
	}
	if err := part.Validate(fx.band); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	var sum float64
	for j, f := range part.Fractions {
		sum += f
		if f < 0.5/subBands || f > 1.5/subBands {
			t.Errorf("fraction %d = %v, want near %v", j, f, 1.0/subBands)
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("fractions sum to %v", sum)
	}
}

func TestNewPartitionDegenerate(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name string
		band transform.Band
		bins int
	}{
		{"single band", fx.band, 1},
		{"more bands than bins", transform.Band{Lo: fx.band.Lo, Hi: fx.band.Lo + 3}, 4},
		{"empty band", transform.Band{Lo: 10, Hi: 10}, 2},
		{"no template power", transform.Band{Lo: 1000, Hi: 1100}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPartition(fx.tmpl, fx.psd, tt.band, tt.bins)
			if !errors.Is(err, ErrDegenerateBands) {
				t.Fatalf("expected ErrDegenerateBands, got %v", err)
			}
		})
	}
}

func TestPartitionValidate(t *testing.T) {
	band := transform.Band{Lo: 10, Hi: 40}
	tests := []struct {
		name string
		part *Partition
		ok   bool
	}{
		{"valid", &Partition{Edges: []int{10, 20, 40}, Fractions: []float64{0.5, 0.5}}, true},
		{"nil", nil, false},
		{"one band", &Partition{Edges: []int{10, 40}, Fractions: []float64{1}}, false},
		{"edge count", &Partition{Edges: []int{10, 40}, Fractions: []float64{0.5, 0.5}}, false},
		{"span", &Partition{Edges: []int{10, 20, 39}, Fractions: []float64{0.5, 0.5}}, false},
		{"not increasing", &Partition{Edges: []int{10, 25, 25, 40}, Fractions: []float64{0.5, 0.25, 0.25}}, false},
		{"zero power", &Partition{Edges: []int{10, 20, 40}, Fractions: []float64{1, 0}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.part.Validate(band)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrDegenerateBands) {
				t.Fatalf("expected ErrDegenerateBands, got %v", err)
			}
		})
	}
}

func TestPartitionFromEdges(t *testing.T) {
	fx := newFixture(t)
	part, err := PartitionFromEdges([]float64{10, 60, 100, 100, 5000}, fx.tmpl, fx.psd, fx.band)
	if err != nil {
		t.Fatalf("PartitionFromEdges: %v", err)
	}
	want := []int{fx.band.Lo, 240, 400, fx.band.Hi}
	if len(part.Edges) != len(want) {
		t.Fatalf("edges = %v, want %v", part.Edges, want)
	}
	for i := range want {
		if part.Edges[i] != want[i] {
			t.Fatalf("edges = %v, want %v", part.Edges, want)
		}
	}
	var sum float64
	for _, f := range part.Fractions {
		sum += f
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("fractions sum to %v", sum)
	}

	if _, err := PartitionFromEdges(nil, fx.tmpl, fx.psd, fx.band); !errors.Is(err, ErrDegenerateBands) {
		t.Fatalf("expected ErrDegenerateBands without markers, got %v", err)
	}
}

func TestContributionsSumToSNR(t *testing.T) {
	fx := newFixture(t)
	data := synth.Add(synth.GaussianNoise(fx.psd, 11, 0), fx.inject(fx.tmpl, 10, 2000))
	res, err := fx.filter.Run(data, fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	indices := []int{0, 17, 2000, 4095}
	acc := NewAccumulator()
	if err := fx.veto.evaluate(acc, indices, res, fx.part); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for i, n := range indices {
		want := res.SNR.Data[n]
		if d := cmplx.Abs(acc.Total(i) - want); d > 1e-9*math.Max(1, cmplx.Abs(want)) {
			t.Errorf("index %d: Σz_j = %v, SNR = %v", n, acc.Total(i), want)
		}
	}
}

func TestInjectionHasNoMismatch(t *testing.T) {
	fx := newFixture(t)
	const n0 = 1800
	data := fx.inject(fx.tmpl, 15, n0)

	res, err := fx.filter.Run(data, fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	trig := trigger.Trigger{Index: n0, SNR: res.SNR.Data[n0]}

	cs, err := fx.veto.Compute(NewAccumulator(), trig, res, fx.part)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if cs.DOF != 2*subBands-2 || cs.Bins != subBands {
		t.Fatalf("DOF = %d, Bins = %d", cs.DOF, cs.Bins)
	}
	if cs.Value > 1e-8 {
		t.Fatalf("χ² = %v for an exact match", cs.Value)
	}

	shape, err := fx.veto.Statistic(trig, data, fx.tmpl, fx.psd, nil)
	if err != nil {
		t.Fatalf("Statistic: %v", err)
	}
	if shape > 1e-10 {
		t.Fatalf("shape statistic = %v for an exact match", shape)
	}
}

func TestPartialMatchIsVetoed(t *testing.T) {
	fx := newFixture(t)
	const n0 = 1800
	half := subBands / 2
	cut := fx.part.Edges[half]

	glitch := fx.tmpl.Clone()
	clear(glitch.Data[cut:])
	data := fx.inject(glitch, 15, n0)

	shape, err := fx.veto.Statistic(trigger.Trigger{Index: n0}, data, fx.tmpl, fx.psd, fx.part)
	if err != nil {
		t.Fatalf("Statistic: %v", err)
	}

	var lower float64
	for _, f := range fx.part.Fractions[:half] {
		lower += f
	}
	want := (1 - lower) / lower
	if math.Abs(shape-want) > 1e-6*want {
		t.Fatalf("shape statistic = %v, want %v", shape, want)
	}

	res, err := fx.filter.Run(data, fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	trigs := []trigger.Trigger{{Index: n0, SNR: res.SNR.Data[n0]}}
	if err := fx.veto.Attach(nil, trigs, res, fx.part); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if trigs[0].NewSNR() >= trigs[0].Abs() {
		t.Fatalf("re-weighted SNR %v not below %v", trigs[0].NewSNR(), trigs[0].Abs())
	}
}

func TestShapeStatisticScaleInvariant(t *testing.T) {
	fx := newFixture(t)
	const n0 = 700
	data := synth.Add(synth.GaussianNoise(fx.psd, 5, 0), fx.inject(fx.tmpl, 9, n0))
	trig := trigger.Trigger{Index: n0}

	base, err := fx.veto.Statistic(trig, data, fx.tmpl, fx.psd, fx.part)
	if err != nil {
		t.Fatalf("Statistic: %v", err)
	}
	for _, scale := range []complex128{7, 1e-3, complex(0, 2)} {
		got, err := fx.veto.Statistic(trig, data.Scaled(scale), fx.tmpl, fx.psd, fx.part)
		if err != nil {
			t.Fatalf("Statistic: %v", err)
		}
		if math.Abs(got-base) > 1e-9*base {
			t.Errorf("scale %v: statistic %v, want %v", scale, got, base)
		}
	}
}

func TestStatisticIsShapeOfStoredChiSq(t *testing.T) {
	fx := newFixture(t)
	const n0 = 1500
	data := synth.Add(synth.GaussianNoise(fx.psd, 13, 0), fx.inject(fx.tmpl, 10, n0))
	res, err := fx.filter.Run(data, fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, n := range []int{n0, 400} {
		trig := trigger.Trigger{Index: n, SNR: res.SNR.Data[n]}
		cs, err := fx.veto.Compute(NewAccumulator(), trig, res, fx.part)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if cs.DOF != 2*subBands-2 {
			t.Fatalf("DOF = %d, want %d", cs.DOF, 2*subBands-2)
		}
		trig.ChiSq = &cs

		shape, err := fx.veto.Statistic(trig, data, fx.tmpl, fx.psd, fx.part)
		if err != nil {
			t.Fatalf("Statistic: %v", err)
		}
		want := trig.ShapeChiSq()
		if math.Abs(shape-want) > 1e-9*math.Max(1, want) {
			t.Errorf("index %d: Statistic %v, ShapeChiSq %v", n, shape, want)
		}
	}
}

func TestNoiseReducedChiSqMean(t *testing.T) {
	fx := newFixture(t)
	acc := NewAccumulator()

	var sum float64
	var count int
	for seed := int64(1); seed <= 8; seed++ {
		res, err := fx.filter.Run(synth.GaussianNoise(fx.psd, seed, 0), fx.tmpl, fx.psd)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		trigs := make([]trigger.Trigger, 0, testSize/64)
		for n := 0; n < testSize; n += 64 {
			trigs = append(trigs, trigger.Trigger{Index: n})
		}
		if err := fx.veto.Attach(acc, trigs, res, fx.part); err != nil {
			t.Fatalf("Attach: %v", err)
		}
		for _, tr := range trigs {
			sum += tr.ChiSq.Reduced()
			count++
		}
	}
	mean := sum / float64(count)
	if math.Abs(mean-1) > 0.15 {
		t.Fatalf("mean reduced χ² in noise = %v, want about 1", mean)
	}
}

func TestAttachMatchesCompute(t *testing.T) {
	fx := newFixture(t)
	data := synth.Add(synth.GaussianNoise(fx.psd, 3, 0), fx.inject(fx.tmpl, 8, 1000))
	res, err := fx.filter.Run(data, fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	trigs := []trigger.Trigger{{Index: 5}, {Index: 1000}, {Index: 3333}}
	if err := fx.veto.Attach(NewAccumulator(), trigs, res, fx.part); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	acc := NewAccumulator()
	for _, tr := range trigs {
		cs, err := fx.veto.Compute(acc, tr, res, fx.part)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if math.Abs(cs.Value-tr.ChiSq.Value) > 1e-9*math.Max(1, cs.Value) {
			t.Errorf("index %d: Attach %v, Compute %v", tr.Index, tr.ChiSq.Value, cs.Value)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	fx := newFixture(t)
	res, err := fx.filter.Run(synth.GaussianNoise(fx.psd, 1, 0), fx.tmpl, fx.psd)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := fx.veto.Compute(nil, trigger.Trigger{}, nil, fx.part); !errors.Is(err, series.ErrDimensionMismatch) {
		t.Errorf("nil result: got %v", err)
	}
	if _, err := fx.veto.Compute(nil, trigger.Trigger{Index: testSize}, res, fx.part); !errors.Is(err, series.ErrDimensionMismatch) {
		t.Errorf("index out of range: got %v", err)
	}
	other := &Partition{Edges: []int{fx.band.Lo + 1, 500, fx.band.Hi}, Fractions: []float64{0.5, 0.5}}
	if _, err := fx.veto.Compute(nil, trigger.Trigger{}, res, other); !errors.Is(err, ErrDegenerateBands) {
		t.Errorf("foreign partition: got %v", err)
	}
	if err := fx.veto.Attach(nil, nil, nil, nil); err != nil {
		t.Errorf("empty Attach: %v", err)
	}
}
