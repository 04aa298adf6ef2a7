package events

import (
	"errors"
	"math"
	"math/cmplx"
	"math/rand"
	"testing"
	"time"

	"github.com/cwbudde/algo-cbc/dsp/series"
	"github.com/cwbudde/algo-cbc/search/trigger"
)

func seriesFrom(mags []float64, delta float64) *series.ComplexTimeSeries {
	s := series.NewComplexTimeSeries(len(mags), delta, 10)
	for i, m := range mags {
		s.Data[i] = cmplx.Rect(m, 0.3*float64(i))
	}
	return s
}

func randomSeries(seed int64, n int) *series.ComplexTimeSeries {
	rng := rand.New(rand.NewSource(seed))
	s := series.NewComplexTimeSeries(n, 1.0/1024, 0)
	for i := range s.Data {
		s.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return s
}

func TestWindowSamples(t *testing.T) {
	tests := []struct {
		window time.Duration
		delta  float64
		want   int
	}{
		{0, 0.1, 0},
		{-time.Second, 0.1, 0},
		{100 * time.Millisecond, 0.1, 1},
		{250 * time.Millisecond, 0.1, 3},
		{time.Second, 1.0 / 1024, 1024},
		{time.Second, 0, 0},
	}
	for _, tt := range tests {
		if got := WindowSamples(tt.window, tt.delta); got != tt.want {
			t.Errorf("WindowSamples(%v, %v) = %d, want %d", tt.window, tt.delta, got, tt.want)
		}
	}
}

func TestScanMatchesNaive(t *testing.T) {
	s := randomSeries(3, 3*scanBlock+17)
	const thr = 2.5
	flags := Scan(s.Data, thr*thr, 5)

	var want []int
	for i, v := range s.Data {
		if cmplx.Abs(v) > thr {
			want = append(want, i+5)
		}
	}
	if flags.Len() != len(want) {
		t.Fatalf("flagged %d samples, want %d", flags.Len(), len(want))
	}
	for i := range want {
		if flags.Index[i] != want[i] {
			t.Fatalf("flag %d at %d, want %d", i, flags.Index[i], want[i])
		}
		v := s.Data[want[i]-5]
		if p := real(v)*real(v) + imag(v)*imag(v); math.Abs(flags.Power[i]-p) > 1e-12*p {
			t.Fatalf("flag %d power %v, want %v", i, flags.Power[i], p)
		}
	}
}

func TestExtractEmpty(t *testing.T) {
	clusters, err := Extract(series.NewComplexTimeSeries(0, 1, 0), 5, time.Second)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("got %d clusters from empty input", len(clusters))
	}

	trigs, err := NewExtractor(5, time.Second).Extract(nil, "t", 1)
	if err != nil || len(trigs) != 0 {
		t.Fatalf("nil series: %v, %v", trigs, err)
	}
}

func TestExtractSinglePulse(t *testing.T) {
	mags := []float64{0, 1, 6, 7, 9, 8, 6, 1, 0, 0}
	clusters, err := Extract(seriesFrom(mags, 0.1), 5, 100*time.Millisecond)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0]
	if c.Start != 2 || c.End != 6 || c.Peak != 4 || c.Size != 5 {
		t.Fatalf("cluster = %+v", c)
	}
}

func TestExtractTieBreaksEarliest(t *testing.T) {
	s := series.NewComplexTimeSeries(5, 1, 0)
	copy(s.Data, []complex128{0, 9i, 3, 9, 0})
	clusters, err := Extract(s, 1, 2*time.Second)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(clusters) != 1 || clusters[0].Peak != 1 {
		t.Fatalf("clusters = %+v, want one peaking at 1", clusters)
	}
}

func TestExtractWindowSplitsClusters(t *testing.T) {
	mags := make([]float64, 40)
	mags[5], mags[6] = 10, 12
	mags[12] = 11
	mags[30] = 20

	tests := []struct {
		name   string
		window time.Duration
		peaks  []int
	}{
		{"no clustering", 0, []int{5, 6, 12, 30}},
		{"tight", 2 * time.Second, []int{6, 12, 30}},
		{"merge first two", 6 * time.Second, []int{6, 30}},
		{"merge all", 18 * time.Second, []int{30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clusters, err := Extract(seriesFrom(mags, 1), 5, tt.window)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(clusters) != len(tt.peaks) {
				t.Fatalf("got %d clusters %+v, want peaks %v", len(clusters), clusters, tt.peaks)
			}
			for i, c := range clusters {
				if c.Peak != tt.peaks[i] {
					t.Fatalf("cluster %d peak %d, want %d", i, c.Peak, tt.peaks[i])
				}
			}
		})
	}
}

func TestExtractOrderingAndSpacing(t *testing.T) {
	windows := []time.Duration{0, time.Millisecond, 10 * time.Millisecond, 100 * time.Millisecond}
	for seed := int64(1); seed <= 5; seed++ {
		s := randomSeries(seed, 20000)
		for _, win := range windows {
			ex := NewExtractor(2.8, win)
			trigs, err := ex.Extract(s, "tmpl", 1)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(trigs) == 0 {
				t.Fatalf("seed %d window %v: no triggers", seed, win)
			}
			for i := 1; i < len(trigs); i++ {
				gap := trigs[i].Time - trigs[i-1].Time
				if gap <= 0 {
					t.Fatalf("seed %d window %v: triggers out of order at %d", seed, win, i)
				}
				if gap < win.Seconds() {
					t.Fatalf("seed %d window %v: gap %v below window", seed, win, gap)
				}
			}
			for _, tr := range trigs {
				if tr.Abs() <= 2.8 {
					t.Fatalf("trigger below threshold: %v", tr.Abs())
				}
				if tr.SNR != s.Data[tr.Index] || tr.TemplateID != "tmpl" {
					t.Fatalf("trigger does not match series: %+v", tr)
				}
			}
		}
	}
}

func TestClusterPeakIsClusterMaximum(t *testing.T) {
	s := randomSeries(9, 8192)
	const thr = 2.5
	w := 20
	flags := Scan(s.Data, thr*thr, 0)
	for _, c := range ClusterFlags(flags, w) {
		for i := c.Start; i <= c.End; i++ {
			if cmplx.Abs(s.Data[i]) > cmplx.Abs(s.Data[c.Peak]) {
				t.Fatalf("sample %d louder than peak %d in cluster %+v", i, c.Peak, c)
			}
		}
	}
}

func TestExtractZeroSeriesAnyThreshold(t *testing.T) {
	s := series.NewComplexTimeSeries(5000, 1.0/1024, 0)
	for _, thr := range []float64{-1, 0, 1e-12, 5} {
		clusters, err := Extract(s, thr, 10*time.Millisecond)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if len(clusters) != 0 {
			t.Fatalf("threshold %v: got %d clusters from zero series", thr, len(clusters))
		}
	}
}

func TestExtractThresholdAboveMaximum(t *testing.T) {
	s := randomSeries(4, 4096)
	maxAbs := 0.0
	for _, v := range s.Data {
		maxAbs = max(maxAbs, cmplx.Abs(v))
	}
	clusters, err := Extract(s, maxAbs*(1+1e-12), 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("got %d clusters at threshold = max", len(clusters))
	}
}

func TestExtractErrors(t *testing.T) {
	s := randomSeries(1, 64)
	if _, err := Extract(s, 1, -time.Second); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
	ex := NewExtractor(1, 0)
	if _, err := ex.ExtractRange(s, 10, 65, "t", 1); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestExtractRangeOffsets(t *testing.T) {
	mags := make([]float64, 100)
	mags[10] = 10
	mags[60] = 10
	s := seriesFrom(mags, 0.5)
	trigs, err := NewExtractor(5, 0).ExtractRange(s, 20, 100, "t", 2)
	if err != nil {
		t.Fatalf("ExtractRange: %v", err)
	}
	if len(trigs) != 1 || trigs[0].Index != 60 {
		t.Fatalf("triggers = %+v, want one at 60", trigs)
	}
	if trigs[0].Time != 40 || trigs[0].Sigma != 2 {
		t.Fatalf("trigger = %+v", trigs[0])
	}
}

func TestClusterTriggers(t *testing.T) {
	ts := []trigger.Trigger{
		{TemplateID: "a", Time: 1.00, SNR: 8},
		{TemplateID: "b", Time: 1.05, SNR: 10},
		{TemplateID: "c", Time: 1.08, SNR: 9},
		{TemplateID: "d", Time: 5.00, SNR: 7},
		{TemplateID: "e", Time: 5.01, SNR: 7},
	}
	got := ClusterTriggers(ts, 60*time.Millisecond, nil)
	if len(got) != 2 {
		t.Fatalf("got %d triggers, want 2: %+v", len(got), got)
	}
	if got[0].TemplateID != "b" || got[1].TemplateID != "d" {
		t.Fatalf("survivors = %s, %s; want b, d", got[0].TemplateID, got[1].TemplateID)
	}
	if ts[0].TemplateID != "a" {
		t.Fatal("input was modified")
	}
	if ClusterTriggers(nil, time.Second, nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}
