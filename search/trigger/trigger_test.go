package trigger

import (
	"math"
	"testing"
)

func TestNewSNR(t *testing.T) {
	tests := []struct {
		name    string
		rho     float64
		reduced float64
		want    float64
	}{
		{"below one", 10, 0.5, 10},
		{"exactly one", 10, 1, 10},
		{"glitchy", 10, 3, 10 / math.Pow(14, 1.0/6.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSNR(tt.rho, tt.reduced); math.Abs(got-tt.want) > 1e-12 {
				t.Fatalf("NewSNR = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTriggerStatistics(t *testing.T) {
	tr := Trigger{SNR: 3 + 4i}
	if tr.Abs() != 5 {
		t.Fatalf("Abs = %v, want 5", tr.Abs())
	}
	if tr.ShapeChiSq() != 0 || tr.NewSNR() != 5 {
		t.Fatal("trigger without veto should have zero shape statistic and plain SNR")
	}

	tr.ChiSq = &ChiSq{Value: 50, DOF: 10, Bins: 6}
	if got := tr.ChiSq.Reduced(); got != 5 {
		t.Fatalf("Reduced = %v, want 5", got)
	}
	if got := tr.ShapeChiSq(); got != 2 {
		t.Fatalf("ShapeChiSq = %v, want 2", got)
	}
	if tr.NewSNR() >= 5 {
		t.Fatalf("NewSNR = %v should be down-weighted", tr.NewSNR())
	}
	if (ChiSq{}).Reduced() != 0 {
		t.Fatal("zero DOF should give zero reduced chi-squared")
	}
}

func TestRank(t *testing.T) {
	ts := []Trigger{
		{TemplateID: "a", Time: 3, SNR: 8},
		{TemplateID: "b", Time: 1, SNR: 12, ChiSq: &ChiSq{Value: 100, DOF: 10}},
		{TemplateID: "c", Time: 2, SNR: 9},
		{TemplateID: "d", Time: 0.5, SNR: 9},
	}
	Rank(ts)
	want := []string{"d", "c", "a", "b"}
	for i, id := range want {
		if ts[i].TemplateID != id {
			t.Fatalf("rank %d = %s, want %s (%v)", i, ts[i].TemplateID, id, ts)
		}
	}
}

func TestSortByTime(t *testing.T) {
	ts := []Trigger{
		{TemplateID: "b", Time: 2},
		{TemplateID: "a", Time: 2},
		{TemplateID: "c", Time: 1},
	}
	SortByTime(ts)
	if ts[0].TemplateID != "c" || ts[1].TemplateID != "a" || ts[2].TemplateID != "b" {
		t.Fatalf("unexpected order %v", ts)
	}
}
