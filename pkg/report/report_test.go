package report

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/peter-kozarec/hedgeflow/pkg/utility"
)

func TestVolume_NewVolume(t *testing.T) {
	tests := []struct {
		x     float64
		scale int
		want  string
	}{
		{x: 12.34567, scale: 3, want: "12.346"},
		{x: 1.5, scale: 3, want: "1.500"},
		{x: -100, scale: 2, want: "-100.00"},
		{x: 2.5, scale: 0, want: "2"},
		{x: 0, scale: 1, want: "0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			v, err := NewVolume(tt.x, tt.scale)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v.String() != tt.want {
				t.Errorf("NewVolume(%g, %d) = %s, want %s", tt.x, tt.scale, v, tt.want)
			}
			if v.Scale() != tt.scale {
				t.Errorf("Scale() = %d, want %d", v.Scale(), tt.scale)
			}
		})
	}
}

func TestVolume_NonFinite(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := NewVolume(x, 3); err == nil {
			t.Errorf("NewVolume(%g) expected error", x)
		}
	}
}

func TestVolume_Arithmetic(t *testing.T) {
	a := MustVolume(10.25, 2)
	b := MustVolume(0.75, 2)

	sum, err := a.Add(b)
	if err != nil || sum.String() != "11.00" {
		t.Errorf("Add() = %s, %v", sum, err)
	}
	neg, err := b.Add(MustVolume(-10.25, 2))
	if err != nil || neg.String() != "-9.50" {
		t.Errorf("Add() = %s, %v", neg, err)
	}
	if value, err := a.Value(); err != nil || value != "10.25" {
		t.Errorf("Value() = %v, %v", value, err)
	}
}

func sampleResult() kkt.Result {
	return kkt.Result{
		Decision: kkt.Decision{Regime: kkt.Regime22, HoldBack: 30.12345, Delta: 19.87655},
		Distribution: bma.Distribution{
			Expected: 450.0004,
			DeltaMin: 19.87655,
			Q995:     480.5,
			Degraded: true,
		},
		Fit: kkt.Fit{Degenerate: false},
	}
}

func TestRecord_NewRecord(t *testing.T) {
	run := utility.CurrentRun()
	day := time.Date(2024, 6, 1, 15, 30, 0, 0, time.UTC)

	rec, err := NewRecord(run, "upper", day, sampleResult(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.ID != utility.DecisionID(run, "upper", day) {
		t.Errorf("unexpected record id %s", rec.ID)
	}
	if !rec.Day.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Day = %v, want midnight", rec.Day)
	}
	if rec.Regime != kkt.Regime22 || !rec.Degraded || rec.DegenerateFit {
		t.Errorf("unexpected flags: %+v", rec)
	}

	want := map[string]Volume{
		"450.000": rec.Expected,
		"19.877":  rec.DeltaMin,
		"480.500": rec.Q995,
		"30.123":  rec.HoldBack,
	}
	for s, v := range want {
		if v.String() != s {
			t.Errorf("volume = %s, want %s", v, s)
		}
	}
	if rec.Delta.String() != "19.877" {
		t.Errorf("Delta = %s", rec.Delta)
	}
}

func TestRecord_RejectsNaN(t *testing.T) {
	res := sampleResult()
	res.HoldBack = math.NaN()
	if _, err := NewRecord(utility.CurrentRun(), "upper", time.Now(), res, 3); err == nil {
		t.Errorf("expected error for NaN hold back")
	}
}

func TestSummary_Add(t *testing.T) {
	s := NewSummary(3)
	rec, err := NewRecord(utility.CurrentRun(), "upper", time.Now(), sampleResult(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Add(rec); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	s.Fail()

	if s.Decisions() != 10 || s.Failures() != 1 {
		t.Errorf("counts = %d/%d", s.Decisions(), s.Failures())
	}
	if got := s.TotalHoldBack().String(); got != "301.230" {
		t.Errorf("TotalHoldBack() = %s, want 301.230", got)
	}
}
