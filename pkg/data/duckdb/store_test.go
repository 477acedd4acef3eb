package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/peter-kozarec/hedgeflow/pkg/report"
	"github.com/peter-kozarec/hedgeflow/pkg/utility"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := NewStore("", "ensemble_forecasts", "hedge_decisions")
	if err := s.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Close)

	if err := s.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return s
}

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestStore_LoadEnsembles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	forecasts := []Forecast{
		{Reservoir: "upper", Day: day(1), Members: []float64{10, 12, 14}},
		{Reservoir: "upper", Day: day(2), Members: []float64{20, 22}},
		{Reservoir: "upper", Day: day(5), Members: []float64{30}},
		{Reservoir: "lower", Day: day(2), Members: []float64{99, 98}},
	}
	for _, f := range forecasts {
		if err := s.StoreForecast(ctx, f); err != nil {
			t.Fatalf("store forecast: %v", err)
		}
	}

	var got []Forecast
	err := s.LoadEnsembles(ctx, "upper", day(1), day(2), func(f Forecast) error {
		got = append(got, f)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d forecasts, want 2", len(got))
	}
	for i, want := range forecasts[:2] {
		if !got[i].Day.Equal(want.Day) || got[i].Reservoir != "upper" {
			t.Errorf("forecast %d = %+v, want day %v", i, got[i], want.Day)
		}
		if len(got[i].Members) != len(want.Members) {
			t.Fatalf("forecast %d members = %v, want %v", i, got[i].Members, want.Members)
		}
		for j := range want.Members {
			if got[i].Members[j] != want.Members[j] {
				t.Errorf("forecast %d member %d = %g, want %g", i, j, got[i].Members[j], want.Members[j])
			}
		}
	}

	days, err := s.Days(ctx, "upper", day(1), day(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(days) != 3 || !days[2].Equal(day(5)) {
		t.Errorf("Days() = %v", days)
	}
}

func TestStore_HandlerErrorStopsLoading(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for d := 1; d <= 3; d++ {
		if err := s.StoreForecast(ctx, Forecast{Reservoir: "upper", Day: day(d), Members: []float64{1, 2}}); err != nil {
			t.Fatalf("store forecast: %v", err)
		}
	}

	calls := 0
	err := s.LoadEnsembles(ctx, "upper", day(1), day(3), func(Forecast) error {
		calls++
		return bma.ErrEmptyEnsemble
	})
	if err == nil || calls != 1 {
		t.Errorf("LoadEnsembles() = %v after %d calls", err, calls)
	}
}

func TestStore_StoreDecision(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	res := kkt.Result{
		Decision:     kkt.Decision{Regime: kkt.Regime31, HoldBack: 0, Delta: 10.5},
		Distribution: bma.Distribution{Expected: 489.5, DeltaMin: 20, Q995: 530},
	}
	run := utility.CurrentRun()
	rec, err := report.NewRecord(run, "upper", day(1), res, 3)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	// Storing twice replaces the first row.
	for i := 0; i < 2; i++ {
		if err := s.StoreDecision(ctx, rec); err != nil {
			t.Fatalf("store decision: %v", err)
		}
	}
	other, _ := report.NewRecord(run, "upper", day(2), res, 3)
	if err := s.StoreDecision(ctx, other); err != nil {
		t.Fatalf("store decision: %v", err)
	}

	n, err := s.DecisionCount(ctx, "upper")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("DecisionCount() = %d, want 2", n)
	}

	var regime, delta string
	row := s.db.QueryRowContext(ctx, `SELECT regime, CAST(delta AS VARCHAR) FROM hedge_decisions WHERE id = CAST(? AS UUID)`, rec.ID.String())
	if err := row.Scan(&regime, &delta); err != nil {
		t.Fatalf("select: %v", err)
	}
	if regime != "3.1" || delta != "10.500000" {
		t.Errorf("stored regime %s delta %s", regime, delta)
	}
}
