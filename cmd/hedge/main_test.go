package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/data/duckdb"
	"github.com/peter-kozarec/hedgeflow/pkg/data/mapper"
)

const testConfig = `
log:
  mode: prod
store:
  dsn: %q
metrics:
  textfile: %q
backfill:
  workers: 2
reservoirs:
  - name: upper
    ceiling: 100
    max_hold_back: 50
    risk_tolerance: 0.2
    lambda: 1
    storage:
      capacity: 10000
      weight: 0.5
    member_weights: [0.3333333, 0.3333333, 0.3333334]
    shared_std_dev: 30
`

func setup(t *testing.T) (cfgPath, dsn, prom string) {
	t.Helper()

	dir := t.TempDir()
	dsn = filepath.Join(dir, "hedge.duckdb")
	prom = filepath.Join(dir, "hedge.prom")
	cfgPath = filepath.Join(dir, "hedge.yaml")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(testConfig, dsn, prom)), 0o600); err != nil {
		t.Fatal(err)
	}

	s := duckdb.NewStore(dsn, "ensemble_forecasts", "hedge_decisions")
	if err := s.Connect(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	for d := 1; d <= 5; d++ {
		f := duckdb.Forecast{
			Reservoir: "upper",
			Day:       time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC),
			Members:   []float64{900 + float64(d), 1000, 1100},
		}
		if err := s.StoreForecast(ctx, f); err != nil {
			t.Fatal(err)
		}
	}
	return cfgPath, dsn, prom
}

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("hedge %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestMain_Backfill(t *testing.T) {
	cfgPath, dsn, prom := setup(t)

	out := execute(t, "--config", cfgPath, "backfill", "--from", "2024-06-02", "--to", "2024-06-04")
	if out != "backfill decided=3 failed=0 hold_back=0.000\n" {
		t.Errorf("unexpected output %q", out)
	}

	s := duckdb.NewStore(dsn, "ensemble_forecasts", "hedge_decisions")
	if err := s.Connect(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	n, err := s.DecisionCount(context.Background(), "upper")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("stored %d decisions, want 3", n)
	}

	b, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("metrics textfile: %v", err)
	}
	if !strings.Contains(string(b), `hedgeflow_decisions_total{regime="1.1",reservoir="upper"} 3`) {
		t.Errorf("unexpected metrics:\n%s", b)
	}
}

func TestMain_BackfillEmptyRange(t *testing.T) {
	cfgPath, _, _ := setup(t)

	out := execute(t, "--config", cfgPath, "backfill", "--from", "2025-01-01", "--to", "2025-01-31")
	if out != "backfill decided=0 failed=0 hold_back=0.000\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMain_Import(t *testing.T) {
	cfgPath, dsn, _ := setup(t)

	var records []mapper.Record
	for m, v := range []float64{880, 990, 1120} {
		records = append(records, mapper.Record{Day: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Member: m, Value: v})
	}
	archive := filepath.Join(t.TempDir(), "upper.bin")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatal(err)
	}
	if err := mapper.WriteArchive(f, records); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	execute(t, "--config", cfgPath, "import", "--archive", archive, "--reservoir", "upper")

	s := duckdb.NewStore(dsn, "ensemble_forecasts", "hedge_decisions")
	if err := s.Connect(); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	days, err := s.Days(context.Background(), "upper", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 6 {
		t.Errorf("got %d forecast days, want 6", len(days))
	}
}

func TestMain_DecideDryRun(t *testing.T) {
	cfgPath, _, _ := setup(t)

	out := execute(t, "--config", cfgPath, "decide", "--reservoir", "upper", "--members", "900,1000,1100", "--day", "2024-07-01", "--dry-run")
	if !strings.HasPrefix(out, "upper 2024-07-01 regime=1.1 hold_back=0.000") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMain_Version(t *testing.T) {
	if out := execute(t, "version"); out != "hedge dev\n" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestMain_ParseDay(t *testing.T) {
	day, err := parseDay("2024-02-29")
	if err != nil || !day.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("parseDay() = %v, %v", day, err)
	}
	if _, err := parseDay("29.02.2024"); err == nil {
		t.Errorf("expected error")
	}
}
