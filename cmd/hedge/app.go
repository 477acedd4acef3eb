package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/peter-kozarec/hedgeflow/internal/dbg"
	"github.com/peter-kozarec/hedgeflow/pkg/config"
	"github.com/peter-kozarec/hedgeflow/pkg/data/db/psql"
	"github.com/peter-kozarec/hedgeflow/pkg/data/duckdb"
	"github.com/peter-kozarec/hedgeflow/pkg/metrics"
	"github.com/peter-kozarec/hedgeflow/pkg/models/bma"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/peter-kozarec/hedgeflow/pkg/report"
	"github.com/peter-kozarec/hedgeflow/pkg/utility"
	"go.uber.org/zap"
)

// app wires one CLI invocation: configuration, logger, store, engines and the
// run level metrics.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *duckdb.Store
	mirror   *sql.DB
	recorder *metrics.Recorder
	summary  *report.Summary
	run      utility.RunID
	engines  map[string]*kkt.Engine
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := dbg.NewLogger(cfg.Log.Mode, verbose)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		recorder: metrics.New(),
		summary:  report.NewSummary(cfg.Report.Scale),
		run:      utility.NewRun(),
		engines:  make(map[string]*kkt.Engine, len(cfg.Reservoirs)),
	}

	for _, r := range cfg.Reservoirs {
		engine, err := kkt.NewEngine(r.Model(), r.TransformLambda(),
			kkt.WithLogger(logger.With(zap.String("reservoir", r.Name))),
			kkt.WithDistributionOptions(bma.WithGridSize(r.GridSize)))
		if err != nil {
			return nil, fmt.Errorf("reservoir %q: %w", r.Name, err)
		}
		a.engines[r.Name] = engine
	}

	a.store = duckdb.NewStore(cfg.Store.DSN, cfg.Store.ForecastTable, cfg.Store.DecisionTable)
	if err := a.store.Connect(); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := a.store.EnsureSchema(ctx); err != nil {
		a.store.Close()
		return nil, err
	}

	if dsn := cfg.Mirror.Postgres; dsn != "" {
		if a.mirror, err = psql.Connect(ctx, dsn); err != nil {
			a.store.Close()
			return nil, fmt.Errorf("open mirror: %w", err)
		}
		if err := psql.EnsureDecisionTable(ctx, a.mirror, cfg.Mirror.Table); err != nil {
			a.store.Close()
			_ = a.mirror.Close()
			return nil, fmt.Errorf("mirror schema: %w", err)
		}
	}

	logger.Info("hedge started",
		zap.String("version", Version),
		zap.Stringer("run_id", a.run),
		zap.Int("reservoirs", len(cfg.Reservoirs)))
	return a, nil
}

func (a *app) close() {
	a.summary.Print(a.logger)

	if path := a.cfg.Metrics.Textfile; path != "" {
		if err := a.recorder.WriteTextfile(path); err != nil {
			a.logger.Error("metrics export failed", zap.Error(err))
		}
	}
	a.store.Close()
	if a.mirror != nil {
		_ = a.mirror.Close()
	}

	a.logger.Info("done", zap.Duration("elapsed", time.Since(utility.RunStarted(a.run))))
	_ = a.logger.Sync()
}

func (a *app) reservoirs(name string) ([]config.Reservoir, error) {
	if name == "" {
		return a.cfg.Reservoirs, nil
	}
	r, ok := a.cfg.Reservoir(name)
	if !ok {
		return nil, fmt.Errorf("unknown reservoir %q", name)
	}
	return []config.Reservoir{r}, nil
}

// decide runs one cycle and returns its record. Cycles without a feasible root
// are counted and reported, not stored.
func (a *app) decide(r config.Reservoir, f duckdb.Forecast) (report.Record, error) {
	decide := a.recorder.WithDecide(r.Name, a.engines[r.Name].Decide)

	res, err := decide(f.Members, r.Parameters())
	if err != nil {
		a.summary.Fail()
		return report.Record{}, fmt.Errorf("%s %s: %w", r.Name, f.Day.Format(time.DateOnly), err)
	}

	rec, err := report.NewRecord(a.run, r.Name, f.Day, res, a.cfg.Report.Scale)
	if err != nil {
		a.summary.Fail()
		return report.Record{}, err
	}
	if err := a.summary.Add(rec); err != nil {
		return report.Record{}, err
	}
	return rec, nil
}

func (a *app) storeDecision(ctx context.Context, rec report.Record) error {
	if err := a.store.StoreDecision(ctx, rec); err != nil {
		return err
	}
	if a.mirror == nil {
		return nil
	}
	if err := psql.InsertDecision(ctx, a.mirror, a.cfg.Mirror.Table, rec); err != nil {
		return fmt.Errorf("mirror decision %s: %w", rec.ID, err)
	}
	return nil
}

func parseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q, want YYYY-MM-DD", s)
	}
	return day, nil
}
