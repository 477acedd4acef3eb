package main

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/config"
	"github.com/peter-kozarec/hedgeflow/pkg/data/duckdb"
	"github.com/peter-kozarec/hedgeflow/pkg/models/kkt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	backfillReservoir string
	backfillFrom      string
	backfillTo        string
	backfillWorkers   int
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Recompute decisions for every stored forecast day in a range",
	Long: `Recompute decisions for every stored forecast day in a range. Days are decided
in parallel; a day without a feasible root is logged and skipped.

Examples:
  hedge backfill --from 2024-01-01 --to 2024-06-30
  hedge backfill --reservoir upper --from 2024-06-01 --to 2024-06-30 --workers 8`,
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)

	backfillCmd.Flags().StringVar(&backfillReservoir, "reservoir", "", "Reservoir name (default: all configured)")
	backfillCmd.Flags().StringVar(&backfillFrom, "from", "", "First forecast day (YYYY-MM-DD)")
	backfillCmd.Flags().StringVar(&backfillTo, "to", "", "Last forecast day (YYYY-MM-DD)")
	backfillCmd.Flags().IntVar(&backfillWorkers, "workers", 0, "Parallel decisions (default: backfill.workers)")
	_ = backfillCmd.MarkFlagRequired("from")
	_ = backfillCmd.MarkFlagRequired("to")
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	from, err := parseDay(backfillFrom)
	if err != nil {
		return err
	}
	to, err := parseDay(backfillTo)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("range ends before it starts: %s > %s", backfillFrom, backfillTo)
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	reservoirs, err := a.reservoirs(backfillReservoir)
	if err != nil {
		return err
	}

	workers := backfillWorkers
	if workers <= 0 {
		workers = a.cfg.Backfill.Workers
	}

	for _, r := range reservoirs {
		if err := a.backfill(ctx, r, from, to, workers); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "backfill decided=%d failed=%d hold_back=%s\n",
		a.summary.Decisions(), a.summary.Failures(), a.summary.TotalHoldBack())
	return nil
}

func (a *app) backfill(ctx context.Context, r config.Reservoir, from, to time.Time, workers int) error {
	days, err := a.store.Days(ctx, r.Name, from, to)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		a.logger.Warn("no forecasts in range", zap.String("reservoir", r.Name),
			zap.Time("from", from), zap.Time("to", to))
		return nil
	}
	a.logger.Info("backfill", zap.String("reservoir", r.Name), zap.Int("days", len(days)),
		zap.Time("first", days[0]), zap.Time("last", days[len(days)-1]))

	var forecasts []duckdb.Forecast
	err = a.store.LoadEnsembles(ctx, r.Name, from, to, func(f duckdb.Forecast) error {
		forecasts = append(forecasts, f)
		return nil
	})
	if err != nil {
		return err
	}

	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, f := range forecasts {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			defer func() {
				a.logger.Debug("backfill progress", zap.String("reservoir", r.Name),
					zap.Int64("done", done.Add(1)), zap.Int("days", len(days)))
			}()

			rec, err := a.decide(r, f)
			var noRoot *kkt.NoFeasibleRootError
			if errors.As(err, &noRoot) {
				a.logger.Warn("no feasible hold back", zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}
			a.logger.Debug("decision", rec.Field())
			return a.storeDecision(ctx, rec)
		})
	}
	return g.Wait()
}
