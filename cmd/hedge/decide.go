package main

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/data/duckdb"
	"github.com/spf13/cobra"
)

var (
	decideReservoir string
	decideDay       string
	decideMembers   []float64
	decideDryRun    bool
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Compute the hedging decision of one reservoir and day",
	Long: `Compute the hedging decision of one reservoir and day. The ensemble is read
from the forecast table unless members are given on the command line.

Examples:
  hedge decide --reservoir upper --day 2024-06-01
  hedge decide --reservoir upper --members 812,840,901,955 --dry-run`,
	RunE: runDecide,
}

func init() {
	rootCmd.AddCommand(decideCmd)

	decideCmd.Flags().StringVar(&decideReservoir, "reservoir", "", "Reservoir name from the configuration")
	decideCmd.Flags().StringVar(&decideDay, "day", time.Now().UTC().Format(time.DateOnly), "Forecast day (YYYY-MM-DD)")
	decideCmd.Flags().Float64SliceVar(&decideMembers, "members", nil, "Ensemble members, bypassing the forecast table")
	decideCmd.Flags().BoolVar(&decideDryRun, "dry-run", false, "Do not store the decision")
	_ = decideCmd.MarkFlagRequired("reservoir")
}

func runDecide(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	day, err := parseDay(decideDay)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	r, ok := a.cfg.Reservoir(decideReservoir)
	if !ok {
		return fmt.Errorf("unknown reservoir %q", decideReservoir)
	}

	forecast := duckdb.Forecast{Reservoir: r.Name, Day: day, Members: decideMembers}
	if len(forecast.Members) == 0 {
		err := a.store.LoadEnsembles(ctx, r.Name, day, day, func(f duckdb.Forecast) error {
			forecast = f
			return nil
		})
		if err != nil {
			return err
		}
		if len(forecast.Members) == 0 {
			return fmt.Errorf("no forecast for %s on %s", r.Name, decideDay)
		}
	}

	rec, err := a.decide(r, forecast)
	if err != nil {
		return err
	}
	a.logger.Info("decision", rec.Field())
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s regime=%s hold_back=%s delta=%s\n",
		rec.Reservoir, rec.Day.Format(time.DateOnly), rec.Regime, rec.HoldBack, rec.Delta)

	if decideDryRun {
		return nil
	}
	return a.storeDecision(ctx, rec)
}
