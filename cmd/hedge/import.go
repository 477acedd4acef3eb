package main

import (
	"fmt"
	"time"

	"github.com/peter-kozarec/hedgeflow/pkg/data/duckdb"
	"github.com/peter-kozarec/hedgeflow/pkg/data/mapper"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importArchive   string
	importReservoir string
	importFrom      string
	importTo        string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a binary ensemble archive into the forecast table",
	Long: `Load a binary ensemble archive into the forecast table. The archive holds
24 byte records (day, member, value) ordered by day and member.

Examples:
  hedge import --archive upper_2024.bin --reservoir upper
  hedge import --archive upper_2024.bin --reservoir upper --from 2024-06-01 --to 2024-06-30`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importArchive, "archive", "", "Path to the ensemble archive")
	importCmd.Flags().StringVar(&importReservoir, "reservoir", "", "Reservoir the archive belongs to")
	importCmd.Flags().StringVar(&importFrom, "from", "1900-01-01", "First day to import (YYYY-MM-DD)")
	importCmd.Flags().StringVar(&importTo, "to", "2999-12-31", "Last day to import (YYYY-MM-DD)")
	_ = importCmd.MarkFlagRequired("archive")
	_ = importCmd.MarkFlagRequired("reservoir")
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	from, err := parseDay(importFrom)
	if err != nil {
		return err
	}
	to, err := parseDay(importTo)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if _, ok := a.cfg.Reservoir(importReservoir); !ok {
		return fmt.Errorf("unknown reservoir %q", importReservoir)
	}

	archive := mapper.NewReader(importArchive)
	if err := archive.Open(); err != nil {
		return err
	}
	defer archive.Close()

	var days int
	err = archive.Forecasts(from, to, func(day time.Time, members []float64) error {
		days++
		return a.store.StoreForecast(ctx, duckdb.Forecast{Reservoir: importReservoir, Day: day, Members: members})
	})
	if err != nil {
		return err
	}

	a.logger.Info("archive imported",
		zap.String("archive", importArchive),
		zap.String("reservoir", importReservoir),
		zap.Int("days", days),
		zap.Int("records", archive.Len()))
	return nil
}
