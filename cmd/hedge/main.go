package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "hedge",
	Short: "Reservoir hedging decisions from ensemble inflow forecasts",
	Long: `hedge turns ensemble inflow forecasts into daily hedging decisions. Each
forecast is calibrated into an inflow distribution, the release density curve is
fitted and the hold back that equalizes the marginal values of release and
storage is selected.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "hedgeflow.yaml", "Path to the reservoir configuration file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log every decision cycle at debug level")
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
