// Command goensemble searches ensembles of forecasting models for the
// series in <input>/ts.csv and writes every candidate passing the quality
// gate to the output directory. The replay subcommand rebuilds and refits
// the model described in <input>/model.csv instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sartorproj/goensemble/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "goensemble",
		Short: "Search ensembles of forecasting models for a time series",
		Long: `Fits ARIMA, neural and fuzzy models to a univariate series, combines every
subset of them into weighted and learned ensembles and keeps the candidates
whose test error and overfitting stay under the configured borders.

Without a subcommand the mode comes from the configuration.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), opts, "")
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&opts.paramsFile, "params", "p", "", "Legacy params file (default <input>/params.csv when no --config)")
	flags.StringVarP(&opts.inputDir, "input", "i", "", "Input directory (overrides the configuration)")
	flags.StringVarP(&opts.outputDir, "output", "o", "", "Output directory (overrides the configuration)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file when the run ends")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(modeCmd(opts, config.ModeSearch,
		"Search ensembles and write the qualifying candidates"))
	rootCmd.AddCommand(modeCmd(opts, config.ModeReplay,
		"Rebuild, refit and write the model described in <input>/model.csv"))

	return rootCmd
}

func modeCmd(opts *options, mode, short string) *cobra.Command {
	return &cobra.Command{
		Use:   mode,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), opts, mode)
		},
	}
}
