package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mpconte/VR-Projects-sub003/internal/app"
)

var runFlags struct {
	logLevel      string
	metricsListen string
	watch         bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the configured devices and route their events",
	Long: `Open every configured device and route its events until interrupted or
until every device has stopped.

Examples:
  # Run with a configuration file
  inputrouter run --config router.toml

  # Expose Prometheus metrics on port 9090
  inputrouter run --config router.toml --metrics-listen :9090

  # Reload the filter chain and controllers when the file changes
  inputrouter run --config router.toml --watch`,
	Args: cobra.NoArgs,
	RunE: runRouter,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&runFlags.metricsListen, "metrics-listen", "", "serve metrics on this address")
	runCmd.Flags().BoolVarP(&runFlags.watch, "watch", "w", false, "reload filters and controllers on config change")
}

func runRouter(cmd *cobra.Command, args []string) error {
	a, err := app.New(app.Options{
		ConfigPath:    cfgFile,
		LogLevel:      runFlags.logLevel,
		MetricsListen: runFlags.metricsListen,
		Watch:         runFlags.watch,
	})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = a.Run(ctx)
	if ctx.Err() != nil {
		a.Logger().Info("interrupted, shutting down")
	}
	return err
}
