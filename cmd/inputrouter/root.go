package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "inputrouter",
	Short: "Input device event router",
	Long: `inputrouter opens input devices, passes every event through a chain of
filters and hands the survivors to controllers. Events no controller consumes
are delivered to the application sink.

Devices, filters and controllers are described in a TOML file.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults when empty)")
}
