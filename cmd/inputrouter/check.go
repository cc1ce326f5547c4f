package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mpconte/VR-Projects-sub003/internal/app"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a configuration without opening devices",
	Long: `Load the configuration, build its filter chain and controllers, and parse
every device's element specs. Nothing is opened.

Exits non-zero when the configuration cannot be used.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	r, err := app.Check(app.Options{ConfigPath: cfgFile})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, w := range r.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	source := r.Config.Path
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(out, "%s: ok (%d devices, %d elements, %d filters, %d controllers)\n",
		source, r.Devices, r.Elements, r.Filters, r.Controllers)
	return nil
}
