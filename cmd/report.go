package cmd

import (
	"os"

	"github.com/signalnine/meshbench/internal/config"
	"github.com/signalnine/meshbench/internal/report"
	"github.com/spf13/cobra"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [results-dir]",
		Short: "Summarize scored runs per scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			resultsDir := cfg.Results.Dir
			if len(args) > 0 {
				resultsDir = args[0]
			}
			return report.Summarize(resultsDir, flagFormat, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (table, markdown, json)")
	return cmd
}
