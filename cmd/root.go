package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "meshbench",
		Short: "Evaluation harness for multi-agent development meshes",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "meshbench.yaml", "config file path")
	root.AddCommand(newSetupCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newScoreCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newListCmd())
	return root
}
