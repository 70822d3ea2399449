package cmd

import (
	"fmt"

	"github.com/signalnine/meshbench/internal/config"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured scenarios and tool bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Println("Tools:")
			fmt.Printf("  supervisor: %s\n", cfg.Tools.Supervisor)
			fmt.Printf("  bus:        %s\n", cfg.Tools.Bus)
			fmt.Printf("  tracker:    %s\n", cfg.Tools.Tracker)
			fmt.Printf("  review:     %s\n", cfg.Tools.Review)
			fmt.Printf("  workspace:  %s\n", cfg.Tools.Workspace)
			fmt.Println("\nScenarios:")
			for _, s := range cfg.Scenarios {
				fmt.Printf("  - %s (channel: %s, timeout: %dm)\n", s.Name, s.Channel, s.TimeoutMinutes)
			}
			return nil
		},
	}
}
