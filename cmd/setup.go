package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/config"
	"github.com/signalnine/meshbench/internal/mesh"
	"github.com/signalnine/meshbench/internal/run"
	"github.com/signalnine/meshbench/internal/sandbox"
	"github.com/spf13/cobra"
)

// setup is the only place a failure is fatal: if the environment cannot be
// constructed there is nothing to poll and nothing to score.
func newSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup <scenario>",
		Short: "Create a run directory and (optionally) the mesh sandbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			scenario, err := cfg.Find(args[0])
			if err != nil {
				return err
			}

			runDir, err := run.CreateRunDir(cfg.Results.Dir, scenario.Name)
			if err != nil {
				return err
			}
			if _, err := artifact.NewStore(runDir); err != nil {
				return err
			}

			meta := &run.Meta{
				RunID:           filepath.Base(runDir),
				Scenario:        scenario.Name,
				StartedAt:       time.Now().UTC(),
				Status:          run.StatusSetup,
				TimeoutS:        scenario.TimeoutMinutes * 60,
				PollIntervalS:   scenario.PollIntervalSeconds,
				StuckThresholdS: scenario.StuckThresholdSeconds,
				GracePolls:      scenario.GracePolls,
				GraceIntervalS:  scenario.GraceIntervalSeconds,
			}

			if err := startSandbox(context.Background(), cfg, scenario, runDir, meta); err != nil {
				return err
			}

			if err := run.WriteMeta(runDir, meta); err != nil {
				return err
			}
			fmt.Printf("Run directory: %s\n", runDir)
			return nil
		},
	}
}

// startSandbox launches the scenario's sandbox, waits until the mesh inside
// answers, and records the container ID on the handle. Rolls the container
// back when the mesh never comes up. Scenarios without a sandbox image are a
// no-op. Shared by setup and by run --all, so every path that starts a
// sandbox also waits for it.
func startSandbox(ctx context.Context, cfg *config.Config, scenario *config.Scenario, runDir string, meta *run.Meta) error {
	if scenario.Sandbox.Image == "" {
		return nil
	}
	if scenario.Sandbox.EnvFile != "" {
		if err := godotenv.Load(scenario.Sandbox.EnvFile); err != nil {
			return fmt.Errorf("loading env file: %w", err)
		}
	}
	id, err := sandbox.Start(ctx, &sandbox.Opts{
		Image:   scenario.Sandbox.Image,
		RunDir:  runDir,
		EnvFile: scenario.Sandbox.EnvFile,
	})
	if err != nil {
		return fmt.Errorf("starting sandbox: %w", err)
	}
	meta.SandboxID = id

	clients := mesh.NewClients(mesh.ExecRunner{}, toolNames(cfg.Tools))
	if err := sandbox.WaitReady(ctx, clients.Supervisor, 60*time.Second); err != nil {
		sandbox.Stop(ctx, id)
		return fmt.Errorf("sandbox: %w", err)
	}
	return nil
}

func toolNames(t config.Tools) mesh.ToolNames {
	return mesh.ToolNames{
		Supervisor: t.Supervisor,
		Bus:        t.Bus,
		Tracker:    t.Tracker,
		Review:     t.Review,
		Workspace:  t.Workspace,
	}
}
