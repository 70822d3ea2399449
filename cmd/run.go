package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/config"
	"github.com/signalnine/meshbench/internal/mesh"
	"github.com/signalnine/meshbench/internal/poller"
	"github.com/signalnine/meshbench/internal/run"
	"github.com/signalnine/meshbench/internal/sandbox"
	"github.com/spf13/cobra"
)

var (
	flagAll      bool
	flagParallel int
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [run-dir]",
		Short: "Drive a prepared scenario run to a terminal state",
		RunE:  runScenario,
	}
	cmd.Flags().BoolVar(&flagAll, "all", false, "set up and run every configured scenario")
	cmd.Flags().IntVar(&flagParallel, "parallel", 1, "max concurrent scenarios with --all")
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if flagAll {
		return runAll(cfg)
	}

	runDir := filepath.Join(cfg.Results.Dir, "latest")
	if len(args) > 0 {
		runDir = args[0]
	}
	resolved, err := filepath.EvalSymlinks(runDir)
	if err != nil {
		return fmt.Errorf("resolving run dir: %w", err)
	}
	return driveOne(cfg, resolved)
}

func runAll(cfg *config.Config) error {
	var jobs []poller.Job
	for i := range cfg.Scenarios {
		scenario := &cfg.Scenarios[i]
		jobs = append(jobs, func() error {
			fmt.Printf("Running %s...\n", scenario.Name)
			runDir, err := setupScenario(cfg, scenario)
			if err != nil {
				return fmt.Errorf("%s: %w", scenario.Name, err)
			}
			if err := driveOne(cfg, runDir); err != nil {
				return fmt.Errorf("%s: %w", scenario.Name, err)
			}
			return nil
		})
	}
	errs := poller.RunPool(flagParallel, jobs)
	for _, err := range errs {
		fmt.Printf("  ERROR: %v\n", err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d scenario(s) failed", len(errs))
	}
	return nil
}

// setupScenario mirrors the setup command for --all runs: run dir, optional
// sandbox, handle.
func setupScenario(cfg *config.Config, scenario *config.Scenario) (string, error) {
	runDir, err := run.CreateRunDir(cfg.Results.Dir, scenario.Name)
	if err != nil {
		return "", err
	}
	if _, err := artifact.NewStore(runDir); err != nil {
		return "", err
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
		return "", err
	}
	if err := run.WriteMeta(runDir, meta); err != nil {
		return "", err
	}
	return runDir, nil
}

func driveOne(cfg *config.Config, runDir string) error {
	meta, err := run.ReadMeta(runDir)
	if err != nil {
		return err
	}
	scenario, err := cfg.Find(meta.Scenario)
	if err != nil {
		return err
	}

	store, err := artifact.NewStore(runDir)
	if err != nil {
		return err
	}
	clients := mesh.NewClients(mesh.ExecRunner{}, toolNames(cfg.Tools))

	meta.Status = run.StatusPolling
	if err := run.WriteMeta(runDir, meta); err != nil {
		return err
	}

	ctx := context.Background()
	p := poller.New(scenario, clients, store)
	status, err := p.Drive(ctx)
	if err != nil {
		return err
	}

	meta.Status = status
	if err := run.WriteMeta(runDir, meta); err != nil {
		return err
	}
	if meta.SandboxID != "" {
		if err := sandbox.Stop(ctx, meta.SandboxID); err != nil {
			fmt.Printf("warning: stopping sandbox: %v\n", err)
		}
	}

	fmt.Printf("Final status: %s (%s)\n", status, runDir)
	return nil
}
