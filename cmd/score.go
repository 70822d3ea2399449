package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/config"
	"github.com/signalnine/meshbench/internal/evidence"
	"github.com/signalnine/meshbench/internal/report"
	"github.com/signalnine/meshbench/internal/rubric"
	"github.com/signalnine/meshbench/internal/run"
	"github.com/spf13/cobra"
)

var flagScoreJSON bool

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [run-dir]",
		Short: "Score a completed run against its rubric",
		Long:  "Read a run directory's captured artifacts, evaluate the mission rubric offline, write score.json and print the report. Exits non-zero if any check failed or a critical-fail occurred.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			runDir := filepath.Join(cfg.Results.Dir, "latest")
			if len(args) > 0 {
				runDir = args[0]
			}
			resolved, err := filepath.EvalSymlinks(runDir)
			if err != nil {
				return fmt.Errorf("resolving run dir: %w", err)
			}

			// The mission label comes from the scenario config; a missing or
			// unreadable handle degrades to the default label rather than
			// refusing to score.
			missionLabel := "mission"
			if meta, err := run.ReadMeta(resolved); err != nil {
				log.Printf("warning: reading run handle: %v", err)
			} else if scenario, err := cfg.Find(meta.Scenario); err != nil {
				log.Printf("warning: %v", err)
			} else {
				missionLabel = scenario.MissionLabel
			}

			store := artifact.Open(resolved)
			bundle := evidence.NewBundle(store)
			res := rubric.MissionRubric(missionLabel).Score(bundle)

			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling score: %w", err)
			}
			if err := os.WriteFile(filepath.Join(resolved, "score.json"), append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("writing score.json: %w", err)
			}

			if flagScoreJSON {
				os.Stdout.Write(append(data, '\n'))
			} else {
				report.Render(os.Stdout, res, resolved)
			}
			if code := report.ExitCode(res); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagScoreJSON, "json", false, "print the machine-readable result instead of the report")
	return cmd
}
