// Package run owns the per-scenario run directory and its environment
// handle. A run directory is created once at setup, filled during polling and
// read-only once scoring begins.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Terminal statuses recorded by the poller. "completed-still-running" means
// the mission closed but tracked processes outlived the grace period.
const (
	StatusSetup                 = "setup"
	StatusPolling               = "polling"
	StatusCompleted             = "completed"
	StatusCompletedStillRunning = "completed-still-running"
	StatusStuck                 = "stuck"
	StatusTimeout               = "timeout"
)

// Meta is the environment handle written by setup and consumed by run.
type Meta struct {
	RunID           string    `json:"run_id"`
	Scenario        string    `json:"scenario"`
	StartedAt       time.Time `json:"started_at"`
	Status          string    `json:"status"`
	SandboxID       string    `json:"sandbox_id,omitempty"`
	TimeoutS        int       `json:"timeout_s"`
	PollIntervalS   int       `json:"poll_interval_s"`
	StuckThresholdS int       `json:"stuck_threshold_s"`
	GracePolls      int       `json:"grace_polls"`
	GraceIntervalS  int       `json:"grace_interval_s"`
}

// CreateRunDir makes <base>/runs/<timestamp>-<scenario>-<short-id> and points
// <base>/latest at it. The uuid suffix keeps two setups in the same second
// from colliding.
func CreateRunDir(baseDir, scenario string) (string, error) {
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	short := uuid.NewString()[:8]
	runDir := filepath.Join(baseDir, "runs", fmt.Sprintf("%s-%s-%s", stamp, scenario, short))
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

func WriteMeta(runDir string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run meta: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, "run.json"), data, 0o644)
}

func ReadMeta(runDir string) (*Meta, error) {
	data, err := os.ReadFile(filepath.Join(runDir, "run.json"))
	if err != nil {
		return nil, fmt.Errorf("reading run meta: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing run meta: %w", err)
	}
	return &meta, nil
}
