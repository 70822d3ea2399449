package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Supervisor talks to the process supervisor that runs agent processes.
type Supervisor struct {
	run Runner
	bin string
}

// List returns the identifiers of running agent processes. The tool has
// emitted both a bare JSON array and an object wrapping one across versions;
// both shapes are accepted.
func (s *Supervisor) List(ctx context.Context) ([]string, error) {
	out, err := s.run.Output(ctx, s.bin, "list", "--json")
	if err != nil {
		return nil, err
	}
	return parseIDList(out)
}

func parseIDList(out []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(trimmed), &ids); err == nil {
		return ids, nil
	}
	var wrapped struct {
		Processes []string `json:"processes"`
		Agents    []string `json:"agents"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing process list: %w", err)
	}
	if wrapped.Processes != nil {
		return wrapped.Processes, nil
	}
	return wrapped.Agents, nil
}

func (s *Supervisor) Spawn(ctx context.Context, name string, env map[string]string, timeout time.Duration) error {
	args := []string{"spawn", name, "--timeout", fmt.Sprintf("%ds", int(timeout.Seconds()))}
	for k, v := range env {
		args = append(args, "--env", k+"="+v)
	}
	_, err := s.run.Output(ctx, s.bin, args...)
	return err
}

// Tail returns the last n lines of a process's output.
func (s *Supervisor) Tail(ctx context.Context, id string, n int) ([]byte, error) {
	return s.run.Output(ctx, s.bin, "tail", id, "--lines", fmt.Sprintf("%d", n))
}

// Kill terminates a process. Killing an already-exited process is not an
// error; the supervisor reports that case on stdout and exits non-zero, so
// the error is swallowed when the output says the process is gone.
func (s *Supervisor) Kill(ctx context.Context, id string) error {
	out, err := s.run.Output(ctx, s.bin, "kill", id)
	if err != nil && strings.Contains(strings.ToLower(string(out)), "no such process") {
		return nil
	}
	return err
}
