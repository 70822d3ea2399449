// Package mesh wraps the five collaborator CLIs the harness drives: the
// process supervisor, the message bus, the task tracker, the review tool and
// the workspace layer. Only their documented flags and output shapes are
// used; everything behind them is a black box.
package mesh

import (
	"context"
	"fmt"
	"os/exec"
)

// Runner invokes an external tool and returns its combined output. Tests
// substitute a fake; production code uses ExecRunner.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %v: %s: %w", name, args, out, err)
	}
	return out, nil
}

// Clients bundles one client per collaborator tool, all sharing a Runner.
type Clients struct {
	Supervisor *Supervisor
	Bus        *Bus
	Tracker    *Tracker
	Review     *Review
	Workspace  *Workspace
}

// ToolNames is the binary-name binding for each collaborator CLI.
type ToolNames struct {
	Supervisor string
	Bus        string
	Tracker    string
	Review     string
	Workspace  string
}

func NewClients(r Runner, tools ToolNames) *Clients {
	return &Clients{
		Supervisor: &Supervisor{run: r, bin: tools.Supervisor},
		Bus:        &Bus{run: r, bin: tools.Bus},
		Tracker:    &Tracker{run: r, bin: tools.Tracker},
		Review:     &Review{run: r, bin: tools.Review},
		Workspace:  &Workspace{run: r, bin: tools.Workspace},
	}
}
