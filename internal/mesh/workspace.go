package mesh

import (
	"context"
)

// Workspace talks to the workspace/VCS layer: isolated working copies keyed
// by name that agents mutate and merge back.
type Workspace struct {
	run Runner
	bin string
}

func (w *Workspace) List(ctx context.Context) ([]byte, error) {
	return w.run.Output(ctx, w.bin, "list")
}

func (w *Workspace) Create(ctx context.Context, name string) error {
	_, err := w.run.Output(ctx, w.bin, "create", name)
	return err
}

func (w *Workspace) Merge(ctx context.Context, name string) error {
	_, err := w.run.Output(ctx, w.bin, "merge", name)
	return err
}
