package mesh

import (
	"context"
)

// Review talks to the code-review tool.
type Review struct {
	run Runner
	bin string
}

// List returns all review records with their vote tallies, JSON-encoded.
func (r *Review) List(ctx context.Context) ([]byte, error) {
	return r.run.Output(ctx, r.bin, "reviews", "list", "--json")
}

func (r *Review) Show(ctx context.Context, id string) ([]byte, error) {
	return r.run.Output(ctx, r.bin, "reviews", "show", id, "--json")
}

func (r *Review) LGTM(ctx context.Context, id string) error {
	_, err := r.run.Output(ctx, r.bin, "lgtm", id)
	return err
}

func (r *Review) Block(ctx context.Context, id string) error {
	_, err := r.run.Output(ctx, r.bin, "block", id)
	return err
}
