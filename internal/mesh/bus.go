package mesh

import (
	"context"
	"fmt"
)

// Bus talks to the message bus CLI.
type Bus struct {
	run Runner
	bin string
}

func (b *Bus) Send(ctx context.Context, channel, label, body string) error {
	_, err := b.run.Output(ctx, b.bin, "send", channel, "--label", label, "--body", body)
	return err
}

// History returns the last n messages of a channel as plain text.
func (b *Bus) History(ctx context.Context, channel string, n int) ([]byte, error) {
	return b.run.Output(ctx, b.bin, "history", channel, "--limit", fmt.Sprintf("%d", n))
}

// HistoryJSON returns the same window in the bus's JSON format.
func (b *Bus) HistoryJSON(ctx context.Context, channel string, n int) ([]byte, error) {
	return b.run.Output(ctx, b.bin, "history", channel, "--limit", fmt.Sprintf("%d", n), "--json")
}

// Hooks lists registered trigger rules.
func (b *Bus) Hooks(ctx context.Context) ([]byte, error) {
	return b.run.Output(ctx, b.bin, "hooks", "list")
}

// Claims dumps the distributed lock table.
func (b *Bus) Claims(ctx context.Context) ([]byte, error) {
	return b.run.Output(ctx, b.bin, "claims", "list")
}

func (b *Bus) Stake(ctx context.Context, uri, owner string) error {
	_, err := b.run.Output(ctx, b.bin, "claims", "stake", uri, "--owner", owner)
	return err
}

func (b *Bus) Release(ctx context.Context, uri, owner string) error {
	_, err := b.run.Output(ctx, b.bin, "claims", "release", uri, "--owner", owner)
	return err
}
