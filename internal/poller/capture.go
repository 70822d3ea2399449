package poller

import (
	"context"
	"log"

	"github.com/signalnine/meshbench/internal/artifact"
)

// Capture writes the end-of-run artifact set: channel history in both
// formats, the mission and task snapshots, the dependency closure, claim and
// hook dumps, review records, workspace listing and per-agent tail logs.
// Each capture is independent; a failed one logs and is skipped.
func (p *Poller) Capture(ctx context.Context) {
	save := func(name string, data []byte, err error) {
		if err != nil {
			log.Printf("warning: capturing %s: %v", name, err)
			return
		}
		if err := p.store.Write(name, data); err != nil {
			log.Printf("warning: %v", err)
		}
	}

	history, err := p.clients.Bus.History(ctx, p.scenario.Channel, historyWindow)
	save(artifact.ChannelHistoryText, history, err)
	historyJSON, err := p.clients.Bus.HistoryJSON(ctx, p.scenario.Channel, historyWindow)
	save(artifact.ChannelHistoryJSON, historyJSON, err)

	if p.missionID != "" {
		mission, err := p.clients.Tracker.Show(ctx, p.missionID)
		if err != nil {
			log.Printf("warning: capturing mission record: %v", err)
		} else if err := p.store.WriteJSON(artifact.Mission, mission); err != nil {
			log.Printf("warning: %v", err)
		}
		deps, err := p.clients.Tracker.DepTree(ctx, p.missionID)
		save(artifact.Deps, deps, err)
	}

	tasks, err := p.clients.Tracker.List(ctx, "")
	if err != nil {
		log.Printf("warning: capturing task list: %v", err)
	} else if err := p.store.WriteJSON(artifact.Tasks, tasks); err != nil {
		log.Printf("warning: %v", err)
	}

	claims, err := p.clients.Bus.Claims(ctx)
	save(artifact.Claims, claims, err)
	hooks, err := p.clients.Bus.Hooks(ctx)
	save(artifact.Hooks, hooks, err)
	reviews, err := p.clients.Review.List(ctx)
	save(artifact.Reviews, reviews, err)
	workspaces, err := p.clients.Workspace.List(ctx)
	save(artifact.Workspaces, workspaces, err)

	for _, id := range p.set.IDs(KindProcess) {
		tail, err := p.clients.Supervisor.Tail(ctx, id, tailLines)
		save(artifact.AgentLog(id), tail, err)
	}
}

// Cleanup force-terminates every process ever tracked. Kill is idempotent,
// so processes that already exited cost nothing.
func (p *Poller) Cleanup(ctx context.Context) {
	for _, id := range p.set.IDs(KindProcess) {
		if err := p.clients.Supervisor.Kill(ctx, id); err != nil {
			log.Printf("warning: killing %s: %v", id, err)
		}
	}
}
