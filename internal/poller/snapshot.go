package poller

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/signalnine/meshbench/internal/evidence"
	"github.com/signalnine/meshbench/internal/mesh"
)

// Snapshot is one point-in-time view of the mesh. Every field may be stale
// by the time it is consumed; nothing here is assumed monotonic except
// append-only message counts. A probe that failed this iteration leaves its
// field zero and its OK flag false; "no data" is never the same observation
// as "observed empty", or a flaky supervisor would read as every agent dying.
type Snapshot struct {
	Agents       []string
	AgentsOK     bool
	Mission      *mesh.Task
	Tasks        []mesh.Task
	MessageCount int
	MessagesOK   bool
	ClaimCount   int
	ReviewIDs    []string
}

// take runs every probe for one iteration. A failed probe logs a warning and
// leaves its field zero: no data this iteration, never a fatal error.
func (p *Poller) take(ctx context.Context) *Snapshot {
	snap := &Snapshot{}

	agents, err := p.clients.Supervisor.List(ctx)
	if err != nil {
		log.Printf("warning: process list probe: %v", err)
	} else {
		snap.Agents = agents
		snap.AgentsOK = true
	}

	tasks, err := p.clients.Tracker.List(ctx, "")
	if err != nil {
		log.Printf("warning: task list probe: %v", err)
	} else {
		snap.Tasks = tasks
		snap.Mission = findMission(tasks, p.scenario.MissionLabel)
	}

	history, err := p.clients.Bus.History(ctx, p.scenario.Channel, historyWindow)
	if err != nil {
		log.Printf("warning: channel history probe: %v", err)
	} else {
		snap.MessageCount = countMessages(history)
		snap.MessagesOK = true
	}

	claims, err := p.clients.Bus.Claims(ctx)
	if err != nil {
		log.Printf("warning: claims probe: %v", err)
	} else {
		snap.ClaimCount = countNonEmptyLines(claims)
	}

	reviews, err := p.clients.Review.List(ctx)
	if err != nil {
		log.Printf("warning: review list probe: %v", err)
	} else {
		snap.ReviewIDs = reviewIDs(reviews)
	}

	return snap
}

// findMission picks the root mission record: the first task carrying the
// mission label, preferring one with no dependencies (children depend on the
// root, not the other way around).
func findMission(tasks []mesh.Task, label string) *mesh.Task {
	var fallback *mesh.Task
	for i := range tasks {
		t := &tasks[i]
		if !hasLabel(t, label) {
			continue
		}
		if len(t.Dependencies) == 0 {
			return t
		}
		if fallback == nil {
			fallback = t
		}
	}
	return fallback
}

func hasLabel(t *mesh.Task, label string) bool {
	for _, l := range t.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func countMessages(history []byte) int {
	return countNonEmptyLines(history)
}

func countNonEmptyLines(data []byte) int {
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

func reviewIDs(data []byte) []string {
	items := evidence.Items(data, "reviews")
	var ids []string
	for i, item := range items {
		if id, ok := item["id"].(string); ok && id != "" {
			ids = append(ids, id)
		} else {
			ids = append(ids, fmt.Sprintf("review-%d", i))
		}
	}
	return ids
}
