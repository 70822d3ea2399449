// Package poller drives one scenario run from trigger to a terminal state:
// it posts the trigger message, samples the mesh at a fixed interval, merges
// observations into a tracked-entity set, detects stuck and timed-out runs,
// and captures end-of-run artifacts before killing whatever is left.
package poller

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/signalnine/meshbench/internal/artifact"
	"github.com/signalnine/meshbench/internal/config"
	"github.com/signalnine/meshbench/internal/mesh"
	"github.com/signalnine/meshbench/internal/run"
)

const (
	historyWindow = 200
	tailLines     = 200
)

// Phase names recorded first-write-wins during polling.
const (
	PhaseTriggered    = "triggered"
	PhaseMission      = "mission-created"
	PhaseFirstAgent   = "first-agent-spawned"
	PhaseFirstChild   = "first-child-task-created"
	PhaseFirstWorker  = "first-worker-dispatched"
	PhaseFirstReview  = "first-review-opened"
	PhaseTerminal     = "terminal-state-reached"
	PhaseGraceDrained = "grace-drained"
)

type Poller struct {
	scenario *config.Scenario
	clients  *mesh.Clients
	store    *artifact.Store

	set    *EntitySet
	phases *Phases

	missionID  string
	liveAgents []string

	// injected for tests; real runs use time.Now / time.Sleep
	now   func() time.Time
	sleep func(time.Duration)
}

func New(scenario *config.Scenario, clients *mesh.Clients, store *artifact.Store) *Poller {
	return &Poller{
		scenario: scenario,
		clients:  clients,
		store:    store,
		set:      NewEntitySet(),
		phases:   NewPhases(),
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// Drive runs the scenario to a terminal status. The returned error is
// non-nil only for trigger failure; stuck and timeout are statuses, not
// errors. Capture and cleanup run on every terminal path.
func (p *Poller) Drive(ctx context.Context) (string, error) {
	if err := p.clients.Bus.Send(ctx, p.scenario.Channel, p.scenario.TriggerLabel, p.scenario.TriggerBody); err != nil {
		return "", fmt.Errorf("triggering scenario: %w", err)
	}
	start := p.now()
	p.mark(PhaseTriggered, start)

	interval := time.Duration(p.scenario.PollIntervalSeconds) * time.Second
	timeout := time.Duration(p.scenario.TimeoutMinutes) * time.Minute
	stuckAfter := time.Duration(p.scenario.StuckThresholdSeconds) * time.Second
	lastActivity := start

	status := run.StatusTimeout
	for {
		p.sleep(interval)
		now := p.now()

		snap := p.take(ctx)
		if p.merge(snap, now) {
			lastActivity = now
		}

		if snap.Mission != nil && snap.Mission.Closed() {
			p.mark(PhaseTerminal, now)
			status = p.drain(ctx)
			break
		}
		if now.Sub(start) > timeout {
			status = run.StatusTimeout
			break
		}
		if now.Sub(lastActivity) > stuckAfter && len(p.liveAgents) == 0 {
			status = run.StatusStuck
			break
		}
		if ctx.Err() != nil {
			status = run.StatusTimeout
			break
		}
	}

	p.Capture(ctx)
	p.Cleanup(ctx)
	p.writeStatus(status, p.now().Sub(start))
	return status, nil
}

// merge folds a snapshot into the tracked-entity set. Returns true when any
// observed value changed, which resets the idle clock. Failed probes
// contribute nothing: the live-agent list keeps its last-known value (a flaky
// supervisor must not make a working run look abandoned) and the message
// count is not re-observed (a missing history window is not the count
// dropping to zero).
func (p *Poller) merge(snap *Snapshot, now time.Time) bool {
	changed := false

	if snap.AgentsOK {
		p.liveAgents = snap.Agents
		for _, id := range snap.Agents {
			if !p.set.Seen(KindProcess, id) {
				p.mark(PhaseFirstAgent, now)
				if isWorker(id) {
					p.mark(PhaseFirstWorker, now)
				}
			}
			if p.set.Observe(KindProcess, id, "running", now) {
				changed = true
			}
		}
	}

	if snap.Mission != nil && p.missionID == "" {
		p.missionID = snap.Mission.ID
		p.mark(PhaseMission, now)
	}

	for _, t := range snap.Tasks {
		kind := KindTask
		if p.missionID != "" && t.ID != p.missionID {
			kind = KindMissionChild
		}
		if kind == KindMissionChild && !p.set.Seen(kind, t.ID) {
			p.mark(PhaseFirstChild, now)
		}
		if p.set.Observe(kind, t.ID, t.Status, now) {
			changed = true
		}
	}

	if snap.MessagesOK {
		if p.set.Observe(KindMessageCount, p.scenario.Channel, fmt.Sprintf("%d", snap.MessageCount), now) {
			changed = true
		}
	}

	for _, id := range snap.ReviewIDs {
		if !p.set.Seen(KindReview, id) {
			p.mark(PhaseFirstReview, now)
		}
		if p.set.Observe(KindReview, id, "open", now) {
			changed = true
		}
	}

	return changed
}

// drain is the grace period after the mission closes: re-poll at a short
// interval a bounded number of times, waiting for tracked processes to exit
// on their own.
func (p *Poller) drain(ctx context.Context) string {
	graceInterval := time.Duration(p.scenario.GraceIntervalSeconds) * time.Second
	for i := 0; i < p.scenario.GracePolls; i++ {
		agents, err := p.clients.Supervisor.List(ctx)
		if err != nil {
			log.Printf("warning: grace-period process list: %v", err)
			agents = p.liveAgents
		} else {
			p.liveAgents = agents
		}
		if len(agents) == 0 {
			p.mark(PhaseGraceDrained, p.now())
			return run.StatusCompleted
		}
		p.sleep(graceInterval)
	}
	return run.StatusCompletedStillRunning
}

func (p *Poller) mark(name string, t time.Time) {
	if p.phases.Mark(name, t) {
		if err := p.store.AppendPhase(name, t); err != nil {
			log.Printf("warning: writing phase log: %v", err)
		}
	}
}

// isWorker distinguishes dispatched workers from the lead by the supervisor's
// naming convention. Leads announce themselves as lead/mission processes.
func isWorker(id string) bool {
	return !MatchesLead(id)
}

func MatchesLead(id string) bool {
	for _, prefix := range []string{"lead", "mission", "coordinator"} {
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func (p *Poller) writeStatus(status string, elapsed time.Duration) {
	tasksTotal := len(p.set.IDs(KindMissionChild))
	closed := 0
	for _, id := range p.set.IDs(KindMissionChild) {
		if e := p.set.Get(KindMissionChild, id); e != nil {
			t := mesh.Task{Status: e.Value}
			if t.Closed() {
				closed++
			}
		}
	}
	kv := map[string]string{
		"status":       status,
		"scenario":     p.scenario.Name,
		"mission_id":   p.missionID,
		"duration_s":   fmt.Sprintf("%d", int(elapsed.Seconds())),
		"tasks_total":  fmt.Sprintf("%d", tasksTotal),
		"tasks_closed": fmt.Sprintf("%d", closed),
		"agents_seen":  fmt.Sprintf("%d", len(p.set.IDs(KindProcess))),
	}
	if err := p.store.WriteStatus(kv); err != nil {
		log.Printf("warning: writing status file: %v", err)
	}
}

// Phases exposes recorded phase timestamps, for tests and reports.
func (p *Poller) PhaseMarks() *Phases {
	return p.phases
}

// MissionID returns the root mission identifier once observed, "" before.
func (p *Poller) MissionID() string {
	return p.missionID
}
