package mesh

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tracker talks to the task tracker CLI. Tasks are called beads in the mesh;
// the record shape is the same for missions and their children.
type Tracker struct {
	run Runner
	bin string
}

type Task struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	Labels       []string `json:"labels"`
	Dependencies []string `json:"dependencies"`
	Comments     []string `json:"comments"`
}

// Closed reports whether a task reached a terminal done state. The tracker
// has used both vocabularies.
func (t Task) Closed() bool {
	switch strings.ToLower(t.Status) {
	case "closed", "done":
		return true
	}
	return false
}

func (t *Tracker) Show(ctx context.Context, id string) (*Task, error) {
	out, err := t.run.Output(ctx, t.bin, "show", id, "--json")
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal(out, &task); err != nil {
		return nil, fmt.Errorf("parsing task %s: %w", id, err)
	}
	return &task, nil
}

// List returns tasks carrying the given label, or all tasks when label is
// empty. Accepts both a bare array and the {"tasks": [...]} wrapper.
func (t *Tracker) List(ctx context.Context, label string) ([]Task, error) {
	args := []string{"list", "--json"}
	if label != "" {
		args = append(args, "--label", label)
	}
	out, err := t.run.Output(ctx, t.bin, args...)
	if err != nil {
		return nil, err
	}
	return parseTaskList(out)
}

func parseTaskList(out []byte) ([]Task, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return nil, nil
	}
	var tasks []Task
	if err := json.Unmarshal([]byte(trimmed), &tasks); err == nil {
		return tasks, nil
	}
	var wrapped struct {
		Tasks []Task `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
		return nil, fmt.Errorf("parsing task list: %w", err)
	}
	return wrapped.Tasks, nil
}

func (t *Tracker) Create(ctx context.Context, title string, labels []string) error {
	args := []string{"create", title}
	for _, l := range labels {
		args = append(args, "--label", l)
	}
	_, err := t.run.Output(ctx, t.bin, args...)
	return err
}

// DepTree returns the dependency-graph closure rooted at id, as the tracker's
// JSON dump.
func (t *Tracker) DepTree(ctx context.Context, id string) ([]byte, error) {
	return t.run.Output(ctx, t.bin, "deps", id, "--json")
}
