// Package artifact is the append-only store of evidence captured at the end
// of a scenario run. Writers exist only during polling; the scorer opens the
// same directory read-only.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ChannelHistoryText = "channel-history.txt"
	ChannelHistoryJSON = "channel-history.json"
	Mission            = "mission.json"
	Tasks              = "tasks.json"
	Deps               = "deps.json"
	Claims             = "claims.txt"
	Hooks              = "hooks.txt"
	Reviews            = "reviews.json"
	Workspaces         = "workspaces.txt"
	StatusFile         = "status.env"
	PhaseLog           = "phases.log"
)

type Store struct {
	Dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, "agents"), 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Open returns a store over an existing run directory without creating
// anything, for the read-only scoring path.
func Open(dir string) *Store {
	return &Store{Dir: dir}
}

func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

func (s *Store) Write(name string, data []byte) error {
	p := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("creating %s parent: %w", name, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact %s: %w", name, err)
	}
	return nil
}

func (s *Store) WriteJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling artifact %s: %w", name, err)
	}
	return s.Write(name, data)
}

func (s *Store) Read(name string) ([]byte, error) {
	return os.ReadFile(s.Path(name))
}

func (s *Store) Has(name string) bool {
	info, err := os.Stat(s.Path(name))
	return err == nil && info.Size() > 0
}

// AgentLog names the tail-log artifact for one agent process.
func AgentLog(id string) string {
	return filepath.Join("agents", sanitize(id)+".log")
}

// AgentLogs lists the captured per-agent log artifacts.
func (s *Store) AgentLogs() []string {
	entries, err := os.ReadDir(filepath.Join(s.Dir, "agents"))
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			names = append(names, filepath.Join("agents", e.Name()))
		}
	}
	sort.Strings(names)
	return names
}

// WriteStatus writes the final-status key-value file with sorted keys so
// reruns over identical state produce identical bytes.
func (s *Store) WriteStatus(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%s\n", k, kv[k])
	}
	return s.Write(StatusFile, []byte(b.String()))
}

// ReadStatus parses status.env; a missing file yields an empty map.
func (s *Store) ReadStatus() map[string]string {
	kv := map[string]string{}
	data, err := s.Read(StatusFile)
	if err != nil {
		return kv
	}
	for _, line := range strings.Split(string(data), "\n") {
		k, v, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok && k != "" {
			kv[k] = v
		}
	}
	return kv
}

// AppendPhase records one named event time in the phase-timing log.
func (s *Store) AppendPhase(name string, t time.Time) error {
	f, err := os.OpenFile(s.Path(PhaseLog), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening phase log: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", t.UTC().Format(time.RFC3339), name)
	return err
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, id)
}
