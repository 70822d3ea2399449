package evidence

import (
	"strings"

	"github.com/signalnine/meshbench/internal/artifact"
)

// Bundle is a read-only view over one run's captured artifacts. Missing
// artifacts read as empty; the extractor defaults do the rest.
type Bundle struct {
	store *artifact.Store
}

func NewBundle(store *artifact.Store) *Bundle {
	return &Bundle{store: store}
}

func (b *Bundle) Has(name string) bool {
	return b.store.Has(name)
}

// Text returns a text artifact, or "" when absent.
func (b *Bundle) Text(name string) string {
	data, err := b.store.Read(name)
	if err != nil {
		return ""
	}
	return string(data)
}

// JSON returns a JSON artifact's raw bytes, or nil when absent. Callers pass
// the result straight to Field/Items, which tolerate nil.
func (b *Bundle) JSON(name string) []byte {
	data, err := b.store.Read(name)
	if err != nil {
		return nil
	}
	return data
}

// LogNames lists the captured per-agent log artifact paths, relative to the
// run directory.
func (b *Bundle) LogNames() []string {
	return b.store.AgentLogs()
}

// AgentLogs returns all captured process logs concatenated, for signals that
// may appear in any agent's output.
func (b *Bundle) AgentLogs() string {
	var parts []string
	for _, name := range b.store.AgentLogs() {
		if data, err := b.store.Read(name); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

// Dir exposes the run directory for forensic pointers in reports.
func (b *Bundle) Dir() string {
	return b.store.Dir
}
