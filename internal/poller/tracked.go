package poller

import (
	"time"
)

type EntityKind string

const (
	KindProcess      EntityKind = "process"
	KindTask         EntityKind = "task"
	KindMissionChild EntityKind = "mission-child"
	KindMessageCount EntityKind = "message-count"
	KindReview       EntityKind = "review"
)

// Entity is one externally observable unit: an agent process, a task record,
// a channel message count, a review. LastChanged advances only when the
// observed value differs from the prior poll; it feeds stuck detection and
// nothing else.
type Entity struct {
	ID          string
	Kind        EntityKind
	Value       string
	FirstSeen   time.Time
	LastChanged time.Time
}

// EntitySet merges per-iteration observations. Single-threaded by design;
// the poll loop is the only writer.
type EntitySet struct {
	entities map[string]*Entity
}

func NewEntitySet() *EntitySet {
	return &EntitySet{entities: map[string]*Entity{}}
}

func key(kind EntityKind, id string) string {
	return string(kind) + "/" + id
}

// Observe records one observation and reports whether anything changed:
// a new entity, or a known entity whose value differs from last poll.
func (s *EntitySet) Observe(kind EntityKind, id, value string, now time.Time) bool {
	k := key(kind, id)
	e, ok := s.entities[k]
	if !ok {
		s.entities[k] = &Entity{ID: id, Kind: kind, Value: value, FirstSeen: now, LastChanged: now}
		return true
	}
	if e.Value != value {
		e.Value = value
		e.LastChanged = now
		return true
	}
	return false
}

// Seen reports whether an entity has ever been observed.
func (s *EntitySet) Seen(kind EntityKind, id string) bool {
	_, ok := s.entities[key(kind, id)]
	return ok
}

// IDs returns every identifier ever observed under kind.
func (s *EntitySet) IDs(kind EntityKind) []string {
	var ids []string
	for _, e := range s.entities {
		if e.Kind == kind {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (s *EntitySet) Get(kind EntityKind, id string) *Entity {
	return s.entities[key(kind, id)]
}

// Phases records named event times, first-write-wins. Under the
// single-threaded poll loop this makes them race-free; if snapshot probes are
// ever parallelized, results must still be merged on one goroutine before
// marking.
type Phases struct {
	marks map[string]time.Time
	order []string
}

func NewPhases() *Phases {
	return &Phases{marks: map[string]time.Time{}}
}

// Mark sets the phase time once. Later calls are ignored and report false.
func (p *Phases) Mark(name string, t time.Time) bool {
	if _, ok := p.marks[name]; ok {
		return false
	}
	p.marks[name] = t
	p.order = append(p.order, name)
	return true
}

func (p *Phases) At(name string) (time.Time, bool) {
	t, ok := p.marks[name]
	return t, ok
}

// Order returns phase names in the order they were first marked.
func (p *Phases) Order() []string {
	return p.order
}
