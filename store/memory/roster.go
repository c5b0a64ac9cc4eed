package memory

import (
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

var _ core.Roster = (*Roster)(nil)

type rosterRecord struct {
	name      string
	createdAt time.Time
}

// Roster is a volatile core.Roster implementation ordered by creation time.
// Load is a no-op beyond lock acquisition because the backing state is the
// in-process slice itself; it exists so callers keep the re-load-before-check
// discipline the durable implementation requires.
type Roster struct {
	mu      sync.Mutex
	records []rosterRecord
}

// NewRoster constructs an empty in-memory roster.
func NewRoster() *Roster {
	return &Roster{}
}

// Load implements core.Roster.
func (r *Roster) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return nil
}

// AddAgent implements core.Roster. Adding an existing or empty name is a
// no-op.
func (r *Roster) AddAgent(name string) error {
	if name == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.name == name {
			return nil
		}
	}
	r.records = append(r.records, rosterRecord{name: name, createdAt: time.Now().UTC()})
	return nil
}

// Agents implements core.Roster.
func (r *Roster) Agents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.records))
	for i, rec := range r.records {
		names[i] = rec.name
	}
	return names
}

// Clear implements core.Roster.
func (r *Roster) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	return nil
}
