package sqlite

import (
	"fmt"
	"sync"
	"time"
)

// Roster is the durable core.Roster implementation. An in-memory view is
// refreshed from the agent_roster table on Load so that concurrently created
// agents become visible before dispatch membership checks.
type Roster struct {
	mu     sync.Mutex
	db     *DB
	agents []string
}

// NewRoster constructs a roster over the shared database and loads the
// current view.
func NewRoster(db *DB) (*Roster, error) {
	r := &Roster{db: db}
	if err := r.Load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load implements core.Roster.
func (r *Roster) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked()
}

func (r *Roster) loadLocked() error {
	rows, err := r.db.db.Query(`SELECT agent_name FROM agent_roster ORDER BY rowid`)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}
	defer rows.Close()

	var agents []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan roster row: %w", err)
		}
		agents = append(agents, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	r.agents = agents
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
	_, err := r.db.db.Exec(
		`INSERT OR IGNORE INTO agent_roster (agent_name, created_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("add roster agent: %w", err)
	}
	return r.loadLocked()
}

// Agents implements core.Roster.
func (r *Roster) Agents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.agents))
	copy(out, r.agents)
	return out
}

// Clear implements core.Roster.
func (r *Roster) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.db.db.Exec(`DELETE FROM agent_roster`); err != nil {
		return fmt.Errorf("clear roster: %w", err)
	}
	r.agents = nil
	return nil
}
