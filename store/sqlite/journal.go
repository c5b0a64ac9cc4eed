package sqlite

import (
	"fmt"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

// JournalStore is the durable core.JournalStore implementation. Insertion
// order is the rowid order of the journal_entries table.
type JournalStore struct {
	mu sync.Mutex
	db *DB
}

// NewJournalStore constructs a journal store over the shared database.
func NewJournalStore(db *DB) *JournalStore {
	return &JournalStore{db: db}
}

// Append implements core.JournalStore.
func (s *JournalStore) Append(agentName string, kind core.JournalKind, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.db.Exec(
		`INSERT INTO journal_entries (agent_name, kind, timestamp, payload) VALUES (?, ?, ?, ?)`,
		agentName, string(kind), time.Now().UTC().Format(timeLayout), payload,
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Entries implements core.JournalStore.
func (s *JournalStore) Entries(agentName string) ([]core.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.db.Query(
		`SELECT kind, timestamp, payload FROM journal_entries WHERE agent_name = ? ORDER BY id`,
		agentName,
	)
	if err != nil {
		return nil, fmt.Errorf("load journal entries: %w", err)
	}
	defer rows.Close()

	var entries []core.JournalEntry
	for rows.Next() {
		var kind, ts, payload string
		if err := rows.Scan(&kind, &ts, &payload); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, core.JournalEntry{
			AgentName: agentName,
			Kind:      core.JournalKind(kind),
			Timestamp: parseTime(ts),
			Payload:   payload,
		})
	}
	return entries, rows.Err()
}

// Recent implements core.JournalStore.
func (s *JournalStore) Recent(agentName string, limit int) ([]core.JournalEntry, error) {
	entries, err := s.Entries(agentName)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-limit:], nil
}

// ListAgents implements core.JournalStore.
func (s *JournalStore) ListAgents() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.db.Query(
		`SELECT DISTINCT agent_name FROM journal_entries ORDER BY agent_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal agents: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan agent name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Clear implements core.JournalStore.
func (s *JournalStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.db.Exec(`DELETE FROM journal_entries`); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}
