package sqlite

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

// ConversationStore is the durable core.ConversationStore implementation.
type ConversationStore struct {
	mu sync.Mutex
	db *DB
}

// NewConversationStore constructs a conversation store over the shared
// database.
func NewConversationStore(db *DB) *ConversationStore {
	return &ConversationStore{db: db}
}

// Append implements core.ConversationStore.
func (s *ConversationStore) Append(kind core.ConversationKind, payload string) (core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	res, err := s.db.db.Exec(
		`INSERT INTO conversation_entries (kind, timestamp, payload) VALUES (?, ?, ?)`,
		string(kind), now.Format(timeLayout), payload,
	)
	if err != nil {
		return core.ConversationEntry{}, fmt.Errorf("append conversation entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ConversationEntry{}, fmt.Errorf("conversation entry id: %w", err)
	}
	return core.ConversationEntry{ID: id, Kind: kind, Timestamp: now, Payload: payload}, nil
}

// Entries implements core.ConversationStore.
func (s *ConversationStore) Entries() ([]core.ConversationEntry, error) {
	return s.query(`SELECT id, kind, timestamp, payload FROM conversation_entries ORDER BY id`)
}

// EntriesAfter implements core.ConversationStore.
func (s *ConversationStore) EntriesAfter(lastID int64) ([]core.ConversationEntry, error) {
	return s.query(
		`SELECT id, kind, timestamp, payload FROM conversation_entries WHERE id > ? ORDER BY id`,
		lastID,
	)
}

// Clear implements core.ConversationStore.
func (s *ConversationStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.db.Exec(`DELETE FROM conversation_entries`); err != nil {
		return fmt.Errorf("clear conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) query(stmt string, args ...any) ([]core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("load conversation entries: %w", err)
	}
	defer rows.Close()

	var entries []core.ConversationEntry
	for rows.Next() {
		var (
			id          int64
			kind, ts, p string
		)
		if err := rows.Scan(&id, &kind, &ts, &p); err != nil {
			return nil, fmt.Errorf("scan conversation entry: %w", err)
		}
		entries = append(entries, core.ConversationEntry{
			ID:        id,
			Kind:      core.ConversationKind(kind),
			Timestamp: parseTime(ts),
			Payload:   p,
		})
	}
	return entries, rows.Err()
}

// SummaryStore is the durable core.SummaryStore implementation over the
// singleton summary_state row.
type SummaryStore struct {
	mu sync.Mutex
	db *DB
}

// NewSummaryStore constructs a summary store over the shared database.
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// LoadSummary implements core.SummaryStore.
func (s *SummaryStore) LoadSummary() (core.SummaryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *SummaryStore) loadLocked() (core.SummaryState, error) {
	var (
		text      string
		lastIndex int64
		updatedAt sql.NullString
	)
	err := s.db.db.QueryRow(
		`SELECT summary_text, last_index, updated_at FROM summary_state WHERE id = 1`,
	).Scan(&text, &lastIndex, &updatedAt)
	if err == sql.ErrNoRows {
		return core.EmptySummaryState(), nil
	}
	if err != nil {
		return core.SummaryState{}, fmt.Errorf("load summary state: %w", err)
	}
	state := core.SummaryState{SummaryText: text, LastIndex: lastIndex}
	if updatedAt.Valid {
		state.UpdatedAt = parseTime(updatedAt.String)
	}
	return state, nil
}

// SaveSummary implements core.SummaryStore. The checkpoint index must never
// decrease.
func (s *SummaryStore) SaveSummary(state core.SummaryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.loadLocked()
	if err != nil {
		return err
	}
	if state.LastIndex < current.LastIndex {
		return fmt.Errorf("summary index must not decrease: %d < %d", state.LastIndex, current.LastIndex)
	}
	_, err = s.db.db.Exec(
		`UPDATE summary_state SET summary_text = ?, last_index = ?, updated_at = ? WHERE id = 1`,
		state.SummaryText, state.LastIndex, state.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save summary state: %w", err)
	}
	return nil
}

// ResetSummary implements core.SummaryStore.
func (s *SummaryStore) ResetSummary() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.db.Exec(
		`UPDATE summary_state SET summary_text = '', last_index = -1, updated_at = NULL WHERE id = 1`,
	)
	if err != nil {
		return fmt.Errorf("reset summary state: %w", err)
	}
	return nil
}
