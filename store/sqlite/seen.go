package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// defaultSeenCapacity bounds the seen set when no explicit capacity is
// configured.
const defaultSeenCapacity = 300

// SeenStore is the durable core.SeenStore implementation: a bounded set of
// item ids pruned oldest-by-seen-time past capacity.
type SeenStore struct {
	mu       sync.Mutex
	db       *DB
	capacity int
}

// SeenStoreOptions configures a SeenStore.
type SeenStoreOptions struct {
	// Capacity is the maximum number of retained ids. Defaults to 300 when
	// zero or negative.
	Capacity int
}

// NewSeenStore constructs a seen store over the shared database.
func NewSeenStore(db *DB, optFns ...func(o *SeenStoreOptions)) *SeenStore {
	opts := SeenStoreOptions{Capacity: defaultSeenCapacity}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = defaultSeenCapacity
	}
	return &SeenStore{db: db, capacity: opts.Capacity}
}

// MarkSeen implements core.SeenStore. Already-seen ids get a refreshed
// seen_at; the set is pruned to capacity afterwards.
func (s *SeenStore) MarkSeen(itemIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Unix nanos keep a total order even within one batch; each id in the
	// batch gets a strictly later stamp than the previous one.
	now := time.Now().UnixNano()
	inserted := false
	for _, id := range itemIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		_, err := s.db.db.Exec(
			`INSERT INTO seen_items (item_id, seen_at) VALUES (?, ?)
				ON CONFLICT(item_id) DO UPDATE SET seen_at = excluded.seen_at`,
			id, now,
		)
		if err != nil {
			return fmt.Errorf("mark seen: %w", err)
		}
		inserted = true
		now++
	}
	if !inserted {
		return nil
	}
	return s.pruneLocked()
}

// IsSeen implements core.SeenStore.
func (s *SeenStore) IsSeen(itemID string) (bool, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var one int
	err := s.db.db.QueryRow(`SELECT 1 FROM seen_items WHERE item_id = ?`, itemID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query seen item: %w", err)
	}
	return true, nil
}

// HasEntries implements core.SeenStore.
func (s *SeenStore) HasEntries() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int
	if err := s.db.db.QueryRow(`SELECT COUNT(*) FROM seen_items`).Scan(&count); err != nil {
		return false, fmt.Errorf("count seen items: %w", err)
	}
	return count > 0, nil
}

// Snapshot implements core.SeenStore. Ids are returned oldest-seen first.
func (s *SeenStore) Snapshot() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.db.Query(`SELECT item_id FROM seen_items ORDER BY seen_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("snapshot seen items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seen item: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear implements core.SeenStore.
func (s *SeenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.db.Exec(`DELETE FROM seen_items`); err != nil {
		return fmt.Errorf("clear seen items: %w", err)
	}
	return nil
}

func (s *SeenStore) pruneLocked() error {
	var count int
	if err := s.db.db.QueryRow(`SELECT COUNT(*) FROM seen_items`).Scan(&count); err != nil {
		return fmt.Errorf("count seen items: %w", err)
	}
	excess := count - s.capacity
	if excess <= 0 {
		return nil
	}
	_, err := s.db.db.Exec(
		`DELETE FROM seen_items WHERE item_id IN (
			SELECT item_id FROM seen_items ORDER BY seen_at, rowid LIMIT ?
		)`, excess,
	)
	if err != nil {
		return fmt.Errorf("prune seen items: %w", err)
	}
	return nil
}
