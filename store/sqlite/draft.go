package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sandeep231004/gmailassistant/core"
)

// DraftStore is the durable core.DraftStore implementation. One row per
// account; a new draft replaces the previous one wholesale.
type DraftStore struct {
	mu sync.Mutex
	db *DB
}

// NewDraftStore constructs a draft store over the shared database.
func NewDraftStore(db *DB) *DraftStore {
	return &DraftStore{db: db}
}

// SetLatest implements core.DraftStore. Calls with an empty account or draft
// id are ignored.
func (s *DraftStore) SetLatest(draft core.Draft) error {
	draft.AccountID = strings.TrimSpace(draft.AccountID)
	draft.DraftID = strings.TrimSpace(draft.DraftID)
	if draft.AccountID == "" || draft.DraftID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.db.Exec(
		`INSERT OR REPLACE INTO drafts (account_id, draft_id, recipient, subject, body, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
		draft.AccountID, draft.DraftID, draft.To, draft.Subject, draft.Body,
		draft.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Latest implements core.DraftStore.
func (s *DraftStore) Latest(accountID string) (core.Draft, bool, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return core.Draft{}, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		draft core.Draft
		ts    string
	)
	err := s.db.db.QueryRow(
		`SELECT account_id, draft_id, recipient, subject, body, updated_at
			FROM drafts WHERE account_id = ?`, accountID,
	).Scan(&draft.AccountID, &draft.DraftID, &draft.To, &draft.Subject, &draft.Body, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Draft{}, false, nil
	}
	if err != nil {
		return core.Draft{}, false, fmt.Errorf("load draft: %w", err)
	}
	draft.UpdatedAt = parseTime(ts)
	return draft, true, nil
}

// ClearLatest implements core.DraftStore. Clearing an absent draft is a
// no-op.
func (s *DraftStore) ClearLatest(accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.db.Exec(`DELETE FROM drafts WHERE account_id = ?`, accountID); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}
