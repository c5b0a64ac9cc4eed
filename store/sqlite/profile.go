package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ProfileStore is the durable core.ProfileStore implementation over the
// user_profiles table and the active_account singleton row.
type ProfileStore struct {
	mu sync.Mutex
	db *DB
}

// NewProfileStore constructs a profile store over the shared database.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// SetActiveAccount implements core.ProfileStore. An empty id clears the
// active account.
func (s *ProfileStore) SetActiveAccount(accountID string) error {
	accountID = strings.TrimSpace(accountID)
	s.mu.Lock()
	defer s.mu.Unlock()
	var value any
	if accountID != "" {
		value = accountID
	}
	if _, err := s.db.db.Exec(`UPDATE active_account SET account_id = ? WHERE id = 1`, value); err != nil {
		return fmt.Errorf("set active account: %w", err)
	}
	return nil
}

// ActiveAccount implements core.ProfileStore.
func (s *ProfileStore) ActiveAccount() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var accountID sql.NullString
	err := s.db.db.QueryRow(`SELECT account_id FROM active_account WHERE id = 1`).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active account: %w", err)
	}
	if !accountID.Valid {
		return "", nil
	}
	return accountID.String, nil
}

// SetDisplayName implements core.ProfileStore.
func (s *ProfileStore) SetDisplayName(accountID, name string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.db.Exec(
		`INSERT OR REPLACE INTO user_profiles (account_id, display_name, updated_at) VALUES (?, ?, ?)`,
		accountID, name, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("set display name: %w", err)
	}
	return nil
}

// DisplayNameFor implements core.ProfileStore.
func (s *ProfileStore) DisplayNameFor(accountID string) (string, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var name string
	err := s.db.db.QueryRow(
		`SELECT display_name FROM user_profiles WHERE account_id = ?`, accountID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load display name: %w", err)
	}
	return name, nil
}
