package memory

import (
	"strings"
	"sync"
)

// ProfileStore is a volatile core.ProfileStore implementation.
type ProfileStore struct {
	mu     sync.Mutex
	active string
	names  map[string]string
}

// NewProfileStore constructs an empty in-memory profile store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{names: make(map[string]string)}
}

// SetActiveAccount implements core.ProfileStore.
func (s *ProfileStore) SetActiveAccount(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = strings.TrimSpace(accountID)
	return nil
}

// ActiveAccount implements core.ProfileStore.
func (s *ProfileStore) ActiveAccount() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, nil
}

// SetDisplayName implements core.ProfileStore.
func (s *ProfileStore) SetDisplayName(accountID, name string) error {
	accountID = strings.TrimSpace(accountID)
	name = strings.TrimSpace(name)
	if accountID == "" || name == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[accountID] = name
	return nil
}

// DisplayNameFor implements core.ProfileStore.
func (s *ProfileStore) DisplayNameFor(accountID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.names[strings.TrimSpace(accountID)], nil
}
