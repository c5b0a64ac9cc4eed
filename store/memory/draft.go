package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

// DraftStore is a volatile core.DraftStore implementation keeping the latest
// pending draft per account id.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[string]core.Draft
}

// NewDraftStore constructs an empty in-memory draft store.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[string]core.Draft)}
}

// SetLatest implements core.DraftStore. Drafts without an account or
// external draft id are ignored.
func (s *DraftStore) SetLatest(draft core.Draft) error {
	accountID := strings.TrimSpace(draft.AccountID)
	draftID := strings.TrimSpace(draft.DraftID)
	if accountID == "" || draftID == "" {
		return nil
	}
	draft.AccountID = accountID
	draft.DraftID = draftID
	draft.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[accountID] = draft
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
	draft, ok := s.drafts[accountID]
	return draft, ok, nil
}

// ClearLatest implements core.DraftStore.
func (s *DraftStore) ClearLatest(accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, accountID)
	return nil
}
