package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

// ConversationStore is a volatile core.ConversationStore implementation.
// Entry ids are assigned from a monotonically increasing counter so that id
// order equals insertion order.
type ConversationStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []core.ConversationEntry
}

// NewConversationStore constructs an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{nextID: 1}
}

// Append implements core.ConversationStore.
func (s *ConversationStore) Append(kind core.ConversationKind, payload string) (core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := core.ConversationEntry{
		ID:        s.nextID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	return entry, nil
}

// Entries implements core.ConversationStore.
func (s *ConversationStore) Entries() ([]core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ConversationEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

// EntriesAfter implements core.ConversationStore.
func (s *ConversationStore) EntriesAfter(lastID int64) ([]core.ConversationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.ConversationEntry
	for _, entry := range s.entries {
		if entry.ID > lastID {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Clear implements core.ConversationStore.
func (s *ConversationStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	return nil
}

// SummaryStore is a volatile core.SummaryStore implementation holding the
// singleton compaction checkpoint.
type SummaryStore struct {
	mu    sync.Mutex
	state core.SummaryState
}

// NewSummaryStore constructs a summary store in the empty state.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{state: core.EmptySummaryState()}
}

// LoadSummary implements core.SummaryStore.
func (s *SummaryStore) LoadSummary() (core.SummaryState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// SaveSummary implements core.SummaryStore. The checkpoint index must never
// decrease.
func (s *SummaryStore) SaveSummary(state core.SummaryState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.LastIndex < s.state.LastIndex {
		return fmt.Errorf("summary index must not decrease: %d < %d", state.LastIndex, s.state.LastIndex)
	}
	s.state = state
	return nil
}

// ResetSummary implements core.SummaryStore.
func (s *SummaryStore) ResetSummary() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = core.EmptySummaryState()
	return nil
}
