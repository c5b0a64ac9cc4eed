package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

// JournalStore is a volatile core.JournalStore implementation keeping
// per-agent entry slices in insertion order. Safe for concurrent access;
// returned slices are copies.
type JournalStore struct {
	mu      sync.Mutex
	entries map[string][]core.JournalEntry
}

// NewJournalStore constructs an empty in-memory journal store.
func NewJournalStore() *JournalStore {
	return &JournalStore{entries: make(map[string][]core.JournalEntry)}
}

// Append implements core.JournalStore.
func (s *JournalStore) Append(agentName string, kind core.JournalKind, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[agentName] = append(s.entries[agentName], core.JournalEntry{
		AgentName: agentName,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	return nil
}

// Entries implements core.JournalStore.
func (s *JournalStore) Entries(agentName string) ([]core.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.entries[agentName]
	out := make([]core.JournalEntry, len(stored))
	copy(out, stored)
	return out, nil
}

// Recent implements core.JournalStore.
func (s *JournalStore) Recent(agentName string, limit int) ([]core.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.entries[agentName]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	out := make([]core.JournalEntry, limit)
	copy(out, stored[len(stored)-limit:])
	return out, nil
}

// ListAgents implements core.JournalStore.
func (s *JournalStore) ListAgents() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.entries))
	for name, stored := range s.entries {
		if len(stored) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Clear implements core.JournalStore.
func (s *JournalStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]core.JournalEntry)
	return nil
}
