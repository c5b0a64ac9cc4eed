package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandeep231004/gmailassistant/core"
)

var _ core.SeenStore = (*SeenStore)(nil)

// DefaultSeenCapacity bounds the seen set when no explicit capacity is
// configured.
const DefaultSeenCapacity = 300

// SeenStore is a volatile core.SeenStore implementation: a bounded set of
// item ids with oldest-by-seen-time eviction past capacity.
type SeenStore struct {
	mu       sync.Mutex
	capacity int
	seen     map[string]time.Time
	clock    func() time.Time
}

// SeenStoreOptions configures a SeenStore.
type SeenStoreOptions struct {
	// Capacity is the maximum number of retained ids. Defaults to
	// DefaultSeenCapacity when zero or negative.
	Capacity int
	// Clock overrides the time source (test hook).
	Clock func() time.Time
}

// NewSeenStore constructs an empty in-memory seen store.
func NewSeenStore(optFns ...func(o *SeenStoreOptions)) *SeenStore {
	opts := SeenStoreOptions{Capacity: DefaultSeenCapacity, Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultSeenCapacity
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &SeenStore{
		capacity: opts.Capacity,
		seen:     make(map[string]time.Time),
		clock:    opts.Clock,
	}
}

// MarkSeen implements core.SeenStore. Already-seen ids get a refreshed seen
// time; the total count is pruned to capacity afterwards.
func (s *SeenStore) MarkSeen(itemIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock().UTC()
	for _, id := range itemIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s.seen[id] = now
		// Distinct instants keep eviction order stable within one batch.
		now = now.Add(time.Nanosecond)
	}
	s.pruneLocked()
	return nil
}

// IsSeen implements core.SeenStore.
func (s *SeenStore) IsSeen(itemID string) (bool, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[itemID]
	return ok, nil
}

// HasEntries implements core.SeenStore.
func (s *SeenStore) HasEntries() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen) > 0, nil
}

// Snapshot implements core.SeenStore. Ids are returned oldest-seen first.
func (s *SeenStore) Snapshot() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderedLocked(), nil
}

// Clear implements core.SeenStore.
func (s *SeenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = make(map[string]time.Time)
	return nil
}

func (s *SeenStore) orderedLocked() []string {
	ids := make([]string, 0, len(s.seen))
	for id := range s.seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := s.seen[ids[i]], s.seen[ids[j]]
		if ti.Equal(tj) {
			return ids[i] < ids[j]
		}
		return ti.Before(tj)
	})
	return ids
}

func (s *SeenStore) pruneLocked() {
	excess := len(s.seen) - s.capacity
	if excess <= 0 {
		return
	}
	for _, id := range s.orderedLocked()[:excess] {
		delete(s.seen, id)
	}
}
