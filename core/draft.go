package core

import "time"

// Draft is the single pending outgoing message for one account. A new draft
// for the same account replaces the previous one wholesale; there is no
// history of superseded drafts.
type Draft struct {
	AccountID string    `json:"account_id"`
	DraftID   string    `json:"draft_id"` // external provider draft identifier
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DraftStore holds the latest pending draft per account.
type DraftStore interface {
	// SetLatest overwrites the account's pending draft. Calls with an empty
	// account or draft id are ignored.
	SetLatest(draft Draft) error

	// Latest returns the account's pending draft, or ok=false if none exists.
	Latest(accountID string) (Draft, bool, error)

	// ClearLatest removes the account's pending draft. Clearing an absent
	// draft is a no-op.
	ClearLatest(accountID string) error
}

// SeenEntry records one externally observed item that has been processed.
type SeenEntry struct {
	ItemID string    `json:"item_id"`
	SeenAt time.Time `json:"seen_at"`
}

// SeenStore is a bounded set of previously handled external item ids with
// oldest-first eviction once the capacity is exceeded. Marking an already
// seen id refreshes its seen time (affecting eviction order) but does not
// change the total count.
type SeenStore interface {
	// MarkSeen inserts or refreshes the given ids, then prunes the oldest
	// entries past capacity. Empty ids are skipped.
	MarkSeen(itemIDs ...string) error

	// IsSeen reports whether the id is in the set.
	IsSeen(itemID string) (bool, error)

	// HasEntries reports whether the set is non-empty.
	HasEntries() (bool, error)

	// Snapshot returns all ids ordered oldest-seen first.
	Snapshot() ([]string, error)

	// Clear removes every entry.
	Clear() error
}
