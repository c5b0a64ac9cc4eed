package core

import "time"

// ConversationKind classifies an entry in the interaction agent's transcript.
type ConversationKind string

const (
	// ConversationUserMessage is a message typed by the end user.
	ConversationUserMessage ConversationKind = "user_message"
	// ConversationAgentMessage is internal narration from an execution agent.
	ConversationAgentMessage ConversationKind = "agent_message"
	// ConversationAssistantReply is a user-visible assistant reply.
	ConversationAssistantReply ConversationKind = "assistant_reply"
	// ConversationPokeReply is a user-visible reply initiated by the
	// assistant rather than prompted by a user turn.
	ConversationPokeReply ConversationKind = "poke_reply"
	// ConversationWait is an explicit no-op marker hidden from any
	// user-visible rendering.
	ConversationWait ConversationKind = "wait"
)

// IsReply reports whether the kind is a user-visible reply-class entry.
// Wait gating and reply deduplication operate on this class.
func (k ConversationKind) IsReply() bool {
	return k == ConversationAssistantReply || k == ConversationPokeReply
}

// ConversationEntry is one event in the user-facing transcript. Entries are
// appended only and immutable once written; the auto-assigned ID increases
// with insertion order.
type ConversationEntry struct {
	ID        int64            `json:"id"`
	Kind      ConversationKind `json:"kind"`
	Timestamp time.Time        `json:"timestamp"`
	Payload   string           `json:"payload"`
}

// ConversationStore persists the ordered transcript of the interaction
// agent's exchange with the user.
type ConversationStore interface {
	// Append adds an entry and returns it with its assigned id and timestamp.
	Append(kind ConversationKind, payload string) (ConversationEntry, error)

	// Entries returns all entries in insertion order.
	Entries() ([]ConversationEntry, error)

	// EntriesAfter returns entries whose id is strictly greater than lastID,
	// in insertion order.
	EntriesAfter(lastID int64) ([]ConversationEntry, error)

	// Clear removes all conversation entries.
	Clear() error
}

// SummaryState is the singleton compaction checkpoint of the conversation.
// LastIndex is the id of the last summarized entry (-1 before any
// summarization) and never decreases.
type SummaryState struct {
	SummaryText string    `json:"summary_text"`
	LastIndex   int64     `json:"last_index"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EmptySummaryState returns the state before any summarization has run.
func EmptySummaryState() SummaryState { return SummaryState{LastIndex: -1} }

// SummaryStore persists the working-memory compaction checkpoint.
type SummaryStore interface {
	// LoadSummary returns the current state, or the empty state if
	// summarization has never run.
	LoadSummary() (SummaryState, error)

	// SaveSummary replaces the singleton state. Implementations must reject
	// a LastIndex lower than the stored one.
	SaveSummary(state SummaryState) error

	// ResetSummary restores the empty state.
	ResetSummary() error
}
