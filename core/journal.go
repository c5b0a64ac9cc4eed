package core

import "time"

// JournalKind classifies an entry in an execution agent's journal.
type JournalKind string

const (
	// JournalRequest records the raw instruction text delivered to an agent.
	JournalRequest JournalKind = "agent_request"
	// JournalAction records a tool invocation (name plus serialized arguments).
	JournalAction JournalKind = "agent_action"
	// JournalToolResponse records the serialized outcome of a tool invocation.
	JournalToolResponse JournalKind = "tool_response"
	// JournalAgentResponse records the agent's final response for one execution.
	JournalAgentResponse JournalKind = "agent_response"
)

// JournalEntry is one event in an execution agent's append-only history.
// Entries are immutable once written and are always read back in insertion
// order.
type JournalEntry struct {
	AgentName string      `json:"agent_name"`
	Kind      JournalKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   string      `json:"payload"`
}

// JournalStore is the append-only, per-agent-name ordered activity log.
//
// Implementations must preserve insertion order per agent and never mutate
// or reorder stored entries. Appends for different agents may interleave
// freely; there is no cross-agent ordering guarantee.
type JournalStore interface {
	// Append adds an entry for the named agent. The timestamp is assigned by
	// the store at append time.
	Append(agentName string, kind JournalKind, payload string) error

	// Entries returns all entries for the named agent in insertion order.
	Entries(agentName string) ([]JournalEntry, error)

	// Recent returns the last limit entries for the named agent, preserving
	// insertion order.
	Recent(agentName string, limit int) ([]JournalEntry, error)

	// ListAgents returns the distinct names of all agents that have ever
	// logged an entry, sorted by name.
	ListAgents() ([]string, error)

	// Clear removes all journal entries for all agents.
	Clear() error
}

// Roster is the set of known execution-agent names. Names are created on
// first dispatch and ordered by creation time.
type Roster interface {
	// Load refreshes the in-memory view from the durable store so that
	// concurrently created agents become visible.
	Load() error

	// AddAgent inserts a name if absent. Adding an existing name is a no-op.
	AddAgent(name string) error

	// Agents returns all known agent names ordered by creation time.
	Agents() []string

	// Clear removes every agent from the roster.
	Clear() error
}
