package core

// ExecutionResult is the outcome of one execution-agent runtime invocation.
// It is constructed once per Execute call and never persisted as its own
// entity; its effects are persisted via journal entries.
type ExecutionResult struct {
	AgentName     string   `json:"agent_name"`
	Success       bool     `json:"success"`
	Response      string   `json:"response"`
	Error         string   `json:"error,omitempty"`
	ToolsExecuted []string `json:"tools_executed,omitempty"`
}

// ToolResult is the uniform payload returned by interaction-agent tool
// handlers.
type ToolResult struct {
	// Success indicates the handler completed its intent. Degraded outcomes
	// (for example an external draft creation that failed but was still
	// recorded locally) report Success=true with a warning in the payload.
	Success bool `json:"success"`

	// Payload carries handler-specific structured data (status, ids,
	// warnings, errors).
	Payload map[string]any `json:"payload,omitempty"`

	// UserMessage, when set, is a short user-facing string the surrounding
	// application may surface directly.
	UserMessage string `json:"user_message,omitempty"`

	// RecordedReply reports whether the handler appended a reply-class entry
	// (or an equivalent marker) to the conversation log.
	RecordedReply bool `json:"recorded_reply"`
}

// AccountResolver resolves the active external account and its display name.
// Implementations live outside the core runtime (see the mail package).
type AccountResolver interface {
	// ActiveAccountID returns the id of the active external account, or ""
	// if no account is connected.
	ActiveAccountID() string

	// DisplayName returns the preferred display name for the account, or ""
	// if unknown.
	DisplayName(accountID string) string
}
