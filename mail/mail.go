// Package mail holds the external mail collaborators: the account resolver,
// the opaque action service the execution-agent tools call into, and the tool
// catalog (schemas plus registry) exposed to execution agents.
package mail

import (
	"context"
	"time"
)

// EmailItem is one message returned by a mailbox search.
type EmailItem struct {
	MessageID string `json:"message_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Timestamp string `json:"timestamp"` // ISO-8601, provider supplied
	CleanText string `json:"clean_text,omitempty"`
}

// ParseTimestamp decodes a provider timestamp, tolerating a missing zone.
// Unparsable values sort before everything else.
func ParseTimestamp(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return t
	}
	return time.Time{}
}

// Searcher runs a free-text mailbox search on behalf of an execution agent.
type Searcher interface {
	Search(ctx context.Context, accountID, query string) ([]EmailItem, error)
}

// Provider action names. The Service treats them as opaque; they mirror the
// upstream integration's identifiers.
const (
	ActionCreateDraft   = "GMAIL_CREATE_EMAIL_DRAFT"
	ActionSendDraft     = "GMAIL_SEND_DRAFT"
	ActionDeleteDraft   = "GMAIL_DELETE_DRAFT"
	ActionForwardEmail  = "GMAIL_FORWARD_MESSAGE"
	ActionReplyToThread = "GMAIL_REPLY_TO_THREAD"
	ActionListDrafts    = "GMAIL_LIST_DRAFTS"
	ActionFetchEmails   = "GMAIL_FETCH_EMAILS"
)

// Service executes a named provider action for an account and returns the
// raw provider payload. Implementations wrap the actual mail integration;
// tests use fakes.
type Service interface {
	Execute(ctx context.Context, action, accountID string, arguments map[string]any) (map[string]any, error)
}
