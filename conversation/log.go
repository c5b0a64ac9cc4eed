// Package conversation maintains the append-only interaction log and the
// working-memory view the interaction agent is prompted with. Entries are
// rendered as kind-tagged markers; once the log grows past a threshold the
// older entries are compacted into a rolling summary while a verbatim tail is
// kept.
package conversation

import (
	"fmt"
	"strings"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
)

// ChatMessage is one user-facing chat turn projected from the log.
type ChatMessage struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// LogOptions configures a Log.
type LogOptions struct {
	// Logger receives append failures. Defaults to a no-op logger.
	Logger logging.Logger

	// OnAppend is invoked after every successful append, typically wired to
	// Compactor.Notify.
	OnAppend func()
}

// Log is the append-only conversation log shared by the interaction agent
// and the user-facing chat surface.
type Log struct {
	store     core.ConversationStore
	summaries core.SummaryStore
	logger    logging.Logger
	onAppend  func()
}

// NewLog constructs a conversation log over the given stores. The summary
// store may be nil when working memory is not used.
func NewLog(store core.ConversationStore, summaries core.SummaryStore, optFns ...func(o *LogOptions)) *Log {
	opts := LogOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Log{
		store:     store,
		summaries: summaries,
		logger:    logging.OrNoOp(opts.Logger),
		onAppend:  opts.OnAppend,
	}
}

func (l *Log) append(kind core.ConversationKind, payload string) error {
	if _, err := l.store.Append(kind, payload); err != nil {
		l.logger.Error("conversation log append failed", "kind", string(kind), "error", err)
		return fmt.Errorf("append %s entry: %w", kind, err)
	}
	if l.onAppend != nil {
		l.onAppend()
	}
	return nil
}

// RecordUserMessage appends an inbound user message.
func (l *Log) RecordUserMessage(content string) error {
	return l.append(core.ConversationUserMessage, content)
}

// RecordAgentMessage appends an execution-agent report. These entries inform
// the interaction agent but never reach the user-facing chat history.
func (l *Log) RecordAgentMessage(content string) error {
	return l.append(core.ConversationAgentMessage, content)
}

// RecordReply appends an assistant reply delivered to the user.
func (l *Log) RecordReply(content string) error {
	return l.append(core.ConversationAssistantReply, content)
}

// RecordPokeReply appends a proactive assistant reply (unprompted outreach).
func (l *Log) RecordPokeReply(content string) error {
	return l.append(core.ConversationPokeReply, content)
}

// RecordWait appends a wait marker that should not reach the user-facing
// chat history.
func (l *Log) RecordWait(reason string) error {
	return l.append(core.ConversationWait, reason)
}

// Entries returns every log entry in insertion order.
func (l *Log) Entries() ([]core.ConversationEntry, error) {
	return l.store.Entries()
}

// EntriesAfter returns entries with an id greater than lastID.
func (l *Log) EntriesAfter(lastID int64) ([]core.ConversationEntry, error) {
	return l.store.EntriesAfter(lastID)
}

// Transcript renders the full log as kind-tagged markers, one per line.
func (l *Log) Transcript() (string, error) {
	entries, err := l.store.Entries()
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		parts = append(parts, renderEntry(e))
	}
	return strings.Join(parts, "\n"), nil
}

// ChatMessages projects the log onto the user-facing chat history. Agent
// reports and wait markers are hidden; assistant and poke replies share the
// assistant role.
func (l *Log) ChatMessages() ([]ChatMessage, error) {
	entries, err := l.store.Entries()
	if err != nil {
		return nil, fmt.Errorf("load chat messages: %w", err)
	}
	var messages []ChatMessage
	for _, e := range entries {
		switch {
		case e.Kind == core.ConversationUserMessage:
			messages = append(messages, ChatMessage{Role: "user", Content: e.Payload, Timestamp: formatTimestamp(e)})
		case e.Kind.IsReply():
			messages = append(messages, ChatMessage{Role: "assistant", Content: e.Payload, Timestamp: formatTimestamp(e)})
		}
	}
	return messages, nil
}

// Clear wipes the log and resets the working-memory summary. A failed
// summary reset is logged but does not fail the clear.
func (l *Log) Clear() error {
	if err := l.store.Clear(); err != nil {
		return fmt.Errorf("clear conversation log: %w", err)
	}
	if l.summaries != nil {
		if err := l.summaries.ResetSummary(); err != nil {
			l.logger.Warn("working memory reset skipped", "error", err)
		}
	}
	return nil
}

// timestampLayout matches the human-readable stamps embedded in transcript
// markers.
const timestampLayout = "2006-01-02 15:04:05"

func formatTimestamp(e core.ConversationEntry) string {
	if e.Timestamp.IsZero() {
		return ""
	}
	return e.Timestamp.Format(timestampLayout)
}

// escapePayload neutralizes markup-significant characters so payload text can
// never be confused with an entry marker. Quotes are left alone.
var payloadEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func renderEntry(e core.ConversationEntry) string {
	kind := string(e.Kind)
	payload := payloadEscaper.Replace(e.Payload)
	if ts := formatTimestamp(e); ts != "" {
		return fmt.Sprintf("<%s timestamp=%q>%s</%s>", kind, ts, payload, kind)
	}
	return fmt.Sprintf("<%s>%s</%s>", kind, payload, kind)
}
