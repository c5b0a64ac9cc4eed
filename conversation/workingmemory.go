package conversation

import (
	"fmt"
	"strings"

	"github.com/sandeep231004/gmailassistant/core"
)

// WorkingMemory renders the compacted view of the conversation the
// interaction agent is prompted with: the rolling summary (when present)
// followed by every entry newer than the summary checkpoint, verbatim.
type WorkingMemory struct {
	entries   core.ConversationStore
	summaries core.SummaryStore
}

// NewWorkingMemory constructs a working-memory view over the given stores.
func NewWorkingMemory(entries core.ConversationStore, summaries core.SummaryStore) *WorkingMemory {
	return &WorkingMemory{entries: entries, summaries: summaries}
}

// Render produces the prompt-ready transcript. With no summary and no
// entries it returns the empty string.
func (w *WorkingMemory) Render() (string, error) {
	state, err := w.summaries.LoadSummary()
	if err != nil {
		return "", fmt.Errorf("load summary state: %w", err)
	}

	var parts []string
	if summary := strings.TrimSpace(state.SummaryText); summary != "" {
		parts = append(parts, fmt.Sprintf("<conversation_summary>%s</conversation_summary>", payloadEscaper.Replace(summary)))
	}

	tail, err := w.entries.EntriesAfter(state.LastIndex)
	if err != nil {
		return "", fmt.Errorf("load unsummarized entries: %w", err)
	}
	for _, e := range tail {
		parts = append(parts, renderEntry(e))
	}
	return strings.Join(parts, "\n"), nil
}

// Clear resets the summary checkpoint so the next Render sees the full log.
func (w *WorkingMemory) Clear() error {
	return w.summaries.ResetSummary()
}
