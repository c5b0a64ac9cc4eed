package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/store/memory"
)

func newTestLog(t *testing.T) (*Log, *memory.ConversationStore, *memory.SummaryStore) {
	t.Helper()
	store := memory.NewConversationStore()
	summaries := memory.NewSummaryStore()
	return NewLog(store, summaries), store, summaries
}

func TestTranscriptRendersTaggedMarkers(t *testing.T) {
	log, _, _ := newTestLog(t)

	require.NoError(t, log.RecordUserMessage("any news from <sam@example.com>?"))
	require.NoError(t, log.RecordAgentMessage("searched inbox, nothing new"))
	require.NoError(t, log.RecordReply("Nothing new from Sam yet."))

	transcript, err := log.Transcript()
	require.NoError(t, err)

	lines := strings.Split(transcript, "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], `<user_message timestamp="`))
	assert.Contains(t, lines[0], "any news from &lt;sam@example.com&gt;?")
	assert.True(t, strings.HasSuffix(lines[0], "</user_message>"))
	assert.Contains(t, lines[1], "<agent_message")
	assert.Contains(t, lines[2], "Nothing new from Sam yet.")
}

func TestChatMessagesHideInternalEntries(t *testing.T) {
	log, _, _ := newTestLog(t)

	require.NoError(t, log.RecordUserMessage("check my inbox"))
	require.NoError(t, log.RecordAgentMessage("searching"))
	require.NoError(t, log.RecordWait("no agent results yet"))
	require.NoError(t, log.RecordReply("You have two new emails."))
	require.NoError(t, log.RecordPokeReply("Heads up: a meeting invite just arrived."))

	messages, err := log.ChatMessages()
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "check my inbox", messages[0].Content)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "You have two new emails.", messages[1].Content)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.NotEmpty(t, messages[0].Timestamp)
}

func TestAppendInvokesNotifier(t *testing.T) {
	store := memory.NewConversationStore()
	summaries := memory.NewSummaryStore()
	notified := 0
	log := NewLog(store, summaries, func(o *LogOptions) {
		o.OnAppend = func() { notified++ }
	})

	require.NoError(t, log.RecordUserMessage("hello"))
	require.NoError(t, log.RecordWait("idle"))
	assert.Equal(t, 2, notified)
}

func TestClearResetsSummary(t *testing.T) {
	log, store, summaries := newTestLog(t)

	require.NoError(t, log.RecordUserMessage("hello"))
	entry, err := store.Append(core.ConversationAssistantReply, "hi")
	require.NoError(t, err)
	require.NoError(t, summaries.SaveSummary(core.SummaryState{SummaryText: "greeted", LastIndex: entry.ID}))

	require.NoError(t, log.Clear())

	entries, err := log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	state, err := summaries.LoadSummary()
	require.NoError(t, err)
	assert.Equal(t, int64(-1), state.LastIndex)
	assert.Empty(t, state.SummaryText)
}
