package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/mail"
	"github.com/sandeep231004/gmailassistant/store/memory"
)

type fakeService struct {
	mu      sync.Mutex
	calls   []string
	args    []map[string]any
	results map[string]map[string]any
	err     error
}

func (s *fakeService) Execute(_ context.Context, action, _ string, arguments map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, action)
	s.args = append(s.args, arguments)
	if s.err != nil {
		return nil, s.err
	}
	if result, ok := s.results[action]; ok {
		return result, nil
	}
	return map[string]any{}, nil
}

func (s *fakeService) callCount(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, call := range s.calls {
		if call == action {
			n++
		}
	}
	return n
}

type staticResolver struct {
	accountID string
	name      string
}

func (r staticResolver) ActiveAccountID() string     { return r.accountID }
func (r staticResolver) DisplayName(_ string) string { return r.name }

type fixture struct {
	dispatcher *Dispatcher
	log        *conversation.Log
	journal    *memory.JournalStore
	roster     *memory.Roster
	drafts     *memory.DraftStore
	service    *fakeService
	batch      *BatchManager
	executed   *executionRecorder
}

type executionRecorder struct {
	mu    sync.Mutex
	tasks []string
}

func (r *executionRecorder) Execute(_ context.Context, agentName, instructions string) core.ExecutionResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, agentName+"|"+instructions)
	return core.ExecutionResult{AgentName: agentName, Success: true, Response: "done"}
}

func (r *executionRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func newFixture(t *testing.T, resolver core.AccountResolver) *fixture {
	t.Helper()
	log := conversation.NewLog(memory.NewConversationStore(), memory.NewSummaryStore())
	journal := memory.NewJournalStore()
	roster := memory.NewRoster()
	drafts := memory.NewDraftStore()
	service := &fakeService{results: map[string]map[string]any{}}
	recorder := &executionRecorder{}
	batch := NewBatchManager(recorder)

	d := NewDispatcher(log, roster, journal, drafts, resolver, func(o *DispatcherOptions) {
		o.Batch = batch
		o.Service = service
	})
	return &fixture{
		dispatcher: d,
		log:        log,
		journal:    journal,
		roster:     roster,
		drafts:     drafts,
		service:    service,
		batch:      batch,
		executed:   recorder,
	}
}

func TestSendMessageToAgentCreatesAndSubmits(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1", name: "Priya"})

	result := f.dispatcher.SendMessageToAgent(context.Background(), "Vercel Job Offer", "Reply to the recruiter politely.")
	f.batch.Wait()

	require.True(t, result.Success)
	assert.Equal(t, "submitted", result.Payload["status"])
	assert.Equal(t, true, result.Payload["new_agent_created"])
	assert.Contains(t, f.roster.Agents(), "Vercel Job Offer")

	// The delegated instructions carry the sign-off augmentation.
	tasks := f.executed.snapshot()
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "User name: Priya.")

	entries, err := f.journal.Entries("Vercel Job Offer")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.JournalRequest, entries[0].Kind)
	assert.Contains(t, entries[0].Payload, "Reply to the recruiter politely.")
}

func TestSendMessageToAgentReusesExisting(t *testing.T) {
	f := newFixture(t, staticResolver{})
	require.NoError(t, f.roster.AddAgent("Inbox Summarizer"))

	result := f.dispatcher.SendMessageToAgent(context.Background(), "Inbox Summarizer", "Summarize today's email.")
	f.batch.Wait()

	require.True(t, result.Success)
	assert.Equal(t, false, result.Payload["new_agent_created"])
	assert.Len(t, f.roster.Agents(), 1)

	// A retrieval-flavored task gets the search hint appended.
	tasks := f.executed.snapshot()
	require.Len(t, tasks, 1)
	assert.Contains(t, tasks[0], "Email retrieval instruction:")
}

func TestSendMessageToAgentSkipsHintWhenToolReferenced(t *testing.T) {
	f := newFixture(t, staticResolver{})

	f.dispatcher.SendMessageToAgent(context.Background(), "Worker", "Use task_email_search to find the invoice email.")
	f.batch.Wait()

	tasks := f.executed.snapshot()
	require.Len(t, tasks, 1)
	assert.NotContains(t, tasks[0], "Email retrieval instruction:")
}

func TestSendMessageToAgentWithoutExecutorFails(t *testing.T) {
	log := conversation.NewLog(memory.NewConversationStore(), memory.NewSummaryStore())
	d := NewDispatcher(log, memory.NewRoster(), memory.NewJournalStore(), memory.NewDraftStore(), staticResolver{})

	result := d.SendMessageToAgent(context.Background(), "Worker", "Do something.")

	assert.False(t, result.Success)
	assert.Equal(t, "No executor available", result.Payload["error"])
}

func TestSendMessageToUserRecordsReply(t *testing.T) {
	f := newFixture(t, staticResolver{})

	result := f.dispatcher.SendMessageToUser("Here is your summary.")

	require.True(t, result.Success)
	assert.Equal(t, "delivered", result.Payload["status"])
	assert.Equal(t, "Here is your summary.", result.UserMessage)
	assert.True(t, result.RecordedReply)

	entries, err := f.log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.ConversationAssistantReply, entries[0].Kind)
}

func TestSendMessageToUserDeduplicates(t *testing.T) {
	f := newFixture(t, staticResolver{})
	require.NoError(t, f.log.RecordReply("Done!"))

	result := f.dispatcher.SendMessageToUser("  Done!  ")

	require.True(t, result.Success)
	assert.Equal(t, "deduped", result.Payload["status"])
	assert.True(t, result.RecordedReply)

	entries, err := f.log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSendMessageToUserDedupScopedToLatestTurn(t *testing.T) {
	f := newFixture(t, staticResolver{})
	require.NoError(t, f.log.RecordReply("Done!"))
	require.NoError(t, f.log.RecordUserMessage("do it again"))

	result := f.dispatcher.SendMessageToUser("Done!")

	// The earlier identical reply precedes the new user turn, so the
	// message is recorded again.
	require.True(t, result.Success)
	assert.Equal(t, "delivered", result.Payload["status"])

	entries, err := f.log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestSendDraftRecordsAndCreatesExternally(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1", name: "Priya"})
	f.service.results[mail.ActionCreateDraft] = map[string]any{
		"data": map[string]any{"draft_id": "dr-42"},
	}

	result := f.dispatcher.SendDraft(context.Background(), "sam@example.com", "Lunch", "See you at noon?")

	require.True(t, result.Success)
	assert.Equal(t, "draft_recorded", result.Payload["status"])
	assert.Equal(t, "dr-42", result.Payload["draft_id"])
	assert.True(t, result.RecordedReply)

	// The conversation carries the canonical draft block with sign-off.
	entries, err := f.log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Payload, "To: sam@example.com\nSubject: Lunch\n\n"))
	assert.Contains(t, entries[0].Payload, "Best,\nPriya")

	draft, ok, err := f.drafts.Latest("acct-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dr-42", draft.DraftID)
	assert.Contains(t, draft.Body, "Best,\nPriya")
}

func TestSendDraftReusesIdenticalPendingDraft(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1", name: "Priya"})
	body := mail.ApplyDefaultSignoff("See you at noon?", "Priya")
	require.NoError(t, f.drafts.SetLatest(core.Draft{
		AccountID: "acct-1",
		DraftID:   "dr-42",
		To:        "sam@example.com",
		Subject:   "Lunch",
		Body:      body,
	}))

	result := f.dispatcher.SendDraft(context.Background(), "sam@example.com", "Lunch", "See you at noon?")

	require.True(t, result.Success)
	assert.Equal(t, "dr-42", result.Payload["draft_id"])
	assert.Equal(t, "Existing draft reused", result.Payload["note"])
	assert.Zero(t, f.service.callCount(mail.ActionCreateDraft))
}

func TestSendDraftWithoutAccountWarns(t *testing.T) {
	f := newFixture(t, staticResolver{})

	result := f.dispatcher.SendDraft(context.Background(), "sam@example.com", "Lunch", "Hello.")

	require.True(t, result.Success)
	assert.Equal(t, "Gmail not connected", result.Payload["warning"])
	assert.Zero(t, f.service.callCount(mail.ActionCreateDraft))
}

func TestSendDraftExternalFailureDegradesToWarning(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1"})
	f.service.err = fmt.Errorf("provider down")

	result := f.dispatcher.SendDraft(context.Background(), "sam@example.com", "Lunch", "Hello.")

	require.True(t, result.Success)
	assert.Contains(t, result.Payload["warning"], "Failed to create Gmail draft: provider down")

	// The draft is still visible to the user in the conversation.
	entries, err := f.log.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSendLatestDraftSendsAndClears(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1"})
	require.NoError(t, f.drafts.SetLatest(core.Draft{AccountID: "acct-1", DraftID: "dr-42"}))

	result := f.dispatcher.SendLatestDraft(context.Background())

	require.True(t, result.Success)
	assert.Equal(t, "Sent it.", result.UserMessage)
	assert.Equal(t, 1, f.service.callCount(mail.ActionSendDraft))

	_, ok, err := f.drafts.Latest("acct-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSendLatestDraftWithoutDraftFails(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1"})

	result := f.dispatcher.SendLatestDraft(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "I couldn't find a draft to send. Want me to create one?", result.UserMessage)
}

func TestSendLatestDraftProviderFailureKeepsDraft(t *testing.T) {
	f := newFixture(t, staticResolver{accountID: "acct-1"})
	require.NoError(t, f.drafts.SetLatest(core.Draft{AccountID: "acct-1", DraftID: "dr-42"}))
	f.service.err = fmt.Errorf("quota exceeded")

	result := f.dispatcher.SendLatestDraft(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, "I couldn't send that draft. Want me to create a new one?", result.UserMessage)

	_, ok, err := f.drafts.Latest("acct-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWaitRequiresExistingReply(t *testing.T) {
	f := newFixture(t, staticResolver{})

	result := f.dispatcher.Wait("message already sent")
	assert.False(t, result.Success)

	require.NoError(t, f.log.RecordUserMessage("hello"))
	result = f.dispatcher.Wait("message already sent")
	assert.False(t, result.Success)

	require.NoError(t, f.log.RecordReply("hi there"))
	result = f.dispatcher.Wait("message already sent")
	require.True(t, result.Success)
	assert.Equal(t, "waiting", result.Payload["status"])

	// Wait markers are skipped when gating, so waiting twice is allowed.
	result = f.dispatcher.Wait("still nothing to add")
	assert.True(t, result.Success)
}

func TestWaitAllowedAfterPokeReply(t *testing.T) {
	f := newFixture(t, staticResolver{})
	require.NoError(t, f.log.RecordPokeReply("You have a new email from Sam."))

	result := f.dispatcher.Wait("poke already delivered")
	assert.True(t, result.Success)
}

func TestHandleToolCallRouting(t *testing.T) {
	f := newFixture(t, staticResolver{})

	result := f.dispatcher.HandleToolCall(context.Background(), ToolSendMessageToUser, `{"message":"Hi!"}`)
	require.True(t, result.Success)
	assert.Equal(t, "Hi!", result.UserMessage)

	result = f.dispatcher.HandleToolCall(context.Background(), ToolSendMessageToUser, map[string]any{"message": "Hi again!"})
	require.True(t, result.Success)

	result = f.dispatcher.HandleToolCall(context.Background(), "nonsense", `{}`)
	assert.False(t, result.Success)
	assert.Equal(t, "Unknown tool: nonsense", result.Payload["error"])

	result = f.dispatcher.HandleToolCall(context.Background(), ToolSendMessageToUser, `{broken`)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid JSON", result.Payload["error"])

	result = f.dispatcher.HandleToolCall(context.Background(), ToolSendMessageToUser, 42)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid arguments format", result.Payload["error"])

	result = f.dispatcher.HandleToolCall(context.Background(), ToolSendDraft, `{"to":"x@y.z"}`)
	assert.False(t, result.Success)
	assert.Contains(t, result.Payload["error"], "Missing required arguments")
}

func TestToolSchemasMatchRouting(t *testing.T) {
	schemas := ToolSchemas()
	require.Len(t, schemas, 5)

	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		assert.Equal(t, "function", s.Type)
		names = append(names, s.Function.Name)
	}
	assert.Equal(t, []string{
		ToolSendMessageToAgent,
		ToolSendMessageToUser,
		ToolSendDraft,
		ToolSendLatestDraft,
		ToolWait,
	}, names)
}
