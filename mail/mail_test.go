package mail

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/store/memory"
)

// fakeService records executed actions and returns canned payloads keyed by
// action name.
type fakeService struct {
	calls   []string
	args    []map[string]any
	results map[string]map[string]any
	err     error
}

func (f *fakeService) Execute(_ context.Context, action, _ string, arguments map[string]any) (map[string]any, error) {
	f.calls = append(f.calls, action)
	f.args = append(f.args, arguments)
	if f.err != nil {
		return nil, f.err
	}
	if res, ok := f.results[action]; ok {
		return res, nil
	}
	return map[string]any{"status": "ok"}, nil
}

type fakeSearcher struct {
	items []EmailItem
	query string
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, _, query string) ([]EmailItem, error) {
	f.query = query
	return f.items, f.err
}

type staticResolver struct {
	accountID string
	name      string
}

func (r staticResolver) ActiveAccountID() string   { return r.accountID }
func (r staticResolver) DisplayName(string) string { return r.name }

func TestParseTimestamp(t *testing.T) {
	ts := ParseTimestamp("2026-08-28T09:15:00Z")
	assert.Equal(t, 2026, ts.Year())

	// Zoneless provider values still parse.
	assert.False(t, ParseTimestamp("2026-08-28T09:15:00").IsZero())

	// Missing or unparsable values sort before everything else.
	assert.True(t, ParseTimestamp("").IsZero())
	assert.True(t, ParseTimestamp("yesterday").IsZero())
}

func TestApplyDefaultSignoff(t *testing.T) {
	// Name already near the end: untouched.
	body := "Hi Sam,\n\nSee you soon.\n\nCheers,\nAlex"
	assert.Equal(t, body, ApplyDefaultSignoff(body, "Alex"))

	// Placeholder gets substituted.
	assert.Equal(
		t,
		"Hi Sam,\n\nThanks!\n\nBest,\nAlex",
		ApplyDefaultSignoff("Hi Sam,\n\nThanks!\n\nBest,\n[Your Name]", "Alex"),
	)

	// Otherwise the default sign-off is appended.
	assert.Equal(
		t,
		"Hi Sam,\n\nThanks!\n\nBest,\nAlex",
		ApplyDefaultSignoff("Hi Sam,\n\nThanks!", "Alex"),
	)

	// Unknown name or empty body: unchanged.
	assert.Equal(t, "Hi", ApplyDefaultSignoff("Hi", ""))
	assert.Equal(t, "  ", ApplyDefaultSignoff("  ", "Alex"))
}

func TestExtractDraftID(t *testing.T) {
	cases := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"top level draft_id", map[string]any{"draft_id": "d-1"}, "d-1"},
		{"camel case", map[string]any{"draftId": " d-2 "}, "d-2"},
		{"bare id", map[string]any{"id": "d-3"}, "d-3"},
		{
			"nested in data",
			map[string]any{"data": map[string]any{"response_data": map[string]any{"id": "d-4"}}},
			"d-4",
		},
		{
			"items array",
			map[string]any{"items": []any{map[string]any{"note": "x"}, map[string]any{"draft_id": "d-5"}}},
			"d-5",
		},
		{"non-string id ignored", map[string]any{"id": 42}, ""},
		{"missing", map[string]any{"status": "ok"}, ""},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractDraftID(tc.payload))
		})
	}
}

func TestCreateDraftTracksLatestAndSignsOff(t *testing.T) {
	service := &fakeService{results: map[string]map[string]any{
		ActionCreateDraft: {"data": map[string]any{"id": "draft-9"}},
	}}
	drafts := memory.NewDraftStore()
	journal := memory.NewJournalStore()
	toolset := NewToolset(service, &fakeSearcher{}, staticResolver{accountID: "acct-1", name: "Alex"}, drafts,
		func(o *ToolsetOptions) { o.Journal = journal })

	reg := toolset.Registry()
	create, ok := reg["gmail_create_draft"]
	require.True(t, ok)

	result, err := create.Call(context.Background(), map[string]any{
		"recipient_email": "sam@example.com",
		"subject":         "Lunch",
		"body":            "Does Thursday work?",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	require.Equal(t, []string{ActionCreateDraft}, service.calls)
	assert.Equal(t, "Does Thursday work?\n\nBest,\nAlex", service.args[0]["body"])

	draft, ok2, err := drafts.Latest("acct-1")
	require.NoError(t, err)
	require.True(t, ok2)
	assert.Equal(t, "draft-9", draft.DraftID)
	assert.Equal(t, "sam@example.com", draft.To)
	assert.Equal(t, "Lunch", draft.Subject)

	entries, err := journal.Entries(journalAgentName)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.JournalAction, entries[0].Kind)
	assert.Contains(t, entries[0].Payload, "GMAIL_CREATE_EMAIL_DRAFT succeeded")
}

func TestExecuteDraftClearsLatest(t *testing.T) {
	service := &fakeService{}
	drafts := memory.NewDraftStore()
	require.NoError(t, drafts.SetLatest(core.Draft{AccountID: "acct-1", DraftID: "d-1"}))

	toolset := NewToolset(service, &fakeSearcher{}, staticResolver{accountID: "acct-1"}, drafts)
	send := toolset.Registry()["gmail_execute_draft"]

	_, err := send.Call(context.Background(), map[string]any{"draft_id": "d-1"})
	require.NoError(t, err)

	_, ok, err := drafts.Latest("acct-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestToolsReportNotConnected(t *testing.T) {
	toolset := NewToolset(&fakeService{}, &fakeSearcher{}, staticResolver{}, memory.NewDraftStore())

	for _, name := range []string{"task_email_search", "gmail_create_draft", "gmail_execute_draft"} {
		t.Run(name, func(t *testing.T) {
			args := map[string]any{
				"search_query":    "anything",
				"recipient_email": "sam@example.com",
				"subject":         "s",
				"body":            "b",
				"draft_id":        "d",
			}
			// Trim to the schema of each tool so validation passes.
			switch name {
			case "task_email_search":
				args = map[string]any{"search_query": "anything"}
			case "gmail_execute_draft":
				args = map[string]any{"draft_id": "d"}
			case "gmail_create_draft":
				args = map[string]any{"recipient_email": "sam@example.com", "subject": "s", "body": "b"}
			}
			result, err := toolset.Registry()[name].Call(context.Background(), args)
			require.NoError(t, err)
			payload, ok := result.(map[string]any)
			require.True(t, ok)
			assert.Contains(t, payload["error"], "not connected")
		})
	}
}

func TestSearchToolReturnsItems(t *testing.T) {
	searcher := &fakeSearcher{items: []EmailItem{
		{Sender: "sam@example.com", Subject: "Lunch", Timestamp: "2024-01-02T09:00:00Z"},
	}}
	toolset := NewToolset(&fakeService{}, searcher, staticResolver{accountID: "acct-1"}, memory.NewDraftStore())

	result, err := toolset.Registry()["task_email_search"].Call(context.Background(), map[string]any{
		"search_query": "lunch from sam",
	})
	require.NoError(t, err)
	items, ok := result.([]EmailItem)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "lunch from sam", searcher.query)
	assert.Equal(t, "Lunch", items[0].Subject)
}

func TestServiceFailureBecomesToolError(t *testing.T) {
	service := &fakeService{err: fmt.Errorf("provider unavailable")}
	journal := memory.NewJournalStore()
	toolset := NewToolset(service, &fakeSearcher{}, staticResolver{accountID: "acct-1"}, memory.NewDraftStore(),
		func(o *ToolsetOptions) { o.Journal = journal })

	_, err := toolset.Registry()["gmail_delete_draft"].Call(context.Background(), map[string]any{"draft_id": "d-1"})
	require.Error(t, err)

	entries, err2 := journal.Entries(journalAgentName)
	require.NoError(t, err2)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Payload, "GMAIL_DELETE_DRAFT failed")
}

func TestResolverSwallowsStoreErrors(t *testing.T) {
	profiles := memory.NewProfileStore()
	require.NoError(t, profiles.SetActiveAccount("acct-1"))
	require.NoError(t, profiles.SetDisplayName("acct-1", "Alex"))

	resolver := NewResolver(profiles)
	assert.Equal(t, "acct-1", resolver.ActiveAccountID())
	assert.Equal(t, "Alex", resolver.DisplayName("acct-1"))
	assert.Equal(t, "", resolver.DisplayName(""))
}
