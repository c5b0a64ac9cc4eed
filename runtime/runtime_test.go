package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeep231004/gmailassistant/agent"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/mail"
	"github.com/sandeep231004/gmailassistant/model"
	"github.com/sandeep231004/gmailassistant/store/memory"
	"github.com/sandeep231004/gmailassistant/tool"
)

func searchTool(items []mail.EmailItem, err error, gotQuery *string) tool.Tool {
	return tool.NewFunctionTool(
		"task_email_search",
		"Search the mailbox.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_query": map[string]any{"type": "string"},
			},
			"required": []string{"search_query"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			if gotQuery != nil {
				*gotQuery = args["search_query"].(string)
			}
			if err != nil {
				return nil, err
			}
			return items, nil
		},
	)
}

func echoTool(name string) tool.Tool {
	return tool.NewFunctionTool(
		name,
		"Echo the input value.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"value": map[string]any{"type": "string"},
			},
			"required": []string{"value"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"echo": args["value"]}, nil
		},
	)
}

func newRuntime(t *testing.T, m model.Model, reg tool.Registry) (*Runtime, *memory.JournalStore) {
	t.Helper()
	journal := memory.NewJournalStore()
	a := agent.New("test-agent", journal)
	return New(a, m, reg), journal
}

func TestExecutePlainTextResponse(t *testing.T) {
	m := model.NewScriptedModel("m", model.TextResponse("All done, nothing to report."))
	rt, journal := newRuntime(t, m, tool.NewRegistry())

	result := rt.Execute(context.Background(), "tell me about the weather")

	assert.True(t, result.Success)
	assert.Equal(t, "All done, nothing to report.", result.Response)
	assert.Equal(t, "test-agent", result.AgentName)
	assert.Empty(t, result.ToolsExecuted)

	entries, err := journal.Entries("test-agent")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, core.JournalAgentResponse, entries[0].Kind)
}

func TestExecuteToolCallLoop(t *testing.T) {
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{
			ID:        "call-1",
			Name:      "echo_value",
			Arguments: `{"value":"hello"}`,
		}),
		model.TextResponse("The echo came back."),
	)
	rt, journal := newRuntime(t, m, tool.NewRegistry(echoTool("echo_value")))

	result := rt.Execute(context.Background(), "do the thing")

	assert.True(t, result.Success)
	assert.Equal(t, "The echo came back.", result.Response)
	assert.Equal(t, []string{"echo_value"}, result.ToolsExecuted)

	// The second model request carries the structured tool result.
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, model.RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Content), &payload))
	assert.Equal(t, "echo_value", payload["tool"])
	assert.Equal(t, "success", payload["status"])
	assert.Equal(t, map[string]any{"value": "hello"}, payload["arguments"])

	// Journal: action + tool response + final response.
	entries, err := journal.Entries("test-agent")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, core.JournalAction, entries[0].Kind)
	assert.Equal(t, core.JournalToolResponse, entries[1].Kind)
	assert.Equal(t, core.JournalAgentResponse, entries[2].Kind)
}

func TestExecuteUnknownToolIsReportedNotFatal(t *testing.T) {
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{ID: "c1", Name: "no_such_tool", Arguments: `{}`}),
		model.TextResponse("Could not use that tool."),
	)
	rt, _ := newRuntime(t, m, tool.NewRegistry())

	result := rt.Execute(context.Background(), "do the thing")

	assert.True(t, result.Success)
	assert.Equal(t, "Could not use that tool.", result.Response)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(last.Content), &payload))
	assert.Equal(t, "error", payload["status"])
	assert.Contains(t, payload["error"], "Unknown tool: no_such_tool")
}

func TestExecuteMissingToolNameIsReportedNotFatal(t *testing.T) {
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{ID: "", Name: "", Arguments: ""}),
		model.TextResponse("Recovered."),
	)
	rt, _ := newRuntime(t, m, tool.NewRegistry())

	result := rt.Execute(context.Background(), "do the thing")

	assert.True(t, result.Success)
	assert.Empty(t, result.ToolsExecuted)

	reqs := m.Requests()
	require.Len(t, reqs, 2)
	last := reqs[1].Messages[len(reqs[1].Messages)-1]
	assert.Equal(t, unknownToolCallID, last.ToolCallID)
	assert.Contains(t, last.Content, "missing name")
}

func TestExecuteIterationLimit(t *testing.T) {
	// The scripted model repeats its last response, so the runtime keeps
	// receiving tool calls until it gives up.
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{ID: "c", Name: "echo_value", Arguments: `{"value":"x"}`}),
	)
	rt, journal := newRuntime(t, m, tool.NewRegistry(echoTool("echo_value")))

	result := rt.Execute(context.Background(), "loop forever")

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "iteration limit")
	assert.Contains(t, result.Response, "Failed to complete task:")
	assert.Len(t, result.ToolsExecuted, DefaultMaxToolIterations)
	assert.Equal(t, DefaultMaxToolIterations, m.CallCount())

	// The failure is journaled as the agent's final word.
	entries, err := journal.Entries("test-agent")
	require.NoError(t, err)
	lastEntry := entries[len(entries)-1]
	assert.Equal(t, core.JournalAgentResponse, lastEntry.Kind)
	assert.Contains(t, lastEntry.Payload, "Error:")
}

func TestExecuteModelFailureFoldsIntoResult(t *testing.T) {
	m := model.NewScriptedModel("m") // no responses scripted
	rt, _ := newRuntime(t, m, tool.NewRegistry())

	result := rt.Execute(context.Background(), "hello")

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
	assert.Contains(t, result.Response, "Failed to complete task:")
}

func TestForcedSearchFromInstructions(t *testing.T) {
	items := []mail.EmailItem{
		{Sender: "old@example.com", Subject: "Old", Timestamp: "2024-01-01T09:00:00Z", CleanText: "Old body."},
		{Sender: "sam@example.com", Subject: "Lunch", Timestamp: "2024-01-02T09:00:00Z", CleanText: "Are we still on for lunch? Let me know. Bring the docs."},
	}
	var gotQuery string
	m := model.NewScriptedModel("m", model.TextResponse("I will check your inbox now."))
	rt, _ := newRuntime(t, m, tool.NewRegistry(searchTool(items, nil, &gotQuery)))

	result := rt.Execute(context.Background(), "summarize my latest email")

	assert.True(t, result.Success)
	assert.Equal(t, "summarize my latest email", gotQuery)
	assert.Equal(t, []string{"task_email_search"}, result.ToolsExecuted)
	assert.Equal(
		t,
		"Latest email from sam@example.com: Lunch (2024-01-02T09:00:00Z). Summary: Are we still on for lunch? Let me know.",
		result.Response,
	)
}

func TestForcedSearchFromLeakedToolCode(t *testing.T) {
	items := []mail.EmailItem{
		{Sender: "sam@example.com", Subject: "Lunch", Timestamp: "2024-01-02T09:00:00Z", CleanText: "See you at noon."},
	}
	var gotQuery string
	m := model.NewScriptedModel("m", model.TextResponse(
		"```tool_code\ntask_email_search(search_query=\"from sam\")\n```",
	))
	rt, _ := newRuntime(t, m, tool.NewRegistry(searchTool(items, nil, &gotQuery)))

	result := rt.Execute(context.Background(), "anything urgent?")

	assert.True(t, result.Success)
	assert.Equal(t, "from sam", gotQuery)
	assert.Equal(
		t,
		"Latest email from sam@example.com: Lunch (2024-01-02T09:00:00Z). Summary: See you at noon.",
		result.Response,
	)
}

func TestForcedSearchEmptyResults(t *testing.T) {
	m := model.NewScriptedModel("m", model.TextResponse("Checking the inbox."))
	rt, _ := newRuntime(t, m, tool.NewRegistry(searchTool([]mail.EmailItem{}, nil, nil)))

	result := rt.Execute(context.Background(), "any new emails?")

	assert.True(t, result.Success)
	assert.Equal(t, "I couldn't find any emails matching that.", result.Response)
}

func TestForcedSearchFailure(t *testing.T) {
	m := model.NewScriptedModel("m", model.TextResponse("Checking the inbox."))
	rt, _ := newRuntime(t, m, tool.NewRegistry(searchTool(nil, fmt.Errorf("mailbox offline"), nil)))

	result := rt.Execute(context.Background(), "any new emails?")

	assert.True(t, result.Success)
	assert.Contains(t, result.Response, "Failed to search emails:")
	assert.Contains(t, result.Response, "mailbox offline")
}

func TestSearchSummaryReplacesEmptyFinalResponse(t *testing.T) {
	items := []mail.EmailItem{
		{Sender: "sam@example.com", Subject: "Lunch", Timestamp: "2024-01-02T09:00:00Z"},
	}
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{
			ID:        "c1",
			Name:      "task_email_search",
			Arguments: `{"search_query":"lunch"}`,
		}),
		model.TextResponse(""),
	)
	rt, _ := newRuntime(t, m, tool.NewRegistry(searchTool(items, nil, nil)))

	// Draft-flavored instructions keep the keyword heuristic out of the way;
	// the empty final response falls back to the search summary.
	result := rt.Execute(context.Background(), "draft nothing, just look")

	assert.True(t, result.Success)
	assert.Equal(t, "Found 1 email from sam@example.com: Lunch (2024-01-02T09:00:00Z).", result.Response)
}

func TestMaxIterationOverride(t *testing.T) {
	m := model.NewScriptedModel("m",
		model.ToolCallResponse(model.ToolCall{ID: "c", Name: "echo_value", Arguments: `{"value":"x"}`}),
	)
	journal := memory.NewJournalStore()
	a := agent.New("test-agent", journal)
	rt := New(a, m, tool.NewRegistry(echoTool("echo_value")), func(o *Options) {
		o.MaxToolIterations = 2
	})

	result := rt.Execute(context.Background(), "loop")

	assert.False(t, result.Success)
	assert.Equal(t, 2, m.CallCount())
}
