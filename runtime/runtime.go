// Package runtime drives one execution-agent task from instruction to final
// response: a bounded plan/act loop in which the model either calls tools or
// produces the closing answer. Per-tool failures are reported back to the
// model as structured results; only transport and protocol breakdowns abort
// the run, and even those fold into a failed ExecutionResult rather than an
// error.
package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/sandeep231004/gmailassistant/agent"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/mail"
	"github.com/sandeep231004/gmailassistant/model"
	"github.com/sandeep231004/gmailassistant/tool"
)

// DefaultMaxToolIterations caps plan/act cycles per delegated task.
const DefaultMaxToolIterations = 8

// searchToolName is the retrieval tool targeted by the fallback heuristics.
const searchToolName = "task_email_search"

// Options configures a Runtime.
type Options struct {
	// MaxToolIterations overrides the plan/act cycle ceiling. Defaults to
	// DefaultMaxToolIterations when zero or negative.
	MaxToolIterations int

	Logger logging.Logger
}

// Runtime executes delegated tasks for one execution agent.
type Runtime struct {
	agent         *agent.ExecutionAgent
	model         model.Model
	registry      tool.Registry
	definitions   []model.ToolDefinition
	maxIterations int
	logger        logging.Logger
}

// New constructs a Runtime for the given agent, model, and tool registry.
func New(a *agent.ExecutionAgent, m model.Model, registry tool.Registry, optFns ...func(o *Options)) *Runtime {
	opts := Options{MaxToolIterations: DefaultMaxToolIterations}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxToolIterations <= 0 {
		opts.MaxToolIterations = DefaultMaxToolIterations
	}
	return &Runtime{
		agent:         a,
		model:         m,
		registry:      registry,
		definitions:   toolDefinitions(registry),
		maxIterations: opts.MaxToolIterations,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// toolDefinitions builds the model-facing schema catalog, name sorted for
// deterministic requests.
func toolDefinitions(registry tool.Registry) []model.ToolDefinition {
	names := registry.Names()
	sort.Strings(names)
	defs := make([]model.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := registry[name]
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	return defs
}

// Execute runs the agent against the given instructions. The returned result
// always carries the agent name; a fatal breakdown is reported via
// Success=false and never as a Go error.
func (r *Runtime) Execute(ctx context.Context, instructions string) core.ExecutionResult {
	response, toolsExecuted, err := r.run(ctx, instructions)
	if err != nil {
		r.logger.Error("execution failed", "agent", r.agent.Name(), "error", err)
		r.agent.RecordResponse(fmt.Sprintf("Error: %v", err))
		return core.ExecutionResult{
			AgentName:     r.agent.Name(),
			Success:       false,
			Response:      fmt.Sprintf("Failed to complete task: %v", err),
			Error:         err.Error(),
			ToolsExecuted: toolsExecuted,
		}
	}

	r.agent.RecordResponse(response)
	return core.ExecutionResult{
		AgentName:     r.agent.Name(),
		Success:       true,
		Response:      response,
		ToolsExecuted: toolsExecuted,
	}
}

func (r *Runtime) run(ctx context.Context, instructions string) (string, []string, error) {
	systemPrompt, err := r.agent.SystemPrompt()
	if err != nil {
		return "", nil, err
	}

	messages := []model.Message{{Role: model.RoleUser, Content: instructions}}
	var (
		toolsExecuted    []string
		finalResponse    string
		haveFinal        bool
		lastSearchResult []mail.EmailItem
		haveSearchResult bool
	)

	for iteration := 0; iteration < r.maxIterations && !haveFinal; iteration++ {
		r.logger.Info("requesting plan", "agent", r.agent.Name(), "iteration", iteration+1)
		resp, err := r.model.Complete(ctx, model.Request{
			Instructions: systemPrompt,
			Messages:     messages,
			Tools:        r.definitions,
		})
		if err != nil {
			return "", toolsExecuted, err
		}
		if resp == nil {
			return "", toolsExecuted, ErrEmptyModelResponse
		}
		r.logger.Debug("model response",
			"agent", r.agent.Name(),
			"iteration", iteration+1,
			"content_length", len(resp.Message.Content),
			"tool_calls", len(resp.Message.ToolCalls),
			"finish_reason", resp.FinishReason,
		)

		assistant := model.Message{
			Role:      model.RoleAssistant,
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		}
		messages = append(messages, assistant)

		if len(resp.Message.ToolCalls) == 0 {
			text := assistant.Content

			if containsToolCode(text) {
				if query := extractSearchQuery(text); query != "" {
					if forced, ok := r.forceSearch(ctx, query, &toolsExecuted); ok {
						finalResponse, haveFinal = forced, true
						break
					}
				}
			}

			if shouldForceSearch(instructions) {
				if forced, ok := r.forceSearch(ctx, instructions, &toolsExecuted); ok {
					finalResponse, haveFinal = forced, true
					break
				}
			}

			if text == "" {
				text = "No action required."
			}
			finalResponse, haveFinal = text, true
			break
		}

		for _, call := range resp.Message.ToolCalls {
			toolMsg, searchItems := r.executeToolCall(ctx, call, &toolsExecuted)
			messages = append(messages, toolMsg)
			if searchItems != nil {
				lastSearchResult, haveSearchResult = searchItems, true
			}
		}
	}

	if !haveFinal {
		return "", toolsExecuted, ErrIterationLimit
	}

	// A final response that says nothing while a search succeeded gets
	// replaced with the deterministic summary of that search.
	trimmed := strings.TrimSpace(finalResponse)
	if haveSearchResult && (trimmed == "" || trimmed == "No action required." || containsToolCode(finalResponse)) {
		finalResponse = summarizeSearchResults(lastSearchResult)
	}

	if finalResponse == "" {
		return "", toolsExecuted, ErrNoFinalResponse
	}
	return finalResponse, toolsExecuted, nil
}

// executeToolCall runs one structured tool call, journals it, and returns
// the tool message fed back to the model. When the call was a successful
// mailbox search the items are returned for the fallback summary.
func (r *Runtime) executeToolCall(ctx context.Context, call model.ToolCall, toolsExecuted *[]string) (model.Message, []mail.EmailItem) {
	if call.Name == "" {
		r.logger.Warn("tool call missing name", "agent", r.agent.Name())
		callID := call.ID
		if callID == "" {
			callID = unknownToolCallID
		}
		return model.Message{
			Role:       model.RoleTool,
			ToolCallID: callID,
			Content:    formatToolResult("<unknown>", false, map[string]any{"error": missingToolNameMessage}, parseArguments(call.Arguments)),
		}, nil
	}

	args := parseArguments(call.Arguments)
	*toolsExecuted = append(*toolsExecuted, call.Name)
	r.logger.Info("executing tool", "agent", r.agent.Name(), "tool", call.Name)

	success, result := r.executeTool(ctx, call.Name, args)

	var searchItems []mail.EmailItem
	var recordPayload string
	if success {
		recordPayload = safeJSONDump(result)
		if call.Name == searchToolName {
			if items, ok := result.([]mail.EmailItem); ok {
				searchItems = items
				if searchItems == nil {
					searchItems = []mail.EmailItem{}
				}
			}
		}
	} else {
		recordPayload = errorDetail(result)
		r.logger.Warn("tool failed", "agent", r.agent.Name(), "tool", call.Name, "error", recordPayload)
	}
	r.agent.RecordToolExecution(call.Name, safeJSONDump(args), recordPayload)

	callID := call.ID
	if callID == "" {
		callID = call.Name
	}
	return model.Message{
		Role:       model.RoleTool,
		ToolCallID: callID,
		Content:    formatToolResult(call.Name, success, result, args),
	}, searchItems
}

// executeTool resolves and invokes a registered tool. An unknown name or a
// failing call becomes a structured error result, never a Go error.
func (r *Runtime) executeTool(ctx context.Context, name string, args map[string]any) (bool, any) {
	t, ok := r.registry[name]
	if !ok {
		return false, map[string]any{"error": fmt.Sprintf("Unknown tool: %s", name)}
	}
	result, err := t.Call(ctx, args)
	if err != nil {
		return false, map[string]any{"error": err.Error()}
	}
	return true, result
}

// forceSearch runs the mailbox search directly when the model narrated
// instead of calling tools. Returns ok=false when the search tool is not
// registered or the query is empty.
func (r *Runtime) forceSearch(ctx context.Context, query string, toolsExecuted *[]string) (string, bool) {
	if _, ok := r.registry[searchToolName]; !ok {
		return "", false
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}

	r.logger.Info("forcing mailbox search", "agent", r.agent.Name())
	args := map[string]any{"search_query": query}
	*toolsExecuted = append(*toolsExecuted, searchToolName)

	success, result := r.executeTool(ctx, searchToolName, args)
	if success {
		r.agent.RecordToolExecution(searchToolName, safeJSONDump(args), safeJSONDump(result))
	} else {
		r.agent.RecordToolExecution(searchToolName, safeJSONDump(args), errorDetail(result))
	}

	if !success {
		return fmt.Sprintf("Failed to search emails: %s", errorDetail(result)), true
	}

	items, ok := result.([]mail.EmailItem)
	if !ok {
		return "Email search returned no results.", true
	}
	if len(items) == 0 {
		return "I couldn't find any emails matching that.", true
	}

	newest := newestItem(items)
	subject := orDefault(newest.Subject, "No subject")
	sender := orDefault(newest.Sender, "Unknown sender")
	timestamp := strings.TrimSpace(newest.Timestamp)
	summary := summarizeText(strings.TrimSpace(newest.CleanText))
	return fmt.Sprintf("Latest email from %s: %s (%s). Summary: %s", sender, subject, timestamp, summary), true
}

// parseArguments decodes the JSON argument payload of a tool call. Malformed
// payloads degrade to empty arguments so schema validation reports the
// missing fields.
func parseArguments(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

// formatToolResult builds the structured JSON string fed back to the model
// for one tool call.
func formatToolResult(toolName string, success bool, result any, args map[string]any) string {
	var payload map[string]any
	if success {
		payload = map[string]any{
			"tool":      toolName,
			"status":    "success",
			"arguments": args,
			"result":    result,
		}
	} else {
		payload = map[string]any{
			"tool":      toolName,
			"status":    "error",
			"arguments": args,
			"error":     errorDetail(result),
		}
	}
	return safeJSONDump(payload)
}

// errorDetail extracts the error string from a failure result.
func errorDetail(result any) string {
	if m, ok := result.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok {
			return msg
		}
	}
	return fmt.Sprintf("%v", result)
}

// safeJSONDump serializes a payload, falling back to the fmt representation
// when it cannot be marshaled.
func safeJSONDump(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(raw)
}
