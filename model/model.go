package model

import (
	"context"
	"fmt"
	"sync"
)

// Message roles used across providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall represents a function call request surfaced by a model provider.
// Unified across vendors so downstream logic does not need per-provider
// branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the
// model. Parameters is a JSON Schema object (minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Message is one turn in a chat-completions style conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set on role "tool" messages
}

// Request captures the normalized model input produced by the runtimes.
type Request struct {
	Instructions string           `json:"instructions"` // system prompt
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed assistant turn returned by a provider.
type Response struct {
	Message      Message     `json:"message"`
	FinishReason string      `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the agent runtimes use to request a single
// completion. Timeouts are enforced at this boundary via ctx; the runtime
// treats a transport timeout as an ordinary call failure.
type Model interface {
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel is a lightweight in-memory Model useful for tests and
// examples. Responses are consumed in order; once the script is exhausted
// the final response repeats.
type ScriptedModel struct {
	mu        sync.Mutex
	info      Info
	script    []Response
	requests  []Request
	callCount int
}

// NewScriptedModel constructs a ScriptedModel with basic tool support
// enabled.
func NewScriptedModel(name string, script ...Response) *ScriptedModel {
	return &ScriptedModel{
		info:   Info{Name: name, Provider: "scripted", SupportsTools: true},
		script: script,
	}
}

// Enqueue appends a canned response to the script.
func (m *ScriptedModel) Enqueue(resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

// Requests returns a copy of every request received so far.
func (m *ScriptedModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// CallCount returns the number of Complete invocations.
func (m *ScriptedModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Complete implements Model by replaying the scripted responses.
func (m *ScriptedModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	m.callCount++

	if len(m.script) == 0 {
		return nil, fmt.Errorf("scripted model %s has no responses", m.info.Name)
	}

	idx := m.callCount - 1
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	resp := m.script[idx]
	return &resp, nil
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }

// TextResponse builds a plain assistant text response with finish reason
// "stop".
func TextResponse(text string) Response {
	return Response{
		Message:      Message{Role: RoleAssistant, Content: text},
		FinishReason: "stop",
	}
}

// ToolCallResponse builds an assistant response carrying the given tool
// calls with finish reason "tool_calls".
func ToolCallResponse(calls ...ToolCall) Response {
	return Response{
		Message:      Message{Role: RoleAssistant, ToolCalls: calls},
		FinishReason: "tool_calls",
	}
}
