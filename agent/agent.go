// Package agent defines the execution agent: a named worker whose entire
// history lives in the journal. Agents are created on first dispatch and
// carry no in-process state between executions; the journal transcript is
// replayed into the system prompt so each run sees what the agent did
// before.
package agent

import (
	"fmt"
	"strings"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
)

// historyWindow caps how many journal entries are replayed into the system
// prompt.
const historyWindow = 50

const basePrompt = `You are %s, an autonomous email task agent.
You complete one delegated task per run using the available tools, then report the outcome in plain language.
Prefer acting over asking; if a task cannot be completed, say exactly what failed.`

// ExecutionAgentOptions configures an ExecutionAgent.
type ExecutionAgentOptions struct {
	Logger logging.Logger
}

// ExecutionAgent is a named worker identity bound to the journal. Recording
// is best effort: journal failures are logged, never propagated, so an
// execution cannot fail on bookkeeping.
type ExecutionAgent struct {
	name    string
	journal core.JournalStore
	logger  logging.Logger
}

// New constructs an ExecutionAgent bound to the given journal.
func New(name string, journal core.JournalStore, optFns ...func(o *ExecutionAgentOptions)) *ExecutionAgent {
	opts := ExecutionAgentOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ExecutionAgent{
		name:    name,
		journal: journal,
		logger:  logging.OrNoOp(opts.Logger),
	}
}

// Name returns the agent's roster name.
func (a *ExecutionAgent) Name() string { return a.name }

func (a *ExecutionAgent) record(kind core.JournalKind, payload string) {
	if err := a.journal.Append(a.name, kind, payload); err != nil {
		a.logger.Warn("journal append failed", "agent", a.name, "kind", string(kind), "error", err)
	}
}

// RecordRequest journals the raw instruction text delivered to the agent.
func (a *ExecutionAgent) RecordRequest(instructions string) {
	a.record(core.JournalRequest, instructions)
}

// RecordToolExecution journals one tool invocation and its outcome as an
// action/response entry pair.
func (a *ExecutionAgent) RecordToolExecution(toolName, argsJSON, resultPayload string) {
	a.record(core.JournalAction, fmt.Sprintf("%s | args=%s", toolName, argsJSON))
	a.record(core.JournalToolResponse, resultPayload)
}

// RecordResponse journals the agent's final response for one execution.
func (a *ExecutionAgent) RecordResponse(response string) {
	a.record(core.JournalAgentResponse, response)
}

// SystemPrompt builds the run prompt: the agent's role description followed
// by a transcript of its recent journal history. With no history the base
// prompt is returned alone.
func (a *ExecutionAgent) SystemPrompt() (string, error) {
	prompt := fmt.Sprintf(basePrompt, a.name)

	entries, err := a.journal.Recent(a.name, historyWindow)
	if err != nil {
		return "", fmt.Errorf("load agent history: %w", err)
	}
	if len(entries) == 0 {
		return prompt, nil
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nYour previous activity:\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Kind, e.Payload))
	}
	return b.String(), nil
}
