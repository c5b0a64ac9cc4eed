// Package engine drives the interaction agent: one long-lived conversational
// identity that reads the working-memory transcript, calls the model with the
// interaction tool catalog, and routes every tool call through the
// dispatcher. It also hosts the mailbox watcher that pokes the user about
// unseen inbound mail.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/dispatch"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/model"
)

// DefaultMaxTurnSteps caps model calls per user turn. Each step may route
// several tool calls; the ceiling guards against a model that keeps calling
// tools without ever settling on a reply.
const DefaultMaxTurnSteps = 4

const interactionPrompt = `You are the user's email assistant.
You never act on the mailbox yourself; you delegate tasks to execution agents and relay their results.
Always respond through your tools: use send_message_to_user for anything the user should read, send_message_to_agent to delegate work, send_draft to show a draft, send_latest_draft only after the user confirms sending, and wait when the conversation already contains your answer.
The conversation transcript below uses kind-tagged markers; agent_message entries are internal reports the user cannot see.`

// Hooks are optional observation points around a turn. Nil fields are
// skipped. Hooks run synchronously on the turn goroutine and must be fast.
type Hooks struct {
	// BeforeModel runs before each model call with the 1-based step number.
	BeforeModel func(step int, req *model.Request)

	// AfterTool runs after each routed tool call.
	AfterTool func(name string, result core.ToolResult)

	// OnReply runs once per turn with the first user-visible message.
	OnReply func(message string)
}

// Options configures an Engine.
type Options struct {
	// MaxTurnSteps overrides the per-turn model call ceiling. Defaults to
	// DefaultMaxTurnSteps when zero or negative.
	MaxTurnSteps int

	Hooks  Hooks
	Logger logging.Logger
}

// Engine runs interaction-agent turns.
type Engine struct {
	model      model.Model
	dispatcher *dispatch.Dispatcher
	log        *conversation.Log
	memory     *conversation.WorkingMemory
	schemas    []model.ToolDefinition
	maxSteps   int
	hooks      Hooks
	logger     logging.Logger
}

// New constructs an Engine over the given model, dispatcher, and
// conversation state.
func New(
	m model.Model,
	dispatcher *dispatch.Dispatcher,
	log *conversation.Log,
	memory *conversation.WorkingMemory,
	optFns ...func(o *Options),
) *Engine {
	opts := Options{MaxTurnSteps: DefaultMaxTurnSteps}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurnSteps <= 0 {
		opts.MaxTurnSteps = DefaultMaxTurnSteps
	}
	return &Engine{
		model:      m,
		dispatcher: dispatcher,
		log:        log,
		memory:     memory,
		schemas:    dispatch.ToolSchemas(),
		maxSteps:   opts.MaxTurnSteps,
		hooks:      opts.Hooks,
		logger:     logging.OrNoOp(opts.Logger),
	}
}

// ProcessUserMessage records the user's message and runs one interaction
// turn. It returns the first user-visible reply produced by the turn; an
// empty string means the agent chose to stay silent (wait) or only
// delegated work.
func (e *Engine) ProcessUserMessage(ctx context.Context, text string) (string, error) {
	if err := e.log.RecordUserMessage(text); err != nil {
		return "", err
	}
	return e.runTurn(ctx)
}

// RunTurn executes one interaction turn without a new user message, e.g.
// after an execution-agent report or a watcher poke landed in the log.
func (e *Engine) RunTurn(ctx context.Context) (string, error) {
	return e.runTurn(ctx)
}

func (e *Engine) runTurn(ctx context.Context) (string, error) {
	transcript, err := e.memory.Render()
	if err != nil {
		return "", fmt.Errorf("render working memory: %w", err)
	}

	messages := []model.Message{{Role: model.RoleUser, Content: transcript}}
	var reply string

	for step := 1; step <= e.maxSteps; step++ {
		req := model.Request{
			Instructions: interactionPrompt,
			Messages:     messages,
			Tools:        e.schemas,
		}
		if e.hooks.BeforeModel != nil {
			e.hooks.BeforeModel(step, &req)
		}

		resp, err := e.model.Complete(ctx, req)
		if err != nil {
			return reply, fmt.Errorf("interaction model call: %w", err)
		}
		if resp == nil {
			return reply, fmt.Errorf("interaction model returned no message")
		}
		e.logger.Debug("interaction step",
			"step", step,
			"tool_calls", len(resp.Message.ToolCalls),
			"content_length", len(resp.Message.Content),
		)

		messages = append(messages, model.Message{
			Role:      model.RoleAssistant,
			Content:   resp.Message.Content,
			ToolCalls: resp.Message.ToolCalls,
		})

		if len(resp.Message.ToolCalls) == 0 {
			// A bare text answer still reaches the user; the dispatcher
			// handles recording and dedup.
			if text := strings.TrimSpace(resp.Message.Content); text != "" && reply == "" {
				result := e.dispatcher.SendMessageToUser(text)
				if result.Success {
					reply = text
				}
			}
			break
		}

		for _, call := range resp.Message.ToolCalls {
			result := e.dispatcher.HandleToolCall(ctx, call.Name, call.Arguments)
			if e.hooks.AfterTool != nil {
				e.hooks.AfterTool(call.Name, result)
			}
			if result.UserMessage != "" && reply == "" {
				reply = result.UserMessage
			}
			messages = append(messages, toolResultMessage(call, result))
		}
	}

	if reply != "" && e.hooks.OnReply != nil {
		e.hooks.OnReply(reply)
	}
	return reply, nil
}

// toolResultMessage folds a dispatcher result into the tool message fed back
// to the model.
func toolResultMessage(call model.ToolCall, result core.ToolResult) model.Message {
	payload := map[string]any{
		"tool":    call.Name,
		"success": result.Success,
	}
	if result.Payload != nil {
		payload["payload"] = result.Payload
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"tool":%q,"success":%t}`, call.Name, result.Success))
	}

	callID := call.ID
	if callID == "" {
		callID = call.Name
	}
	return model.Message{
		Role:       model.RoleTool,
		ToolCallID: callID,
		Content:    string(raw),
	}
}
