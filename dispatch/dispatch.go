// Package dispatch routes the interaction agent's tool calls: delegating
// tasks to execution agents, replying to the user, recording and sending
// drafts, and the explicit wait. Handlers return a uniform core.ToolResult;
// delegation is fire-and-forget through the batch manager.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandeep231004/gmailassistant/conversation"
	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/mail"
)

// Interaction tool names.
const (
	ToolSendMessageToAgent = "send_message_to_agent"
	ToolSendMessageToUser  = "send_message_to_user"
	ToolSendDraft          = "send_draft"
	ToolSendLatestDraft    = "send_latest_draft"
	ToolWait               = "wait"
)

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Batch schedules delegated tasks. Without one, send_message_to_agent
	// fails explicitly instead of executing inline.
	Batch *BatchManager

	// Service creates and sends provider drafts. Without one, draft handlers
	// degrade to local recording with a warning.
	Service mail.Service

	Logger logging.Logger
}

// Dispatcher executes interaction-agent tool calls against the conversation
// log, the agent roster, and the draft store.
type Dispatcher struct {
	log      *conversation.Log
	roster   core.Roster
	journal  core.JournalStore
	drafts   core.DraftStore
	resolver core.AccountResolver
	service  mail.Service
	batch    *BatchManager
	logger   logging.Logger
}

// NewDispatcher constructs a Dispatcher over the given collaborators.
func NewDispatcher(
	log *conversation.Log,
	roster core.Roster,
	journal core.JournalStore,
	drafts core.DraftStore,
	resolver core.AccountResolver,
	optFns ...func(o *DispatcherOptions),
) *Dispatcher {
	opts := DispatcherOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Dispatcher{
		log:      log,
		roster:   roster,
		journal:  journal,
		drafts:   drafts,
		resolver: resolver,
		service:  opts.Service,
		batch:    opts.Batch,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// HandleToolCall routes one interaction tool call by name. Arguments may be
// a JSON string or an already-decoded map; anything else is rejected. All
// failures are reported through the result, never as a Go error.
func (d *Dispatcher) HandleToolCall(ctx context.Context, name string, arguments any) core.ToolResult {
	args, err := decodeArguments(arguments)
	if err != nil {
		return failure(map[string]any{"error": err.Error()})
	}

	switch name {
	case ToolSendMessageToAgent:
		agentName, ok1 := requireString(args, "agent_name")
		instructions, ok2 := requireString(args, "instructions")
		if !ok1 || !ok2 {
			return missingArguments("agent_name", "instructions")
		}
		return d.SendMessageToAgent(ctx, agentName, instructions)
	case ToolSendMessageToUser:
		message, ok := requireString(args, "message")
		if !ok {
			return missingArguments("message")
		}
		return d.SendMessageToUser(message)
	case ToolSendDraft:
		to, ok1 := requireString(args, "to")
		subject, ok2 := requireString(args, "subject")
		body, ok3 := requireString(args, "body")
		if !ok1 || !ok2 || !ok3 {
			return missingArguments("to", "subject", "body")
		}
		return d.SendDraft(ctx, to, subject, body)
	case ToolSendLatestDraft:
		return d.SendLatestDraft(ctx)
	case ToolWait:
		reason, ok := requireString(args, "reason")
		if !ok {
			return missingArguments("reason")
		}
		return d.Wait(reason)
	}

	d.logger.Warn("unexpected interaction tool", "tool", name)
	return failure(map[string]any{"error": fmt.Sprintf("Unknown tool: %s", name)})
}

// SendMessageToAgent delegates instructions to a named execution agent,
// creating it on first use. The instruction text is augmented with the
// user's sign-off name and, for retrieval-flavored tasks, a search hint
// before being journaled and scheduled.
func (d *Dispatcher) SendMessageToAgent(ctx context.Context, agentName, instructions string) core.ToolResult {
	if err := d.roster.Load(); err != nil {
		d.logger.Warn("roster refresh failed", "error", err)
	}
	isNew := true
	for _, existing := range d.roster.Agents() {
		if existing == agentName {
			isNew = false
			break
		}
	}
	if isNew {
		if err := d.roster.AddAgent(agentName); err != nil {
			return failure(map[string]any{"error": fmt.Sprintf("register agent: %v", err)})
		}
	}

	if userName := d.resolver.DisplayName(d.resolver.ActiveAccountID()); userName != "" {
		instructions = fmt.Sprintf(
			"%s\n\nUser name: %s. Use this as the default sign-off when drafting emails.",
			instructions, userName,
		)
	}
	if needsEmailSearchInstruction(agentName, instructions) {
		instructions = instructions + "\n\nEmail retrieval instruction: Use task_email_search to find " +
			"the relevant email(s). If this is a follow-up without a new source, use the " +
			"most recent email from your history; otherwise use a fresh fuzzy query with " +
			"ORs (from:NAME OR subject:\"NAME\" OR \"NAME\"). Always pick the newest " +
			"message by timestamp."
	}

	if err := d.journal.Append(agentName, core.JournalRequest, instructions); err != nil {
		d.logger.Warn("journal request record failed", "agent", agentName, "error", err)
	}

	action := "reused"
	if isNew {
		action = "created"
	}
	d.logger.Info("agent dispatch", "agent", agentName, "roster", action)

	if d.batch == nil {
		d.logger.Error("no executor available for agent dispatch", "agent", agentName)
		return failure(map[string]any{"error": "No executor available"})
	}
	d.batch.Submit(agentName, instructions)

	return core.ToolResult{
		Success: true,
		Payload: map[string]any{
			"status":            "submitted",
			"agent_name":        agentName,
			"new_agent_created": isNew,
		},
	}
}

// SendMessageToUser records a user-visible reply. A message identical (after
// trimming) to the most recent reply since the last user turn is deduplicated
// rather than recorded twice.
func (d *Dispatcher) SendMessageToUser(message string) core.ToolResult {
	lastReply, ok, err := d.lastAssistantReply()
	if err != nil {
		return failure(map[string]any{"error": fmt.Sprintf("read conversation: %v", err)})
	}
	if ok && strings.TrimSpace(lastReply) == strings.TrimSpace(message) {
		return core.ToolResult{
			Success:       true,
			Payload:       map[string]any{"status": "deduped"},
			RecordedReply: true,
		}
	}

	if err := d.log.RecordReply(message); err != nil {
		return failure(map[string]any{"error": fmt.Sprintf("record reply: %v", err)})
	}
	return core.ToolResult{
		Success:       true,
		Payload:       map[string]any{"status": "delivered"},
		UserMessage:   message,
		RecordedReply: true,
	}
}

// SendDraft records a draft as a canonical text block in the conversation and
// reconciles it with the provider: an identical pending draft is reused, a
// new one is created externally, and an external failure degrades to a
// warning on an otherwise successful result.
func (d *Dispatcher) SendDraft(ctx context.Context, to, subject, body string) core.ToolResult {
	accountID := d.resolver.ActiveAccountID()
	body = mail.ApplyDefaultSignoff(body, d.resolver.DisplayName(accountID))
	message := fmt.Sprintf("To: %s\nSubject: %s\n\n%s", to, subject, body)

	if err := d.log.RecordReply(message); err != nil {
		return failure(map[string]any{"error": fmt.Sprintf("record draft: %v", err)})
	}
	d.logger.Info("draft recorded", "to", to)

	payload := map[string]any{
		"status":  "draft_recorded",
		"to":      to,
		"subject": subject,
	}
	recorded := core.ToolResult{Success: true, Payload: payload, RecordedReply: true}

	if accountID == "" || d.service == nil {
		payload["warning"] = "Gmail not connected"
		return recorded
	}

	latest, ok, err := d.drafts.Latest(accountID)
	if err != nil {
		d.logger.Warn("draft lookup failed", "error", err)
	}
	if err == nil && ok && latest.To == to && latest.Subject == subject && latest.Body == body && latest.DraftID != "" {
		payload["draft_id"] = latest.DraftID
		payload["note"] = "Existing draft reused"
		return recorded
	}

	result, err := d.service.Execute(ctx, mail.ActionCreateDraft, accountID, map[string]any{
		"recipient_email": to,
		"subject":         subject,
		"body":            body,
	})
	if err != nil {
		payload["warning"] = fmt.Sprintf("Failed to create Gmail draft: %v", err)
		return recorded
	}

	draftID := mail.ExtractDraftID(result)
	if draftID != "" {
		if err := d.drafts.SetLatest(core.Draft{
			AccountID: accountID,
			DraftID:   draftID,
			To:        to,
			Subject:   subject,
			Body:      body,
		}); err != nil {
			d.logger.Warn("draft track failed", "error", err)
		}
	}
	payload["draft_id"] = draftID
	return recorded
}

// SendLatestDraft sends the account's pending provider draft. Absence of a
// draft is an actionable failure; a successful send clears the pending draft.
func (d *Dispatcher) SendLatestDraft(ctx context.Context) core.ToolResult {
	accountID := d.resolver.ActiveAccountID()
	var draftID string
	if accountID != "" {
		if draft, ok, err := d.drafts.Latest(accountID); err != nil {
			d.logger.Warn("draft lookup failed", "error", err)
		} else if ok {
			draftID = draft.DraftID
		}
	}
	if accountID == "" || draftID == "" || d.service == nil {
		return core.ToolResult{
			Success:     false,
			Payload:     map[string]any{"error": "No draft available to send."},
			UserMessage: "I couldn't find a draft to send. Want me to create one?",
		}
	}

	result, err := d.service.Execute(ctx, mail.ActionSendDraft, accountID, map[string]any{"draft_id": draftID})
	if err != nil {
		return core.ToolResult{
			Success:     false,
			Payload:     map[string]any{"error": err.Error()},
			UserMessage: "I couldn't send that draft. Want me to create a new one?",
		}
	}

	if err := d.drafts.ClearLatest(accountID); err != nil {
		d.logger.Warn("draft clear failed", "error", err)
	}
	return core.ToolResult{
		Success:       true,
		Payload:       anyMap(result),
		UserMessage:   "Sent it.",
		RecordedReply: true,
	}
}

// Wait records a silent wait marker. Waiting is only permitted when the
// latest non-wait entry is already a reply, so the user is never left
// without a response.
func (d *Dispatcher) Wait(reason string) core.ToolResult {
	allowed, err := d.canWait()
	if err != nil {
		return failure(map[string]any{"error": fmt.Sprintf("read conversation: %v", err)})
	}
	if !allowed {
		return failure(map[string]any{"error": "Cannot wait; no reply exists for the latest message."})
	}

	if err := d.log.RecordWait(reason); err != nil {
		return failure(map[string]any{"error": fmt.Sprintf("record wait: %v", err)})
	}
	return core.ToolResult{
		Success: true,
		Payload: map[string]any{
			"status": "waiting",
			"reason": reason,
		},
		RecordedReply: true,
	}
}

// canWait reports whether the newest non-wait entry is a reply-class entry.
func (d *Dispatcher) canWait() (bool, error) {
	entries, err := d.log.Entries()
	if err != nil {
		return false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Kind == core.ConversationWait {
			continue
		}
		return entries[i].Kind.IsReply(), nil
	}
	return false, nil
}

// lastAssistantReply returns the newest reply-class payload, scanning
// backwards and skipping wait markers. A user message encountered first means
// the latest turn has no reply yet.
func (d *Dispatcher) lastAssistantReply() (string, bool, error) {
	entries, err := d.log.Entries()
	if err != nil {
		return "", false, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		switch {
		case entries[i].Kind == core.ConversationWait:
			continue
		case entries[i].Kind.IsReply():
			return entries[i].Payload, true, nil
		case entries[i].Kind == core.ConversationUserMessage:
			return "", false, nil
		}
	}
	return "", false, nil
}

// searchHintTriggers mark delegations that almost certainly need a mailbox
// lookup; the retrieval hint is appended unless the instructions already
// reference a retrieval tool.
var searchHintTriggers = []string{
	"summarizer",
	"summarize",
	"summary",
	"details",
	"detail",
	"explain",
	"explanation",
	"what's in it",
	"what is in it",
	"more info",
	"more details",
	"detailed",
	"timeline",
	"newsletter",
	"latest",
	"email",
	"mail",
	"inbox",
}

func needsEmailSearchInstruction(agentName, instructions string) bool {
	text := strings.ToLower(agentName + "\n" + instructions)
	if strings.Contains(text, "task_email_search") || strings.Contains(text, "gmail_fetch_emails") {
		return false
	}
	for _, trigger := range searchHintTriggers {
		if strings.Contains(text, trigger) {
			return true
		}
	}
	return false
}

// decodeArguments normalizes tool-call arguments: a JSON string is decoded,
// a map passes through, nil means no arguments.
func decodeArguments(arguments any) (map[string]any, error) {
	switch v := arguments.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return map[string]any{}, nil
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(v), &args); err != nil {
			return nil, fmt.Errorf("Invalid JSON")
		}
		if args == nil {
			args = map[string]any{}
		}
		return args, nil
	default:
		return nil, fmt.Errorf("Invalid arguments format")
	}
}

func requireString(args map[string]any, key string) (string, bool) {
	value, ok := args[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func missingArguments(keys ...string) core.ToolResult {
	return failure(map[string]any{
		"error": fmt.Sprintf("Missing required arguments: %s", strings.Join(keys, ", ")),
	})
}

func failure(payload map[string]any) core.ToolResult {
	return core.ToolResult{Success: false, Payload: payload}
}

func anyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
