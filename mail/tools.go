package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sandeep231004/gmailassistant/core"
	"github.com/sandeep231004/gmailassistant/logging"
	"github.com/sandeep231004/gmailassistant/tool"
)

// journalAgentName is the journal identity shared by every mail tool action.
const journalAgentName = "gmail-execution-agent"

// notConnectedError is the payload returned when no mail account is active.
func notConnectedError() map[string]any {
	return map[string]any{"error": "Gmail not connected. Please connect Gmail in settings first."}
}

// ToolsetOptions configures a Toolset.
type ToolsetOptions struct {
	// Journal, when set, receives an agent_action entry per executed action.
	Journal core.JournalStore

	Logger logging.Logger
}

// Toolset builds the execution-agent tool registry over the mail
// collaborators. Construction wires the draft store so created drafts are
// tracked and sent drafts are cleared.
type Toolset struct {
	service  Service
	searcher Searcher
	resolver core.AccountResolver
	drafts   core.DraftStore
	journal  core.JournalStore
	logger   logging.Logger
}

// NewToolset constructs a Toolset.
func NewToolset(service Service, searcher Searcher, resolver core.AccountResolver, drafts core.DraftStore, optFns ...func(o *ToolsetOptions)) *Toolset {
	opts := ToolsetOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolset{
		service:  service,
		searcher: searcher,
		resolver: resolver,
		drafts:   drafts,
		journal:  opts.Journal,
		logger:   logging.OrNoOp(opts.Logger),
	}
}

// Registry returns the tool registry exposed to execution agents.
func (t *Toolset) Registry() tool.Registry {
	return tool.NewRegistry(
		t.searchTool(),
		t.createDraftTool(),
		t.executeDraftTool(),
		t.deleteDraftTool(),
		t.forwardEmailTool(),
		t.replyToThreadTool(),
		t.listDraftsTool(),
	)
}

// execute runs a provider action and records the outcome in the journal.
func (t *Toolset) execute(ctx context.Context, action, accountID string, args map[string]any) (map[string]any, error) {
	payload := make(map[string]any, len(args))
	for k, v := range args {
		if v != nil {
			payload[k] = v
		}
	}
	argsDump := safeJSONDump(payload)

	result, err := t.service.Execute(ctx, action, accountID, payload)
	if err != nil {
		t.recordAction(fmt.Sprintf("%s failed | args=%s | error=%v", action, argsDump, err))
		return nil, err
	}
	t.recordAction(fmt.Sprintf("%s succeeded | args=%s", action, argsDump))
	return result, nil
}

func (t *Toolset) recordAction(description string) {
	if t.journal == nil {
		return
	}
	if err := t.journal.Append(journalAgentName, core.JournalAction, description); err != nil {
		t.logger.Warn("mail action journal append failed", "error", err)
	}
}

func safeJSONDump(payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%v", payload)
	}
	return string(raw)
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func (t *Toolset) searchTool() tool.Tool {
	return tool.NewFunctionTool(
		"task_email_search",
		"Search the connected mailbox and return matching emails with sender, subject, timestamp, and cleaned body text.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_query": map[string]any{
					"type":        "string",
					"description": "Free-text query describing the emails to find.",
				},
			},
			"required":             []string{"search_query"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.searcher == nil {
				return notConnectedError(), nil
			}
			query := stringArg(args, "search_query")
			items, err := t.searcher.Search(ctx, accountID, query)
			if err != nil {
				t.recordAction(fmt.Sprintf("task_email_search failed | query=%s | error=%v", query, err))
				return nil, err
			}
			t.recordAction(fmt.Sprintf("task_email_search succeeded | query=%s | results=%d", query, len(items)))
			return items, nil
		},
	)
}

func (t *Toolset) createDraftTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_create_draft",
		"Create a Gmail draft, supporting html/plain bodies, cc/bcc, and threading.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recipient_email": map[string]any{
					"type":        "string",
					"description": "Primary recipient email for the draft.",
				},
				"subject": map[string]any{"type": "string", "description": "Email subject."},
				"body": map[string]any{
					"type":        "string",
					"description": "Email body. Use HTML markup when is_html is true.",
				},
				"cc": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional list of CC recipient emails.",
				},
				"bcc": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional list of BCC recipient emails.",
				},
				"is_html": map[string]any{
					"type":        "boolean",
					"description": "Set true when the body contains HTML content.",
				},
				"thread_id": map[string]any{
					"type":        "string",
					"description": "Existing thread id if this draft belongs to a thread.",
				},
			},
			"required":             []string{"recipient_email", "subject", "body"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}

			body := ApplyDefaultSignoff(stringArg(args, "body"), t.resolver.DisplayName(accountID))
			args["body"] = body

			result, err := t.execute(ctx, ActionCreateDraft, accountID, args)
			if err != nil {
				return nil, err
			}
			if draftID := ExtractDraftID(result); draftID != "" {
				if err := t.drafts.SetLatest(core.Draft{
					AccountID: accountID,
					DraftID:   draftID,
					To:        stringArg(args, "recipient_email"),
					Subject:   stringArg(args, "subject"),
					Body:      body,
				}); err != nil {
					t.logger.Warn("latest draft tracking failed", "error", err)
				}
			}
			return result, nil
		},
	)
}

func (t *Toolset) executeDraftTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_execute_draft",
		"Send a previously created Gmail draft.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"draft_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the draft to send.",
				},
			},
			"required":             []string{"draft_id"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}
			result, err := t.execute(ctx, ActionSendDraft, accountID, args)
			if err != nil {
				return nil, err
			}
			if err := t.drafts.ClearLatest(accountID); err != nil {
				t.logger.Warn("latest draft clear failed", "error", err)
			}
			return result, nil
		},
	)
}

func (t *Toolset) deleteDraftTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_delete_draft",
		"Delete a specific Gmail draft.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"draft_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the draft to delete.",
				},
			},
			"required":             []string{"draft_id"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}
			return t.execute(ctx, ActionDeleteDraft, accountID, args)
		},
	)
}

func (t *Toolset) forwardEmailTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_forward_email",
		"Forward an existing Gmail message with optional additional context.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message_id": map[string]any{
					"type":        "string",
					"description": "Message id to forward.",
				},
				"recipient_email": map[string]any{
					"type":        "string",
					"description": "Email address to receive the forwarded message.",
				},
				"additional_text": map[string]any{
					"type":        "string",
					"description": "Optional text to prepend when forwarding.",
				},
			},
			"required":             []string{"message_id", "recipient_email"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}
			return t.execute(ctx, ActionForwardEmail, accountID, args)
		},
	)
}

func (t *Toolset) replyToThreadTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_reply_to_thread",
		"Send a reply within an existing Gmail thread.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"thread_id": map[string]any{
					"type":        "string",
					"description": "Thread id to reply to.",
				},
				"recipient_email": map[string]any{
					"type":        "string",
					"description": "Primary recipient for the reply (usually the original sender).",
				},
				"message_body": map[string]any{
					"type":        "string",
					"description": "Reply body. Use HTML markup when is_html is true.",
				},
				"cc": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional list of CC recipient emails.",
				},
				"bcc": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Optional list of BCC recipient emails.",
				},
				"is_html": map[string]any{
					"type":        "boolean",
					"description": "Set true when the body contains HTML content.",
				},
			},
			"required":             []string{"thread_id", "recipient_email", "message_body"},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}
			return t.execute(ctx, ActionReplyToThread, accountID, args)
		},
	)
}

func (t *Toolset) listDraftsTool() tool.Tool {
	return tool.NewFunctionTool(
		"gmail_list_drafts",
		"List Gmail drafts for the connected account.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"max_results": map[string]any{
					"type":        "integer",
					"description": "Maximum number of drafts to return.",
				},
				"page_token": map[string]any{
					"type":        "string",
					"description": "Pagination token from a previous drafts list call.",
				},
				"verbose": map[string]any{
					"type":        "boolean",
					"description": "Include full draft details such as subject and body when true.",
				},
			},
			"additionalProperties": false,
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			accountID := t.resolver.ActiveAccountID()
			if accountID == "" || t.service == nil {
				return notConnectedError(), nil
			}
			return t.execute(ctx, ActionListDrafts, accountID, args)
		},
	)
}
