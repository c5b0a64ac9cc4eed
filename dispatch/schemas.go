package dispatch

import "github.com/sandeep231004/gmailassistant/model"

// ToolSchemas returns the function-calling catalog the interaction agent is
// prompted with. Names match the HandleToolCall routing table.
func ToolSchemas() []model.ToolDefinition {
	return []model.ToolDefinition{
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ToolSendMessageToAgent,
				Description: "Deliver instructions to a specific execution agent. Creates a new agent if the name doesn't exist in the roster, or reuses an existing one.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"agent_name": map[string]any{
							"type":        "string",
							"description": "Human-readable agent name describing its purpose (e.g., 'Vercel Job Offer', 'Email to Sharanjeet'). This name will be used to identify and potentially reuse the agent.",
						},
						"instructions": map[string]any{
							"type":        "string",
							"description": "Instructions for the agent to execute.",
						},
					},
					"required":             []string{"agent_name", "instructions"},
					"additionalProperties": false,
				},
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ToolSendMessageToUser,
				Description: "Deliver a natural-language response directly to the user. Use this for updates, confirmations, or any assistant response the user should see immediately.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"message": map[string]any{
							"type":        "string",
							"description": "Plain-text message that will be shown to the user and recorded in the conversation log.",
						},
					},
					"required":             []string{"message"},
					"additionalProperties": false,
				},
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ToolSendDraft,
				Description: "Record an email draft so the user can review the exact text.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"to": map[string]any{
							"type":        "string",
							"description": "Recipient email for the draft.",
						},
						"subject": map[string]any{
							"type":        "string",
							"description": "Email subject for the draft.",
						},
						"body": map[string]any{
							"type":        "string",
							"description": "Email body content (plain text).",
						},
					},
					"required":             []string{"to", "subject", "body"},
					"additionalProperties": false,
				},
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ToolSendLatestDraft,
				Description: "Send the most recent Gmail draft after the user confirms.",
				Parameters: map[string]any{
					"type":                 "object",
					"properties":           map[string]any{},
					"additionalProperties": false,
				},
			},
		},
		{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        ToolWait,
				Description: "Wait silently when a message is already in conversation history to avoid duplicating responses. Adds a wait log entry that is not visible to the user.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"reason": map[string]any{
							"type":        "string",
							"description": "Brief explanation of why waiting (e.g., 'Message already sent', 'Draft already created').",
						},
					},
					"required":             []string{"reason"},
					"additionalProperties": false,
				},
			},
		},
	}
}
