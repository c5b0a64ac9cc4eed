package tool

import (
	"context"

	"github.com/sandeep231004/gmailassistant/internal/util"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a
// Tool.
//
// Responsibilities:
//   - Holds a lightweight JSON-Schema-like parameter specification
//   - Validates model supplied arguments against that schema before execution
//   - Normalizes error handling so callers receive *ToolError with consistent
//     codes: VALIDATION_ERROR for schema mismatches, EXECUTION_ERROR for
//     underlying failures (custom codes preserved if the function returns a
//     *ToolError directly)
//
// A FunctionTool has no internal mutable state after construction and is
// safe for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from explicit schema and
// function.
//
// Example:
//
//	searchTool := NewFunctionTool(
//	  "task_email_search",
//	  "Search the mailbox for matching messages",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "search_query": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"search_query"},
//	  },
//	  func(ctx context.Context, args map[string]any) (any, error) {
//	    return searchMailbox(ctx, args["search_query"].(string))
//	  },
//	)
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return &FunctionTool{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// NewFunctionToolFromStruct derives the parameter schema from a struct using
// reflection. It is a convenience for simple argument containers.
func NewFunctionToolFromStruct(
	name, description string,
	structType any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	return NewFunctionTool(name, description, util.CreateSchema(structType), fn)
}

// Name returns the unique tool name used in function call declarations and
// routing.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to
// models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the (minimal) JSON schema describing expected
// arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the provided args against the declared schema then invokes
// the underlying function. Validation or execution failures are wrapped (or
// passed through) as *ToolError for uniform downstream handling.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, &ToolError{
			Tool:    t.name,
			Message: "parameter validation failed: " + err.Error(),
			Code:    "VALIDATION_ERROR",
			Details: err,
		}
	}

	result, err := t.fn(ctx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    "EXECUTION_ERROR",
		}
	}

	return result, nil
}
