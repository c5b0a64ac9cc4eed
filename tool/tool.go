// Package tool implements the function / tool calling subsystem that lets
// agents invoke structured capabilities (APIs, computations, side effects)
// with schema validated arguments and consistent error handling.
package tool

import (
	"context"
	"fmt"

	"github.com/sandeep231004/gmailassistant/internal/util"
)

// Tool defines the interface for extending agent capabilities with external
// functions.
//
// Tools are registered with the execution-agent runtime by name; the model
// addresses them through function calling. Implementations should:
//   - Provide clear, descriptive names (snake_case) and descriptions
//   - Define a proper JSON schema for parameters
//   - Handle errors gracefully and be safe for concurrent use
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description of what this tool
	// does. It is provided to the model to guide tool selection.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with named arguments parsed from the model's
	// JSON payload. Blocking work must respect ctx.
	Call(ctx context.Context, args map[string]any) (any, error)
}

// Registry maps tool names to implementations. Unknown names are a contract
// violation surfaced by the runtime as an error; the registry itself is a
// plain lookup table.
type Registry map[string]Tool

// NewRegistry builds a Registry from the given tools, keyed by Name.
func NewRegistry(tools ...Tool) Registry {
	reg := make(Registry, len(tools))
	for _, t := range tools {
		reg[t.Name()] = t
	}
	return reg
}

// Definitions returns the schema catalog for every registered tool in
// deterministic (name-sorted) order is not required; callers needing order
// should sort. Used to build the tools payload of a model request.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

// ValidationError represents parameter validation errors with detailed
// information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
