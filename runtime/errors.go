package runtime

import "errors"

// Fatal execution errors. Each one folds into an ExecutionResult with
// Success=false; none of them propagate out of Execute.
var (
	// ErrEmptyModelResponse reports a completion that carried no assistant
	// message at all.
	ErrEmptyModelResponse = errors.New("model response did not include an assistant message")

	// ErrIterationLimit reports that the plan/act loop hit its iteration
	// ceiling without producing a final response.
	ErrIterationLimit = errors.New("reached tool iteration limit without final response")

	// ErrNoFinalResponse reports that the loop ended without any final
	// response text.
	ErrNoFinalResponse = errors.New("model did not return a final response")
)

// Per-call failure messages surfaced to the model as structured tool
// results. These never abort the run.
const (
	missingToolNameMessage = "Tool call missing name; unable to execute."
	unknownToolCallID      = "unknown_tool"
)
