package tools

import "fmt"

// ToolErrorKind classifies a failed invocation.
type ToolErrorKind int

const (
	// UnknownTool means no tool is registered under the requested name.
	UnknownTool ToolErrorKind = iota
	// InvalidArguments means a required argument is missing or has the wrong type.
	InvalidArguments
	// CapabilityFailed means the backing capability returned an error.
	CapabilityFailed
)

func (k ToolErrorKind) String() string {
	switch k {
	case UnknownTool:
		return "unknown_tool"
	case InvalidArguments:
		return "invalid_arguments"
	case CapabilityFailed:
		return "capability_failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ToolError is a recoverable tool failure reported back to the model.
type ToolError struct {
	Kind ToolErrorKind
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// ExecutionError records a panic raised inside a tool.
type ExecutionError struct {
	Tool  string
	Value any
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %s panicked: %v", e.Tool, e.Value)
}

func invalidArgs(format string, args ...any) error {
	return &ToolError{Kind: InvalidArguments, Err: fmt.Errorf(format, args...)}
}
