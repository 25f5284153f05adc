package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// CodeResult is the outcome of one execute_code run.
type CodeResult struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code"`
}

// CodeRunner evaluates a code snippet.
// Failures of the snippet itself belong in CodeResult; the error return is for the runner.
type CodeRunner interface {
	Run(ctx context.Context, code string) (*CodeResult, error)
}

// CodeTool exposes a CodeRunner as the execute_code tool.
type CodeTool struct {
	Runner CodeRunner
}

// Name returns the tool name.
func (t CodeTool) Name() string {
	return "execute_code"
}

// Description returns the tool description for the model.
func (t CodeTool) Description() string {
	return "Execute JavaScript code in the browser"
}

// Schema returns the JSON schema for execute_code args.
func (t CodeTool) Schema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"code": {
				Type:        jsonschema.String,
				Description: "The JavaScript code to execute",
			},
		},
		Required: []string{"code"},
	}
}

// Execute runs the snippet. A successful run yields its result as text; a failed one yields the whole CodeResult as JSON.
func (t CodeTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	code, err := stringArg(args, "code")
	if err != nil {
		return nil, err
	}
	if t.Runner == nil {
		return nil, errors.New("code runner is not configured")
	}
	result, err := t.Runner.Run(ctx, code)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("code runner returned no result")
	}

	var out string
	if result.Success {
		out, err = Stringify(result.Result)
	} else {
		out, err = Stringify(result)
	}
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: out}, nil
}

// DisabledRunner reports that code execution is turned off.
type DisabledRunner struct{}

// Run always returns an unsuccessful result.
func (DisabledRunner) Run(_ context.Context, code string) (*CodeResult, error) {
	return &CodeResult{
		Success: false,
		Error:   fmt.Sprintf("code execution is disabled; set %s to enable it", "tools.code.command"),
		Code:    code,
	}, nil
}
