// Package tools defines the Tool interface and the Registry that resolves model tool calls to executable capabilities.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool is the core executable action exposed to the LLM.
type Tool interface {
	Name() string
	Description() string
	Schema() jsonschema.Definition
	Execute(ctx context.Context, args map[string]any) (*ToolResult, error)
}

// ToolResult is the normalized output returned by tools.
type ToolResult struct {
	Output string
}

// CallResult is the outcome of dispatching one model tool call.
type CallResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

// Message converts the result into the tool-role transcript entry answering its call.
func (c CallResult) Message() provider.Message {
	return provider.Message{
		Role:       provider.RoleTool,
		ToolCallID: c.ToolCallID,
		Name:       c.Name,
		Content:    c.Content,
		IsError:    c.IsError,
	}
}

// Registry stores tools by unique name. Registration happens at startup; lookups are safe from concurrent dispatches.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds a tool by unique name.
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return errors.New("tool cannot be nil")
	}
	name := tool.Name()
	if name == "" {
		return errors.New("tool name cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("tool %s already registered", name)
	}
	r.byName[name] = tool
	return nil
}

// Lookup returns a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.byName[name]
	return tool, ok
}

// Tools returns all registered tools in stable name order.
func (r *Registry) Tools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.byName))
	for name := range r.byName {
		keys = append(keys, name)
	}
	sort.Strings(keys)

	out := make([]Tool, 0, len(keys))
	for _, name := range keys {
		out = append(out, r.byName[name])
	}
	return out
}

// ToolDefinitions converts registered tools into LLM request tool definitions.
func (r *Registry) ToolDefinitions() []provider.ToolDefinition {
	tools := r.Tools()
	defs := make([]provider.ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		defs = append(defs, provider.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  tool.Schema(),
		})
	}
	return defs
}

// Invoke resolves name, checks required arguments, and runs the tool.
// Every failure comes back as *ToolError or *ExecutionError; a panicking tool never escapes.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (result *ToolResult, err error) {
	tool, ok := r.Lookup(name)
	if !ok {
		return nil, &ToolError{Kind: UnknownTool, Tool: name, Err: fmt.Errorf("unknown tool: %s", name)}
	}
	if args == nil {
		args = map[string]any{}
	}
	for _, key := range tool.Schema().Required {
		if _, present := args[key]; !present {
			return nil, &ToolError{Kind: InvalidArguments, Tool: name, Err: fmt.Errorf("missing required argument %q", key)}
		}
	}

	defer func() {
		if v := recover(); v != nil {
			result = nil
			err = &ExecutionError{Tool: name, Value: v}
		}
	}()

	result, err = tool.Execute(ctx, args)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			if toolErr.Tool == "" {
				toolErr.Tool = name
			}
			return nil, toolErr
		}
		return nil, &ToolError{Kind: CapabilityFailed, Tool: name, Err: err}
	}
	if result == nil {
		result = &ToolResult{}
	}
	return result, nil
}

// Dispatch invokes call and folds any failure into an error result so the conversation can continue.
func (r *Registry) Dispatch(ctx context.Context, call provider.ToolCall) CallResult {
	out := CallResult{ToolCallID: call.ID, Name: call.Name}
	result, err := r.Invoke(ctx, call.Name, call.Arguments)
	if err != nil {
		logging.Logger().Warn(
			"tool call failed",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"err", err,
		)
		out.Content = fmt.Sprintf("Tool %s failed: %v", call.Name, err)
		out.IsError = true
		return out
	}
	out.Content = result.Output
	return out
}
