package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func TestRegistryRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	tool := staticTool{name: "google_search", description: "search"}

	if err := r.Register(tool); err != nil {
		t.Fatalf("register tool: %v", err)
	}

	got, ok := r.Lookup("google_search")
	if !ok {
		t.Fatalf("expected tool lookup to succeed")
	}
	if got.Name() != "google_search" {
		t.Fatalf("expected tool name google_search, got %q", got.Name())
	}
}

func TestRegistryRegisterRejectsInvalid(t *testing.T) {
	r := NewRegistry()
	tool := staticTool{name: "google_search"}
	if err := r.Register(tool); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(tool); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := r.Register(staticTool{}); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := r.Register(nil); err == nil {
		t.Fatalf("expected nil tool error")
	}
}

func TestToolDefinitionsSortedWithSchema(t *testing.T) {
	r, err := NewBuiltinRegistry(Backends{Searcher: StaticSearcher{}, Piper: EchoPiper{}, Runner: DisabledRunner{}})
	if err != nil {
		t.Fatalf("builtin registry: %v", err)
	}

	defs := r.ToolDefinitions()
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}
	wantNames := []string{"ai_pipe", "execute_code", "google_search"}
	for i, name := range wantNames {
		if defs[i].Name != name {
			t.Fatalf("definition %d: expected %s, got %s", i, name, defs[i].Name)
		}
		if defs[i].Parameters.Type != jsonschema.Object {
			t.Fatalf("%s: expected object schema", name)
		}
	}
	if got := defs[0].Parameters.Required; len(got) != 1 || got[0] != "prompt" {
		t.Fatalf("expected ai_pipe to require only prompt, got %v", got)
	}
	if _, ok := defs[0].Parameters.Properties["operation"]; !ok {
		t.Fatalf("expected optional operation property")
	}
}

func TestInvoke_UnknownTool(t *testing.T) {
	r := NewRegistry()
	_, err := r.Invoke(context.Background(), "delete_everything", nil)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != UnknownTool {
		t.Fatalf("expected unknown tool error, got %v", err)
	}
}

func TestInvoke_MissingRequiredArgument(t *testing.T) {
	r := NewRegistry()
	called := false
	tool := staticTool{
		name:     "google_search",
		required: []string{"query"},
		onExec:   func() { called = true },
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Invoke(context.Background(), "google_search", map[string]any{"q": "x"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != InvalidArguments {
		t.Fatalf("expected invalid arguments error, got %v", err)
	}
	if !strings.Contains(err.Error(), `"query"`) {
		t.Fatalf("expected argument name in error, got %q", err.Error())
	}
	if called {
		t.Fatalf("tool should not run with missing arguments")
	}
}

func TestInvoke_WrongArgumentType(t *testing.T) {
	r, _ := NewBuiltinRegistry(Backends{Searcher: StaticSearcher{}, Piper: EchoPiper{}, Runner: DisabledRunner{}})
	_, err := r.Invoke(context.Background(), "google_search", map[string]any{"query": 42})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != InvalidArguments || toolErr.Tool != "google_search" {
		t.Fatalf("expected invalid arguments error tagged with tool, got %#v", err)
	}
}

func TestInvoke_CapabilityFailure(t *testing.T) {
	r := NewRegistry()
	cause := errors.New("quota exceeded")
	if err := r.Register(staticTool{name: "ai_pipe", err: cause}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Invoke(context.Background(), "ai_pipe", map[string]any{})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Kind != CapabilityFailed {
		t.Fatalf("expected capability failure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be wrapped")
	}
}

func TestInvoke_PanicBecomesExecutionError(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(staticTool{name: "execute_code", panicWith: "boom"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := r.Invoke(context.Background(), "execute_code", map[string]any{})
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if execErr.Tool != "execute_code" || execErr.Value != "boom" {
		t.Fatalf("unexpected execution error %+v", execErr)
	}
}

func TestDispatch_ErrorBecomesToolMessage(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(staticTool{name: "ai_pipe", err: errors.New("upstream 502")}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Dispatch(context.Background(), provider.ToolCall{ID: "call_1", Name: "ai_pipe", Arguments: map[string]any{}})
	if !res.IsError {
		t.Fatalf("expected error result")
	}
	if res.Content != "Tool ai_pipe failed: upstream 502" {
		t.Fatalf("unexpected error content %q", res.Content)
	}

	msg := res.Message()
	if msg.Role != provider.RoleTool || msg.ToolCallID != "call_1" || msg.Name != "ai_pipe" || !msg.IsError {
		t.Fatalf("unexpected tool message %+v", msg)
	}
}

func TestDispatch_UnknownToolMessage(t *testing.T) {
	r := NewRegistry()
	res := r.Dispatch(context.Background(), provider.ToolCall{ID: "c", Name: "nope"})
	if res.Content != "Tool nope failed: unknown tool: nope" || !res.IsError {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDispatch_Success(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(staticTool{name: "x", result: &ToolResult{Output: "fine"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res := r.Dispatch(context.Background(), provider.ToolCall{ID: "c9", Name: "x"})
	if res.IsError || res.Content != "fine" || res.ToolCallID != "c9" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestStringify(t *testing.T) {
	s, err := Stringify("plain")
	if err != nil || s != "plain" {
		t.Fatalf("expected string passthrough, got %q, %v", s, err)
	}
	s, err = Stringify(map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("stringify: %v", err)
	}
	if s != "{\n  \"a\": 1\n}" {
		t.Fatalf("expected two-space indented JSON, got %q", s)
	}
	s, _ = Stringify(4)
	if s != "4" {
		t.Fatalf("expected 4, got %q", s)
	}
}

type staticTool struct {
	name        string
	description string
	required    []string
	result      *ToolResult
	err         error
	panicWith   any
	onExec      func()
}

func (t staticTool) Name() string        { return t.name }
func (t staticTool) Description() string { return t.description }
func (t staticTool) Schema() jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.Object, Required: t.required}
}
func (t staticTool) Execute(_ context.Context, _ map[string]any) (*ToolResult, error) {
	if t.onExec != nil {
		t.onExec()
	}
	if t.panicWith != nil {
		panic(t.panicWith)
	}
	if t.err != nil {
		return nil, t.err
	}
	if t.result != nil {
		return t.result, nil
	}
	return &ToolResult{Output: "ok"}, nil
}
