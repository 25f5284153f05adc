package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/sashabaranov/go-openai/jsonschema"
)

func searchToolDef() ToolDefinition {
	return ToolDefinition{
		Name:        "google_search",
		Description: "Search Google and return snippet results",
		Parameters: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"query": {Type: jsonschema.String, Description: "The search query"},
			},
			Required: []string{"query"},
		},
	}
}

func TestOpenAIClientChat_RequestAndResponse(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices":[
				{
					"message":{
						"role":"assistant",
						"content":"",
						"tool_calls":[
							{
								"id":"call_1",
								"type":"function",
								"function":{
									"name":"google_search",
									"arguments":"{\"query\":\"golang\"}"
								}
							}
						]
					}
				}
			],
			"usage":{"prompt_tokens":11,"completion_tokens":7,"total_tokens":18}
		}`))
	}))
	defer srv.Close()

	c, err := New(config.ProviderConfig{
		Endpoint:      srv.URL + "/v1/chat/completions",
		Model:         "gpt-4",
		APIKey:        "test-key",
		AuthType:      config.AuthBearer,
		RequestFormat: config.FormatOpenAI,
	}, WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	resp, err := c.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "be concise"},
		{Role: RoleUser, Content: "search golang"},
	}, []ToolDefinition{searchToolDef()})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotReq["model"] != "gpt-4" {
		t.Fatalf("expected model gpt-4, got %#v", gotReq["model"])
	}
	if gotReq["tool_choice"] != "auto" {
		t.Fatalf("expected tool_choice auto, got %#v", gotReq["tool_choice"])
	}
	msgs, ok := gotReq["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected 2 messages verbatim, got %#v", gotReq["messages"])
	}
	if first := msgs[0].(map[string]any); first["role"] != "system" {
		t.Fatalf("expected system message first, got %#v", first)
	}
	tools, ok := gotReq["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %#v", gotReq["tools"])
	}
	tool := tools[0].(map[string]any)
	if tool["type"] != "function" {
		t.Fatalf("expected function tool type, got %#v", tool["type"])
	}
	fn := tool["function"].(map[string]any)
	if fn["name"] != "google_search" {
		t.Fatalf("expected function name google_search, got %#v", fn["name"])
	}

	if len(resp.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(resp.ToolCalls))
	}
	call := resp.ToolCalls[0]
	if call.ID != "call_1" || call.Name != "google_search" || call.Arguments["query"] != "golang" {
		t.Fatalf("unexpected tool call %+v", call)
	}
	if resp.Usage.TotalTokens != 18 {
		t.Fatalf("expected total tokens 18, got %d", resp.Usage.TotalTokens)
	}
}

func TestOpenAIBuildRequest_EncodesToolHistory(t *testing.T) {
	a, err := AdapterFor(config.FormatOpenAI)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	req, err := a.BuildRequest([]Message{
		{Role: RoleUser, Content: "compute"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "execute_code", Arguments: map[string]any{"code": "return 2+2"}}}},
		{Role: RoleTool, ToolCallID: "call_1", Name: "execute_code", Content: "4"},
	}, nil, config.ProviderConfig{
		Endpoint: "https://api.openai.com/v1/chat/completions",
		Model:    "gpt-4",
		AuthType: config.AuthNone,
	})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["tool_choice"]; ok {
		t.Fatalf("expected no tool_choice without tools")
	}
	msgs := body["messages"].([]any)
	assistant := msgs[1].(map[string]any)
	calls := assistant["tool_calls"].([]any)
	fn := calls[0].(map[string]any)["function"].(map[string]any)
	if fn["arguments"] != `{"code":"return 2+2"}` {
		t.Fatalf("expected JSON-string arguments, got %#v", fn["arguments"])
	}
	tool := msgs[2].(map[string]any)
	if tool["tool_call_id"] != "call_1" || tool["name"] != "execute_code" || tool["content"] != "4" {
		t.Fatalf("unexpected tool message %#v", tool)
	}
	if req.Header.Get("Authorization") != "" {
		t.Fatalf("expected no auth header for none auth")
	}
}

func TestCustomBuildRequest_OmitsToolChoice(t *testing.T) {
	a, err := AdapterFor(config.FormatCustom)
	if err != nil {
		t.Fatalf("adapter: %v", err)
	}
	req, err := a.BuildRequest([]Message{{Role: RoleUser, Content: "hi"}}, []ToolDefinition{searchToolDef()}, config.ProviderConfig{
		Endpoint:       "http://localhost:8080/v1/chat/completions",
		Model:          "local",
		APIKey:         "k",
		AuthType:       config.AuthCustomHeader,
		AuthHeaderName: "X-Token",
	})
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["tool_choice"]; ok {
		t.Fatalf("custom format must not send tool_choice")
	}
	if _, ok := body["tools"]; !ok {
		t.Fatalf("expected tools in custom body")
	}
	if req.Header.Get("X-Token") != "k" {
		t.Fatalf("expected custom auth header, got %v", req.Header)
	}
}

func TestOpenAIParseResponse_Errors(t *testing.T) {
	a, _ := AdapterFor(config.FormatOpenAI)

	_, err := a.ParseResponse([]byte(`{"choices":[]}`))
	var perr *ProtocolError
	if !errors.As(err, &perr) || perr.Field != "choices" || perr.Format != config.FormatOpenAI {
		t.Fatalf("expected missing choices protocol error, got %v", err)
	}

	_, err = a.ParseResponse([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[{"id":"1","type":"function","function":{"name":"x","arguments":"{not json"}}]}}]}`))
	if !errors.As(err, &perr) || perr.Err == nil {
		t.Fatalf("expected invalid arguments protocol error, got %v", err)
	}
}

func TestOpenAIParseResponse_EmptyArgumentsBecomeEmptyMap(t *testing.T) {
	a, _ := AdapterFor(config.FormatOpenAI)
	resp, err := a.ParseResponse([]byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[{"id":"1","type":"function","function":{"name":"x","arguments":""}}]}}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.ToolCalls[0].Arguments == nil || len(resp.ToolCalls[0].Arguments) != 0 {
		t.Fatalf("expected empty arguments map, got %#v", resp.ToolCalls[0].Arguments)
	}
}

func TestCustomParseResponse_SynthesizesMissingIDs(t *testing.T) {
	a, _ := AdapterFor(config.FormatCustom)
	body := []byte(`{"choices":[{"message":{"role":"assistant","tool_calls":[{"type":"function","function":{"name":"work","arguments":"{}"}},{"type":"function","function":{"name":"work","arguments":"{}"}},{"id":"kept","type":"function","function":{"name":"work","arguments":"{}"}}]}}]}`)
	resp, err := a.ParseResponse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(resp.ToolCalls) != 3 {
		t.Fatalf("expected 3 tool calls, got %d", len(resp.ToolCalls))
	}
	first, second := resp.ToolCalls[0].ID, resp.ToolCalls[1].ID
	if first == "" || second == "" || first == second {
		t.Fatalf("expected distinct synthesized ids, got %q and %q", first, second)
	}
	if !strings.HasPrefix(first, "call_") {
		t.Fatalf("expected call_ prefix, got %q", first)
	}
	if resp.ToolCalls[2].ID != "kept" {
		t.Fatalf("expected server id to be kept, got %q", resp.ToolCalls[2].ID)
	}

	again, err := a.ParseResponse(body)
	if err != nil {
		t.Fatalf("parse again: %v", err)
	}
	if again.ToolCalls[0].ID == first || again.ToolCalls[0].ID == second {
		t.Fatalf("expected fresh ids on the next reply, got %q", again.ToolCalls[0].ID)
	}
}
