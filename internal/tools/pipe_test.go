package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPipeTool_DefaultsOperation(t *testing.T) {
	res, err := PipeTool{Piper: EchoPiper{}}.Execute(context.Background(), map[string]any{"prompt": "summarize"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var decoded PipeResult
	if err := json.Unmarshal([]byte(res.Output), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Operation != "generate" || decoded.Prompt != "summarize" {
		t.Fatalf("unexpected pipe result %+v", decoded)
	}
	if decoded.Result != `AI Pipe processed: "summarize" with operation "generate". This is a mock response.` {
		t.Fatalf("unexpected echo text %q", decoded.Result)
	}
}

func TestPipeTool_ExplicitOperation(t *testing.T) {
	res, err := PipeTool{Piper: EchoPiper{}}.Execute(context.Background(), map[string]any{"prompt": "p", "operation": "analyze"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(res.Output, `"operation": "analyze"`) {
		t.Fatalf("expected analyze operation, got %q", res.Output)
	}
}

func TestOpenAIPiper(t *testing.T) {
	var gotAuth string
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"piped"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIPiper(srv.URL+"/v1/", "pipe-token", "gpt-4o-mini", srv.Client())
	res, err := p.Pipe(context.Background(), "hello", "transform")
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if gotAuth != "Bearer pipe-token" {
		t.Fatalf("expected bearer token, got %q", gotAuth)
	}
	if gotReq["model"] != "gpt-4o-mini" {
		t.Fatalf("unexpected model %#v", gotReq["model"])
	}
	msgs := gotReq["messages"].([]any)
	if len(msgs) != 2 || msgs[0].(map[string]any)["content"] != "Operation: transform" {
		t.Fatalf("unexpected messages %#v", msgs)
	}
	if res.Result != "piped" || res.Operation != "transform" || res.Prompt != "hello" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestOpenAIPiper_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad token"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewOpenAIPiper(srv.URL, "x", "m", srv.Client()).Pipe(context.Background(), "p", "generate")
	if err == nil {
		t.Fatalf("expected error")
	}
}
