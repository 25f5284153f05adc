package tools

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestCodeTool_SuccessReturnsResultText(t *testing.T) {
	requireSh(t)
	runner, err := NewProcessRunner("sh", "", 5*time.Second)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	res, err := CodeTool{Runner: runner}.Execute(context.Background(), map[string]any{"code": "echo 4"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Output != "4" {
		t.Fatalf("expected 4, got %q", res.Output)
	}
}

func TestCodeTool_StructuredOutputIsReindented(t *testing.T) {
	requireSh(t)
	runner, _ := NewProcessRunner("sh", "", 5*time.Second)
	res, err := CodeTool{Runner: runner}.Execute(context.Background(), map[string]any{"code": `echo '{"a":1}'`})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if res.Output != "{\n  \"a\": 1\n}" {
		t.Fatalf("expected indented JSON, got %q", res.Output)
	}
}

func TestCodeTool_FailureReturnsWholeResult(t *testing.T) {
	requireSh(t)
	runner, _ := NewProcessRunner("sh", "", 5*time.Second)
	res, err := CodeTool{Runner: runner}.Execute(context.Background(), map[string]any{"code": "echo oops >&2; exit 3"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	var decoded CodeResult
	if err := json.Unmarshal([]byte(res.Output), &decoded); err != nil {
		t.Fatalf("decode %q: %v", res.Output, err)
	}
	if decoded.Success || decoded.Error != "oops" || decoded.Code != "echo oops >&2; exit 3" {
		t.Fatalf("unexpected code result %+v", decoded)
	}
}

func TestProcessRunner_PlaceholderAndTemplate(t *testing.T) {
	requireSh(t)
	runner, err := NewProcessRunner(`sh -c "{{code}}"`, "echo wrapped; {{code}}", 5*time.Second)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	res, err := runner.Run(context.Background(), "echo inner")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Success || res.Result != "wrapped\ninner" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Code != "echo inner" {
		t.Fatalf("expected original code kept, got %q", res.Code)
	}
}

func TestProcessRunner_Timeout(t *testing.T) {
	requireSh(t)
	runner, _ := NewProcessRunner("sh", "", 100*time.Millisecond)
	start := time.Now()
	res, err := runner.Run(context.Background(), "sleep 5")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Success || !strings.Contains(res.Error, "timed out") {
		t.Fatalf("expected timeout result, got %+v", res)
	}
	if time.Since(start) > 4*time.Second {
		t.Fatalf("timeout not enforced")
	}
}

func TestNewProcessRunner_Validation(t *testing.T) {
	if _, err := NewProcessRunner("", "", time.Second); err == nil {
		t.Fatalf("expected empty command error")
	}
	if _, err := NewProcessRunner(`node "unterminated`, "", time.Second); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := NewProcessRunner("node", "no placeholder", time.Second); err == nil {
		t.Fatalf("expected template error")
	}
	if _, err := NewProcessRunner("node", "", 0); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestDisabledRunner(t *testing.T) {
	res, err := CodeTool{Runner: DisabledRunner{}}.Execute(context.Background(), map[string]any{"code": "1"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(res.Output, `"success": false`) || !strings.Contains(res.Output, "disabled") {
		t.Fatalf("unexpected output %q", res.Output)
	}
}

type nilRunner struct{}

func (nilRunner) Run(context.Context, string) (*CodeResult, error) { return nil, nil }

func TestCodeTool_NilResultIsAnError(t *testing.T) {
	_, err := CodeTool{Runner: nilRunner{}}.Execute(context.Background(), map[string]any{"code": "1"})
	if err == nil || err.Error() != "code runner returned no result" {
		t.Fatalf("expected missing result error, got %v", err)
	}
}
