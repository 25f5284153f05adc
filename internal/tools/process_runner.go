package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/neoclaw-ai/toolloop/internal/logging"
)

// CodePlaceholder marks where a snippet is spliced into a command line or template.
const CodePlaceholder = "{{code}}"

// ProcessRunner evaluates snippets with an external interpreter.
// The snippet is spliced into any argument containing CodePlaceholder, or written to stdin when none does.
type ProcessRunner struct {
	argv     []string
	template string
	timeout  time.Duration
}

// NewProcessRunner parses command with shell quoting rules. template, when non-empty, wraps each snippet and must contain CodePlaceholder.
func NewProcessRunner(command, template string, timeout time.Duration) (*ProcessRunner, error) {
	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("parse code command: %w", err)
	}
	if len(argv) == 0 {
		return nil, errors.New("code command is empty")
	}
	if template != "" && !strings.Contains(template, CodePlaceholder) {
		return nil, fmt.Errorf("code template must contain %s", CodePlaceholder)
	}
	if timeout <= 0 {
		return nil, errors.New("code timeout must be greater than zero")
	}
	return &ProcessRunner{argv: argv, template: template, timeout: timeout}, nil
}

// Run executes code once. Non-zero exits and timeouts are unsuccessful results, not errors.
func (r *ProcessRunner) Run(ctx context.Context, code string) (*CodeResult, error) {
	source := code
	if r.template != "" {
		source = strings.ReplaceAll(r.template, CodePlaceholder, code)
	}

	args := make([]string, 0, len(r.argv)-1)
	spliced := false
	for _, a := range r.argv[1:] {
		if strings.Contains(a, CodePlaceholder) {
			a = strings.ReplaceAll(a, CodePlaceholder, source)
			spliced = true
		}
		args = append(args, a)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.argv[0], args...)
	if !spliced {
		cmd.Stdin = strings.NewReader(source)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	configureCommandForCancellation(cmd)

	runErr := cmd.Run()
	if err := killCommandProcessGroup(cmd); err != nil {
		logging.Logger().Warn("failed to kill code runner process group", "err", err)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, context.Canceled
		case errors.Is(runCtx.Err(), context.DeadlineExceeded):
			return &CodeResult{Error: fmt.Sprintf("execution timed out after %s", r.timeout), Code: code}, nil
		case errors.As(runErr, &exitErr):
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = fmt.Sprintf("exit code %d", exitErr.ExitCode())
			}
			return &CodeResult{Error: msg, Code: code}, nil
		default:
			return nil, fmt.Errorf("run %s: %w", r.argv[0], runErr)
		}
	}

	return &CodeResult{Success: true, Result: decodeOutput(stdout.String()), Code: code}, nil
}

// decodeOutput keeps structured interpreter output structured so it is re-indented like other tool results.
func decodeOutput(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
