package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/sourcegraph/conc/iter"
)

// loop alternates model requests and tool dispatch until a reply carries no tool calls.
// The caller holds the busy flag.
func (a *Agent) loop(ctx context.Context) error {
	toolDefs := a.registry.ToolDefinitions()
	totalUsage := provider.TokenUsage{}

	for i := 1; ; i++ {
		chatter := a.currentChatter()
		if chatter == nil {
			return a.fail(ErrNoChatter)
		}
		if err := ctx.Err(); err != nil {
			return a.fail(err)
		}

		a.state.Store(int32(Requesting))
		history := a.transcript.Messages()
		logging.Logger().Info(
			"llm request",
			"iteration", i,
			"message_count", len(history),
			"tool_count", len(toolDefs),
			"latest_user_message", summarizeTextForLog(latestUserMessage(history), 300),
		)

		resp, err := chatter.Chat(ctx, history, toolDefs)
		if err != nil {
			logging.Logger().Warn("llm request failed", "iteration", i, "err", err)
			return a.fail(err)
		}
		totalUsage.InputTokens += resp.Usage.InputTokens
		totalUsage.OutputTokens += resp.Usage.OutputTokens
		totalUsage.TotalTokens += resp.Usage.TotalTokens
		logging.Logger().Info(
			"llm response",
			"iteration", i,
			"tool_call_count", len(resp.ToolCalls),
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
			"total_tokens", totalUsage.TotalTokens,
		)

		assistant := provider.Message{
			Role:      provider.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		}
		if err := a.transcript.Append(assistant); err != nil {
			return a.fail(fmt.Errorf("record assistant reply: %w", err))
		}
		a.observer.OnMessage(assistant)

		if len(resp.ToolCalls) == 0 {
			return nil
		}

		a.state.Store(int32(ToolDispatch))
		results := a.dispatch(ctx, resp.ToolCalls)
		if err := a.transcript.Append(results...); err != nil {
			return a.fail(fmt.Errorf("record tool results: %w", err))
		}
		for _, msg := range results {
			a.observer.OnMessage(msg)
		}
	}
}

// dispatch runs every call concurrently and returns tool messages in call order.
func (a *Agent) dispatch(ctx context.Context, calls []provider.ToolCall) []provider.Message {
	return iter.Map(calls, func(call *provider.ToolCall) provider.Message {
		startedAt := time.Now()
		logging.Logger().Info(
			"tool call start",
			"tool", call.Name,
			"tool_call_id", call.ID,
			"args", summarizeToolArgs(call.Arguments),
		)
		result := a.registry.Dispatch(ctx, *call)
		if !result.IsError {
			logging.Logger().Info(
				"tool call complete",
				"tool", call.Name,
				"tool_call_id", call.ID,
				"duration_ms", time.Since(startedAt).Milliseconds(),
			)
		}
		return result.Message()
	})
}

// ToolNames lists the tools offered to the model, sorted by name.
func (a *Agent) ToolNames() []string {
	registered := a.registry.Tools()
	names := make([]string, 0, len(registered))
	for _, tool := range registered {
		names = append(names, tool.Name())
	}
	return names
}

func summarizeToolArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for key, value := range args {
		out[key] = summarizeToolArgValue(value)
	}
	return out
}

func summarizeToolArgValue(value any) any {
	const maxLoggedStringLen = 200

	switch v := value.(type) {
	case string:
		if len(v) <= maxLoggedStringLen {
			return v
		}
		return fmt.Sprintf("%s...[truncated %d chars]", v[:maxLoggedStringLen], len(v)-maxLoggedStringLen)
	default:
		return value
	}
}

func latestUserMessage(history []provider.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == provider.RoleUser && strings.TrimSpace(history[i].Content) != "" {
			return history[i].Content
		}
	}
	return ""
}

func summarizeTextForLog(text string, maxLen int) string {
	if maxLen <= 0 || len(text) <= maxLen {
		return text
	}
	return fmt.Sprintf("%s...[truncated %d chars]", text[:maxLen], len(text)-maxLen)
}
