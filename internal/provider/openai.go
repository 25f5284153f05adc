package provider

import (
	"encoding/json"
	"fmt"

	"github.com/neoclaw-ai/toolloop/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// openAIAdapter serves both the openai and custom formats. Only openai sends tool_choice.
type openAIAdapter struct {
	format     config.RequestFormat
	toolChoice bool
	ids        callIDSource
}

func (a openAIAdapter) Format() config.RequestFormat {
	return a.format
}

func (a openAIAdapter) BuildRequest(transcript []Message, tools []ToolDefinition, cfg config.ProviderConfig) (*HTTPRequest, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	msgs, err := toOpenAIMessages(transcript)
	if err != nil {
		return nil, err
	}

	payload := openai.ChatCompletionRequest{
		Model:    cfg.Model,
		Messages: msgs,
		Tools:    toOpenAITools(tools),
	}
	if a.toolChoice && len(payload.Tools) > 0 {
		payload.ToolChoice = "auto"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", a.format, err)
	}
	return &HTTPRequest{
		URL:    cfg.Endpoint,
		Header: authHeaders(cfg),
		Body:   body,
	}, nil
}

func (a openAIAdapter) ParseResponse(body []byte) (*Response, error) {
	var parsed openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, invalidField(a.format, "body", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, missingField(a.format, "choices")
	}

	msg := parsed.Choices[0].Message
	calls := make([]ToolCall, 0, len(msg.ToolCalls))
	for i, tc := range msg.ToolCalls {
		args := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, invalidField(a.format, fmt.Sprintf("choices[0].message.tool_calls[%d].function.arguments", i), err)
			}
		}
		id := tc.ID
		if id == "" {
			id = a.ids.next()
		}
		calls = append(calls, ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return &Response{
		Content:   msg.Content,
		ToolCalls: calls,
		Usage: TokenUsage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(messages []Message) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if msg.Role == RoleTool {
			m.ToolCallID = msg.ToolCallID
			m.Name = msg.Name
		}
		for _, tc := range msg.ToolCalls {
			args, err := json.Marshal(argumentsOrEmpty(tc.Arguments))
			if err != nil {
				return nil, fmt.Errorf("encode tool call args for %s: %w", tc.Name, err)
			}
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, m)
	}
	return out, nil
}

func toOpenAITools(tools []ToolDefinition) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return out
}

func argumentsOrEmpty(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	return args
}
