package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/neoclaw-ai/toolloop/internal/config"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type anthropicAdapter struct{}

// anthropicRequest keeps system as a plain string; the SDK param types encode messages and tools.
type anthropicRequest struct {
	Model     string                     `json:"model"`
	Messages  []anthropic.MessageParam   `json:"messages"`
	System    string                     `json:"system"`
	MaxTokens int                        `json:"max_tokens"`
	Tools     []anthropic.ToolUnionParam `json:"tools,omitempty"`
}

func (anthropicAdapter) Format() config.RequestFormat {
	return config.FormatAnthropic
}

func (anthropicAdapter) BuildRequest(transcript []Message, tools []ToolDefinition, cfg config.ProviderConfig) (*HTTPRequest, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}

	var system []string
	rest := make([]Message, 0, len(transcript))
	for _, msg := range transcript {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	msgs, err := toAnthropicMessages(rest)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     cfg.Model,
		Messages:  msgs,
		System:    strings.Join(system, "\n"),
		MaxTokens: anthropicMaxTokens,
		Tools:     toAnthropicTools(tools),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}

	header := authHeaders(cfg)
	header.Set("anthropic-version", anthropicVersion)
	return &HTTPRequest{
		URL:    cfg.Endpoint,
		Header: header,
		Body:   body,
	}, nil
}

func (anthropicAdapter) ParseResponse(body []byte) (*Response, error) {
	var probe struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, invalidField(config.FormatAnthropic, "body", err)
	}
	if len(probe.Content) == 0 || string(probe.Content) == "null" {
		return nil, missingField(config.FormatAnthropic, "content")
	}

	var msg anthropic.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, invalidField(config.FormatAnthropic, "body", err)
	}

	var (
		text     string
		haveText bool
		calls    []ToolCall
	)
	for i, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			if !haveText {
				text = v.Text
				haveText = true
			}
		case anthropic.ToolUseBlock:
			args := map[string]any{}
			if len(v.Input) > 0 {
				if err := json.Unmarshal(v.Input, &args); err != nil {
					return nil, invalidField(config.FormatAnthropic, fmt.Sprintf("content[%d].input", i), err)
				}
			}
			calls = append(calls, ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: args,
			})
		}
	}

	usage := TokenUsage{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return &Response{
		Content:   text,
		ToolCalls: calls,
		Usage:     usage,
	}, nil
}

func toAnthropicMessages(messages []Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for i := 0; i < len(messages); {
		msg := messages[i]
		switch msg.Role {
		case RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			i++
		case RoleAssistant:
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolCalls)+1)
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, argumentsOrEmpty(tc.Arguments), tc.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
			i++
		case RoleTool:
			// All tool results from one assistant turn go into a single user message.
			var blocks []anthropic.ContentBlockParamUnion
			for i < len(messages) && messages[i].Role == RoleTool {
				if messages[i].ToolCallID == "" {
					return nil, fmt.Errorf("tool message requires tool_call_id")
				}
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, messages[i].IsError))
				i++
			}
			out = append(out, anthropic.NewUserMessage(blocks...))
		default:
			return nil, fmt.Errorf("unsupported message role %s", msg.Role)
		}
	}
	return out, nil
}

// toAnthropicTools strips the OpenAI "function" wrapper: {name, description, input_schema}.
func toAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: tool.Parameters.Properties,
				Required:   tool.Parameters.Required,
			},
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}
