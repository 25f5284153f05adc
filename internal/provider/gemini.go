package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/config"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// geminiAdapter synthesizes tool call ids because Gemini does not issue them.
type geminiAdapter struct {
	ids callIDSource
}

func newGeminiAdapter() geminiAdapter {
	return geminiAdapter{ids: newCallIDSource()}
}

type geminiRequest struct {
	Contents   []geminiContent `json:"contents"`
	Tools      []geminiTool    `json:"tools,omitempty"`
	ToolConfig *geminiToolConf `json:"tool_config,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text         *string             `json:"text,omitempty"`
	FunctionCall *geminiFunctionCall `json:"functionCall,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDecl `json:"function_declarations"`
}

type geminiFunctionDecl struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Parameters  jsonschema.Definition `json:"parameters"`
}

type geminiToolConf struct {
	FunctionCallingConfig struct {
		Mode string `json:"mode"`
	} `json:"function_calling_config"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

func (geminiAdapter) Format() config.RequestFormat {
	return config.FormatGemini
}

func (a geminiAdapter) BuildRequest(transcript []Message, tools []ToolDefinition, cfg config.ProviderConfig) (*HTTPRequest, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	endpoint, err := geminiURL(cfg)
	if err != nil {
		return nil, err
	}

	payload := geminiRequest{
		Contents: toGeminiContents(transcript),
		Tools:    toGeminiTools(tools),
	}
	if len(payload.Tools) > 0 {
		payload.ToolConfig = &geminiToolConf{}
		payload.ToolConfig.FunctionCallingConfig.Mode = "AUTO"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}
	return &HTTPRequest{
		URL:    endpoint,
		Header: authHeaders(cfg),
		Body:   body,
	}, nil
}

// ParseResponse reads the first candidate. Every part carrying a functionCall becomes a tool call.
func (a geminiAdapter) ParseResponse(body []byte) (*Response, error) {
	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, invalidField(config.FormatGemini, "body", err)
	}
	if len(parsed.Candidates) == 0 {
		return nil, missingField(config.FormatGemini, "candidates")
	}
	content := parsed.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return nil, missingField(config.FormatGemini, "candidates[0].content.parts")
	}

	resp := &Response{
		Usage: TokenUsage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
		},
	}
	if text := content.Parts[0].Text; text != nil {
		resp.Content = *text
	}
	for _, part := range content.Parts {
		if part.FunctionCall == nil {
			continue
		}
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        a.ids.next(),
			Name:      part.FunctionCall.Name,
			Arguments: argumentsOrEmpty(part.FunctionCall.Args),
		})
	}
	return resp, nil
}

// geminiURL substitutes the model placeholder and carries the key as a query parameter.
func geminiURL(cfg config.ProviderConfig) (string, error) {
	raw := strings.ReplaceAll(cfg.Endpoint, config.ModelPlaceholder, url.PathEscape(cfg.Model))
	u, err := url.Parse(raw)
	if err != nil {
		return "", &ConfigError{Field: "endpoint", Reason: fmt.Sprintf("is not a valid URL: %v", err)}
	}
	if cfg.APIKey != "" {
		q := u.Query()
		q.Set("key", cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// toGeminiContents drops tool messages and collapses every other message to one text part.
func toGeminiContents(messages []Message) []geminiContent {
	out := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleTool {
			continue
		}
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		text := msg.Content
		out = append(out, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: &text}},
		})
	}
	return out
}

// toGeminiTools wraps each declaration in its own tool entry.
func toGeminiTools(tools []ToolDefinition) []geminiTool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]geminiTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, geminiTool{
			FunctionDeclarations: []geminiFunctionDecl{{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			}},
		})
	}
	return out
}
