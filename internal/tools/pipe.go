package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

const defaultPipeOperation = "generate"

// PipeResult is what ai_pipe reports back to the model.
type PipeResult struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
	Result    string `json:"result"`
}

// Piper runs a prompt through a secondary model pipeline.
type Piper interface {
	Pipe(ctx context.Context, prompt, operation string) (*PipeResult, error)
}

// PipeTool exposes a Piper as the ai_pipe tool.
type PipeTool struct {
	Piper Piper
}

// Name returns the tool name.
func (t PipeTool) Name() string {
	return "ai_pipe"
}

// Description returns the tool description for the model.
func (t PipeTool) Description() string {
	return "Call AI Pipe proxy API for flexible dataflows"
}

// Schema returns the JSON schema for ai_pipe args.
func (t PipeTool) Schema() jsonschema.Definition {
	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"prompt": {
				Type:        jsonschema.String,
				Description: "The prompt to send to AI Pipe",
			},
			"operation": {
				Type:        jsonschema.String,
				Description: "The operation type (e.g., 'generate', 'analyze', 'transform')",
			},
		},
		Required: []string{"prompt"},
	}
}

// Execute pipes the prompt and returns the result as JSON.
func (t PipeTool) Execute(ctx context.Context, args map[string]any) (*ToolResult, error) {
	prompt, err := stringArg(args, "prompt")
	if err != nil {
		return nil, err
	}
	operation, err := optionalStringArg(args, "operation", defaultPipeOperation)
	if err != nil {
		return nil, err
	}
	if t.Piper == nil {
		return nil, errors.New("pipe backend is not configured")
	}
	result, err := t.Piper.Pipe(ctx, prompt, operation)
	if err != nil {
		return nil, err
	}
	out, err := Stringify(result)
	if err != nil {
		return nil, err
	}
	return &ToolResult{Output: out}, nil
}

// EchoPiper answers without calling any service.
type EchoPiper struct{}

// Pipe echoes prompt and operation back in a fixed sentence.
func (EchoPiper) Pipe(_ context.Context, prompt, operation string) (*PipeResult, error) {
	return &PipeResult{
		Operation: operation,
		Prompt:    prompt,
		Result:    fmt.Sprintf(`AI Pipe processed: "%s" with operation "%s". This is a mock response.`, prompt, operation),
	}, nil
}

// OpenAIPiper sends prompts to an OpenAI-compatible proxy.
type OpenAIPiper struct {
	client *openai.Client
	model  string
}

// NewOpenAIPiper builds a piper for endpoint. An empty endpoint uses the OpenAI default base URL.
func NewOpenAIPiper(endpoint, token, model string, httpClient *http.Client) *OpenAIPiper {
	cfg := openai.DefaultConfig(token)
	if endpoint = strings.TrimSpace(endpoint); endpoint != "" {
		cfg.BaseURL = strings.TrimRight(endpoint, "/")
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return &OpenAIPiper{client: openai.NewClientWithConfig(cfg), model: model}
}

// Pipe runs prompt with the operation as system instruction and returns the first choice.
func (p *OpenAIPiper) Pipe(ctx context.Context, prompt, operation string) (*PipeResult, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "Operation: " + operation},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai pipe request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("ai pipe returned no choices")
	}
	return &PipeResult{
		Operation: operation,
		Prompt:    prompt,
		Result:    resp.Choices[0].Message.Content,
	}, nil
}
