// Package provider normalizes the OpenAI, Anthropic, Gemini, and custom chat dialects onto one message and tool-call representation and sends requests over HTTP.
package provider

import (
	"context"
	"maps"
	"slices"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Chatter sends a transcript and the available tools to a model and returns its normalized reply.
type Chatter interface {
	Chat(ctx context.Context, transcript []Message, tools []ToolDefinition) (*Response, error)
}

// Role is the author role for a transcript message.
type Role string

const (
	// RoleSystem is the optional leading instruction message.
	RoleSystem Role = "system"
	// RoleUser is a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant is a model-authored message.
	RoleAssistant Role = "assistant"
	// RoleTool is a tool-result message addressed to the model.
	RoleTool Role = "tool"
)

// Message is a single transcript entry.
// ToolCalls is only set on assistant messages; ToolCallID, Name, and IsError only on tool messages.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
	IsError    bool
}

// ToolCall is a model request to execute a tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ToolDefinition describes a callable tool exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// TokenUsage reports provider token accounting for one response.
type TokenUsage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Response is the provider-agnostic reply to one request.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     TokenUsage
}

// Clone returns a deep copy of m so transcript entries cannot be mutated through shared slices or maps.
func (m Message) Clone() Message {
	out := m
	if m.ToolCalls != nil {
		out.ToolCalls = make([]ToolCall, len(m.ToolCalls))
		for i, tc := range m.ToolCalls {
			out.ToolCalls[i] = tc.Clone()
		}
	}
	return out
}

// Clone returns a copy of tc with its own arguments map.
func (tc ToolCall) Clone() ToolCall {
	out := tc
	if tc.Arguments != nil {
		out.Arguments = maps.Clone(tc.Arguments)
	}
	return out
}

// CloneMessages deep-copies a message slice.
func CloneMessages(msgs []Message) []Message {
	out := slices.Clone(msgs)
	for i := range out {
		out[i] = out[i].Clone()
	}
	return out
}
