package llm

import (
	"context"
	"fmt"
)

// Client is the unified interface for model providers. The caller must
// consume the returned channel until it closes.
type Client interface {
	Chat(ctx context.Context, params ChatParams) (<-chan StreamEvent, error)
}

// ChatParams is one model invocation: system instruction, conversation so
// far, and the capability list.
type ChatParams struct {
	Model    string
	APIKey   string
	BaseURL  string
	System   string
	Messages []Message
	Tools    []ToolDef
}

// Consume drains a stream and returns the accumulated result: final text,
// any tool calls with their re-assembled argument JSON, and the complete
// assistant message to re-insert into the conversation.
func Consume(ctx context.Context, stream <-chan StreamEvent) (*Result, error) {
	result := &Result{}
	var text []byte
	args := make(map[int][]byte)

	for event := range stream {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch event.Type {
		case "text_delta":
			text = append(text, event.Text...)

		case "tool_call_delta":
			idx := event.ToolCallIndex
			if _, ok := args[idx]; !ok {
				args[idx] = nil
				result.ToolCalls = append(result.ToolCalls, ToolCall{})
			}
			args[idx] = append(args[idx], event.ToolCallArgs...)
			if idx < len(result.ToolCalls) {
				if event.ToolCallID != "" {
					result.ToolCalls[idx].ID = event.ToolCallID
				}
				if event.ToolCallName != "" {
					result.ToolCalls[idx].Name = event.ToolCallName
				}
			}

		case "error":
			return nil, event.Error

		case "done":
			result.StopReason = event.Text
		}
	}

	result.Text = string(text)
	for idx, a := range args {
		if idx < len(result.ToolCalls) {
			result.ToolCalls[idx].Arguments = string(a)
		}
	}

	result.Message = Message{
		Role:      RoleAssistant,
		Content:   result.Text,
		ToolCalls: result.ToolCalls,
	}
	return result, nil
}

// APIError is an HTTP-level error from a provider.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error (status %d): %s", e.StatusCode, e.Body)
}

func (e *APIError) IsRateLimit() bool { return e.StatusCode == 429 }

func (e *APIError) IsAuth() bool { return e.StatusCode == 401 || e.StatusCode == 403 }

// New returns the client for a provider name from config; unknown names get
// the OpenAI-compatible client, which covers most hosted and local backends.
func New(provider string) Client {
	if provider == "anthropic" {
		return NewAnthropicClient()
	}
	return NewOpenAIClient()
}
