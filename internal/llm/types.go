// Package llm is the thin provider-neutral layer over language-model HTTP
// APIs. The agent core only sees the Client interface; provider choice is a
// config concern.
package llm

import "encoding/json"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a conversation.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is the model's request to invoke a named capability.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON string
}

// ToolDef describes a capability to the model: name, free-text description,
// and a JSON Schema for its parameters.
type ToolDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// StreamEvent is a single event in a streaming model response.
type StreamEvent struct {
	Type string // "text_delta" | "tool_call_delta" | "done" | "error"

	Text string

	ToolCallIndex int
	ToolCallID    string
	ToolCallName  string
	ToolCallArgs  string // partial JSON fragment

	Error error
}

// Result is the accumulated outcome of one model invocation.
type Result struct {
	Message    Message
	ToolCalls  []ToolCall
	Text       string
	StopReason string
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

func ToolResultMessage(toolCallID, content string) Message {
	return Message{Role: RoleTool, ToolCallID: toolCallID, Content: content}
}
