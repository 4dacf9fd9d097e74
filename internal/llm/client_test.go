package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stream(events ...StreamEvent) <-chan StreamEvent {
	ch := make(chan StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

func TestConsumeAccumulatesText(t *testing.T) {
	result, err := Consume(context.Background(), stream(
		StreamEvent{Type: "text_delta", Text: "Hello"},
		StreamEvent{Type: "text_delta", Text: ", "},
		StreamEvent{Type: "text_delta", Text: "world"},
		StreamEvent{Type: "done", Text: "stop"},
	))
	require.NoError(t, err)
	assert.Equal(t, "Hello, world", result.Text)
	assert.Equal(t, "stop", result.StopReason)
	assert.Empty(t, result.ToolCalls)
	assert.Equal(t, RoleAssistant, result.Message.Role)
}

func TestConsumeReassemblesToolCallArguments(t *testing.T) {
	result, err := Consume(context.Background(), stream(
		StreamEvent{Type: "tool_call_delta", ToolCallIndex: 0, ToolCallID: "call-1", ToolCallName: "set_reminder", ToolCallArgs: `{"content":`},
		StreamEvent{Type: "tool_call_delta", ToolCallIndex: 0, ToolCallArgs: ` "check PRs"}`},
		StreamEvent{Type: "done"},
	))
	require.NoError(t, err)

	require.Len(t, result.ToolCalls, 1)
	call := result.ToolCalls[0]
	assert.Equal(t, "call-1", call.ID)
	assert.Equal(t, "set_reminder", call.Name)
	assert.JSONEq(t, `{"content": "check PRs"}`, call.Arguments)
	assert.Equal(t, result.ToolCalls, result.Message.ToolCalls)
}

func TestConsumeMultipleToolCalls(t *testing.T) {
	result, err := Consume(context.Background(), stream(
		StreamEvent{Type: "tool_call_delta", ToolCallIndex: 0, ToolCallID: "a", ToolCallName: "first", ToolCallArgs: `{}`},
		StreamEvent{Type: "tool_call_delta", ToolCallIndex: 1, ToolCallID: "b", ToolCallName: "second", ToolCallArgs: `{}`},
	))
	require.NoError(t, err)
	require.Len(t, result.ToolCalls, 2)
	assert.Equal(t, "first", result.ToolCalls[0].Name)
	assert.Equal(t, "second", result.ToolCalls[1].Name)
}

func TestConsumeSurfacesStreamError(t *testing.T) {
	_, err := Consume(context.Background(), stream(
		StreamEvent{Type: "text_delta", Text: "partial"},
		StreamEvent{Type: "error", Error: assert.AnError},
	))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNewSelectsProvider(t *testing.T) {
	_, isAnthropic := New("anthropic").(*AnthropicClient)
	assert.True(t, isAnthropic)

	_, isOpenAI := New("openai").(*OpenAIClient)
	assert.True(t, isOpenAI)

	_, fallback := New("something-else").(*OpenAIClient)
	assert.True(t, fallback)
}
