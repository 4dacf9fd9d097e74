package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/llm"
	"github.com/openclaw/openclaw/internal/memory"
	"github.com/openclaw/openclaw/internal/tool"
)

// turn is one scripted model response: either events to stream or a
// connection-level error.
type turn struct {
	events []llm.StreamEvent
	err    error
}

type scriptedClient struct {
	mu    sync.Mutex
	turns []turn
	calls []llm.ChatParams
}

func (c *scriptedClient) Chat(_ context.Context, params llm.ChatParams) (<-chan llm.StreamEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, params)

	idx := len(c.calls) - 1
	if idx >= len(c.turns) {
		idx = len(c.turns) - 1
	}
	t := c.turns[idx]
	if t.err != nil {
		return nil, t.err
	}

	ch := make(chan llm.StreamEvent, len(t.events)+1)
	for _, ev := range t.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func textTurn(text string) turn {
	return turn{events: []llm.StreamEvent{{Type: "text_delta", Text: text}}}
}

func toolTurn(id, name, args string) turn {
	return turn{events: []llm.StreamEvent{{
		Type:          "tool_call_delta",
		ToolCallIndex: 0,
		ToolCallID:    id,
		ToolCallName:  name,
		ToolCallArgs:  args,
	}}}
}

type echoTool struct{}

func (echoTool) Name() string        { return "echo" }
func (echoTool) Description() string { return "echoes its input" }

func (echoTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {"text": {"type": "string"}}}`)
}

func (echoTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Text string `json:"text"`
	}
	_ = json.Unmarshal(params, &p)
	return "echoed: " + p.Text, nil
}

func testAgentContext(t *testing.T) Context {
	t.Helper()
	ts := time.Date(2026, 2, 19, 21, 30, 0, 0, time.FixedZone("CST", -6*3600))
	msg, err := channel.NewInbound("C1", "T1", "U1", "remind me in 5 minutes to check PRs", channel.TypeWhatsApp, ts, nil)
	require.NoError(t, err)

	registry := tool.NewRegistry()
	registry.Register(echoTool{})

	profile := memory.DefaultProfile()
	return Context{
		Message: msg,
		Profile: profile,
		Memory: memory.Snapshot{
			RelevantMemories: []string{"- user works in Central Time"},
			SoulDirective:    profile.Personality,
		},
		ToolDefs: registry.Defs(),
	}
}

func newTestPlanner(client llm.Client) (*Planner, *tool.Registry) {
	registry := tool.NewRegistry()
	registry.Register(echoTool{})
	return NewPlanner(client, registry, PlannerOptions{
		Model:        "test-model",
		RetryBackoff: time.Millisecond,
	}), registry
}

func TestPlanPlainTextAnswersInOneInvocation(t *testing.T) {
	client := &scriptedClient{turns: []turn{textTurn("hello!")}}
	p, _ := newTestPlanner(client)

	text, err := p.Plan(context.Background(), testAgentContext(t))
	require.NoError(t, err)
	assert.Equal(t, "hello!", text)
	assert.Equal(t, 1, client.callCount())
}

func TestPlanExecutesToolAndFeedsObservationBack(t *testing.T) {
	client := &scriptedClient{turns: []turn{
		toolTurn("call-1", "echo", `{"text": "ping"}`),
		textTurn("done"),
	}}
	p, _ := newTestPlanner(client)

	text, err := p.Plan(context.Background(), testAgentContext(t))
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	require.Equal(t, 2, client.callCount())

	// second invocation must carry the assistant tool-call turn and the
	// tool observation
	second := client.calls[1].Messages
	require.GreaterOrEqual(t, len(second), 3)
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.Equal(t, "echoed: ping", last.Content)
}

func TestPlanUnknownToolRecoverable(t *testing.T) {
	client := &scriptedClient{turns: []turn{
		toolTurn("call-1", "no_such_tool", `{}`),
		textTurn("recovered"),
	}}
	p, _ := newTestPlanner(client)

	text, err := p.Plan(context.Background(), testAgentContext(t))
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)

	second := client.calls[1].Messages
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "unknown tool: no_such_tool")
}

func TestPlanRetriesTransientFailure(t *testing.T) {
	client := &scriptedClient{turns: []turn{
		{err: errors.New("connection reset")},
		textTurn("eventually fine"),
	}}
	p, _ := newTestPlanner(client)

	text, err := p.Plan(context.Background(), testAgentContext(t))
	require.NoError(t, err)
	assert.Equal(t, "eventually fine", text)
	assert.Equal(t, 2, client.callCount())
}

func TestPlanGivesUpAfterMaxRetries(t *testing.T) {
	client := &scriptedClient{turns: []turn{
		{err: errors.New("hard down")},
	}}
	p, _ := newTestPlanner(client)

	_, err := p.Plan(context.Background(), testAgentContext(t))
	require.Error(t, err)
	assert.Equal(t, DefaultMaxRetries, client.callCount())
}

func TestPlanIterationCapSynthesizesFromObservations(t *testing.T) {
	// the model never stops calling tools
	client := &scriptedClient{turns: []turn{
		toolTurn("call-1", "echo", `{"text": "loop"}`),
	}}
	p, _ := newTestPlanner(client)

	text, err := p.Plan(context.Background(), testAgentContext(t))
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxIterations, client.callCount())
	assert.Contains(t, text, "echoed: loop")
}

func TestComposeSystemPromptOrderAndContent(t *testing.T) {
	p, _ := newTestPlanner(&scriptedClient{turns: []turn{textTurn("x")}})
	p.now = func() time.Time {
		return time.Date(2026, 2, 19, 21, 42, 0, 0, time.FixedZone("CST", -6*3600))
	}
	actx := testAgentContext(t)

	prompt := p.composeSystemPrompt(actx)

	assert.Contains(t, prompt, actx.Profile.SystemPrompt)
	assert.Contains(t, prompt, "MANDATORY AGENT RULES")
	assert.Contains(t, prompt, "user works in Central Time")
	assert.Contains(t, prompt, "### Soul Directive:\nHelpful Assistant\n")
	assert.Contains(t, prompt, "User ID: U1")
	assert.Contains(t, prompt, "Thread ID: T1")
	assert.Contains(t, prompt, "Current Time: 2026-02-19T21:42:00-06:00")

	// identity precedes the rules, then memories, the soul directive, and
	// finally the context block
	idxIdentity := strings.Index(prompt, actx.Profile.SystemPrompt)
	idxRules := strings.Index(prompt, "MANDATORY AGENT RULES")
	idxMemories := strings.Index(prompt, "Long-Term Memories:")
	idxSoul := strings.Index(prompt, "### Soul Directive:")
	idxCtx := strings.Index(prompt, "Current Context:")
	assert.Less(t, idxIdentity, idxRules)
	assert.Less(t, idxRules, idxMemories)
	assert.Less(t, idxMemories, idxSoul)
	assert.Less(t, idxSoul, idxCtx)
}

func TestComposeSystemPromptUsesWallClockNotMessageTime(t *testing.T) {
	// a message delayed in the queue must not make the model reason from a
	// stale reference time
	p, _ := newTestPlanner(&scriptedClient{turns: []turn{textTurn("x")}})
	p.now = func() time.Time {
		return time.Date(2026, 2, 19, 22, 5, 0, 0, time.FixedZone("CST", -6*3600))
	}
	actx := testAgentContext(t)

	prompt := p.composeSystemPrompt(actx)
	assert.Contains(t, prompt, "Current Time: 2026-02-19T22:05:00-06:00")
	assert.NotContains(t, prompt, "2026-02-19T21:30:00-06:00")
}
