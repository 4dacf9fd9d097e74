package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/llm"
	"github.com/openclaw/openclaw/internal/tool"
)

const (
	DefaultMaxIterations = 8
	DefaultMaxRetries    = 3
	DefaultRetryBackoff  = 2 * time.Second
)

const agentRules = `MANDATORY AGENT RULES:
1. Analyze the user's request before acting.
2. Decompose multi-step requests into individual tool calls.
3. Execute tools sequentially; use each observation to inform the next step.
4. Always finish with a synthesized natural-language answer. Never return raw tool output, and never return empty text.`

// PlannerOptions bounds the reasoning loop.
type PlannerOptions struct {
	Model         string
	APIKey        string
	BaseURL       string
	MaxIterations int
	MaxRetries    int
	RetryBackoff  time.Duration
}

// Planner runs the think/act/observe loop: invoke the model, execute any
// tool calls it makes, feed the observations back, and repeat until the
// model answers in plain text or the iteration cap is hit.
type Planner struct {
	client llm.Client
	tools  *tool.Registry
	opts   PlannerOptions
	now    func() time.Time
}

func NewPlanner(client llm.Client, tools *tool.Registry, opts PlannerOptions) *Planner {
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultRetryBackoff
	}
	return &Planner{client: client, tools: tools, opts: opts, now: time.Now}
}

// Plan runs one full reasoning cycle and returns the final answer text.
// A returned error means the model was unreachable after all retries; the
// caller decides the user-facing fallback.
func (p *Planner) Plan(ctx context.Context, actx Context) (string, error) {
	system := p.composeSystemPrompt(actx)

	messages := make([]llm.Message, 0, len(actx.History)+1)
	messages = append(messages, actx.History...)
	messages = append(messages, llm.UserMessage(actx.Message.Content))

	var lastText string
	var lastObservations []string

	for iteration := 0; iteration < p.opts.MaxIterations; iteration++ {
		result, err := p.invoke(ctx, system, messages, actx.ToolDefs)
		if err != nil {
			return "", err
		}

		if len(result.ToolCalls) == 0 {
			return result.Text, nil
		}
		if result.Text != "" {
			lastText = result.Text
		}

		messages = append(messages, result.Message)
		lastObservations = lastObservations[:0]
		for _, call := range result.ToolCalls {
			slog.Info("executing tool", "tool", call.Name, "iteration", iteration)
			observation := p.tools.Execute(ctx, call.Name, call.Arguments)
			lastObservations = append(lastObservations, observation)
			messages = append(messages, llm.ToolResultMessage(call.ID, observation))
		}
	}

	slog.Warn("iteration cap reached before a final answer", "cap", p.opts.MaxIterations)
	if lastText != "" {
		return lastText, nil
	}
	if len(lastObservations) > 0 {
		return "I ran out of reasoning steps. Here is what I found so far:\n" +
			strings.Join(lastObservations, "\n"), nil
	}
	return "", nil
}

// invoke calls the model with retries. Backoff is fixed rather than
// exponential; transient provider errors usually clear within seconds.
func (p *Planner) invoke(ctx context.Context, system string, messages []llm.Message, tools []llm.ToolDef) (*llm.Result, error) {
	params := llm.ChatParams{
		Model:    p.opts.Model,
		APIKey:   p.opts.APIKey,
		BaseURL:  p.opts.BaseURL,
		System:   system,
		Messages: messages,
		Tools:    tools,
	}

	var lastErr error
	for attempt := 1; attempt <= p.opts.MaxRetries; attempt++ {
		stream, err := p.client.Chat(ctx, params)
		if err == nil {
			var result *llm.Result
			result, err = llm.Consume(ctx, stream)
			if err == nil {
				return result, nil
			}
		}
		lastErr = err
		slog.Warn("model invocation failed", "attempt", attempt, "error", err)
		if attempt < p.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.opts.RetryBackoff):
			}
		}
	}
	return nil, fmt.Errorf("model invocation failed after %d attempts: %w", p.opts.MaxRetries, lastErr)
}

func (p *Planner) composeSystemPrompt(actx Context) string {
	var b strings.Builder

	b.WriteString(actx.Profile.SystemPrompt)
	b.WriteString("\n\n")
	b.WriteString(agentRules)

	if len(actx.Memory.RelevantMemories) > 0 {
		b.WriteString("\n\nLong-Term Memories:\n")
		for _, m := range actx.Memory.RelevantMemories {
			b.WriteString("- ")
			b.WriteString(m)
			b.WriteString("\n")
		}
	}

	if actx.Memory.SoulDirective != "" {
		b.WriteString("\n### Soul Directive:\n")
		b.WriteString(actx.Memory.SoulDirective)
		b.WriteString("\n")
	}

	if len(actx.Documents) > 0 {
		b.WriteString("\nRelevant Documents:\n")
		for _, d := range actx.Documents {
			b.WriteString("---\n")
			b.WriteString(d.Content)
			b.WriteString("\n")
		}
	}

	msg := actx.Message
	b.WriteString("\nCurrent Context:\n")
	fmt.Fprintf(&b, "User ID: %s\n", msg.UserID)
	fmt.Fprintf(&b, "Channel ID: %s\n", msg.ChannelID)
	if msg.ThreadID != "" {
		fmt.Fprintf(&b, "Thread ID: %s\n", msg.ThreadID)
	}
	fmt.Fprintf(&b, "Current Time: %s\n", p.now().Format("2006-01-02T15:04:05-07:00"))

	return b.String()
}
