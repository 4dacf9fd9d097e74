package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// OpenAIClient implements Client for OpenAI-compatible providers (OpenAI,
// DeepSeek, Groq, local models behind an OpenAI shim, etc.)
type OpenAIClient struct {
	HTTPClient *http.Client
}

func NewOpenAIClient() *OpenAIClient {
	return &OpenAIClient{HTTPClient: http.DefaultClient}
}

func (c *OpenAIClient) Chat(ctx context.Context, params ChatParams) (<-chan StreamEvent, error) {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/") + "/v1"

	bodyBytes, err := json.Marshal(c.buildRequest(params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+params.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(errBody)}
	}

	ch := make(chan StreamEvent, 32)
	go c.consumeSSE(resp.Body, ch)
	return ch, nil
}

func (c *OpenAIClient) buildRequest(params ChatParams) map[string]any {
	messages := make([]map[string]any, 0, len(params.Messages)+1)

	if params.System != "" {
		messages = append(messages, map[string]any{
			"role":    "system",
			"content": params.System,
		})
	}

	for _, msg := range params.Messages {
		m := map[string]any{"role": msg.Role}

		switch {
		case msg.Role == RoleTool:
			m["tool_call_id"] = msg.ToolCallID
			m["content"] = msg.Content
		case len(msg.ToolCalls) > 0:
			tcs := make([]map[string]any, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				tcs[i] = map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]any{
						"name":      tc.Name,
						"arguments": tc.Arguments,
					},
				}
			}
			m["tool_calls"] = tcs
			if msg.Content != "" {
				m["content"] = msg.Content
			}
		default:
			m["content"] = msg.Content
		}

		messages = append(messages, m)
	}

	req := map[string]any{
		"model":    params.Model,
		"messages": messages,
		"stream":   true,
	}

	if len(params.Tools) > 0 {
		tools := make([]map[string]any, len(params.Tools))
		for i, t := range params.Tools {
			tools[i] = map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  json.RawMessage(t.Parameters),
				},
			}
		}
		req["tools"] = tools
	}

	return req
}

func (c *OpenAIClient) consumeSSE(body io.ReadCloser, out chan<- StreamEvent) {
	defer close(out)
	defer body.Close()

	for event := range ParseSSE(body) {
		var chunk openAIChunk
		if err := json.Unmarshal([]byte(event.Data), &chunk); err != nil {
			out <- StreamEvent{Type: "error", Error: fmt.Errorf("parse chunk: %w", err)}
			return
		}

		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			out <- StreamEvent{Type: "text_delta", Text: delta.Content}
		}

		for _, tc := range delta.ToolCalls {
			out <- StreamEvent{
				Type:          "tool_call_delta",
				ToolCallIndex: tc.Index,
				ToolCallID:    tc.ID,
				ToolCallName:  tc.Function.Name,
				ToolCallArgs:  tc.Function.Arguments,
			}
		}

		if reason := chunk.Choices[0].FinishReason; reason != "" {
			out <- StreamEvent{Type: "done", Text: reason}
			return
		}
	}
}

// OpenAI streaming response types

type openAIChunk struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Delta        openAIDelta `json:"delta"`
	FinishReason string      `json:"finish_reason"`
}

type openAIDelta struct {
	Content   string                `json:"content"`
	ToolCalls []openAIToolCallDelta `json:"tool_calls"`
}

type openAIToolCallDelta struct {
	Index    int                     `json:"index"`
	ID       string                  `json:"id"`
	Function openAIFunctionCallDelta `json:"function"`
}

type openAIFunctionCallDelta struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
