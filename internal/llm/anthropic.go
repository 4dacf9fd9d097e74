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

const (
	anthropicAPIURL     = "https://api.anthropic.com"
	anthropicAPIVersion = "2023-06-01"
)

// AnthropicClient implements Client for Anthropic's native API.
type AnthropicClient struct {
	HTTPClient *http.Client
}

func NewAnthropicClient() *AnthropicClient {
	return &AnthropicClient{HTTPClient: http.DefaultClient}
}

func (c *AnthropicClient) Chat(ctx context.Context, params ChatParams) (<-chan StreamEvent, error) {
	endpoint := anthropicAPIURL
	if params.BaseURL != "" {
		endpoint = params.BaseURL
	}
	endpoint = strings.TrimRight(endpoint, "/") + "/v1/messages"

	bodyBytes, err := json.Marshal(c.buildRequest(params))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", params.APIKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

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

func (c *AnthropicClient) buildRequest(params ChatParams) map[string]any {
	messages := make([]map[string]any, 0, len(params.Messages))

	for _, msg := range params.Messages {
		switch msg.Role {
		case RoleSystem:
			// system goes in the top-level param
			continue
		case RoleUser:
			messages = append(messages, map[string]any{
				"role":    "user",
				"content": msg.Content,
			})
		case RoleAssistant:
			m := map[string]any{"role": "assistant"}
			if len(msg.ToolCalls) > 0 {
				var content []map[string]any
				if msg.Content != "" {
					content = append(content, map[string]any{"type": "text", "text": msg.Content})
				}
				for _, tc := range msg.ToolCalls {
					var input any
					_ = json.Unmarshal([]byte(tc.Arguments), &input)
					content = append(content, map[string]any{
						"type":  "tool_use",
						"id":    tc.ID,
						"name":  tc.Name,
						"input": input,
					})
				}
				m["content"] = content
			} else {
				m["content"] = msg.Content
			}
			messages = append(messages, m)
		case RoleTool:
			// tool results are user messages with a tool_result block
			messages = append(messages, map[string]any{
				"role": "user",
				"content": []map[string]any{
					{
						"type":        "tool_result",
						"tool_use_id": msg.ToolCallID,
						"content":     msg.Content,
					},
				},
			})
		}
	}

	req := map[string]any{
		"model":      params.Model,
		"messages":   messages,
		"max_tokens": 8192,
		"stream":     true,
	}

	if params.System != "" {
		req["system"] = params.System
	}

	if len(params.Tools) > 0 {
		tools := make([]map[string]any, len(params.Tools))
		for i, t := range params.Tools {
			tools[i] = map[string]any{
				"name":         t.Name,
				"description":  t.Description,
				"input_schema": json.RawMessage(t.Parameters),
			}
		}
		req["tools"] = tools
	}

	return req
}

func (c *AnthropicClient) consumeSSE(body io.ReadCloser, out chan<- StreamEvent) {
	defer close(out)
	defer body.Close()

	nextToolIndex := 0
	blockToTool := make(map[int]int) // content block index → tool index

	for event := range ParseSSE(body) {
		switch event.Event {
		case "content_block_start":
			var block anthropicContentBlockStart
			if err := json.Unmarshal([]byte(event.Data), &block); err != nil {
				continue
			}
			if block.ContentBlock.Type == "tool_use" {
				blockToTool[block.Index] = nextToolIndex
				out <- StreamEvent{
					Type:          "tool_call_delta",
					ToolCallIndex: nextToolIndex,
					ToolCallID:    block.ContentBlock.ID,
					ToolCallName:  block.ContentBlock.Name,
				}
				nextToolIndex++
			}

		case "content_block_delta":
			var delta anthropicContentBlockDelta
			if err := json.Unmarshal([]byte(event.Data), &delta); err != nil {
				continue
			}
			switch delta.Delta.Type {
			case "text_delta":
				out <- StreamEvent{Type: "text_delta", Text: delta.Delta.Text}
			case "input_json_delta":
				out <- StreamEvent{
					Type:          "tool_call_delta",
					ToolCallIndex: blockToTool[delta.Index],
					ToolCallArgs:  delta.Delta.PartialJSON,
				}
			}

		case "message_delta":
			var md anthropicMessageDelta
			if err := json.Unmarshal([]byte(event.Data), &md); err != nil {
				continue
			}
			out <- StreamEvent{Type: "done", Text: md.Delta.StopReason}
			return

		case "error":
			out <- StreamEvent{Type: "error", Error: fmt.Errorf("anthropic stream error: %s", event.Data)}
			return
		}
	}
}

// Anthropic streaming response types

type anthropicContentBlockStart struct {
	Index        int `json:"index"`
	ContentBlock struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
}

type anthropicContentBlockDelta struct {
	Index int `json:"index"`
	Delta struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
}

type anthropicMessageDelta struct {
	Delta struct {
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
}
