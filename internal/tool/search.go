package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// SearchConfig holds the Tavily search settings.
type SearchConfig struct {
	APIKey        string
	SearchDepth   string
	IncludeAnswer bool
	MaxResults    int
}

// SearchTool performs web searches through the Tavily API.
type SearchTool struct {
	cfg      SearchConfig
	endpoint string
	client   *http.Client
}

func NewSearchTool(cfg SearchConfig) *SearchTool {
	if cfg.SearchDepth == "" {
		cfg.SearchDepth = "basic"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 5
	}
	return &SearchTool{
		cfg:      cfg,
		endpoint: tavilyEndpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *SearchTool) Name() string { return "web_search" }

func (t *SearchTool) Description() string {
	return "Search the web for current information. Use when the user asks about recent events or anything outside your knowledge."
}

func (t *SearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if t.cfg.APIKey == "" {
		return "Error: Tavily API key is not configured.", nil
	}

	body, err := json.Marshal(map[string]any{
		"api_key":        t.cfg.APIKey,
		"query":          p.Query,
		"search_depth":   t.cfg.SearchDepth,
		"include_answer": t.cfg.IncludeAnswer,
		"max_results":    t.cfg.MaxResults,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		slog.Warn("search API error", "status", resp.StatusCode, "body", string(data))
		return "", fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	var out struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding search response: %w", err)
	}

	var b strings.Builder
	if out.Answer != "" {
		b.WriteString("Answer: ")
		b.WriteString(out.Answer)
		b.WriteString("\n\n")
	}
	for i, r := range out.Results {
		fmt.Fprintf(&b, "%d. %s (%s)\n%s\n\n", i+1, r.Title, r.URL, r.Content)
	}
	if b.Len() == 0 {
		return "No results found.", nil
	}
	return strings.TrimSpace(b.String()), nil
}
