package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GitHubConfig holds the issue-creation settings. Owner and Repo form the
// default repository when the model does not name one.
type GitHubConfig struct {
	Token string
	Owner string
	Repo  string
}

// GitHubTool files issues through the GitHub REST API.
type GitHubTool struct {
	cfg     GitHubConfig
	baseURL string
	client  *http.Client
}

func NewGitHubTool(cfg GitHubConfig) *GitHubTool {
	return &GitHubTool{
		cfg:     cfg,
		baseURL: "https://api.github.com",
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (t *GitHubTool) Name() string { return "create_github_issue" }

func (t *GitHubTool) Description() string {
	return "Create a GitHub issue. 'repo' is optional 'owner/name'; omit it to use the configured default repository."
}

func (t *GitHubTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"title": {"type": "string", "description": "Issue title"},
			"body": {"type": "string", "description": "Issue body in markdown"},
			"repo": {"type": "string", "description": "Target repository as owner/name, optional"}
		},
		"required": ["title", "body"]
	}`)
}

func (t *GitHubTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Repo  string `json:"repo"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Title == "" {
		return "", fmt.Errorf("title is required")
	}
	if t.cfg.Token == "" {
		return "Error: GitHub token is not configured.", nil
	}

	owner, repo := t.cfg.Owner, t.cfg.Repo
	if p.Repo != "" {
		parts := strings.SplitN(p.Repo, "/", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return fmt.Sprintf("Error: invalid repo '%s', expected owner/name.", p.Repo), nil
		}
		owner, repo = parts[0], parts[1]
	}
	if owner == "" || repo == "" {
		return "Error: no target repository configured.", nil
	}

	body, err := json.Marshal(map[string]string{"title": p.Title, "body": p.Body})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/issues", t.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(data))
	}

	var out struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding github response: %w", err)
	}
	return fmt.Sprintf("Issue #%d created: %s", out.Number, out.HTMLURL), nil
}
