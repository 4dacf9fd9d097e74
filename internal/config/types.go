// Package config holds the process configuration: a YAML file with ${ENV}
// expansion, kept in an atomic pointer and hot-reloaded when the file
// changes on disk.
package config

import "github.com/openclaw/openclaw/internal/tool"

type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	DataDir   string          `yaml:"data_dir"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	LLM       LLMConfig       `yaml:"llm"`
	Agent     AgentConfig     `yaml:"agent"`
	RAG       RAGConfig       `yaml:"rag"`
	Tools     ToolsConfig     `yaml:"tools"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
}

type GatewayConfig struct {
	Port    int           `yaml:"port"`
	Webhook WebhookConfig `yaml:"webhook"`
	Socket  SocketConfig  `yaml:"socket"`
}

// WebhookConfig is the WhatsApp-style webhook surface: GET verification
// handshake plus POSTed event batches.
type WebhookConfig struct {
	VerifyToken   string `yaml:"verify_token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	APIToken      string `yaml:"api_token"`
}

// SocketConfig is the persistent websocket channel (Slack socket-mode style).
type SocketConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Token   string `yaml:"token"`
}

type LLMConfig struct {
	Provider string `yaml:"provider"` // openai|anthropic
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

type AgentConfig struct {
	MaxIterations       int `yaml:"max_iterations"`
	MaxRetries          int `yaml:"max_retries"`
	RetryBackoffSeconds int `yaml:"retry_backoff_seconds"`
	HistoryLimit        int `yaml:"history_limit"`
	Workers             int `yaml:"workers"`
	DedupTTLMinutes     int `yaml:"dedup_ttl_minutes"`
}

type RAGConfig struct {
	Enabled             bool    `yaml:"enabled"`
	BaseURL             string  `yaml:"base_url"`
	TopK                int     `yaml:"top_k"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

type ToolsConfig struct {
	Search SearchConfig      `yaml:"search"`
	GitHub GitHubConfig      `yaml:"github"`
	Remote []tool.RemoteSpec `yaml:"remote"`
}

type SearchConfig struct {
	APIKey        string `yaml:"api_key"`
	SearchDepth   string `yaml:"search_depth"`
	IncludeAnswer bool   `yaml:"include_answer"`
	MaxResults    int    `yaml:"max_results"`
}

type GitHubConfig struct {
	Token string `yaml:"token"`
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
}

type HeartbeatConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}
