// Package agent is the reasoning core: it assembles per-request context,
// drives the bounded think/act/observe loop against the model, and
// orchestrates memory updates around each reply.
package agent

import (
	"github.com/openclaw/openclaw/internal/channel"
	"github.com/openclaw/openclaw/internal/llm"
	"github.com/openclaw/openclaw/internal/memory"
	"github.com/openclaw/openclaw/internal/rag"
)

// Context is everything one reasoning cycle sees. Built fresh per request;
// never shared between requests.
type Context struct {
	Message   channel.Inbound
	History   []llm.Message
	Memory    memory.Snapshot
	Documents []rag.Document
	Profile   memory.Profile
	ToolDefs  []llm.ToolDef
}
