package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openclaw/openclaw/internal/rag"
)

// KnowledgeTool lets the model query the knowledge base on demand, in
// addition to the documents injected during context assembly.
type KnowledgeTool struct {
	retriever rag.Retriever
}

func NewKnowledgeTool(retriever rag.Retriever) *KnowledgeTool {
	return &KnowledgeTool{retriever: retriever}
}

func (t *KnowledgeTool) Name() string { return "search_knowledge_base" }

func (t *KnowledgeTool) Description() string {
	return "Search the internal knowledge base for documents relevant to a query."
}

func (t *KnowledgeTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "What to look up"}
		},
		"required": ["query"]
	}`)
}

func (t *KnowledgeTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	docs, err := t.retriever.FindRelevantDocuments(ctx, p.Query)
	if err != nil {
		return "", fmt.Errorf("knowledge base query: %w", err)
	}
	if len(docs) == 0 {
		return "No relevant documents found.", nil
	}

	var b strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&b, "%d. (score %.2f) %s\n", i+1, d.Score, d.Content)
	}
	return strings.TrimSpace(b.String()), nil
}
