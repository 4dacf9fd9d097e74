// Package rag talks to the external semantic-retrieval service. Indexing
// and similarity live behind the service; the agent only asks for relevant
// passages.
package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Document is one retrieved passage.
type Document struct {
	Content  string            `json:"content"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Retriever finds passages relevant to a query.
type Retriever interface {
	FindRelevantDocuments(ctx context.Context, query string) ([]Document, error)
}

// HTTPRetriever queries a retrieval service over HTTP.
type HTTPRetriever struct {
	BaseURL    string
	TopK       int
	Threshold  float64
	HTTPClient *http.Client
}

func NewHTTPRetriever(baseURL string, topK int, threshold float64) *HTTPRetriever {
	if topK <= 0 {
		topK = 5
	}
	if threshold <= 0 {
		threshold = 0.7
	}
	return &HTTPRetriever{
		BaseURL:    baseURL,
		TopK:       topK,
		Threshold:  threshold,
		HTTPClient: http.DefaultClient,
	}
}

type searchRequest struct {
	Query     string  `json:"query"`
	TopK      int     `json:"topK"`
	Threshold float64 `json:"similarityThreshold"`
}

type searchResponse struct {
	Documents []Document `json:"documents"`
}

func (r *HTTPRetriever) FindRelevantDocuments(ctx context.Context, query string) ([]Document, error) {
	body, err := json.Marshal(searchRequest{Query: query, TopK: r.TopK, Threshold: r.Threshold})
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	endpoint := strings.TrimRight(r.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("retrieval request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("retrieval service returned %d: %s", resp.StatusCode, string(errBody))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return result.Documents, nil
}
