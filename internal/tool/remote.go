package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"
)

// RemoteSpec describes a tool hosted outside the process, declared in config.
// Parameters is the raw JSON Schema to advertise to the model.
type RemoteSpec struct {
	Name        string          `yaml:"name" json:"name"`
	Description string          `yaml:"description" json:"description"`
	URL         string          `yaml:"url" json:"url"`
	AuthToken   string          `yaml:"auth_token" json:"auth_token"`
	Parameters  json.RawMessage `yaml:"-" json:"parameters"`
}

// UnmarshalYAML decodes the parameter schema from its YAML form into the
// JSON bytes the model-facing descriptor needs.
func (s *RemoteSpec) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Name        string         `yaml:"name"`
		Description string         `yaml:"description"`
		URL         string         `yaml:"url"`
		AuthToken   string         `yaml:"auth_token"`
		Parameters  map[string]any `yaml:"parameters"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Description = raw.Description
	s.URL = raw.URL
	s.AuthToken = raw.AuthToken
	if raw.Parameters != nil {
		data, err := json.Marshal(raw.Parameters)
		if err != nil {
			return fmt.Errorf("remote tool %s: encoding parameter schema: %w", raw.Name, err)
		}
		s.Parameters = data
	}
	return nil
}

// RemoteTool forwards tool calls to an HTTP endpoint. The model's arguments
// are POSTed as-is and the response body is the observation.
type RemoteTool struct {
	spec   RemoteSpec
	client *http.Client
}

func NewRemoteTool(spec RemoteSpec) *RemoteTool {
	return &RemoteTool{
		spec:   spec,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (t *RemoteTool) Name() string        { return t.spec.Name }
func (t *RemoteTool) Description() string { return t.spec.Description }

func (t *RemoteTool) Parameters() json.RawMessage {
	if len(t.spec.Parameters) == 0 {
		return json.RawMessage(`{"type": "object", "properties": {}}`)
	}
	return t.spec.Parameters
}

func (t *RemoteTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	if len(params) == 0 {
		params = json.RawMessage(`{}`)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.spec.URL, bytes.NewReader(params))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.spec.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+t.spec.AuthToken)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("remote tool %s: %w", t.spec.Name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("remote tool %s: reading response: %w", t.spec.Name, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("remote tool %s returned status %d: %s", t.spec.Name, resp.StatusCode, string(data))
	}
	return string(data), nil
}
