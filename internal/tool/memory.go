package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openclaw/openclaw/internal/memory"
)

// RegisterMemoryTools wires the persistent-memory capabilities backed by the
// markdown note and profile stores.
func RegisterMemoryTools(r *Registry, notes *memory.NoteStore, profiles *memory.ProfileStore) {
	r.Register(&rememberTool{notes: notes})
	r.Register(&logEventTool{notes: notes})
	r.Register(&updatePreferenceTool{profiles: profiles})
	r.Register(&updateSoulTool{profiles: profiles})
	r.Register(&updateEnvironmentTool{profiles: profiles})
}

type rememberTool struct {
	notes *memory.NoteStore
}

func (t *rememberTool) Name() string { return "remember" }

func (t *rememberTool) Description() string {
	return "Save an important fact, decision, or preference to long-term memory. " +
		"Use this when the user shares something worth recalling in future conversations."
}

func (t *rememberTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"fact": {"type": "string", "description": "The fact to remember, phrased as a standalone statement"}
		},
		"required": ["fact"]
	}`)
}

func (t *rememberTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Fact string `json:"fact"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Fact == "" {
		return "", fmt.Errorf("fact is required")
	}
	if err := t.notes.Remember(p.Fact); err != nil {
		return "", fmt.Errorf("saving memory: %w", err)
	}
	return "Memory saved.", nil
}

type logEventTool struct {
	notes *memory.NoteStore
}

func (t *logEventTool) Name() string { return "log_event" }

func (t *logEventTool) Description() string {
	return "Append a timestamped note to today's daily log. Use for observations or events that matter today but do not belong in long-term memory."
}

func (t *logEventTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"event": {"type": "string", "description": "A short description of the event"}
		},
		"required": ["event"]
	}`)
}

func (t *logEventTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Event == "" {
		return "", fmt.Errorf("event is required")
	}
	if err := t.notes.LogEvent(p.Event); err != nil {
		return "", fmt.Errorf("writing daily log: %w", err)
	}
	return "Event logged.", nil
}

type updatePreferenceTool struct {
	profiles *memory.ProfileStore
}

func (t *updatePreferenceTool) Name() string { return "update_user_preference" }

func (t *updatePreferenceTool) Description() string {
	return "Record or update a user preference as a key/value pair, e.g. key 'timezone' value 'America/Chicago'."
}

func (t *updatePreferenceTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {"type": "string", "description": "Preference name, lowercase"},
			"value": {"type": "string", "description": "Preference value"}
		},
		"required": ["key", "value"]
	}`)
}

func (t *updatePreferenceTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Key == "" || p.Value == "" {
		return "", fmt.Errorf("key and value are required")
	}
	if err := t.profiles.UpdatePreference(p.Key, p.Value); err != nil {
		return "", fmt.Errorf("updating preference: %w", err)
	}
	return fmt.Sprintf("Preference '%s' updated.", p.Key), nil
}

type updateSoulTool struct {
	profiles *memory.ProfileStore
}

func (t *updateSoulTool) Name() string { return "update_soul" }

func (t *updateSoulTool) Description() string {
	return "Replace the agent's soul directive, the personality statement that shapes every response. Use only on an explicit request to change how the agent behaves."
}

func (t *updateSoulTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"directive": {"type": "string", "description": "The new personality directive"}
		},
		"required": ["directive"]
	}`)
}

func (t *updateSoulTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Directive string `json:"directive"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Directive == "" {
		return "", fmt.Errorf("directive is required")
	}
	if err := t.profiles.UpdateSoul(p.Directive); err != nil {
		return "", fmt.Errorf("updating soul directive: %w", err)
	}
	return "Soul directive updated.", nil
}

type updateEnvironmentTool struct {
	profiles *memory.ProfileStore
}

func (t *updateEnvironmentTool) Name() string { return "update_environment_fact" }

func (t *updateEnvironmentTool) Description() string {
	return "Record a fact about the agent's operating environment, e.g. available services or the user's usual working hours."
}

func (t *updateEnvironmentTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"fact": {"type": "string", "description": "The environment fact to record"}
		},
		"required": ["fact"]
	}`)
}

func (t *updateEnvironmentTool) Execute(_ context.Context, params json.RawMessage) (string, error) {
	var p struct {
		Fact string `json:"fact"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if p.Fact == "" {
		return "", fmt.Errorf("fact is required")
	}
	if err := t.profiles.UpdateEnvironmentFact(p.Fact); err != nil {
		return "", fmt.Errorf("updating environment: %w", err)
	}
	return "Environment fact recorded.", nil
}
