// Package tool defines the capability contract the model programs against
// and the registry the reasoning loop dispatches through.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/openclaw/openclaw/internal/llm"
)

// Tool is the uniform capability contract: a name, a free-text description
// for the model, a JSON Schema for arguments, and an invoke function.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (string, error)
}

// Registry is the name-keyed capability table, built once at startup from
// local tools plus any remotely described ones.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. A later registration under the same name replaces
// the earlier one.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Execute runs a tool and always returns an observation string: a tool
// error or an unknown name becomes a JSON error payload the model can react
// to, never a failure of the reasoning cycle.
func (r *Registry) Execute(ctx context.Context, name string, paramsJSON string) string {
	t, ok := r.Get(name)
	if !ok {
		return fmt.Sprintf(`{"error": %q}`, "unknown tool: "+name)
	}
	result, err := t.Execute(ctx, json.RawMessage(paramsJSON))
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return result
}

// Defs returns model-facing capability descriptors for all registered
// tools, sorted by name for a stable prompt.
func (r *Registry) Defs() []llm.ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]llm.ToolDef, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, llm.ToolDef{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Names returns all registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
