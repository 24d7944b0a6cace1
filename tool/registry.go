package tool

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lookatitude/beluga-ai/core"
)

// Registry holds the set of tools available to a context aggregator's
// dispatcher, keyed by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Add registers t. It returns an error if a tool with the same name is
// already registered.
func (r *Registry) Add(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, core.NewError("tool.registry.get", core.ErrToolNotFound, fmt.Sprintf("tool %q not found", name), nil)
	}
	return t, nil
}

// Remove deregisters a tool by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[name]; !ok {
		return core.NewError("tool.registry.remove", core.ErrToolNotFound, fmt.Sprintf("tool %q not found", name), nil)
	}
	delete(r.tools, name)
	return nil
}

// List returns the names of all registered tools, sorted alphabetically.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered Tool, sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tools := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Definitions returns the model-facing description of every registered
// tool, suitable for LLMContext.Tools after conversion, as plain maps for
// providers that want raw JSON-able shapes directly.
func (r *Registry) Definitions() []map[string]any {
	all := r.All()
	defs := make([]map[string]any, 0, len(all))
	for _, t := range all {
		d := map[string]any{
			"name":        t.Name(),
			"description": t.Description(),
		}
		if schema := t.InputSchema(); schema != nil {
			d["input_schema"] = schema
		}
		defs = append(defs, d)
	}
	return defs
}
