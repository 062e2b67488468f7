package tool

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTool is returned by Invoke when no handler is bound to the name.
var ErrUnknownTool = errors.New("unknown tool")

// Registry binds the tools declared in an agent's capability list to their
// handlers. The set is validated exhaustively at construction: unnamed tools
// and duplicate names are rejected, so every declared name has exactly one
// handler before a run starts. Dispatch itself is pure name lookup; argument
// schema conformance is the FunctionTool's concern.
type Registry struct {
	tools map[string]Tool
	names []string
}

// NewRegistry builds a registry from the given tool set.
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{tools: make(map[string]Tool, len(tools))}

	for _, t := range tools {
		if t == nil {
			return nil, fmt.Errorf("nil tool in registry")
		}
		name := t.Name()
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, exists := r.tools[name]; exists {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.tools[name] = t
	}

	r.names = make([]string, 0, len(r.tools))
	for name := range r.tools {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on a declaration error.
// Intended for static tool sets wired at program start.
func MustNewRegistry(tools ...Tool) *Registry {
	r, err := NewRegistry(tools...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the tool bound to name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the declared tool names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Invoke dispatches to the named handler and returns its result, or wraps
// ErrUnknownTool when no handler is bound. No retry, no validation beyond
// name lookup.
func (r *Registry) Invoke(toolCtx *Context, name string, args map[string]any) (any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	return t.Call(toolCtx, args)
}
