// Package tools defines the bridge's tool surface: each tool couples a name,
// a reflected JSON schema for its arguments and a handler. The registry is
// assembled once at startup and is read-only afterwards.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Handler executes one tool call. Returned values must be JSON-marshalable;
// errors become error results on the wire, never transport failures.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	InputSchema any     `json:"inputSchema"`
	Handle      Handler `json:"-"`
}

type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry wires every tool against the given instance resolver.
func NewRegistry(clients Clients) *Registry {
	r := &Registry{byName: make(map[string]Tool)}
	for _, t := range buildTools(clients) {
		r.register(t)
	}
	return r
}

func (r *Registry) register(t Tool) {
	if _, dup := r.byName[t.Name]; dup {
		panic(fmt.Sprintf("duplicate tool %q", t.Name))
	}
	r.tools = append(r.tools, t)
	r.byName[t.Name] = t
}

// List returns the tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Call dispatches a tool by name.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	t, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.Handle(ctx, args)
}

func generateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func decodeArgs[T any](args json.RawMessage) (T, error) {
	var result T
	if len(args) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(args, &result); err != nil {
		return result, fmt.Errorf("parse tool arguments: %w", err)
	}
	return result, nil
}
