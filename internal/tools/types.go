package tools

import (
	"context"
	"encoding/json"

	"github.com/Konaiko01/ZetaonAI/internal/llm"
)

// Tool is an executable capability an agent can call.
type Tool interface {
	Name() string
	JSONSchema() map[string]any
	Call(ctx context.Context, raw json.RawMessage) (any, error)
}

// Registry keeps track of tools and dispatches calls by name.
type Registry interface {
	Schemas() []llm.ToolSchema
	Dispatch(ctx context.Context, name string, raw json.RawMessage) ([]byte, error)
	Register(t Tool)
}

type defaultRegistry struct {
	byName map[string]Tool
	order  []string
}

// NewRegistry returns a basic in-memory registry. Registration happens once
// at startup; Dispatch and Schemas are read-only afterwards.
func NewRegistry(ts ...Tool) Registry {
	r := &defaultRegistry{byName: make(map[string]Tool)}
	for _, t := range ts {
		r.Register(t)
	}
	return r
}

func (r *defaultRegistry) Register(t Tool) {
	if _, exists := r.byName[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.byName[t.Name()] = t
}

func (r *defaultRegistry) Schemas() []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		schema := r.byName[name].JSONSchema()
		out = append(out, llm.ToolSchema{
			Name:        name,
			Description: strFrom(schema["description"]),
			Parameters:  mapFrom(schema["parameters"]),
		})
	}
	return out
}

// Dispatch runs a tool and always returns a JSON payload. Execution failures
// are encoded into the payload instead of raised, so the model can see the
// error and recover within the same turn.
func (r *defaultRegistry) Dispatch(ctx context.Context, name string, raw json.RawMessage) ([]byte, error) {
	t := r.byName[name]
	if t == nil {
		return []byte(`{"error":"tool not found"}`), nil
	}
	val, err := t.Call(ctx, raw)
	if err != nil {
		b, _ := json.Marshal(map[string]any{"ok": false, "error": err.Error()})
		return b, nil
	}
	b, err := json.Marshal(val)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"ok": false, "error": err.Error()})
	}
	return b, nil
}

func strFrom(v any) string {
	s, _ := v.(string)
	return s
}

func mapFrom(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
