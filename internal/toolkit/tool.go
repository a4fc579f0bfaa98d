// Package toolkit defines the Tool Registry: the closed set of actions an
// agent's sandbox exposes to the reasoning loop, each described by a JSON
// schema derived from its Go parameter struct.
package toolkit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Tool is a single callable action. Params must be a pointer to a struct;
// its fields (tagged with `jsonschema`) define the schema advertised to the
// LLM and the shape mapstructure decodes call arguments into.
type Tool interface {
	Name() string
	Description() string
	// NewParams returns a fresh zero-valued pointer to the tool's params
	// struct, used both for schema generation and per-call decoding.
	NewParams() any
	// Call executes the tool given decoded params, already-typed per
	// NewParams. It returns the tool's raw string result; the caller
	// (the reasoning loop) wraps it into a tool result message.
	Call(ctx context.Context, params any) (string, error)
}

// Registry holds every tool an agent's sandbox exposes, keyed by name.
type Registry struct {
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("toolkit: tool name cannot be empty")
	}
	if _, exists := r.tools[t.Name()]; exists {
		return fmt.Errorf("toolkit: tool %q already registered", t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Schema returns the JSON Schema for a tool's parameters, generated from
// its params struct via reflection.
func (r *Registry) Schema(name string) (map[string]any, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("toolkit: tool %q not found", name)
	}
	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(t.NewParams())
	out := make(map[string]any)
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema for %q: %w", name, err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal schema for %q: %w", name, err)
	}
	return out, nil
}

// Dispatch decodes args into the tool's params struct and invokes it.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("toolkit: tool %q not found", name)
	}
	params := t.NewParams()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           params,
		WeaklyTypedInput: true,
		TagName:          "json",
	})
	if err != nil {
		return "", fmt.Errorf("build decoder for %q: %w", name, err)
	}
	if err := decoder.Decode(args); err != nil {
		return "", fmt.Errorf("decode args for %q: %w", name, err)
	}
	return t.Call(ctx, params)
}
