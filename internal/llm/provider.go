package llm

import (
	"context"
	"fmt"
)

// Provider is the contract the reasoning loop drives. The LLM provider
// itself is an external collaborator — the kernel only needs the ability
// to send the effective message list and get back text and/or tool calls.
type Provider interface {
	Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (Response, error)
	GenerateStreaming(ctx context.Context, messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error)
	ModelName() string
	Close() error
}

// Registry holds named providers, one per configured LLM backend.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(name string, p Provider) error {
	if name == "" {
		return fmt.Errorf("llm: provider name cannot be empty")
	}
	if p == nil {
		return fmt.Errorf("llm: provider cannot be nil")
	}
	r.providers[name] = p
	return nil
}

func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("llm: provider %q not registered", name)
	}
	return p, nil
}

func (r *Registry) Close() error {
	var firstErr error
	for _, p := range r.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
