// Package reasoning implements the bounded reasoning loop shared by the
// planner and the executor: ask the model, dispatch at most one tool call
// per turn, feed the result back, repeat until the model stops asking for
// tools or the iteration cap is hit.
package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/toolkit"
)

const (
	maxIterations = 30
	maxRetries    = 3
	retryInterval = 1 * time.Second
)

// toolResult is the shape fed back to the model as a tool message's
// content: success plus, on success, the tool's result as an opaque
// message the model reads as-is.
type toolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Agent drives one reasoning loop instance (the planner or the executor
// both embed one) against a fixed system prompt, a Memory, a Provider, and
// a Tool Registry.
type Agent struct {
	Memory *memory.Memory
	llm    llm.Provider
	tools  *toolkit.Registry

	// JSONFormat marks an agent whose replies are parsed as JSON (the
	// planner's create/update-plan turns). ask does not pass it to the
	// provider; the JSON shape is requested by the prompt text alone.
	JSONFormat bool

	encoding *tiktoken.Tiktoken
}

// New builds an Agent and seeds its Memory with the system prompt, exactly
// once, on construction.
func New(mem *memory.Memory, provider llm.Provider, tools *toolkit.Registry, systemPrompt string) *Agent {
	mem.Add(llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		enc = nil
	}
	return &Agent{Memory: mem, llm: provider, tools: tools, encoding: enc}
}

// RollBack undoes a partially-applied turn, called when a flow is
// interrupted by a new incoming message mid-execution.
func (a *Agent) RollBack() {
	a.Memory.Rollback()
}

func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	if a.tools == nil {
		return nil
	}
	var defs []llm.ToolDefinition
	for _, name := range a.tools.Names() {
		t, _ := a.tools.Get(name)
		schema, err := a.tools.Schema(name)
		if err != nil {
			slog.Warn("failed to build tool schema", "tool", name, "error", err)
			schema = map[string]any{}
		}
		defs = append(defs, llm.ToolDefinition{Name: t.Name(), Description: t.Description(), Parameters: schema})
	}
	return defs
}

func (a *Agent) logTokenEstimate(messages []llm.Message) {
	if a.encoding == nil {
		return
	}
	total := 0
	for _, m := range messages {
		total += len(a.encoding.Encode(m.Content, nil, nil))
	}
	slog.Debug("reasoning loop token estimate", "messages", len(messages), "estimated_tokens", total)
}

// ask sends the current effective memory to the provider, truncates the
// response to at most one tool call (the model is free to request
// several; only the first is ever acted on, mirroring the system this
// loop was distilled from), and appends the resulting assistant message
// to memory.
func (a *Agent) ask(ctx context.Context) (llm.Message, error) {
	messages := a.Memory.Effective()
	a.logTokenEstimate(messages)

	resp, err := a.llm.Generate(ctx, messages, a.toolDefinitions())
	if err != nil {
		return llm.Message{}, fmt.Errorf("reasoning: generate: %w", err)
	}

	toolCalls := resp.ToolCalls
	if len(toolCalls) > 1 {
		toolCalls = toolCalls[:1]
	}
	msg := llm.Message{Role: llm.RoleAssistant, Content: resp.Text, ToolCalls: toolCalls}
	a.Memory.Add(msg)
	return msg, nil
}

// executeTool dispatches a single tool call, retrying up to maxRetries
// times with a fixed interval between attempts.
func (a *Agent) executeTool(ctx context.Context, name string, args map[string]any) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		result, err := a.tools.Dispatch(ctx, name, args)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryInterval):
			}
		}
	}
	return "", fmt.Errorf("tool execution failed, retried %d times: %w", maxRetries, lastErr)
}

// Run drives one full reasoning turn for userMessage, appending it to
// memory and yielding events until a terminal Message or Error event ends
// the loop.
func (a *Agent) Run(ctx context.Context, userMessage string) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		if userMessage != "" {
			a.Memory.Add(llm.Message{Role: llm.RoleUser, Content: userMessage})
		}

		msg, err := a.ask(ctx)
		if err != nil {
			yield(events.Err(err.Error()), nil)
			return
		}

		reachedCap := true
		for i := 0; i < maxIterations; i++ {
			if len(msg.ToolCalls) == 0 {
				reachedCap = false
				break
			}

			if ctx.Err() != nil {
				yield(events.Event{}, ctx.Err())
				return
			}

			tc := msg.ToolCalls[0]
			t, ok := a.tools.Get(tc.Name)
			if !ok {
				yield(events.Err(fmt.Sprintf("unknown tool: %s", tc.Name)), nil)
				return
			}

			if !yield(events.ToolCalling(t.Name(), tc.Name, tc.Arguments), nil) {
				return
			}

			result, err := a.executeTool(ctx, tc.Name, tc.Arguments)
			if err != nil {
				yield(events.Event{}, err)
				return
			}

			if !yield(events.ToolCalled(t.Name(), tc.Name, tc.Arguments, result), nil) {
				return
			}

			resultJSON, _ := json.Marshal(toolResult{Success: true, Message: result})
			a.Memory.Add(llm.Message{Role: llm.RoleTool, ToolCallID: tc.ID, Content: string(resultJSON)})

			msg, err = a.ask(ctx)
			if err != nil {
				yield(events.Err(err.Error()), nil)
				return
			}
		}

		if reachedCap {
			if !yield(events.Err("maximum iteration count reached, failed to complete the task"), nil) {
				return
			}
		}

		yield(events.Message(msg.Content), nil)
	}
}
