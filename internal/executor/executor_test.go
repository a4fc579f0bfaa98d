package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/plan"
	"github.com/sandboxkernel/kernel/internal/toolkit"
)

type fakeProvider struct {
	responses []llm.Response
	calls     int
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Response, error) {
	if p.calls >= len(p.responses) {
		return llm.Response{}, errors.New("fakeProvider: exhausted")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *fakeProvider) GenerateStreaming(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (p *fakeProvider) ModelName() string { return "fake" }
func (p *fakeProvider) Close() error      { return nil }

type notifyTool struct{}

func (notifyTool) Name() string        { return "message_notify_user" }
func (notifyTool) Description() string { return "notify" }
func (notifyTool) NewParams() any      { return &struct{ Text string }{} }
func (notifyTool) Call(_ context.Context, _ any) (string, error) {
	return "hi", nil
}

func collectEvents(t *testing.T, seq func(func(events.Event, error) bool)) []events.Event {
	t.Helper()
	var out []events.Event
	seq(func(ev events.Event, err error) bool {
		require.NoError(t, err)
		out = append(out, ev)
		return true
	})
	return out
}

func TestExecuteStepCompletesOnPlainMessage(t *testing.T) {
	provider := &fakeProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "message_notify_user"}}},
		{Text: "done"},
	}}
	registry := toolkit.NewRegistry()
	require.NoError(t, registry.Register(notifyTool{}))
	ex := New(memory.New(), provider, registry)

	p := &plan.Plan{Goal: "greet"}
	step := &plan.Step{ID: "1", Description: "say hi"}

	out := collectEvents(t, ex.ExecuteStep(context.Background(), p, step))

	assert.Equal(t, plan.StatusCompleted, step.Status)
	assert.Equal(t, "done", step.Result)

	var kinds []events.Kind
	for _, ev := range out {
		kinds = append(kinds, ev.Kind)
	}
	assert.Contains(t, kinds, events.KindStepStarted)
	assert.Contains(t, kinds, events.KindToolCalling)
	assert.Contains(t, kinds, events.KindStepCompleted)
}

func TestExecuteStepFailsOnToolError(t *testing.T) {
	provider := &fakeProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "missing_tool"}}},
	}}
	registry := toolkit.NewRegistry()
	ex := New(memory.New(), provider, registry)

	p := &plan.Plan{Goal: "g"}
	step := &plan.Step{ID: "1", Description: "do something"}

	ex.ExecuteStep(context.Background(), p, step)(func(ev events.Event, err error) bool {
		return err == nil
	})

	assert.Equal(t, plan.StatusFailed, step.Status)
	assert.NotEmpty(t, step.Error)
}
