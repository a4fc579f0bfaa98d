package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/toolkit"
)

// fakeProvider replays a fixed queue of Responses, one per Generate call.
type fakeProvider struct {
	responses []llm.Response
	calls     int
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Response, error) {
	if p.calls >= len(p.responses) {
		return llm.Response{}, errors.New("fakeProvider: no more queued responses")
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

// countingTool fails its first failUntil calls, then succeeds.
type countingTool struct {
	name      string
	failUntil int
	calls     int
}

func (t *countingTool) Name() string        { return t.name }
func (t *countingTool) Description() string { return "test tool" }
func (t *countingTool) NewParams() any      { return &struct{}{} }
func (t *countingTool) Call(_ context.Context, _ any) (string, error) {
	t.calls++
	if t.calls <= t.failUntil {
		return "", errors.New("simulated failure")
	}
	return "ok", nil
}

func collect(t *testing.T, seq func(func(events.Event, error) bool)) ([]events.Event, error) {
	t.Helper()
	var out []events.Event
	var outErr error
	seq(func(ev events.Event, err error) bool {
		if err != nil {
			outErr = err
			return false
		}
		out = append(out, ev)
		return true
	})
	return out, outErr
}

func TestRunStopsOnPlainMessage(t *testing.T) {
	provider := &fakeProvider{responses: []llm.Response{
		{Text: "hello there"},
	}}
	mem := memory.New()
	agent := New(mem, provider, nil, "system prompt")

	out, err := collect(t, agent.Run(context.Background(), "hi"))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, events.KindMessage, out[0].Kind)
	assert.Equal(t, "hello there", out[0].Message)
}

func TestRunTruncatesToAtMostOneToolCallPerTurn(t *testing.T) {
	provider := &fakeProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "echo"}, {ID: "2", Name: "echo"}}},
		{Text: "done"},
	}}
	registry := toolkit.NewRegistry()
	require.NoError(t, registry.Register(&countingTool{name: "echo"}))
	mem := memory.New()
	agent := New(mem, provider, registry, "system prompt")

	_, err := collect(t, agent.Run(context.Background(), "go"))
	require.NoError(t, err)

	for _, msg := range mem.All() {
		assert.LessOrEqual(t, len(msg.ToolCalls), 1)
	}
}

func TestRunRetriesFailingToolAndSucceeds(t *testing.T) {
	tool := &countingTool{name: "echo", failUntil: 2}
	registry := toolkit.NewRegistry()
	require.NoError(t, registry.Register(tool))

	provider := &fakeProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "echo"}}},
		{Text: "all done"},
	}}
	mem := memory.New()
	agent := New(mem, provider, registry, "system prompt")

	out, err := collect(t, agent.Run(context.Background(), "go"))
	require.NoError(t, err)

	var calling, called int
	for _, ev := range out {
		if ev.Kind == events.KindToolCalling {
			calling++
		}
		if ev.Kind == events.KindToolCalled {
			called++
		}
	}
	assert.Equal(t, 1, calling)
	assert.Equal(t, 1, called)
	assert.Equal(t, 3, tool.calls)
}

func TestRunEmitsErrorAfterToolExhaustsRetries(t *testing.T) {
	tool := &countingTool{name: "echo", failUntil: 100}
	registry := toolkit.NewRegistry()
	require.NoError(t, registry.Register(tool))

	provider := &fakeProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "echo"}}},
	}}
	mem := memory.New()
	agent := New(mem, provider, registry, "system prompt")

	out, err := collect(t, agent.Run(context.Background(), "go"))
	require.Error(t, err)

	var calling, called int
	for _, ev := range out {
		if ev.Kind == events.KindToolCalling {
			calling++
		}
		if ev.Kind == events.KindToolCalled {
			called++
		}
	}
	assert.Equal(t, 1, calling)
	assert.Equal(t, 0, called)
}
