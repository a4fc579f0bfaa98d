package flow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/executor"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/planner"
	"github.com/sandboxkernel/kernel/internal/toolkit"
)

// scriptedProvider replays one queued llm.Response per Generate call,
// regardless of which Memory/Agent is calling it; tests build one queue
// for the planner's turns and one for the executor's turns.
type scriptedProvider struct {
	responses []llm.Response
	calls     int
}

func (p *scriptedProvider) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Response, error) {
	if p.calls >= len(p.responses) {
		return llm.Response{}, errors.New("scriptedProvider: exhausted")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) GenerateStreaming(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (p *scriptedProvider) ModelName() string { return "fake" }
func (p *scriptedProvider) Close() error      { return nil }

type notifyTool struct{}

func (notifyTool) Name() string        { return "message_notify_user" }
func (notifyTool) Description() string { return "notify" }
func (notifyTool) NewParams() any      { return &struct{ Text string }{} }
func (notifyTool) Call(_ context.Context, _ any) (string, error) {
	return "hi", nil
}

// TestSingleStepPlanReachesDone exercises spec scenario S1: a one-step
// plan whose single step calls message_notify_user and finishes.
func TestSingleStepPlanReachesDone(t *testing.T) {
	plannerProvider := &scriptedProvider{responses: []llm.Response{
		{Text: `{"message":"ok","goal":"say hi","title":"greet","steps":[{"id":"1","description":"emit hi"}]}`},
	}}
	executorProvider := &scriptedProvider{responses: []llm.Response{
		{ToolCalls: []llm.ToolCall{{ID: "1", Name: "message_notify_user"}}},
		{Text: "done"},
	}}

	registry := toolkit.NewRegistry()
	require.NoError(t, registry.Register(notifyTool{}))

	p := planner.New(memory.New(), plannerProvider)
	e := executor.New(memory.New(), executorProvider, registry)
	f := New(p, e)

	var kinds []events.Kind
	for ev, err := range f.Run(context.Background(), "say hello") {
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
	}

	require.Contains(t, kinds, events.KindPlanCreated)
	require.Contains(t, kinds, events.KindStepStarted)
	require.Contains(t, kinds, events.KindStepCompleted)
	require.Contains(t, kinds, events.KindPlanCompleted)
	assert.Equal(t, events.KindDone, kinds[len(kinds)-1])
	assert.True(t, f.IsIdle())
}

// TestErrorEventPrecedesDone checks the flow's side of testable property
// 4: a planner parse failure ends Run with an error and nothing after it
// (no done from the flow), leaving the Agent Runtime to append the error
// event and the terminal done for the turn.
func TestErrorEventPrecedesDone(t *testing.T) {
	plannerProvider := &scriptedProvider{responses: []llm.Response{
		{Text: "not valid json"},
	}}
	p := planner.New(memory.New(), plannerProvider)
	e := executor.New(memory.New(), &scriptedProvider{}, toolkit.NewRegistry())
	f := New(p, e)

	var sawError bool
	for ev, err := range f.Run(context.Background(), "do something") {
		if err != nil {
			sawError = true
			continue
		}
		if sawError {
			t.Fatalf("got event %v after an error terminated the run", ev.Kind)
		}
	}
	assert.True(t, sawError)
}
