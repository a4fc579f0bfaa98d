package planner

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
)

type fakeProvider struct {
	texts []string
	calls int
}

func (p *fakeProvider) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Response, error) {
	if p.calls >= len(p.texts) {
		return llm.Response{}, errors.New("fakeProvider: exhausted")
	}
	text := p.texts[p.calls]
	p.calls++
	return llm.Response{Text: text}, nil
}

func (p *fakeProvider) GenerateStreaming(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (p *fakeProvider) ModelName() string { return "fake" }
func (p *fakeProvider) Close() error      { return nil }

func drain(seq func(func(events.Event, error) bool)) (events.Event, error) {
	var last events.Event
	var outErr error
	seq(func(ev events.Event, err error) bool {
		if err != nil {
			outErr = err
			return false
		}
		last = ev
		return true
	})
	return last, outErr
}

func TestCreatePlanParsesJSONIntoPlan(t *testing.T) {
	provider := &fakeProvider{texts: []string{
		`{"message":"ok","goal":"say hi","title":"greet","steps":[{"id":"1","description":"emit hi"}]}`,
	}}
	p := New(memory.New(), provider)

	ev, err := drain(p.CreatePlan(context.Background(), "say hello"))
	require.NoError(t, err)
	require.Equal(t, events.KindPlanCreated, ev.Kind)
	assert.Equal(t, "greet", ev.Plan.Title)
	assert.Equal(t, "say hi", ev.Plan.Goal)
	require.Len(t, ev.Plan.Steps, 1)
	assert.Equal(t, plan.StatusPending, ev.Plan.Steps[0].Status)
}

func TestCreatePlanFailsOnInvalidJSON(t *testing.T) {
	provider := &fakeProvider{texts: []string{"not json"}}
	p := New(memory.New(), provider)

	_, err := drain(p.CreatePlan(context.Background(), "say hello"))
	assert.Error(t, err)
}

func TestUpdatePlanKeepsCompletedStepsAsAStablePrefix(t *testing.T) {
	provider := &fakeProvider{texts: []string{
		`{"steps":[{"id":"2b","description":"new step 2"}]}`,
	}}
	p := New(memory.New(), provider)

	pl := &plan.Plan{Goal: "g", Steps: []plan.Step{
		{ID: "1", Description: "first", Status: plan.StatusCompleted, Result: "done"},
		{ID: "2", Description: "old step 2", Status: plan.StatusPending},
	}}

	ev, err := drain(p.UpdatePlan(context.Background(), pl))
	require.NoError(t, err)
	require.Equal(t, events.KindPlanUpdated, ev.Kind)

	require.Len(t, pl.Steps, 2)
	assert.Equal(t, "1", pl.Steps[0].ID)
	assert.Equal(t, plan.StatusCompleted, pl.Steps[0].Status)
	assert.Equal(t, "done", pl.Steps[0].Result)
	assert.Equal(t, "2b", pl.Steps[1].ID)
	assert.Equal(t, plan.StatusPending, pl.Steps[1].Status)
}

func TestUpdatePlanLeavesStepsUnchangedWhenAllStepsAreDone(t *testing.T) {
	provider := &fakeProvider{texts: []string{
		`{"steps":[{"id":"x","description":"ignored"}]}`,
	}}
	p := New(memory.New(), provider)

	pl := &plan.Plan{Goal: "g", Steps: []plan.Step{
		{ID: "1", Status: plan.StatusCompleted},
	}}

	_, err := drain(p.UpdatePlan(context.Background(), pl))
	require.NoError(t, err)

	require.Len(t, pl.Steps, 1)
	assert.Equal(t, "1", pl.Steps[0].ID)
}
