package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/plan"
)

func TestPlanCreatedEmitsTitleMessageAndPlan(t *testing.T) {
	p := &plan.Plan{Title: "greet", Message: "ok", Steps: []plan.Step{{ID: "1", Status: plan.StatusPending}}}
	out := ToSSE(events.PlanCreated(p))

	require.Len(t, out, 3)
	assert.Equal(t, "title", out[0].Type)
	assert.Equal(t, "message", out[1].Type)
	assert.Equal(t, "plan", out[2].Type)
}

func TestPlanCreatedOmitsTitleWhenEmpty(t *testing.T) {
	p := &plan.Plan{Message: "ok"}
	out := ToSSE(events.PlanCreated(p))

	require.Len(t, out, 1)
	assert.Equal(t, "message", out[0].Type)
}

func TestPlanCreatedOmitsPlanWhenNoSteps(t *testing.T) {
	p := &plan.Plan{Title: "t", Message: "m"}
	out := ToSSE(events.PlanCreated(p))

	require.Len(t, out, 2)
	assert.Equal(t, "title", out[0].Type)
	assert.Equal(t, "message", out[1].Type)
}

func TestPlanUpdatedOmitsPlanEventWhenStepsEmpty(t *testing.T) {
	out := ToSSE(events.PlanUpdated(&plan.Plan{}))
	assert.Nil(t, out)
}

func TestToolCallingOnlyEmittedForInteractiveTools(t *testing.T) {
	interactive := ToSSE(events.ToolCalling("shell", "shell_exec", nil))
	require.Len(t, interactive, 1)
	assert.Equal(t, "tool", interactive[0].Type)

	search := ToSSE(events.ToolCalling("search", "info_search_web", nil))
	assert.Nil(t, search)
}

func TestToolCalledOnlyEmittedForSearch(t *testing.T) {
	search := ToSSE(events.ToolCalled("search", "info_search_web", nil, "results"))
	require.Len(t, search, 1)
	assert.Equal(t, "tool", search[0].Type)

	shell := ToSSE(events.ToolCalled("shell", "shell_exec", nil, "output"))
	assert.Nil(t, shell)
}

func TestStepFailedEmitsStepThenError(t *testing.T) {
	step := &plan.Step{ID: "1", Status: plan.StatusFailed, Error: "boom"}
	out := ToSSE(events.StepFailed(step, &plan.Plan{}))

	require.Len(t, out, 2)
	assert.Equal(t, "step", out[0].Type)
	assert.Equal(t, "error", out[1].Type)
}

func TestStepCompletedEmitsStepThenMessage(t *testing.T) {
	step := &plan.Step{ID: "1", Status: plan.StatusCompleted, Result: "done"}
	out := ToSSE(events.StepCompleted(step, &plan.Plan{}))

	require.Len(t, out, 2)
	assert.Equal(t, "step", out[0].Type)
	assert.Equal(t, "message", out[1].Type)
}

func TestDoneAndErrorMapDirectly(t *testing.T) {
	done := ToSSE(events.Done())
	require.Len(t, done, 1)
	assert.Equal(t, "done", done[0].Type)

	errOut := ToSSE(events.Err("bad"))
	require.Len(t, errOut, 1)
	assert.Equal(t, "error", errOut[0].Type)
}
