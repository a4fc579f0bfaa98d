package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextStepReturnsFirstNonTerminalStep(t *testing.T) {
	p := &Plan{Steps: []Step{
		{ID: "1", Status: StatusCompleted},
		{ID: "2", Status: StatusFailed},
		{ID: "3", Status: StatusPending},
		{ID: "4", Status: StatusPending},
	}}

	next := p.NextStep()
	assert.Equal(t, "3", next.ID)
}

func TestNextStepReturnsNilWhenAllStepsAreDone(t *testing.T) {
	p := &Plan{Steps: []Step{
		{ID: "1", Status: StatusCompleted},
		{ID: "2", Status: StatusFailed},
	}}

	assert.Nil(t, p.NextStep())
}

func TestNextStepOnEmptyPlanReturnsNil(t *testing.T) {
	p := &Plan{}
	assert.Nil(t, p.NextStep())
}

func TestStepIsDone(t *testing.T) {
	assert.False(t, (&Step{Status: StatusPending}).IsDone())
	assert.False(t, (&Step{Status: StatusRunning}).IsDone())
	assert.True(t, (&Step{Status: StatusCompleted}).IsDone())
	assert.True(t, (&Step{Status: StatusFailed}).IsDone())
}

func TestPlanIsDone(t *testing.T) {
	assert.True(t, (&Plan{Status: StatusCompleted}).IsDone())
	assert.True(t, (&Plan{Status: StatusFailed}).IsDone())
	assert.False(t, (&Plan{Status: StatusPending}).IsDone())
	assert.False(t, (&Plan{Status: StatusRunning}).IsDone())
}
