// Package executor implements the Executor component: it carries out one
// plan step at a time using the tool registry, reporting progress and the
// step's outcome as domain events.
package executor

import (
	"context"
	"fmt"
	"iter"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/plan"
	"github.com/sandboxkernel/kernel/internal/reasoning"
	"github.com/sandboxkernel/kernel/internal/toolkit"
)

// Executor wraps a reasoning.Agent bound to the full tool registry.
type Executor struct {
	agent *reasoning.Agent
}

func New(mem *memory.Memory, provider llm.Provider, tools *toolkit.Registry) *Executor {
	return &Executor{agent: reasoning.New(mem, provider, tools, systemPrompt)}
}

func (e *Executor) RollBack() { e.agent.RollBack() }

// ExecuteStep runs one plan step to completion (or failure), mutating the
// step's and plan's Status/Result/Error fields in place as it goes and
// yielding StepStarted, StepFailed, or StepCompleted alongside the
// underlying reasoning events.
func (e *Executor) ExecuteStep(ctx context.Context, p *plan.Plan, step *plan.Step) iter.Seq2[events.Event, error] {
	prompt := fmt.Sprintf(stepPrompt, p.Goal, step.Description)

	return func(yield func(events.Event, error) bool) {
		step.Status = plan.StatusRunning
		if !yield(events.StepStarted(step, p), nil) {
			return
		}

		for ev, err := range e.agent.Run(ctx, prompt) {
			if err != nil {
				step.Status = plan.StatusFailed
				step.Error = err.Error()
				yield(events.StepFailed(step, p), nil)
				return
			}

			if ev.Kind == events.KindError {
				step.Status = plan.StatusFailed
				step.Error = ev.Error
				yield(events.StepFailed(step, p), nil)
				return
			}

			if ev.Kind == events.KindMessage {
				step.Status = plan.StatusCompleted
				step.Result = ev.Message
				if !yield(events.StepCompleted(step, p), nil) {
					return
				}
				if !yield(ev, nil) {
					return
				}
				continue
			}

			if !yield(ev, nil) {
				return
			}
		}

		step.Status = plan.StatusCompleted
	}
}
