// Package flow implements the Plan/Act finite state machine that drives an
// agent from a free-form instruction to a completed plan: plan, execute
// each step, re-plan after each step, repeat until every step is done.
package flow

import (
	"context"
	"iter"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/executor"
	"github.com/sandboxkernel/kernel/internal/plan"
	"github.com/sandboxkernel/kernel/internal/planner"
)

// Status is the flow's current state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPlanning  Status = "planning"
	StatusExecuting Status = "executing"
	StatusUpdating  Status = "updating"
	StatusCompleted Status = "completed"
)

// Flow owns one agent's planner, executor, and current plan, and drives
// the Plan/Act state machine across chat turns.
type Flow struct {
	status   Status
	plan     *plan.Plan
	planner  *planner.Planner
	executor *executor.Executor
}

func New(p *planner.Planner, e *executor.Executor) *Flow {
	return &Flow{status: StatusIdle, planner: p, executor: e}
}

func (f *Flow) IsIdle() bool { return f.status == StatusIdle }

// Run drives the state machine for one incoming message. If the flow was
// not idle (a prior run was interrupted mid-flight), it first forces the
// state back to planning and rolls back both agents' Memory so the
// partially-applied turn is undone before resuming.
func (f *Flow) Run(ctx context.Context, message string) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		if !f.IsIdle() {
			f.status = StatusPlanning
			f.planner.RollBack()
			f.executor.RollBack()
		}

		for {
			switch f.status {
			case StatusIdle:
				f.status = StatusPlanning

			case StatusPlanning:
				ok := true
				for ev, err := range f.planner.CreatePlan(ctx, message) {
					if err != nil {
						yield(events.Event{}, err)
						return
					}
					if ev.Kind == events.KindPlanCreated {
						f.plan = ev.Plan
					}
					if !yield(ev, nil) {
						ok = false
						break
					}
				}
				if !ok {
					return
				}
				if f.plan == nil || len(f.plan.Steps) == 0 {
					f.status = StatusCompleted
					continue
				}
				f.status = StatusExecuting

			case StatusExecuting:
				f.plan.Status = plan.StatusRunning
				step := f.plan.NextStep()
				if step == nil {
					f.status = StatusCompleted
					continue
				}
				ok := true
				for ev, err := range f.executor.ExecuteStep(ctx, f.plan, step) {
					if err != nil {
						yield(events.Event{}, err)
						return
					}
					if !yield(ev, nil) {
						ok = false
						break
					}
				}
				if !ok {
					return
				}
				f.status = StatusUpdating

			case StatusUpdating:
				ok := true
				for ev, err := range f.planner.UpdatePlan(ctx, f.plan) {
					if err != nil {
						yield(events.Event{}, err)
						return
					}
					if !yield(ev, nil) {
						ok = false
						break
					}
				}
				if !ok {
					return
				}
				f.status = StatusExecuting

			case StatusCompleted:
				if f.plan != nil {
					f.plan.Status = plan.StatusCompleted
					if !yield(events.PlanCompleted(f.plan), nil) {
						return
					}
				}
				f.status = StatusIdle
				yield(events.Done(), nil)
				return
			}
		}
	}
}
