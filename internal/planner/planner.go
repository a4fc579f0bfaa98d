// Package planner implements the Planner component: it turns a free-form
// user instruction into a structured Plan, and revises that plan's
// remaining steps after each step the executor completes.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/plan"
	"github.com/sandboxkernel/kernel/internal/reasoning"
)

// Planner wraps a reasoning.Agent with no tools (it only ever talks, it
// never touches the sandbox) and the plan-shaped JSON prompts.
type Planner struct {
	agent *reasoning.Agent
}

func New(mem *memory.Memory, provider llm.Provider) *Planner {
	a := reasoning.New(mem, provider, nil, systemPrompt)
	a.JSONFormat = true
	return &Planner{agent: a}
}

func (p *Planner) RollBack() { p.agent.RollBack() }

type planResponse struct {
	Message string `json:"message"`
	Goal    string `json:"goal"`
	Title   string `json:"title"`
	Steps   []struct {
		ID          string `json:"id"`
		Description string `json:"description"`
	} `json:"steps"`
}

// CreatePlan generates a fresh Plan from the user's message. The
// returned events.Event stream carries a PlanCreated event once the model
// responds with valid plan JSON; the returned *plan.Plan pointer inside it
// is owned by the caller (the Plan/Act flow).
func (p *Planner) CreatePlan(ctx context.Context, userMessage string) iter.Seq2[events.Event, error] {
	prompt := fmt.Sprintf(createPlanPrompt, userMessage)
	return func(yield func(events.Event, error) bool) {
		for ev, err := range p.agent.Run(ctx, prompt) {
			if err != nil {
				yield(events.Event{}, err)
				return
			}
			if ev.Kind != events.KindMessage {
				if !yield(ev, nil) {
					return
				}
				continue
			}

			var parsed planResponse
			if err := json.Unmarshal([]byte(ev.Message), &parsed); err != nil {
				yield(events.Event{}, fmt.Errorf("planner: parse plan response: %w", err))
				return
			}
			steps := make([]plan.Step, 0, len(parsed.Steps))
			for _, s := range parsed.Steps {
				steps = append(steps, plan.Step{ID: s.ID, Description: s.Description, Status: plan.StatusPending})
			}
			newPlan := &plan.Plan{
				ID:      fmt.Sprintf("plan_%d", len(steps)),
				Title:   parsed.Title,
				Goal:    parsed.Goal,
				Steps:   steps,
				Message: parsed.Message,
				Status:  plan.StatusPending,
			}
			yield(events.PlanCreated(newPlan), nil)
		}
	}
}

// UpdatePlan revises the plan's remaining (not-yet-done) steps in place.
func (p *Planner) UpdatePlan(ctx context.Context, pl *plan.Plan) iter.Seq2[events.Event, error] {
	planJSON, _ := json.Marshal(struct {
		Steps []plan.Step `json:"steps"`
	}{Steps: pl.Steps})
	prompt := fmt.Sprintf(updatePlanPrompt, pl.Goal, string(planJSON))

	return func(yield func(events.Event, error) bool) {
		for ev, err := range p.agent.Run(ctx, prompt) {
			if err != nil {
				yield(events.Event{}, err)
				return
			}
			if ev.Kind != events.KindMessage {
				if !yield(ev, nil) {
					return
				}
				continue
			}

			var parsed struct {
				Steps []struct {
					ID          string `json:"id"`
					Description string `json:"description"`
				} `json:"steps"`
			}
			if err := json.Unmarshal([]byte(ev.Message), &parsed); err != nil {
				yield(events.Event{}, fmt.Errorf("planner: parse plan update: %w", err))
				return
			}

			newSteps := make([]plan.Step, 0, len(parsed.Steps))
			for _, s := range parsed.Steps {
				newSteps = append(newSteps, plan.Step{ID: s.ID, Description: s.Description, Status: plan.StatusPending})
			}

			firstPending := -1
			for i, s := range pl.Steps {
				if !s.IsDone() {
					firstPending = i
					break
				}
			}
			if firstPending != -1 {
				pl.Steps = append(pl.Steps[:firstPending:firstPending], newSteps...)
			}
			yield(events.PlanUpdated(pl), nil)
		}
	}
}
