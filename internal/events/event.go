// Package events defines the closed set of domain events the reasoning
// loop, the planner, the executor, and the Plan/Act flow yield. Their
// projection onto the SSE wire format lives in package sse.
package events

import "github.com/sandboxkernel/kernel/internal/plan"

// Kind identifies which variant an Event carries. Each Kind populates only
// the fields its constructor below sets (none for Done).
type Kind string

const (
	KindError         Kind = "error"
	KindPlanCreated    Kind = "plan_created"
	KindPlanUpdated    Kind = "plan_updated"
	KindToolCalling    Kind = "tool_calling"
	KindToolCalled     Kind = "tool_called"
	KindStepStarted    Kind = "step_started"
	KindStepFailed     Kind = "step_failed"
	KindStepCompleted  Kind = "step_completed"
	KindPlanCompleted  Kind = "plan_completed"
	KindMessage        Kind = "message"
	KindDone           Kind = "done"
)

// Event is a tagged union over every domain event kind.
type Event struct {
	Kind Kind

	Error string

	Plan *plan.Plan
	Step *plan.Step

	ToolName     string
	FunctionName string
	FunctionArgs map[string]any
	FunctionResult any

	Message string
}

func Err(err string) Event { return Event{Kind: KindError, Error: err} }

func PlanCreated(p *plan.Plan) Event { return Event{Kind: KindPlanCreated, Plan: p} }

func PlanUpdated(p *plan.Plan) Event { return Event{Kind: KindPlanUpdated, Plan: p} }

func ToolCalling(toolName, functionName string, args map[string]any) Event {
	return Event{Kind: KindToolCalling, ToolName: toolName, FunctionName: functionName, FunctionArgs: args}
}

func ToolCalled(toolName, functionName string, args map[string]any, result any) Event {
	return Event{Kind: KindToolCalled, ToolName: toolName, FunctionName: functionName, FunctionArgs: args, FunctionResult: result}
}

func StepStarted(s *plan.Step, p *plan.Plan) Event { return Event{Kind: KindStepStarted, Step: s, Plan: p} }

func StepFailed(s *plan.Step, p *plan.Plan) Event { return Event{Kind: KindStepFailed, Step: s, Plan: p} }

func StepCompleted(s *plan.Step, p *plan.Plan) Event { return Event{Kind: KindStepCompleted, Step: s, Plan: p} }

func PlanCompleted(p *plan.Plan) Event { return Event{Kind: KindPlanCompleted, Plan: p} }

func Message(msg string) Event { return Event{Kind: KindMessage, Message: msg} }

func Done() Event { return Event{Kind: KindDone} }
