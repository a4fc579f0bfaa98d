// Package sse projects the kernel's domain events onto the wire format an
// HTTP client consumes as Server-Sent Events: a deterministic, often
// one-to-many mapping from a single domain event to zero or more typed
// wire events.
package sse

import (
	"strings"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/plan"
)

// WireEvent is one Server-Sent Event: Type becomes the SSE "event:" field,
// Data is marshaled as the "data:" field.
type WireEvent struct {
	Type string
	Data any
}

type titleData struct {
	Title string `json:"title"`
}

type messageData struct {
	Content string `json:"content"`
}

type toolData struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Function string `json:"function"`
	Args     map[string]any `json:"args"`
	Result   any            `json:"result,omitempty"`
}

type stepData struct {
	Status      string `json:"status"`
	ID          string `json:"id"`
	Description string `json:"description"`
}

type errorData struct {
	Error string `json:"error"`
}

type planData struct {
	Steps []stepData `json:"steps"`
}

type baseData struct{}

// toolCategory groups a tool's individual function name into the coarse
// category the frontend renders an icon for. The interactive tools
// (browser, file, shell, message) are shown while they're being called;
// the search tool has no useful partial state mid-call and is shown only
// once it has returned, so it is intentionally absent from this set and
// handled separately in ToSSE.
func toolCategory(functionName string) string {
	switch {
	case strings.HasPrefix(functionName, "shell_"):
		return "shell"
	case strings.HasPrefix(functionName, "file_"):
		return "file"
	case strings.HasPrefix(functionName, "browser_"):
		return "browser"
	case strings.HasPrefix(functionName, "message_"):
		return "message"
	case strings.HasPrefix(functionName, "info_search_"):
		return "search"
	default:
		return functionName
	}
}

// ToSSE projects one domain event into zero or more wire events, in the
// order they must be sent.
func ToSSE(ev events.Event) []WireEvent {
	switch ev.Kind {
	case events.KindPlanCreated:
		var out []WireEvent
		if ev.Plan.Title != "" {
			out = append(out, WireEvent{Type: "title", Data: titleData{Title: ev.Plan.Title}})
		}
		out = append(out, WireEvent{Type: "message", Data: messageData{Content: ev.Plan.Message}})
		if len(ev.Plan.Steps) > 0 {
			out = append(out, WireEvent{Type: "plan", Data: planStepsData(ev.Plan.Steps)})
		}
		return out

	case events.KindPlanUpdated, events.KindPlanCompleted:
		if len(ev.Plan.Steps) == 0 {
			return nil
		}
		return []WireEvent{{Type: "plan", Data: planStepsData(ev.Plan.Steps)}}

	case events.KindToolCalling:
		category := toolCategory(ev.FunctionName)
		if category != "browser" && category != "file" && category != "shell" && category != "message" {
			return nil
		}
		return []WireEvent{{Type: "tool", Data: toolData{
			Name: category, Status: "calling", Function: ev.FunctionName, Args: ev.FunctionArgs,
		}}}

	case events.KindToolCalled:
		category := toolCategory(ev.FunctionName)
		if category != "search" {
			return nil
		}
		return []WireEvent{{Type: "tool", Data: toolData{
			Name: category, Status: "called", Function: ev.FunctionName, Args: ev.FunctionArgs, Result: ev.FunctionResult,
		}}}

	case events.KindStepStarted, events.KindStepCompleted, events.KindStepFailed:
		out := []WireEvent{{Type: "step", Data: stepData{
			Status: string(ev.Step.Status), ID: ev.Step.ID, Description: ev.Step.Description,
		}}}
		if ev.Step.Error != "" {
			out = append(out, WireEvent{Type: "error", Data: errorData{Error: ev.Step.Error}})
		}
		if ev.Step.Result != "" {
			out = append(out, WireEvent{Type: "message", Data: messageData{Content: ev.Step.Result}})
		}
		return out

	case events.KindDone:
		return []WireEvent{{Type: "done", Data: baseData{}}}

	case events.KindError:
		return []WireEvent{{Type: "error", Data: errorData{Error: ev.Error}}}

	default:
		return nil
	}
}

func planStepsData(steps []plan.Step) planData {
	out := make([]stepData, len(steps))
	for i, s := range steps {
		out[i] = stepData{Status: string(s.Status), ID: s.ID, Description: s.Description}
	}
	return planData{Steps: out}
}
