// Package kernel is the agent orchestration kernel: it hosts long-lived
// agents that turn a free-form instruction into a Plan, execute that
// plan step by step against a remote sandbox (shell, file I/O, a
// controlled browser, and optional web search), and stream progress back
// as a sequence of typed domain events.
//
// # Quick Start
//
// Install the daemon:
//
//	go install github.com/sandboxkernel/kernel/cmd/kerneld@latest
//
// Start it against a running sandbox:
//
//	ANTHROPIC_API_KEY=... KERNEL_SANDBOX_URL=http://localhost:8090 kerneld serve
//
// Create an agent and chat with it:
//
//	curl -X POST localhost:8080/agents
//	curl -N -X POST localhost:8080/agents/<id>/chat \
//	    -d '{"message": "find the largest file under /tmp", "timestamp": 1}'
//
// # Architecture
//
//	client → Agent Runtime → Plan/Act Flow → Planner / Executor → Reasoning Loop → LLM + Tool Registry → Sandbox
//
// Each agent owns one worker goroutine, one inbound message queue, and
// one outbound event queue; the HTTP layer projects the event queue onto
// Server-Sent Events. See internal/agentkernel for the runtime and
// internal/flow for the state machine that drives Planner and Executor.
//
// # Scope
//
// The kernel does not persist agents or plans across restarts, does not
// isolate tenants beyond per-agent sandboxes, and treats the LLM's output
// as adversarial-but-cooperative rather than trusted.
package kernel
