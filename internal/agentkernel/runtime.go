// Package agentkernel implements the Agent Runtime: it owns the set of
// live agents, each with its own planner/executor Memory, sandbox
// session, and background worker goroutine that drains queued chat
// messages through the Plan/Act flow and republishes the resulting
// domain events to callers.
package agentkernel

import (
	"context"
	"encoding/hex"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sandboxkernel/kernel/internal/browserclient"
	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/executor"
	"github.com/sandboxkernel/kernel/internal/flow"
	"github.com/sandboxkernel/kernel/internal/llm"
	"github.com/sandboxkernel/kernel/internal/memory"
	"github.com/sandboxkernel/kernel/internal/planner"
	"github.com/sandboxkernel/kernel/internal/sandboxclient"
	"github.com/sandboxkernel/kernel/internal/searchclient"
	"github.com/sandboxkernel/kernel/internal/toolkit"
	"github.com/sandboxkernel/kernel/internal/tools"
)

// queueCapacity bounds the inbound message and outbound event queues per
// agent. Unlike the system this was distilled from (unbounded asyncio
// queues), a bounded channel is the idiomatic Go shape; a chat caller that
// floods an agent faster than it can drain blocks on send rather than
// growing memory without limit.
const queueCapacity = 256

// Agent is one live agent: its identity plus the Memory instances its
// planner and executor read and mutate.
type Agent struct {
	ID          string
	ModelName   string
	Temperature float64
	MaxTokens   int

	PlannerMemory   *memory.Memory
	ExecutionMemory *memory.Memory
}

type agentContext struct {
	agent   *Agent
	flow    *flow.Flow
	sandbox *sandboxclient.Client

	msgQueue   chan string
	eventQueue chan events.Event

	mu              sync.Mutex
	lastMessage     string
	lastMessageTime int64

	cancel context.CancelFunc
	done   chan struct{}
}

// Runtime is the Agent Runtime: the registry of live agents and their
// background workers.
type Runtime struct {
	mu       sync.RWMutex
	contexts map[string]*agentContext
}

func New() *Runtime {
	return &Runtime{contexts: make(map[string]*agentContext)}
}

// CreateAgentParams bundles everything needed to wire one agent's tool
// registry and flow.
type CreateAgentParams struct {
	ModelName    string
	Provider     llm.Provider
	SandboxURL   string
	BrowserURL   string
	SearchClient *searchclient.Client // nil disables the web search tool
	Temperature  float64
	MaxTokens    int
}

// CreateAgent allocates a new Agent, wires its planner and executor onto a
// fresh tool registry bound to its own sandbox and browser sessions, and
// starts its background worker goroutine.
func (r *Runtime) CreateAgent(p CreateAgentParams) *Agent {
	agent := &Agent{
		ID:              newAgentID(),
		ModelName:       p.ModelName,
		Temperature:     p.Temperature,
		MaxTokens:       p.MaxTokens,
		PlannerMemory:   memory.New(),
		ExecutionMemory: memory.New(),
	}

	sandbox := sandboxclient.New(p.SandboxURL)
	browser := browserclient.New(p.BrowserURL)

	registry := toolkit.NewRegistry()
	for _, t := range []toolkit.Tool{
		tools.NewShellExec(sandbox),
		tools.NewShellView(sandbox),
		tools.NewShellWait(sandbox),
		tools.NewShellWriteToProcess(sandbox),
		tools.NewShellKillProcess(sandbox),
		tools.NewFileWrite(sandbox),
		tools.NewFileRead(sandbox),
		tools.NewFileExists(sandbox),
		tools.NewFileDelete(sandbox),
		tools.NewFileList(sandbox),
		tools.NewFileReplace(sandbox),
		tools.NewFileSearch(sandbox),
		tools.NewFileFind(sandbox),
		tools.NewBrowserView(browser),
		tools.NewBrowserNavigate(browser),
		tools.NewBrowserRestart(browser),
		tools.NewBrowserClick(browser),
		tools.NewBrowserInput(browser),
		tools.NewBrowserMoveMouse(browser),
		tools.NewBrowserPressKey(browser),
		tools.NewBrowserSelectOption(browser),
		tools.NewBrowserScrollUp(browser),
		tools.NewBrowserScrollDown(browser),
		tools.NewBrowserConsoleExec(browser),
		tools.NewBrowserConsoleView(browser),
		tools.NewMessageNotifyUser(),
	} {
		if err := registry.Register(t); err != nil {
			slog.Warn("failed to register tool", "tool", t.Name(), "error", err)
		}
	}
	if p.SearchClient != nil {
		if err := registry.Register(tools.NewInfoSearchWeb(p.SearchClient)); err != nil {
			slog.Warn("failed to register search tool", "error", err)
		}
	}

	pl := planner.New(agent.PlannerMemory, p.Provider)
	ex := executor.New(agent.ExecutionMemory, p.Provider, registry)
	fl := flow.New(pl, ex)

	ctx, cancel := context.WithCancel(context.Background())
	ac := &agentContext{
		agent:      agent,
		flow:       fl,
		sandbox:    sandbox,
		msgQueue:   make(chan string, queueCapacity),
		eventQueue: make(chan events.Event, queueCapacity),
		cancel:     cancel,
		done:       make(chan struct{}),
	}

	r.mu.Lock()
	r.contexts[agent.ID] = ac
	r.mu.Unlock()

	go r.runFlowTask(ctx, agent.ID, ac)

	slog.Info("agent created", "agent_id", agent.ID, "model", p.ModelName)
	return agent
}

// newAgentID returns the 16-hex-char agent id: the first 8 bytes of a
// uuid.v4, hex-encoded.
func newAgentID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:8])
}

func (r *Runtime) GetAgent(agentID string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ac, ok := r.contexts[agentID]
	if !ok {
		return nil, false
	}
	return ac.agent, true
}

func (r *Runtime) HasAgent(agentID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contexts[agentID]
	return ok
}

func (r *Runtime) GetSandbox(agentID string) (*sandboxclient.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ac, ok := r.contexts[agentID]
	if !ok {
		return nil, false
	}
	return ac.sandbox, true
}

// Chat enqueues message (unless it is a duplicate resend of the same
// message at the same timestamp) and streams the agent's resulting
// domain events until a Done event arrives.
func (r *Runtime) Chat(ctx context.Context, agentID, message string, timestamp int64) iter.Seq2[events.Event, error] {
	return func(yield func(events.Event, error) bool) {
		r.mu.RLock()
		ac, ok := r.contexts[agentID]
		r.mu.RUnlock()
		if !ok {
			yield(events.Err("Agent not initialized"), nil)
			return
		}

		ac.mu.Lock()
		duplicate := message != "" && ac.lastMessage == message && ac.lastMessageTime == timestamp
		skipped := message == "" || duplicate
		if !skipped {
			ac.lastMessage = message
			ac.lastMessageTime = timestamp
		}
		ac.mu.Unlock()

		if !skipped {
			select {
			case ac.msgQueue <- message:
			case <-ctx.Done():
				yield(events.Event{}, ctx.Err())
				return
			}
		} else if ac.flow.IsIdle() {
			yield(events.Done(), nil)
			return
		}

		for {
			select {
			case ev := <-ac.eventQueue:
				if !yield(ev, nil) {
					return
				}
				if ev.Kind == events.KindDone {
					return
				}
			case <-ctx.Done():
				yield(events.Event{}, ctx.Err())
				return
			case <-ac.done:
				return
			}
		}
	}
}

// runFlowTask drains ac.msgQueue, running each message through the flow
// and forwarding every event to ac.eventQueue. If another message arrives
// while a flow run is still streaming, the event just produced is
// forwarded and the current run is then abandoned (its remaining events,
// including its done, are never sent) so the newer message is picked up.
func (r *Runtime) runFlowTask(ctx context.Context, agentID string, ac *agentContext) {
	defer close(ac.done)
	for {
		select {
		case <-ctx.Done():
			return
		case message := <-ac.msgQueue:
			r.runOnce(ctx, agentID, ac, message)
		}
	}
}

func (r *Runtime) runOnce(ctx context.Context, agentID string, ac *agentContext, message string) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("agent task panicked", "agent_id", agentID, "panic", rec)
			ac.eventQueue <- events.Err(fmt.Sprintf("Task error: %v", rec))
			ac.eventQueue <- events.Done()
		}
	}()

	for ev, err := range ac.flow.Run(ctx, message) {
		if err != nil {
			slog.Error("agent task encountered an error", "agent_id", agentID, "error", err)
			ac.eventQueue <- events.Err(fmt.Sprintf("Task error: %s", err))
			ac.eventQueue <- events.Done()
			return
		}
		ac.eventQueue <- ev
		if len(ac.msgQueue) > 0 {
			return
		}
	}
}

// CloseAgent cancels the agent's worker goroutine, waits for it to exit,
// and destroys its sandbox session.
func (r *Runtime) CloseAgent(ctx context.Context, agentID string) bool {
	r.mu.Lock()
	ac, ok := r.contexts[agentID]
	if ok {
		delete(r.contexts, agentID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	ac.cancel()
	<-ac.done

	if err := ac.sandbox.Destroy(ctx); err != nil {
		slog.Warn("failed to destroy sandbox", "agent_id", agentID, "error", err)
	}
	slog.Info("agent closed", "agent_id", agentID)
	return true
}

// CloseAll closes every live agent concurrently, used for graceful server
// shutdown: each agent's sandbox teardown is an independent HTTP round
// trip, so an errgroup fans them out instead of closing one at a time.
func (r *Runtime) CloseAll(ctx context.Context) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.contexts))
	for id := range r.contexts {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			r.CloseAgent(gctx, id)
			return nil
		})
	}
	_ = g.Wait()
}
