// Package memory implements the append-only conversation log shared by the
// planner and the executor, including the rollback predicate that undoes a
// partially-applied turn when a flow is interrupted mid-flight.
package memory

import (
	"sync"

	"github.com/sandboxkernel/kernel/internal/llm"
)

// Memory is an append-only log of llm.Message, safe for concurrent use by
// the single worker goroutine that owns an agent plus any read-only
// inspection from the HTTP layer.
type Memory struct {
	mu       sync.RWMutex
	messages []llm.Message
}

func New() *Memory {
	return &Memory{}
}

// Add appends a message to the log.
func (m *Memory) Add(msg llm.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

// All returns a copy of every message in the log, in order.
func (m *Memory) All() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]llm.Message, len(m.messages))
	copy(out, m.messages)
	return out
}

// Effective returns the message list the LLM should see for its next turn:
// identical to All, except that if more than one system message is
// present only the latest one is kept, so a plan update's fresh system
// prompt supersedes the one from plan creation rather than stacking.
func (m *Memory) Effective() []llm.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lastSystem := -1
	for i, msg := range m.messages {
		if msg.Role == llm.RoleSystem {
			lastSystem = i
		}
	}
	if lastSystem == -1 {
		out := make([]llm.Message, len(m.messages))
		copy(out, m.messages)
		return out
	}

	out := make([]llm.Message, 0, len(m.messages))
	for i, msg := range m.messages {
		if msg.Role == llm.RoleSystem && i != lastSystem {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// Rollback removes the tail of the log left by an interrupted turn.
//
// The predicate, preserved exactly from the system this was distilled
// from: pop the last entry if it is a tool message AND the entry before
// it is NOT a tool message (i.e. exactly one tool result was appended
// after the assistant's tool_calls turn; only that result is popped — the
// assistant turn that requested it is left for the next planning pass to
// see and decide whether to retry).
// Otherwise, pop the last entry if it is a user message (an instruction
// that never got a response). Otherwise, do nothing: there is no
// half-applied turn to undo.
func (m *Memory) Rollback() {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.messages)
	if n == 0 {
		return
	}

	last := m.messages[n-1]
	if last.Role == llm.RoleTool {
		if n < 2 || m.messages[n-2].Role != llm.RoleTool {
			m.messages = m.messages[:n-1]
		}
		return
	}
	if last.Role == llm.RoleUser {
		m.messages = m.messages[:n-1]
	}
}

// Len reports the number of messages currently held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
