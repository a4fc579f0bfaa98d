package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/llm"
)

func TestEffectiveKeepsOnlyLatestSystemMessage(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleSystem, Content: "first system"})
	m.Add(llm.Message{Role: llm.RoleUser, Content: "hello"})
	m.Add(llm.Message{Role: llm.RoleSystem, Content: "second system"})
	m.Add(llm.Message{Role: llm.RoleAssistant, Content: "hi"})

	eff := m.Effective()
	require.Len(t, eff, 3)
	assert.Equal(t, "hello", eff[0].Content)
	assert.Equal(t, "hi", eff[1].Content)
	assert.Equal(t, llm.RoleSystem, eff[2].Role)
	assert.Equal(t, "second system", eff[2].Content)
}

func TestEffectiveWithNoSystemMessageReturnsAll(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleUser, Content: "a"})
	m.Add(llm.Message{Role: llm.RoleAssistant, Content: "b"})

	assert.Equal(t, m.All(), m.Effective())
}

func TestRollbackPopsOrphanToolResult(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleUser, Content: "do it"})
	m.Add(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "1", Name: "t"}}})
	m.Add(llm.Message{Role: llm.RoleTool, ToolCallID: "1", Content: "result"})

	m.Rollback()

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, llm.RoleAssistant, all[1].Role)
}

func TestRollbackPopsTrailingUserMessage(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleAssistant, Content: "done"})
	m.Add(llm.Message{Role: llm.RoleUser, Content: "never mind"})

	m.Rollback()

	assert.Equal(t, 1, m.Len())
}

func TestRollbackIsNoOpWhenTailIsAssistant(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleUser, Content: "q"})
	m.Add(llm.Message{Role: llm.RoleAssistant, Content: "a"})

	m.Rollback()

	assert.Equal(t, 2, m.Len())
}

func TestRollbackIsNoOpWhenTwoToolMessagesInARow(t *testing.T) {
	m := New()
	m.Add(llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "1"}}})
	m.Add(llm.Message{Role: llm.RoleTool, ToolCallID: "1", Content: "r1"})
	m.Add(llm.Message{Role: llm.RoleTool, ToolCallID: "1", Content: "r2"})

	m.Rollback()

	assert.Equal(t, 3, m.Len())
}

func TestRollbackOnEmptyMemoryIsNoOp(t *testing.T) {
	m := New()
	m.Rollback()
	assert.Equal(t, 0, m.Len())
}
