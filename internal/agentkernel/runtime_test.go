package agentkernel

import (
	"context"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandboxkernel/kernel/internal/events"
	"github.com/sandboxkernel/kernel/internal/llm"
)

// zeroStepPlanProvider always returns an empty plan, so a flow run
// completes after a single planner call without ever touching the
// executor or its tools.
type zeroStepPlanProvider struct{}

func (zeroStepPlanProvider) Generate(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (llm.Response, error) {
	return llm.Response{Text: `{"message":"ok","goal":"g","title":"t","steps":[]}`}, nil
}

func (zeroStepPlanProvider) GenerateStreaming(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not implemented")
}
func (zeroStepPlanProvider) ModelName() string { return "fake" }
func (zeroStepPlanProvider) Close() error      { return nil }

func TestNewAgentIDIsSixteenHexChars(t *testing.T) {
	id := newAgentID()
	require.Len(t, id, 16)
	_, err := hex.DecodeString(id)
	assert.NoError(t, err)
}

func drainUntilDone(t *testing.T, seq func(func(events.Event, error) bool)) []events.Kind {
	t.Helper()
	var kinds []events.Kind
	seq(func(ev events.Event, err error) bool {
		require.NoError(t, err)
		kinds = append(kinds, ev.Kind)
		return ev.Kind != events.KindDone
	})
	return kinds
}

// TestChatRepeatingDuplicateMessageYieldsImmediateDoneWhenIdle exercises
// scenario S6: a non-empty message resent with the same timestamp while
// the flow is idle must not be enqueued again; it must yield a synthetic
// done immediately instead of reading events meant for the prior call.
func TestChatRepeatingDuplicateMessageYieldsImmediateDoneWhenIdle(t *testing.T) {
	rt := New()
	agent := rt.CreateAgent(CreateAgentParams{
		ModelName:  "fake",
		Provider:   zeroStepPlanProvider{},
		SandboxURL: "http://sandbox.invalid",
		BrowserURL: "http://browser.invalid",
	})
	defer rt.CloseAgent(context.Background(), agent.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := drainUntilDone(t, rt.Chat(ctx, agent.ID, "x", 1))
	require.Contains(t, first, events.KindDone)

	second := drainUntilDone(t, rt.Chat(ctx, agent.ID, "x", 1))
	assert.Equal(t, []events.Kind{events.KindDone}, second)
}
