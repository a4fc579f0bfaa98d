package toolkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoParams struct {
	Text  string `json:"text" jsonschema:"required,description=text to echo"`
	Count int    `json:"count,omitempty"`
}

type echoTool struct{ name string }

func (t *echoTool) Name() string        { return t.name }
func (t *echoTool) Description() string { return "echoes text back" }
func (t *echoTool) NewParams() any      { return &echoParams{} }
func (t *echoTool) Call(_ context.Context, params any) (string, error) {
	return params.(*echoParams).Text, nil
}

func TestRegisterRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "echo"}))
	err := r.Register(&echoTool{name: "echo"})
	assert.Error(t, err)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	err := r.Register(&echoTool{name: ""})
	assert.Error(t, err)
}

func TestDispatchDecodesArgsAndCallsTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "echo"}))

	result, err := r.Dispatch(context.Background(), "echo", map[string]any{"text": "hi", "count": 3})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestDispatchUnknownToolFails(t *testing.T) {
	r := NewRegistry()
	_, err := r.Dispatch(context.Background(), "missing", nil)
	assert.Error(t, err)
}

func TestSchemaReflectsParamsStruct(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "echo"}))

	schema, err := r.Schema("echo")
	require.NoError(t, err)
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	_, hasText := props["text"]
	assert.True(t, hasText)
}

func TestNamesListsEveryRegisteredTool(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&echoTool{name: "a"}))
	require.NoError(t, r.Register(&echoTool{name: "b"}))

	names := r.Names()
	assert.ElementsMatch(t, []string{"a", "b"}, names)
}
