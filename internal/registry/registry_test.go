package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTool implements Tool for testing.
type fakeTool struct {
	name    string
	params  *Schema
	calls   int
	execute func(ctx context.Context, args map[string]any) (string, error)
}

func (f *fakeTool) Name() string        { return f.name }
func (f *fakeTool) Description() string { return "fake " + f.name }
func (f *fakeTool) Definition() Definition {
	return Definition{Name: f.name, Description: f.Description(), Parameters: f.params}
}
func (f *fakeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	f.calls++
	if f.execute != nil {
		return f.execute(ctx, args)
	}
	return "ok", nil
}

func TestRegister_DuplicateEnabledName(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(&fakeTool{name: "echo"}, TierReadOnly))

	err := r.Register(&fakeTool{name: "echo"}, TierReadOnly)

	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "echo", conflict.Name)
}

func TestRegister_ReplacesDisabledEntry(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(&fakeTool{name: "echo"}, TierReadOnly))
	require.True(t, r.Disable("echo"))

	err := r.Register(&fakeTool{name: "echo"}, TierWrite)

	require.NoError(t, err)
	entry, err := r.Resolve("echo")
	require.NoError(t, err)
	assert.Equal(t, TierWrite, entry.Tier)
}

func TestDispatch_UnknownToolNeverInvokesHandler(t *testing.T) {
	r := New(nil)
	tool := &fakeTool{name: "real"}
	require.NoError(t, r.Register(tool, TierReadOnly))

	_, err := r.Dispatch(context.Background(), "imaginary", nil)

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "imaginary", unknown.Name)
	assert.Zero(t, tool.calls)
}

func TestDispatch_DisabledToolIsUnknown(t *testing.T) {
	r := New(nil)
	tool := &fakeTool{name: "echo"}
	require.NoError(t, r.Register(tool, TierReadOnly))
	r.Disable("echo")

	_, err := r.Dispatch(context.Background(), "echo", nil)

	var unknown *UnknownToolError
	assert.ErrorAs(t, err, &unknown)
	assert.Zero(t, tool.calls)
}

func TestDispatch_ValidationFailureSkipsHandler(t *testing.T) {
	r := New(nil)
	tool := &fakeTool{
		name: "write_file",
		params: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"path":    {Type: "string"},
				"content": {Type: "string"},
			},
			Required: []string{"path", "content"},
		},
	}
	require.NoError(t, r.Register(tool, TierWrite))

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{"path": "a.txt"}},
		{"wrong type", map[string]any{"path": 42, "content": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Dispatch(context.Background(), "write_file", tt.args)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Zero(t, tool.calls)
		})
	}
}

func TestDispatch_ValidArgsReachHandler(t *testing.T) {
	r := New(nil)
	var got map[string]any
	tool := &fakeTool{
		name: "count",
		params: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"text":  {Type: "string"},
				"limit": {Type: "integer"},
				"paths": {Type: "array", Items: &Schema{Type: "string"}},
			},
			Required: []string{"text"},
		},
		execute: func(_ context.Context, args map[string]any) (string, error) {
			got = args
			return "3", nil
		},
	}
	require.NoError(t, r.Register(tool, TierReadOnly))

	out, err := r.Dispatch(context.Background(), "count", map[string]any{
		"text":  "a b c",
		"limit": float64(10),
		"paths": []any{"x", "y"},
	})

	require.NoError(t, err)
	assert.Equal(t, "3", out)
	assert.Equal(t, "a b c", got["text"])
}

func TestDispatch_EnumViolation(t *testing.T) {
	r := New(nil)
	tool := &fakeTool{
		name: "git_ops",
		params: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"action": {Type: "string", Enum: []string{"status", "diff", "log", "commit"}},
			},
			Required: []string{"action"},
		},
	}
	require.NoError(t, r.Register(tool, TierWrite))

	_, err := r.Dispatch(context.Background(), "git_ops", map[string]any{"action": "push"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestDefinitions_SortedAndEnabledOnly(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Register(&fakeTool{name: "zeta"}, TierReadOnly))
	require.NoError(t, r.Register(&fakeTool{name: "alpha"}, TierReadOnly))
	require.NoError(t, r.Register(&fakeTool{name: "mid"}, TierReadOnly))
	r.Disable("mid")

	defs := r.Definitions()

	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "zeta", defs[1].Name)
}

func TestDispatch_HandlerErrorPropagates(t *testing.T) {
	r := New(nil)
	boom := errors.New("boom")
	tool := &fakeTool{
		name:    "explode",
		execute: func(context.Context, map[string]any) (string, error) { return "", boom },
	}
	require.NoError(t, r.Register(tool, TierReadOnly))

	_, err := r.Dispatch(context.Background(), "explode", nil)

	assert.ErrorIs(t, err, boom)
}
