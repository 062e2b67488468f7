package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedTool(name string) *FunctionTool {
	return NewFunctionTool(name, "test tool", map[string]any{"type": "object"},
		func(*Context, map[string]any) (any, error) { return name, nil })
}

func TestNewRegistryValidatesAtConstruction(t *testing.T) {
	tests := []struct {
		name    string
		tools   []Tool
		wantErr bool
	}{
		{name: "empty", tools: nil},
		{name: "distinct names", tools: []Tool{namedTool("a"), namedTool("b")}},
		{name: "duplicate name", tools: []Tool{namedTool("a"), namedTool("a")}, wantErr: true},
		{name: "empty name", tools: []Tool{namedTool("")}, wantErr: true},
		{name: "nil tool", tools: []Tool{nil}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRegistry(tt.tools...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, r)
			} else {
				require.NoError(t, err)
				assert.Equal(t, len(tt.tools), r.Len())
			}
		})
	}
}

func TestRegistryInvoke(t *testing.T) {
	r := MustNewRegistry(namedTool("fetch_meetings"))

	result, err := r.Invoke(newTestContext(), "fetch_meetings", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "fetch_meetings", result)
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	r := MustNewRegistry(namedTool("fetch_meetings"))

	_, err := r.Invoke(newTestContext(), "delete_everything", map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestRegistryNamesSorted(t *testing.T) {
	r := MustNewRegistry(namedTool("zeta"), namedTool("alpha"), namedTool("mid"))
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
}

func TestMustNewRegistryPanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		MustNewRegistry(namedTool("a"), namedTool("a"))
	})
}
