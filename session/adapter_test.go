package session

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdapter(t *testing.T) {
	ctx := context.Background()
	adapter := NewMemoryAdapter()

	require.NoError(t, adapter.Set(ctx, "session/x", json.RawMessage(`"1"`)))
	require.NoError(t, adapter.Set(ctx, "session/a", json.RawMessage(`"2"`)))
	require.NoError(t, adapter.Set(ctx, "invocation/a", json.RawMessage(`"3"`)))

	raw, ok, err := adapter.Get(ctx, "session/x")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, json.RawMessage(`"1"`), raw)

	keys, err := adapter.Keys(ctx, "session/")
	require.NoError(t, err)
	assert.Equal(t, []string{"session/a", "session/x"}, keys)

	require.NoError(t, adapter.Delete(ctx, "session/x"))
	require.NoError(t, adapter.Delete(ctx, "missing"))
	_, ok, err = adapter.Get(ctx, "session/x")
	require.NoError(t, err)
	assert.False(t, ok)
}
