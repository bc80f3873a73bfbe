package diskv

import (
	"context"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/authclient/client/auth/store"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	backend := New(dir)
	_, err := backend.Load(ctx, store.RefreshTokenKey)
	assert.True(t, trace.IsNotFound(err))
	require.NoError(t, backend.Delete(ctx, store.RefreshTokenKey))

	s := store.New(backend)
	s.Set(ctx, store.RefreshTokenKey, "R1")

	value, ok := store.New(New(dir)).Get(ctx, store.RefreshTokenKey)
	assert.True(t, ok)
	assert.Equal(t, "R1", value)

	s.ClearAll(ctx)
	_, ok = store.New(New(dir)).Get(ctx, store.RefreshTokenKey)
	assert.False(t, ok)
}
