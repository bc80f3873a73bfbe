package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gravitational/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/authclient/client/auth/store"
)

func TestBackend(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "credentials.db")

	backend, err := New(dbPath)
	require.NoError(t, err)

	_, err = backend.Load(ctx, store.AccessTokenKey)
	assert.True(t, trace.IsNotFound(err))

	require.NoError(t, backend.Save(ctx, store.AccessTokenKey, "A1"))
	require.NoError(t, backend.Save(ctx, store.AccessTokenKey, "A2"))
	value, err := backend.Load(ctx, store.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "A2", value)
	require.NoError(t, backend.Close())

	// reopening applies migrations idempotently and keeps the data
	backend, err = New(dbPath)
	require.NoError(t, err)
	defer backend.Close()

	s := store.New(backend, store.WithNamespace("dashboard"))
	s.SetCredentials(ctx, &store.Credentials{AccessToken: "A3", RefreshToken: "R3"})
	assert.Equal(t, &store.Credentials{AccessToken: "A3", RefreshToken: "R3"}, store.New(backend, store.WithNamespace("dashboard")).Credentials(ctx))

	value, err = backend.Load(ctx, "dashboard."+store.AccessTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "A3", value)

	require.NoError(t, backend.Delete(ctx, store.AccessTokenKey))
	_, err = backend.Load(ctx, store.AccessTokenKey)
	assert.True(t, trace.IsNotFound(err))
}
