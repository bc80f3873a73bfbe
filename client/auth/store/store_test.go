package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	saves   int
	deletes int
}

func (f *failingBackend) Load(context.Context, string) (string, error) {
	return "", errors.New("storage unavailable")
}

func (f *failingBackend) Save(context.Context, string, string) error {
	f.saves++
	return errors.New("quota exceeded")
}

func (f *failingBackend) Delete(context.Context, string) error {
	f.deletes++
	return errors.New("storage unavailable")
}

func TestCredentialStore(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s := NewMemoryStore()
		_, ok := s.Get(ctx, AccessTokenKey)
		assert.False(t, ok)

		s.Set(ctx, AccessTokenKey, "A1")
		s.Set(ctx, AccessTokenKey, "A2")
		value, ok := s.Get(ctx, AccessTokenKey)
		assert.True(t, ok)
		assert.Equal(t, "A2", value)

		s.Set(ctx, RefreshTokenKey, "R1")
		s.ClearAll(ctx)
		_, ok = s.Get(ctx, AccessTokenKey)
		assert.False(t, ok)
		_, ok = s.Get(ctx, RefreshTokenKey)
		assert.False(t, ok)
	})

	t.Run("durable backend survives new store", func(t *testing.T) {
		backend := NewMemoryBackend()
		New(backend).Set(ctx, AccessTokenKey, "A1")

		value, ok := New(backend).Get(ctx, AccessTokenKey)
		assert.True(t, ok)
		assert.Equal(t, "A1", value)
	})

	t.Run("namespace isolates instances", func(t *testing.T) {
		backend := NewMemoryBackend()
		New(backend, WithNamespace("dashboard")).Set(ctx, AccessTokenKey, "A1")

		_, ok := New(backend, WithNamespace("admin")).Get(ctx, AccessTokenKey)
		assert.False(t, ok)
		value, ok := New(backend, WithNamespace("dashboard")).Get(ctx, AccessTokenKey)
		assert.True(t, ok)
		assert.Equal(t, "A1", value)
	})

	t.Run("failing backend degrades to session", func(t *testing.T) {
		backend := &failingBackend{}
		s := New(backend)

		_, ok := s.Get(ctx, AccessTokenKey)
		assert.False(t, ok)

		s.Set(ctx, AccessTokenKey, "A1")
		assert.Equal(t, 1, backend.saves)
		value, ok := s.Get(ctx, AccessTokenKey)
		assert.True(t, ok)
		assert.Equal(t, "A1", value)

		s.Clear(ctx, AccessTokenKey)
		assert.Equal(t, 1, backend.deletes)
		_, ok = s.Get(ctx, AccessTokenKey)
		assert.False(t, ok)
	})
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewFileBackend("mem://localhost/authclient/creds")

	s := New(backend)
	s.SetCredentials(ctx, &Credentials{AccessToken: "A1", RefreshToken: "R1"})

	reloaded := New(backend)
	creds := reloaded.Credentials(ctx)
	assert.Equal(t, &Credentials{AccessToken: "A1", RefreshToken: "R1"}, creds)

	// an empty refresh token keeps the previous one
	reloaded.SetCredentials(ctx, &Credentials{AccessToken: "A2"})
	assert.Equal(t, &Credentials{AccessToken: "A2", RefreshToken: "R1"}, New(backend).Credentials(ctx))

	reloaded.ClearAll(ctx)
	assert.Equal(t, &Credentials{}, New(backend).Credentials(ctx))
	require.NoError(t, backend.Delete(ctx, AccessTokenKey))
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.TokenSource(ctx).Token()
	assert.Error(t, err)

	expiry := time.Now().Add(time.Hour).Truncate(time.Second)
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user",
		"exp": expiry.Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	s.SetCredentials(ctx, &Credentials{AccessToken: accessToken, RefreshToken: "R1"})
	token, err := s.TokenSource(ctx).Token()
	require.NoError(t, err)
	assert.Equal(t, accessToken, token.AccessToken)
	assert.Equal(t, "R1", token.RefreshToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.True(t, token.Expiry.Equal(expiry))
	assert.True(t, token.Valid())

	_, ok := AccessTokenExpiry("opaque-token")
	assert.False(t, ok)
}
