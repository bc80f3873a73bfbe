package store

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
)

const (
	// AccessTokenKey names the access token slot.
	AccessTokenKey = "access_token"
	// RefreshTokenKey names the refresh token slot.
	RefreshTokenKey = "refresh_token"
)

// Store is a key-value store for the access and refresh credentials.
type Store interface {
	// Get returns the stored value, false when absent or unreadable.
	Get(ctx context.Context, name string) (string, bool)
	// Set stores value, overwriting any prior one.
	Set(ctx context.Context, name, value string)
	// Clear removes the named value.
	Clear(ctx context.Context, name string)
	// ClearAll removes both credential slots.
	ClearAll(ctx context.Context)
}

// Backend is the durable substrate behind a CredentialStore.
// Load reports a missing key with trace.NotFound.
type Backend interface {
	Load(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Option func(*CredentialStore)

// WithNamespace scopes the slots of this store, so several application
// instances can share one backend.
func WithNamespace(namespace string) Option {
	return func(s *CredentialStore) {
		s.namespace = namespace
	}
}

// WithLogger sets logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *CredentialStore) {
		s.log = log
	}
}

// CredentialStore is a Store with a session layer in front of an optional
// durable backend.
type CredentialStore struct {
	mu        sync.RWMutex
	session   map[string]string
	backend   Backend
	namespace string
	log       logrus.FieldLogger
}

// New creates a CredentialStore. A nil backend keeps values for the process
// lifetime only.
func New(backend Backend, options ...Option) *CredentialStore {
	ret := &CredentialStore{
		session: map[string]string{},
		backend: backend,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.log = ret.log.WithField("component", "credential-store")
	return ret
}

// NewMemoryStore creates a session-only store.
func NewMemoryStore(options ...Option) *CredentialStore {
	return New(nil, options...)
}

func (s *CredentialStore) key(name string) string {
	if s.namespace == "" {
		return name
	}
	return s.namespace + "." + name
}

func (s *CredentialStore) Get(ctx context.Context, name string) (string, bool) {
	key := s.key(name)
	s.mu.RLock()
	value, ok := s.session[key]
	s.mu.RUnlock()
	if ok {
		return value, value != ""
	}
	if s.backend == nil {
		return "", false
	}
	value, err := s.backend.Load(ctx, key)
	if err != nil {
		if !trace.IsNotFound(err) {
			s.log.WithError(err).WithField("key", key).Debug("Failed to load credential, treating as absent")
		}
		return "", false
	}
	if value == "" {
		return "", false
	}
	s.mu.Lock()
	if _, written := s.session[key]; !written {
		s.session[key] = value
	}
	s.mu.Unlock()
	return value, true
}

func (s *CredentialStore) Set(ctx context.Context, name, value string) {
	key := s.key(name)
	s.mu.Lock()
	s.session[key] = value
	s.mu.Unlock()
	if s.backend == nil {
		return
	}
	if err := s.backend.Save(ctx, key, value); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("Failed to persist credential, keeping it for this session only")
	}
}

func (s *CredentialStore) Clear(ctx context.Context, name string) {
	key := s.key(name)
	s.mu.Lock()
	s.session[key] = "" // tombstone, a failed backend delete must not resurrect the value
	s.mu.Unlock()
	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, key); err != nil && !trace.IsNotFound(err) {
		s.log.WithError(err).WithField("key", key).Warn("Failed to delete persisted credential")
	}
}

func (s *CredentialStore) ClearAll(ctx context.Context) {
	s.Clear(ctx, AccessTokenKey)
	s.Clear(ctx, RefreshTokenKey)
}
