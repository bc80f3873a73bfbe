package store

import (
	"context"
	"sync"

	"github.com/gravitational/trace"
)

type memoryBackend struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryBackend returns a Backend that lives as long as the process.
// Sharing one memory backend between stores emulates a shared durable
// substrate in tests.
func NewMemoryBackend() Backend {
	return &memoryBackend{values: map[string]string{}}
}

func (m *memoryBackend) Load(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	if !ok {
		return "", trace.NotFound("credential %q not found", key)
	}
	return value, nil
}

func (m *memoryBackend) Save(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
