package collection

import "sync"

// SyncMap is a map guarded by a RWMutex.
type SyncMap[K comparable, V any] struct {
	m   map[K]V
	mux sync.RWMutex
}

func (m *SyncMap[K, V]) Get(k K) (V, bool) {
	m.mux.RLock()
	defer m.mux.RUnlock()
	v, ok := m.m[k]
	return v, ok
}

func (m *SyncMap[K, V]) Put(k K, v V) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.m[k] = v
}

// Delete removes k and reports whether it was present.
func (m *SyncMap[K, V]) Delete(k K) bool {
	m.mux.Lock()
	defer m.mux.Unlock()
	if _, ok := m.m[k]; ok {
		delete(m.m, k)
		return true
	}
	return false
}

func (m *SyncMap[K, V]) Len() int {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return len(m.m)
}

// Values returns a snapshot of the stored values, so callers can invoke
// them without holding the lock.
func (m *SyncMap[K, V]) Values() []V {
	m.mux.RLock()
	defer m.mux.RUnlock()
	ret := make([]V, 0, len(m.m))
	for _, v := range m.m {
		ret = append(ret, v)
	}
	return ret
}

// Range iterates over a snapshot of the map until f returns false.
func (m *SyncMap[K, V]) Range(f func(key K, value V) bool) {
	m.mux.RLock()
	snapshot := make(map[K]V, len(m.m))
	for k, v := range m.m {
		snapshot[k] = v
	}
	m.mux.RUnlock()
	for k, v := range snapshot {
		if !f(k, v) {
			return
		}
	}
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{m: make(map[K]V)}
}
