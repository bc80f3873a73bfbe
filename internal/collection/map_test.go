package collection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncMap(t *testing.T) {
	m := NewSyncMap[string, int]()
	m.Put("a", 1)
	m.Put("b", 2)

	v, ok := m.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, m.Len())

	values := m.Values()
	sort.Ints(values)
	assert.Equal(t, []int{1, 2}, values)

	assert.True(t, m.Delete("a"))
	assert.False(t, m.Delete("a"))
	_, ok = m.Get("a")
	assert.False(t, ok)

	visited := 0
	m.Range(func(key string, value int) bool {
		visited++
		m.Put("c", 3) // mutation during iteration must not deadlock
		return true
	})
	assert.Equal(t, 1, visited)
	assert.Equal(t, 2, m.Len())
}
