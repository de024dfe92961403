package util

import (
	"sync"
)

type SafeMap[K comparable, V any] struct {
	lock sync.RWMutex
	mp   map[K]V
}

func NewSafeMap[K comparable, V any]() *SafeMap[K, V] {
	return &SafeMap[K, V]{
		mp: make(map[K]V),
	}
}

func (m *SafeMap[K, V]) Get(key K) (V, bool) {
	m.lock.RLock()
	v, ok := m.mp[key]
	m.lock.RUnlock()
	return v, ok
}

func (m *SafeMap[K, V]) Set(key K, v V) {
	m.lock.Lock()
	m.mp[key] = v
	m.lock.Unlock()
}

// SetIfAbsent stores v only when key is missing and reports whether it did.
func (m *SafeMap[K, V]) SetIfAbsent(key K, v V) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	if _, ok := m.mp[key]; ok {
		return false
	}
	m.mp[key] = v
	return true
}

func (m *SafeMap[K, V]) Items() map[K]V {
	m.lock.RLock()
	n := make(map[K]V, len(m.mp))
	for k, v := range m.mp {
		n[k] = v
	}
	m.lock.RUnlock()
	return n
}
