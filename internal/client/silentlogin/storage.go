package silentlogin

import (
	"maps"
	"slices"
	"sync"
)

// KeyValueStore is browser-style local or session storage.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Keys() []string
}

// CookieStore exposes cookies readable by the page, including ones shared across subdomains.
type CookieStore interface {
	Get(name string) (string, bool)
}

// MemoryStore is a KeyValueStore kept in process.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]

	return v, ok
}

func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
}

func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.values))
}

// StaticCookies is a read-only CookieStore.
type StaticCookies map[string]string

func (c StaticCookies) Get(name string) (string, bool) {
	v, ok := c[name]

	return v, ok && v != ""
}
