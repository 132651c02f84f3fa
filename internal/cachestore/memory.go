package cachestore

import (
	"errors"
	"sort"
	"sync"
)

// MemoryStore is a goroutine-safe in-memory Store.
type MemoryStore struct {
	mu       sync.RWMutex
	versions map[string]map[string]*Entry
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string]map[string]*Entry)}
}

// Open implements Store.
func (s *MemoryStore) Open(version string) (Cache, error) {
	if version == "" {
		return nil, errors.New("cache version must not be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.versions[version]; !ok {
		s.versions[version] = make(map[string]*Entry)
	}
	return &memoryCache{store: s, name: version}, nil
}

// Versions implements Store.
func (s *MemoryStore) Versions() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.versions))
	for name := range s.versions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, version)
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type memoryCache struct {
	store *MemoryStore
	name  string
}

func (c *memoryCache) Name() string { return c.name }

func (c *memoryCache) Match(key string) (*Entry, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	entry, ok := c.store.versions[c.name][key]
	if !ok {
		return nil, nil
	}
	cp := *entry
	return &cp, nil
}

func (c *memoryCache) Put(key string, entry *Entry) error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.store.closed {
		return ErrClosed
	}
	bucket, ok := c.store.versions[c.name]
	if !ok {
		return ErrVersionDeleted
	}
	cp := *entry
	bucket[key] = &cp
	return nil
}

func (c *memoryCache) Keys() ([]string, error) {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	keys := make([]string, 0, len(c.store.versions[c.name]))
	for k := range c.store.versions[c.name] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
