package artifact

import (
	"path"
	"sort"
	"sync"
)

// InMemoryStore is an in-process core.ArtifactStore. It keeps all artifacts
// in a nested map guarded by an RWMutex. Data is copied on save and retrieval
// to avoid accidental external mutation of internal buffers.
//
// Layout: namespace -> name -> raw bytes
type InMemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]map[string][]byte
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{artifacts: make(map[string]map[string][]byte)}
}

// Save stores (or overwrites) the artifact bytes and returns the location
// "mem://namespace/name".
func (a *InMemoryStore) Save(namespace, name string, data []byte) (string, error) {
	if err := checkName(namespace, name); err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.artifacts[namespace]; !exists {
		a.artifacts[namespace] = make(map[string][]byte)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.artifacts[namespace][name] = cp
	return "mem://" + path.Join(namespace, name), nil
}

// Get returns a copy of the stored artifact bytes or ErrNotFound.
func (a *InMemoryStore) Get(namespace, name string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	data, ok := a.artifacts[namespace][name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List returns the sorted artifact names stored in the namespace.
func (a *InMemoryStore) List(namespace string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.artifacts[namespace]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the artifact if present or returns ErrNotFound.
func (a *InMemoryStore) Delete(namespace, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.artifacts[namespace]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[name]; !ok {
		return ErrNotFound
	}
	delete(m, name)
	return nil
}
