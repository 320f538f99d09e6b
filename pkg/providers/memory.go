package providers

import (
	"fmt"
	"sync"

	"github.com/confsync/confsync/pkg/values"
)

// Memory keeps trees in a process-local map. It exists for tests and for
// hosts that want the conversion engine without disk persistence.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]values.Value
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string]values.Value)}
}

// Load returns the tree stored under path.
func (m *Memory) Load(path string) (values.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tree, ok := m.docs[path]
	if !ok {
		return values.Null(), fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return tree, nil
}

// Store replaces the tree under path.
func (m *Memory) Store(tree values.Value, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[path] = tree
	return nil
}
