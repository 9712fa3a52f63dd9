package sessions

import (
	"sync"
)

// Store is the key-value persistence behind a console session. It mirrors
// the browser storage the console was designed around: string values,
// absent keys, and deletes that are no-ops when nothing is stored.
type Store interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	lock   sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
	}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	value, ok := m.values[key]
	return value, ok
}

func (m *MemoryStore) Set(key string, value string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.values, key)
	return nil
}

// Snapshot returns a copy of every stored value.
func (m *MemoryStore) Snapshot() map[string]string {
	m.lock.RLock()
	defer m.lock.RUnlock()

	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}
