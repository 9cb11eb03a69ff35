package storage

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store. It honours the same quota rules as
// SQLiteStore and lets tests count writes and inject failures.
type MemoryStore struct {
	mu     sync.Mutex
	data   map[string]string
	quota  int64
	writes map[string]int

	// FailSet, when non-nil, is consulted before every Set; a non-nil
	// return is reported instead of writing.
	FailSet func(key string) error
}

func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{
		data:   map[string]string{},
		quota:  quotaBytes,
		writes: map[string]int{},
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSet != nil {
		if err := m.FailSet(key); err != nil {
			return err
		}
	}
	if m.quota > 0 {
		var used int64
		for k, v := range m.data {
			if k != key {
				used += int64(len(k) + len(v))
			}
		}
		if used+int64(len(key)+len(value)) > m.quota {
			return ErrQuotaExceeded
		}
	}
	m.data[key] = value
	m.writes[key]++
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Writes returns how many successful Set calls targeted key.
func (m *MemoryStore) Writes(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[key]
}

// Raw overwrites key without quota checks or write counting, for
// simulating external corruption.
func (m *MemoryStore) Raw(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}
