package store

import (
	"sync"
)

// Memory is an in-memory store, used when no database is configured.
type Memory struct {
	mu   sync.RWMutex
	recs []Record
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Seq = int64(len(m.recs)) + 1
	m.recs = append(m.recs, *rec)
	return nil
}

func (m *Memory) List() ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := make([]Record, len(m.recs))
	copy(r, m.recs)
	return r, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}
