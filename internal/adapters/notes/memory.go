package notes

import (
	"context"
	"sync"
)

type periodKey struct {
	employee string
	period   string
}

// Memory is a Store backed by a map.
type Memory struct {
	mu    sync.RWMutex
	notes map[periodKey]map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{notes: make(map[periodKey]map[string]string)}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key Key) (string, error) {
	if err := key.validate(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notes[periodKey{key.Employee, key.Period}][key.KPI], nil
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key Key, text string) error {
	if err := key.validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	pk := periodKey{key.Employee, key.Period}
	if text == "" {
		delete(m.notes[pk], key.KPI)
		if len(m.notes[pk]) == 0 {
			delete(m.notes, pk)
		}
		return nil
	}
	if m.notes[pk] == nil {
		m.notes[pk] = make(map[string]string)
	}
	m.notes[pk][key.KPI] = text
	return nil
}

// List implements Store.
func (m *Memory) List(_ context.Context, employee, period string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.notes[periodKey{employee, period}]))
	for k, v := range m.notes[periodKey{employee, period}] {
		out[k] = v
	}
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
