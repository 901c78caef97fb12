package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Storage. Nothing survives Close.
type Memory struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

var _ Storage = (*Memory)(nil)

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

// GetItem returns a copy of the value stored under key.
func (m *Memory) GetItem(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.items[key]
	return slices.Clone(v), ok, nil
}

// SetItem stores a copy of value under key.
func (m *Memory) SetItem(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	m.items[key] = slices.Clone(value)
	return nil
}

// RemoveItem deletes key.
func (m *Memory) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.items, key)
	return nil
}

// Close marks the storage closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
