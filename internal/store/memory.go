package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore keeps values in process memory. It implements both Store, using
// a single implicit scope, and ScopedBackend.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]string)}
}

const defaultScope = ""

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	return m.GetScoped(ctx, defaultScope, key)
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	return m.SetScoped(ctx, defaultScope, key, value)
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	return m.DeleteScoped(ctx, defaultScope, key)
}

func (m *MemoryStore) GetScoped(ctx context.Context, scope, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if strings.TrimSpace(key) == "" {
		return "", false, ErrEmptyKey
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[scope][key]
	return value, ok, nil
}

func (m *MemoryStore) SetScoped(ctx context.Context, scope, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	bucket, ok := m.values[scope]
	if !ok {
		bucket = make(map[string]string)
		m.values[scope] = bucket
	}
	bucket[key] = value
	return nil
}

func (m *MemoryStore) DeleteScoped(ctx context.Context, scope, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if bucket, ok := m.values[scope]; ok {
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(m.values, scope)
		}
	}
	return nil
}

// Scopes reports how many scopes currently hold at least one key.
func (m *MemoryStore) Scopes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// Close is a no-op kept for parity with durable backends.
func (m *MemoryStore) Close() error { return nil }
