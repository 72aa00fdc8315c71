package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Memory is a process-local Cache for single-instance runs and tests.
// Expired entries are dropped lazily on read.
type Memory struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	val     []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]memItem), now: time.Now}
}

func (m *Memory) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, dst); err != nil {
		delete(m.items, key)
		return false, nil
	}
	return true, nil
}

func (m *Memory) SetJSON(_ context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.set(key, b, ttl)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.items, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) UpdateJSON(_ context.Context, key string, dst any, ttl time.Duration, fn func(found bool) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	if b, ok := m.get(key); ok {
		found = json.Unmarshal(b, dst) == nil
	}
	if err := fn(found); err != nil {
		return err
	}
	b, err := json.Marshal(dst)
	if err != nil {
		return err
	}
	m.set(key, b, ttl)
	return nil
}

func (m *Memory) get(key string) ([]byte, bool) {
	it, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if !it.expires.IsZero() && !m.now().Before(it.expires) {
		delete(m.items, key)
		return nil, false
	}
	return it.val, true
}

func (m *Memory) set(key string, b []byte, ttl time.Duration) {
	it := memItem{val: b}
	if ttl > 0 {
		it.expires = m.now().Add(ttl)
	}
	m.items[key] = it
}
