// Package cache backs the resolver's per-URL response cache. Entries carry
// their own TTL; a missing or expired entry is simply a miss, never an error.
package cache

import (
	"context"
	"sync"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

type entry struct {
	v   []byte
	exp time.Time
}

// Memory is the default cache when no Redis address is configured.
type Memory struct {
	mu    sync.RWMutex
	store map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{store: make(map[string]entry), now: time.Now}
}

// NewMemoryWithClock is for tests that need deterministic expiry.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{store: make(map[string]entry), now: now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	e, ok := m.store[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if m.now().After(e.exp) {
		m.mu.Lock()
		delete(m.store, key)
		m.mu.Unlock()
		return nil, false
	}
	return e.v, true
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	m.mu.Lock()
	m.store[key] = entry{v: val, exp: m.now().Add(ttl)}
	m.mu.Unlock()
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.mu.Lock()
	delete(m.store, key)
	m.mu.Unlock()
}
