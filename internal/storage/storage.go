// Package storage is the client-side persisted state: the Go counterpart of
// the browser's session and local storage. Everything is best-effort JSON;
// a corrupted or missing entry reads as absent, never as an error.
package storage

import (
	"encoding/json"
	"sync"
)

// Well-known keys.
const (
	KeyUser         = "session.user"
	KeyLastActivity = "session.lastActivity"
	KeyRemember     = "session.remember"
	KeyPendingTrip  = "ride.pending"
	KeyTripHistory  = "trips.history"
	KeyContacts     = "safety.contacts"
)

// KV is a scoped key/value store. The session scope lives for the process;
// the durable scope survives restarts.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte)
	Delete(key string)
}

// PutJSON marshals v into the store; marshal failures are dropped silently,
// matching the write-through-storage contract.
func PutJSON(kv KV, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	kv.Set(key, b)
}

// GetJSON reports whether key held a well-formed value of out's shape.
func GetJSON(kv KV, key string, out any) bool {
	b, ok := kv.Get(key)
	if !ok {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *Memory) Set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}
