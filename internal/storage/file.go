package storage

import (
	"encoding/json"
	"os"
	"sync"
)

// File is the durable scope: a single JSON document flushed on every
// mutation. Load errors are ignored so a damaged state file degrades to a
// fresh session instead of wedging startup.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]json.RawMessage
}

func NewFile(path string) *File {
	f := &File{path: path, data: make(map[string]json.RawMessage)}
	if b, err := os.ReadFile(path); err == nil {
		var loaded map[string]json.RawMessage
		if json.Unmarshal(b, &loaded) == nil && loaded != nil {
			f.data = loaded
		}
	}
	return f
}

func (f *File) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *File) Set(key string, val []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !json.Valid(val) {
		// store as a JSON string so the document stays parseable
		b, err := json.Marshal(string(val))
		if err != nil {
			return
		}
		val = b
	}
	f.data[key] = json.RawMessage(val)
	f.flushLocked()
}

func (f *File) Delete(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	f.flushLocked()
}

func (f *File) flushLocked() {
	b, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, f.path)
}
