package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by a KV after Close.
var ErrClosed = errors.New("storage: closed")

// KV is a string-keyed byte store. Every ledger slot lives under one key.
type KV interface {
	// Get returns the value for key; ok is false when the key was never set.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Entry is one key and value of a batch write.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by a KV that can write several keys atomically.
type Batcher interface {
	SetBatch(ctx context.Context, entries []Entry) error
}

// Invalidator is implemented by a KV that holds values which may have gone
// stale because another process wrote the same backing store.
type Invalidator interface {
	Invalidate()
}

// SetBatch writes entries in one step when kv is a Batcher and one at a time
// otherwise, stopping at the first error.
func SetBatch(ctx context.Context, kv KV, entries []Entry) error {
	if b, ok := kv.(Batcher); ok {
		return b.SetBatch(ctx, entries)
	}
	for _, e := range entries {
		if err := kv.Set(ctx, e.Key, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// MemoryKV keeps values in process memory. It backs tests and the memory backend.
type MemoryKV struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// SetBatch writes every entry under one lock.
func (m *MemoryKV) SetBatch(_ context.Context, entries []Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	for _, e := range entries {
		m.data[e.Key] = append([]byte(nil), e.Value...)
	}
	return nil
}

func (m *MemoryKV) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
