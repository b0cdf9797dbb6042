// Package storage persists the record collection through an opaque
// key-value blob store and migrates legacy record shapes at the
// boundary, so the rest of the system only ever sees current-shape
// records.
package storage

import (
	"context"
	"sync"
)

// BlobStore is the persistence boundary: opaque payloads under fixed
// keys. Implementations must be safe for concurrent use.
type BlobStore interface {
	// Get returns the payload for key. The second return is false when
	// the key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores the payload under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

// MemoryBlobStore is an in-process BlobStore for tests and the
// zero-setup dev backend.
type MemoryBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	if !ok {
		return nil, false, nil
	}
	out := append([]byte(nil), v...)
	return out, true, nil
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), value...)
	return nil
}
